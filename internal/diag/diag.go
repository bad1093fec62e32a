// Package diag defines the error types reported while reading inputs and
// checking the symbol model.
package diag

import (
	"fmt"
	"strings"
)

// ParseError reports malformed or incomplete input. Trace holds the
// human-readable steps that were in progress, outermost first.
type ParseError struct {
	Trace []string
	File  string
	Line  int
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	for i, step := range e.Trace {
		b.WriteString(strings.Repeat(" ", i))
		b.WriteString(step)
		b.WriteString(":\n")
	}
	if e.File != "" {
		if e.Line > 0 {
			fmt.Fprintf(&b, "%s:%d: ", e.File, e.Line)
		} else {
			fmt.Fprintf(&b, "%s: ", e.File)
		}
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		if e.Msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnresolvedReference is a declaration id that points at nothing.
type UnresolvedReference struct {
	Kind string // what was being resolved, e.g. "type", "context", "base"
	ID   string
	From string // the referring declaration
}

func (e *UnresolvedReference) Error() string {
	if e.From != "" {
		return fmt.Sprintf("unknown %s reference id %s in %s", e.Kind, e.ID, e.From)
	}
	return fmt.Sprintf("unknown %s reference id %s", e.Kind, e.ID)
}

// MismatchKind says which part of a signature disagreed with its shape.
type MismatchKind string

const (
	MismatchReturn   MismatchKind = "return"
	MismatchArity    MismatchKind = "arity"
	MismatchArgument MismatchKind = "argument"
)

// SignatureMismatch reports a function whose declared C signature does not
// match the shape its name or signature requires.
type SignatureMismatch struct {
	Function string
	Shape    string
	Kind     MismatchKind
	Index    int // 1-based argument position for MismatchArgument
	Got      string
	Want     string
	Ideal    string
}

func (e *SignatureMismatch) Error() string {
	var what string
	switch e.Kind {
	case MismatchReturn:
		what = fmt.Sprintf("wrong return type %s, expected %s", e.Got, e.Want)
	case MismatchArity:
		what = fmt.Sprintf("wrong number of arguments %s, expected %s", e.Got, e.Want)
	default:
		what = fmt.Sprintf("wrong argument #%d %s, expected %s", e.Index, e.Got, e.Want)
	}
	return fmt.Sprintf("function %s has %s\nshould be like: %s", e.Function, what, e.Ideal)
}

// Stack accumulates the steps in progress so a failure deep inside a
// parse can say where it happened.
type Stack struct {
	steps []string
}

// Push enters a step.
func (s *Stack) Push(format string, args ...any) {
	s.steps = append(s.steps, fmt.Sprintf(format, args...))
}

// Pop leaves the innermost step. Popping an empty stack is a no-op.
func (s *Stack) Pop() {
	if len(s.steps) > 0 {
		s.steps = s.steps[:len(s.steps)-1]
	}
}

// Depth returns the number of active steps.
func (s *Stack) Depth() int {
	return len(s.steps)
}

// Errorf returns a ParseError carrying a snapshot of the current trace.
func (s *Stack) Errorf(format string, args ...any) *ParseError {
	return &ParseError{Trace: s.snapshot(), Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns a ParseError around err carrying the current trace.
func (s *Stack) Wrap(err error, format string, args ...any) *ParseError {
	return &ParseError{Trace: s.snapshot(), Msg: fmt.Sprintf(format, args...), Err: err}
}

func (s *Stack) snapshot() []string {
	return append([]string(nil), s.steps...)
}

// ToolError reports an external program that could not be run or exited
// with a failure status.
type ToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
