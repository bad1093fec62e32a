package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/lolpig/internal/ctypes"
	"github.com/phobologic/lolpig/internal/diag"
)

// CallKind is the PyMethodDef flag set a method table entry uses.
type CallKind string

const (
	NoArgs          CallKind = "METH_NOARGS"
	SingleObject    CallKind = "METH_O"
	VarArgs         CallKind = "METH_VARARGS"
	VarArgsKeywords CallKind = "METH_VARARGS | METH_KEYWORDS"
)

// objectArgName is the argument name that selects METH_O for a binary method.
const objectArgName = "OBJ"

func isSlotMethod(name string) bool     { return ctypes.IsSlotMethod(name) }
func isNumberMethod(name string) bool   { return ctypes.IsNumberMethod(name) }
func isSequenceMethod(name string) bool { return ctypes.IsSequenceMethod(name) }

// Classify returns the shape the function must have. Properties map to the
// getter or setter shape; special class methods map by name; everything
// else by exact signature. ok is false for unclassified functions.
func (f *Function) Classify() (shape string, ok bool) {
	if f.IsProperty {
		if f.IsSetter {
			return ctypes.Setter, true
		}
		return ctypes.Getter, true
	}
	if f.IsClassMethod() {
		if s, ok := ctypes.ShapeFor(f.PyNameSingle()); ok {
			return s, true
		}
	}
	if f.ReturnType == PyObject && allObjects(f.Arguments) {
		switch len(f.Arguments) {
		case 1:
			return ctypes.UnaryFunc, true
		case 2:
			return ctypes.BinaryFunc, true
		case 3:
			return ctypes.TernaryFunc, true
		}
	}
	return ctypes.MatchSignature(f.ReturnType, f.ParamTypes())
}

func allObjects(args []Argument) bool {
	for _, a := range args {
		if a.Type != PyObject {
			return false
		}
	}
	return true
}

// CallKind returns the method table flags for the function.
func (f *Function) CallKind() CallKind {
	shape, _ := f.Classify()
	if f.IsClassMethod() {
		switch shape {
		case ctypes.UnaryFunc:
			return NoArgs
		case ctypes.BinaryFunc:
			if len(f.Arguments) > 1 && strings.ToUpper(f.Arguments[1].Name) == objectArgName {
				return SingleObject
			}
			return VarArgs
		case ctypes.TernaryFunc:
			return VarArgsKeywords
		}
		return NoArgs
	}
	switch {
	case shape == ctypes.UnaryFunc:
		if len(f.Arguments) > 0 && strings.ToUpper(f.Arguments[0].Name) == objectArgName {
			return SingleObject
		}
		return VarArgs
	case shape == ctypes.BinaryFunc:
		return VarArgsKeywords
	case len(f.Arguments) == 0:
		return NoArgs
	}
	return VarArgs
}

// Verify checks the declared signature against the classified shape.
// Unclassified functions always pass.
func (f *Function) Verify() error {
	name, ok := f.Classify()
	if !ok {
		return nil
	}
	shape, err := ctypes.Lookup(name)
	if err != nil {
		return err
	}
	mismatch := func(kind diag.MismatchKind, index int, got, want string) error {
		return &diag.SignatureMismatch{
			Function: f.CName,
			Shape:    name,
			Kind:     kind,
			Index:    index,
			Got:      got,
			Want:     want,
			Ideal:    f.idealFor(shape),
		}
	}
	if f.ReturnType != shape.Return {
		return mismatch(diag.MismatchReturn, 0, f.ReturnType, shape.Return)
	}
	if len(f.Arguments) != len(shape.Params) {
		return mismatch(diag.MismatchArity, 0, strconv.Itoa(len(f.Arguments)), strconv.Itoa(len(shape.Params)))
	}
	for i, want := range shape.Params {
		if f.Arguments[i].Type != want {
			return mismatch(diag.MismatchArgument, i+1, f.Arguments[i].Type, want)
		}
	}
	return nil
}

// Ideal renders the signature the function should have, keeping its
// argument names where it has them. Unclassified functions render as
// declared.
func (f *Function) Ideal() string {
	name, ok := f.Classify()
	if !ok {
		return f.Definition()
	}
	return f.idealFor(ctypes.MustLookup(name))
}

func (f *Function) idealFor(shape ctypes.Shape) string {
	args := make([]Argument, len(shape.Params))
	for i, t := range shape.Params {
		args[i] = Argument{Type: t, Name: fmt.Sprintf("arg%d", i)}
		if i < len(f.Arguments) && f.Arguments[i].Name != "" {
			args[i].Name = f.Arguments[i].Name
		}
	}
	return fmt.Sprintf("%s %s(%s)", shape.Return, f.CName, ArgumentList(args))
}
