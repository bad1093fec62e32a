package pyscan

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/kluctl/go-embed-python/python"

	"github.com/phobologic/lolpig/internal/diag"
)

//go:embed introspect.py
var introspectScript []byte

// Interpreter builds python command lines.
type Interpreter interface {
	Command(ctx context.Context, args ...string) (*exec.Cmd, error)
}

// SystemPython runs an interpreter from PATH.
type SystemPython struct {
	// Executable defaults to "python3".
	Executable string
}

// Command implements Interpreter.
func (p SystemPython) Command(ctx context.Context, args ...string) (*exec.Cmd, error) {
	exe := p.Executable
	if exe == "" {
		exe = "python3"
	}
	return exec.CommandContext(ctx, exe, args...), nil
}

// EmbeddedPython runs the interpreter bundled with the binary. The runtime
// is extracted to RuntimeDir on first use.
type EmbeddedPython struct {
	RuntimeDir string

	once sync.Once
	ep   *python.EmbeddedPython
	err  error
}

// Command implements Interpreter.
func (p *EmbeddedPython) Command(_ context.Context, args ...string) (*exec.Cmd, error) {
	p.once.Do(func() {
		dir := p.RuntimeDir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "lolpig-python")
		}
		p.ep, p.err = python.NewEmbeddedPythonWithTmpDir(dir, true)
	})
	if p.err != nil {
		return nil, fmt.Errorf("extracting embedded python: %w", p.err)
	}
	return p.ep.PythonCmd(args...)
}

// Introspect imports the module file with interp and reads its members.
// Importing runs module code.
func Introspect(ctx context.Context, interp Interpreter, path string) (*Module, error) {
	dir, err := os.MkdirTemp("", "lolpig-introspect-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)
	script := filepath.Join(dir, "introspect.py")
	if err := os.WriteFile(script, introspectScript, 0o644); err != nil {
		return nil, fmt.Errorf("writing introspection script: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cmd, err := interp.Command(ctx, script, abs)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := runContext(ctx, cmd); err != nil {
		return nil, &diag.ToolError{Tool: cmd.Path, Args: cmd.Args[1:], Stderr: stderr.String(), Err: err}
	}
	return decodeModule(stdout.Bytes())
}

func decodeModule(data []byte) (*Module, error) {
	var mod Module
	if err := json.Unmarshal(data, &mod); err != nil {
		return nil, fmt.Errorf("decoding introspection output: %w", err)
	}
	return &mod, nil
}

// runContext runs cmd and kills it when ctx ends. Commands built without a
// context, like the embedded interpreter's, are covered as well.
func runContext(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}
