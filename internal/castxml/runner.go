package castxml

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/phobologic/lolpig/internal/diag"
)

// Dialect selects the external declaration parser.
type Dialect string

const (
	CastXML Dialect = "castxml"
	GCCXML  Dialect = "gccxml"
)

// Runner produces the declaration XML for one source file.
type Runner interface {
	Run(ctx context.Context, file string) ([]byte, error)
}

// ExecRunner runs castxml or gccxml as a subprocess.
type ExecRunner struct {
	Dialect Dialect
	// Executable defaults to the dialect name.
	Executable string
	// Flags are extra compiler flags such as include paths.
	Flags []string
	// TempDir holds the intermediate XML; empty means os.TempDir.
	TempDir string
}

// Run invokes the parser and returns the XML it wrote. A missing binary
// or a non-zero exit status is an error carrying the tool's output.
func (r *ExecRunner) Run(ctx context.Context, file string) ([]byte, error) {
	dir, err := os.MkdirTemp(r.TempDir, "lolpig-xml-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, filepath.Base(file)+".xml")
	exe := r.executable()
	args := r.args(file, out)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return nil, &diag.ToolError{Tool: exe, Args: args, Stderr: output.String(), Err: err}
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, &diag.ToolError{Tool: exe, Args: args, Stderr: output.String(),
			Err: fmt.Errorf("no xml output: %w", err)}
	}
	return data, nil
}

func (r *ExecRunner) executable() string {
	if r.Executable != "" {
		return r.Executable
	}
	if r.Dialect == GCCXML {
		return string(GCCXML)
	}
	return string(CastXML)
}

func (r *ExecRunner) args(file, out string) []string {
	if r.Dialect == GCCXML {
		cxxflags := strings.Join(append([]string{"-DGCC_XML"}, r.Flags...), " ")
		return []string{file, "--gccxml-cxxflags", cxxflags, "-fxml=" + out}
	}
	args := []string{"--castxml-output=1", "-DCASTXML"}
	args = append(args, r.Flags...)
	return append(args, "-o", out, file)
}
