package doxygen

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/phobologic/lolpig/internal/diag"
)

// XMLOutput is the XML_OUTPUT subdirectory of the output directory.
const XMLOutput = "xml"

// Doxyfile renders a configuration that writes only XML for the given
// inputs into outDir/xml. Undocumented members are hidden so only the
// annotated declarations reach the group files.
func Doxyfile(inputs []string, outDir string) string {
	quoted := make([]string, len(inputs))
	for i, in := range inputs {
		quoted[i] = quote(in)
	}
	settings := [][2]string{
		{"INPUT", strings.Join(quoted, " ")},
		{"INPUT_ENCODING", "UTF-8"},
		{"RECURSIVE", "NO"},
		{"QUIET", "YES"},
		{"WARNINGS", "NO"},
		{"WARN_IF_UNDOCUMENTED", "NO"},
		{"GENERATE_HTML", "NO"},
		{"GENERATE_LATEX", "NO"},
		{"GENERATE_XML", "YES"},
		{"XML_OUTPUT", XMLOutput},
		{"XML_PROGRAMLISTING", "NO"},
		{"OUTPUT_DIRECTORY", quote(outDir)},
		{"CREATE_SUBDIRS", "NO"},
		{"BRIEF_MEMBER_DESC", "NO"},
		{"REPEAT_BRIEF", "YES"},
		{"EXTRACT_PRIVATE", "YES"},
		{"EXTRACT_LOCAL_METHODS", "YES"},
		{"EXTRACT_ANON_NSPACES", "YES"},
		{"EXTRACT_STATIC", "YES"},
		{"EXTRACT_PACKAGE", "YES"},
		{"HIDE_UNDOC_MEMBERS", "YES"},
		{"HIDE_UNDOC_CLASSES", "YES"},
		{"HIDE_IN_BODY_DOCS", "NO"},
		{"HIDE_SCOPE_NAMES", "NO"},
		{"GENERATE_TODOLIST", "NO"},
		{"GENERATE_TESTLIST", "NO"},
		{"GENERATE_BUGLIST", "NO"},
		{"GENERATE_DEPRECATEDLIST", "NO"},
		{"ENABLE_PREPROCESSING", "YES"},
		{"MACRO_EXPANSION", "YES"},
		{"SKIP_FUNCTION_MACROS", "YES"},
	}
	var b strings.Builder
	for _, kv := range settings {
		fmt.Fprintf(&b, "%-23s = %s\n", kv[0], kv[1])
	}
	return b.String()
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// Runner runs doxygen on a configuration file.
type Runner interface {
	Run(ctx context.Context, configPath string) error
}

// ExecRunner runs the doxygen binary.
type ExecRunner struct {
	// Executable defaults to "doxygen".
	Executable string
}

// Run executes doxygen in the directory of configPath. A non-zero exit is
// an error carrying the tool's output.
func (r *ExecRunner) Run(ctx context.Context, configPath string) error {
	exe := r.Executable
	if exe == "" {
		exe = "doxygen"
	}
	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, configPath)
	cmd.Dir = filepath.Dir(configPath)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return &diag.ToolError{Tool: exe, Args: []string{configPath}, Stderr: output.String(), Err: err}
	}
	return nil
}
