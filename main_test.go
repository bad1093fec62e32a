package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func createSampleModule(t *testing.T) (dir, conf string) {
	t.Helper()
	dir = t.TempDir()
	writeTestFile(t, dir, "shapes.py", `"""Shapes."""


class Shape:
    """Any shape."""

    def area(self):
        return 0.0


class Square(Shape):
    def __init__(self, side=1.0):
        self.side = side

    @property
    def side_length(self):
        """The side."""
        return self.side

    @side_length.setter
    def side_length(self, value):
        self.side = value


def unit():
    """The unit square."""
    return Square()
`)
	conf = writeTestFile(t, dir, "lolpig.yaml", "mode: python\n")
	return dir, conf
}

func TestRunGenerate(t *testing.T) {
	t.Parallel()
	dir, conf := createSampleModule(t)
	out := filepath.Join(dir, "out", "shapes_py")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", conf, "-i", filepath.Join(dir, "shapes.py"), "-o", out}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	header, err := os.ReadFile(out + ".h")
	if err != nil {
		t.Fatalf("header not written: %v", err)
	}
	if !strings.Contains(string(header), "initialize_module_shapes") {
		t.Error("missing module initializer declaration")
	}
	if !strings.Contains(string(header), "struct Square;") {
		t.Error("missing class forward")
	}

	source, err := os.ReadFile(out + ".cpp")
	if err != nil {
		t.Fatalf("source not written: %v", err)
	}
	src := string(source)
	if !strings.Contains(src, `#include "shapes_py.h"`) {
		t.Error("source does not include the header by base name")
	}
	if !strings.Contains(src, "Square_getset_struct") {
		t.Error("missing property table")
	}
	// bases are defined before the classes deriving from them
	if strings.Index(src, "Shape_type") > strings.Index(src, "Square_type") {
		t.Error("base class rendered after derived class")
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	if err := run([]string{"version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stdout.String(); got != "lolpig dev\n" {
		t.Errorf("version output = %q", got)
	}
}

func TestRunNoOutput(t *testing.T) {
	t.Parallel()
	dir, conf := createSampleModule(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", conf, "-i", filepath.Join(dir, "shapes.py")}, &stdout, &stderr)
	if err == nil || err.Error() != "no output file specified (-o)" {
		t.Errorf("err = %v", err)
	}
}

func TestRunNoInput(t *testing.T) {
	t.Parallel()
	dir, conf := createSampleModule(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", conf, "-o", filepath.Join(dir, "x")}, &stdout, &stderr)
	if err == nil || err.Error() != "no input files specified (-i)" {
		t.Errorf("err = %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	t.Parallel()
	dir, conf := createSampleModule(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", conf, "-i", filepath.Join(dir, "nope.py"), "-o", filepath.Join(dir, "x")}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for a missing input")
	}
}

func TestRunDump(t *testing.T) {
	t.Parallel()
	dir, conf := createSampleModule(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"dump", "--config", conf, filepath.Join(dir, "shapes.py")}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "Square -> Shape") {
		t.Errorf("dump missing base relation:\n%s", out)
	}
}

func TestRunUnknownCommandFlag(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--no-such-flag"}, &stdout, &stderr); err == nil {
		t.Error("expected error for unknown flag")
	}
}
