package lang

import (
	"context"
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".py", "python"},
		{".cpp", "cpp"},
		{".H", "cpp"},
		{".hpp", "cpp"},
		{".go", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	if l := ForPath("src/vec3.cpp"); l == nil || l.FrontEnd != FrontEndCastXML {
		t.Errorf("ForPath(vec3.cpp) = %+v, want castxml front end", l)
	}
	if l := ForPath("pkg/module.py"); l == nil || l.FrontEnd != FrontEndPython {
		t.Errorf("ForPath(module.py) = %+v, want python front end", l)
	}
	if l := ForPath("README.md"); l != nil {
		t.Errorf("ForPath(README.md) = %+v, want nil", l)
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	py, ok := Languages["python"]
	if !ok {
		t.Fatal("python language not registered")
	}
	if !py.HasGrammar() {
		t.Error("python language has no grammar")
	}
	if Languages["cpp"].HasGrammar() {
		t.Error("cpp is parsed by castxml and should have no grammar")
	}
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	src := []byte("\"\"\"Module doc.\"\"\"\n\nclass Vec:\n    '''Vector.'''\n    def norm(self):\n        pass\n")
	tree, err := Languages["python"].NewParser().ParseCtx(context.Background(), nil, src)
	if err != nil {
		t.Fatalf("ParseCtx: %v", err)
	}
	root := tree.RootNode()
	if got := PythonDocstring(root, src); got != "Module doc." {
		t.Errorf("module docstring = %q", got)
	}
	cls := root.NamedChild(1)
	if cls.Type() != "class_definition" {
		t.Fatalf("second statement is %s", cls.Type())
	}
	if got := PythonName(cls, src); got != "Vec" {
		t.Errorf("class name = %q", got)
	}
	if got := PythonDocstring(cls.ChildByFieldName("body"), src); got != "Vector." {
		t.Errorf("class docstring = %q", got)
	}
}

func TestPythonStringValue(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`"""doc"""`: "doc",
		`'''doc'''`: "doc",
		`"doc"`:     "doc",
		`r'doc'`:    "doc",
		`""`:        "",
	}
	for in, want := range tests {
		if got := PythonStringValue(in); got != want {
			t.Errorf("PythonStringValue(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanDoc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single", "  Adds.  ", "Adds.  "},
		{"indented body", "Adds two.\n\n    Returns the sum.\n        Indented.\n    ", "Adds two.\n\nReturns the sum.\n    Indented."},
		{"leading blank", "\n    First.\n    Second.\n", "First.\nSecond."},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanDoc(tt.in); got != tt.want {
				t.Errorf("CleanDoc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("  (a,\n    b)  "); got != "(a, b)" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
