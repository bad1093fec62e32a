package pyscan

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/lolpig/internal/diag"
	"github.com/phobologic/lolpig/internal/model"
)

const sampleModule = `"""Vector module."""

import math
from os.path import join


def add(a, b):
    """Adds two vectors."""
    return a + b


def version():
    return "1"


def clamp(x, lo=0, hi=1):
    pass


def log(*args, **kwargs):
    pass


def only_keywords(a, *, key):
    pass


class Base:
    """Base type."""

    def describe(self):
        """Describe."""
        return "base"


class Vec(Base, object):
    """A vector.

    With a body.
    """

    def __init__(self, x=0.0, y=0.0):
        self._x = x
        self._y = y

    def norm(self):
        return math.hypot(self._x, self._y)

    def dot(self, other: "Vec") -> float:
        return self._x * other._x + self._y * other._y

    @property
    def x(self):
        """The x value."""
        return self._x

    @x.setter
    def x(self, value):
        self._x = value

    @staticmethod
    def zero():
        return Vec()
`

func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func funcNames(fns []Func) []string {
	var names []string
	for _, f := range fns {
		names = append(names, f.Name)
	}
	return names
}

func TestScanSource(t *testing.T) {
	t.Parallel()
	mod, err := ScanSource(context.Background(), "vec", []byte(sampleModule))
	require.NoError(t, err)

	assert.Equal(t, "vec", mod.Name)
	assert.Equal(t, "Vector module.", mod.Doc)
	assert.Equal(t, []string{"add", "version", "clamp", "log", "only_keywords"}, funcNames(mod.Functions))

	add := mod.Functions[0]
	assert.Equal(t, "Adds two vectors.", add.Doc)
	assert.Equal(t, &ArgSpec{Args: []string{"a", "b"}}, add.Spec)
	assert.Empty(t, mod.Functions[1].Spec.Args)
	assert.Equal(t, &ArgSpec{Args: []string{"x", "lo", "hi"}, Defaults: 2}, mod.Functions[2].Spec)
	assert.Equal(t, &ArgSpec{VarArgs: true, VarKW: true}, mod.Functions[3].Spec)
	assert.Equal(t, &ArgSpec{Args: []string{"a"}}, mod.Functions[4].Spec)

	require.Len(t, mod.Classes, 2)
	base, vec := mod.Classes[0], mod.Classes[1]
	assert.Equal(t, "Base type.", base.Doc)
	assert.Equal(t, []string{"describe"}, funcNames(base.Methods))

	assert.Equal(t, "A vector.\n\nWith a body.", vec.Doc)
	assert.Equal(t, []string{"Base", "object"}, vec.Bases)
	assert.Equal(t, []string{"__init__", "norm", "dot", "zero"}, funcNames(vec.Methods))
	assert.Equal(t, []string{"self", "other"}, vec.Methods[2].Spec.Args)
	assert.Equal(t, []Property{{Name: "x", Doc: "The x value.", Setter: true}}, vec.Properties)
}

func TestScanFile(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, t.TempDir(), "pkg/vec.py", sampleModule)
	mod, err := ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "vec", mod.Name)

	_, err = ScanFile(context.Background(), filepath.Join(t.TempDir(), "missing.py"))
	assert.Error(t, err)
}

func TestSignature(t *testing.T) {
	t.Parallel()
	obj := func(name string) model.Argument { return model.Argument{Type: model.PyObject, Name: name} }
	tests := []struct {
		name     string
		pyName   string
		spec     *ArgSpec
		wantRet  string
		wantArgs []model.Argument
	}{
		{"no args", "f", &ArgSpec{}, "PyObject*", nil},
		{"one arg", "f", &ArgSpec{Args: []string{"a"}}, "PyObject*", []model.Argument{obj("obj")}},
		{"two required args", "f", &ArgSpec{Args: []string{"a", "b"}}, "PyObject*", []model.Argument{obj("args")}},
		{"defaults", "f", &ArgSpec{Args: []string{"a", "b"}, Defaults: 1}, "PyObject*", []model.Argument{obj("args"), obj("kwargs")}},
		{"varargs", "f", &ArgSpec{VarArgs: true}, "PyObject*", []model.Argument{obj("args")}},
		{"varkw", "f", &ArgSpec{VarKW: true}, "PyObject*", []model.Argument{obj("args"), obj("kwargs")}},
		{"uninspectable", "f", nil, "PyObject*", []model.Argument{obj("args")}},
		{"method self only", "Vec.norm", &ArgSpec{Args: []string{"self"}}, "PyObject*", []model.Argument{obj("self")}},
		{"method one arg", "Vec.dot", &ArgSpec{Args: []string{"self", "other"}}, "PyObject*", []model.Argument{obj("self"), obj("obj")}},
		{"method two args", "Vec.set", &ArgSpec{Args: []string{"self", "x", "y"}}, "PyObject*", []model.Argument{obj("self"), obj("args")}},
		{"uninspectable method", "Vec.m", nil, "PyObject*", []model.Argument{obj("self"), obj("args")}},
		{"init uses slot shape", "Vec.__init__", &ArgSpec{Args: []string{"self"}}, "int", []model.Argument{obj("self"), obj("arg1"), obj("arg2")}},
		{"add uses slot shape", "Vec.__add__", &ArgSpec{Args: []string{"self", "o"}}, "PyObject*", []model.Argument{obj("self"), obj("arg1")}},
		{"free dunder is plain", "__init__", &ArgSpec{}, "PyObject*", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ret, args := Signature(tt.pyName, tt.spec)
			assert.Equal(t, tt.wantRet, ret)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "add", CName("add"))
	assert.Equal(t, "Vec_norm", CName("Vec.norm"))
	assert.Equal(t, "Vec__init__", CName("Vec.__init__"))
}

func TestModuleName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "vec", ModuleName("/src/pkg/vec.py"))
	assert.Equal(t, "vec", ModuleName("vec.tar.py"))
}

func TestBuild(t *testing.T) {
	t.Parallel()
	mod, err := ScanSource(context.Background(), "vec", []byte(sampleModule))
	require.NoError(t, err)

	ctx := Build(mod, "vec.py")
	assert.Equal(t, "vec", ctx.ModuleName)
	assert.Equal(t, "Vector module.", ctx.ModuleDoc)
	assert.Equal(t, []string{"vec.py"}, ctx.Inputs)
	require.Len(t, ctx.Functions, 5)
	assert.Equal(t, "add", ctx.Functions[0].CName)
	assert.Equal(t, []string{"PyObject*"}, ctx.Functions[0].ParamTypes())

	vec := ctx.ClassByPyName("Vec")
	require.NotNil(t, vec)
	require.Len(t, vec.Bases, 1)
	assert.Same(t, ctx.ClassByPyName("Base"), vec.Bases[0])

	getter := vec.Method("Vec.x")
	require.NotNil(t, getter)
	var names []string
	for _, m := range vec.Methods {
		names = append(names, m.CName)
	}
	assert.Equal(t, []string{"Vec__init__", "Vec_norm", "Vec_dot", "Vec_zero", "Vec_x__getter", "Vec_x__setter"}, names)

	setter := vec.Methods[5]
	assert.True(t, setter.IsProperty)
	assert.True(t, setter.IsSetter)
	assert.Equal(t, "int", setter.ReturnType)
	assert.Equal(t, []string{"PyObject*", "PyObject*", "void*"}, setter.ParamTypes())

	require.NoError(t, ctx.Finalize())
	assert.Equal(t, "Base", ctx.Classes[0].CName)
}

func TestScannerStatic(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, t.TempDir(), "vec.py", sampleModule)
	ctx, err := New().Parse(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "vec", ctx.ModuleName)
	assert.Len(t, ctx.Classes, 2)
}

func TestDecodeModule(t *testing.T) {
	t.Parallel()
	mod, err := decodeModule([]byte(`{"name":"vec","doc":"d","functions":[{"name":"add","doc":"","argspec":null}],
		"classes":[{"name":"Vec","doc":"","bases":["Base"],"methods":[],"properties":[{"name":"x","doc":"x","setter":false,"setter_doc":""}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "vec", mod.Name)
	assert.Nil(t, mod.Functions[0].Spec)
	assert.Equal(t, []Property{{Name: "x", Doc: "x"}}, mod.Classes[0].Properties)

	_, err = decodeModule([]byte("Traceback"))
	assert.Error(t, err)
}

func TestIntrospectMissingInterpreter(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, t.TempDir(), "vec.py", sampleModule)
	_, err := Introspect(context.Background(), SystemPython{Executable: "lolpig-no-such-python"}, path)
	var te *diag.ToolError
	assert.ErrorAs(t, err, &te)
}

func TestIntrospect(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	path := writeTestFile(t, t.TempDir(), "vec.py", sampleModule)
	mod, err := Introspect(context.Background(), SystemPython{}, path)
	require.NoError(t, err)

	assert.Equal(t, "vec", mod.Name)
	assert.Equal(t, "Vector module.", mod.Doc)
	// dir() order; imported names are skipped
	assert.Equal(t, []string{"add", "clamp", "log", "only_keywords", "version"}, funcNames(mod.Functions))
	require.Len(t, mod.Classes, 2)
	vec := mod.Classes[1]
	assert.Equal(t, "Vec", vec.Name)
	assert.Equal(t, []string{"Base"}, vec.Bases)
	assert.Equal(t, []string{"__init__", "norm", "dot", "zero"}, funcNames(vec.Methods))
	assert.Equal(t, []Property{{Name: "x", Doc: "The x value.", Setter: true}}, vec.Properties)
	assert.Equal(t, &ArgSpec{Args: []string{"x", "lo", "hi"}, Defaults: 2}, mod.Functions[1].Spec)
}
