// Package ctypes holds the fixed tables of the CPython C-API that generated
// bindings must match: function-pointer shapes, descriptor struct layouts
// and the special-method to slot mappings.
package ctypes

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownShape is returned when a shape name is not in the shape table.
var ErrUnknownShape = errors.New("unknown shape")

// Shape is a named native function-pointer signature.
type Shape struct {
	Name   string
	Return string
	Params []string
}

// Typedef renders the shape as a C function-pointer type, e.g.
// "PyObject*(*)(PyObject*, PyObject*)".
func (s Shape) Typedef() string {
	params := ""
	for i, p := range s.Params {
		if i > 0 {
			params += ", "
		}
		params += p
	}
	return fmt.Sprintf("%s(*)(%s)", s.Return, params)
}

// Common shape names referenced by classification and rendering.
const (
	UnaryFunc   = "unaryfunc"
	BinaryFunc  = "binaryfunc"
	TernaryFunc = "ternaryfunc"
	Getter      = "getter"
	Setter      = "setter"
	NewFunc     = "newfunc"
	Destructor  = "destructor"
)

const (
	obj  = "PyObject*"
	ssz  = "Py_ssize_t"
	vptr = "void*"
)

// shapes is in declaration order. Signature matching walks it front to back.
var shapes = []Shape{
	{"unaryfunc", obj, []string{obj}},
	{"binaryfunc", obj, []string{obj, obj}},
	{"ternaryfunc", obj, []string{obj, obj, obj}},
	{"inquiry", "int", []string{obj}},
	{"lenfunc", ssz, []string{obj}},
	{"ssizeargfunc", obj, []string{obj, ssz}},
	{"ssizessizeargfunc", obj, []string{obj, ssz, ssz}},
	{"ssizeobjargproc", "int", []string{obj, ssz, obj}},
	{"ssizessizeobjargproc", "int", []string{obj, ssz, ssz, obj}},
	{"objobjargproc", "int", []string{obj, obj, obj}},
	{"freefunc", "void", []string{vptr}},
	{"destructor", "void", []string{obj}},
	{"printfunc", "int", []string{obj, "FILE*", "int"}},
	{"getattrfunc", obj, []string{obj, "char*"}},
	{"getattrofunc", obj, []string{obj, obj}},
	{"setattrfunc", "int", []string{obj, "char*", obj}},
	{"setattrofunc", "int", []string{obj, obj, obj}},
	{"reprfunc", obj, []string{obj}},
	{"hashfunc", "Py_hash_t", []string{obj}},
	{"richcmpfunc", obj, []string{obj, obj, "int"}},
	{"getiterfunc", obj, []string{obj}},
	{"iternextfunc", obj, []string{obj}},
	{"descrgetfunc", obj, []string{obj, obj, obj}},
	{"descrsetfunc", "int", []string{obj, obj, obj}},
	{"initproc", "int", []string{obj, obj, obj}},
	{"newfunc", obj, []string{"_typeobject*", obj, obj}},
	{"allocfunc", obj, []string{"_typeobject*", ssz}},
	{"getter", obj, []string{obj, vptr}},
	{"setter", "int", []string{obj, obj, vptr}},
	{"objobjproc", "int", []string{obj, obj}},
	{"visitproc", "int", []string{obj, vptr}},
	{"traverseproc", "int", []string{obj, "visitproc", vptr}},
}

var shapeByName = func() map[string]Shape {
	m := make(map[string]Shape, len(shapes))
	for _, s := range shapes {
		m[s.Name] = s
	}
	return m
}()

// Shapes returns a copy of the shape table in declaration order.
func Shapes() []Shape {
	return slices.Clone(shapes)
}

// Lookup returns the shape with the given name.
func Lookup(name string) (Shape, error) {
	s, ok := shapeByName[name]
	if !ok {
		return Shape{}, fmt.Errorf("%w %q", ErrUnknownShape, name)
	}
	return s, nil
}

// MustLookup is Lookup for names known to be in the table.
func MustLookup(name string) Shape {
	s, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return s
}

// MatchSignature returns the first shape whose return type and parameter
// list equal ret and params exactly.
func MatchSignature(ret string, params []string) (string, bool) {
	for _, s := range shapes {
		if s.Return == ret && slices.Equal(s.Params, params) {
			return s.Name, true
		}
	}
	return "", false
}
