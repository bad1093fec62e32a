package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/lolpig/internal/diag"
)

func pass(classes ...*Class) *Context {
	ctx := New()
	ctx.Functions = []*Function{fn("helper", "helper", PyObject, PyObject)}
	ctx.Classes = classes
	return ctx
}

func pyNames(classes []*Class) []string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.PyName
	}
	return names
}

func TestMergeTwoPassesScenario(t *testing.T) {
	t.Parallel()

	// the derived class is seen first and refers to a base declared in a
	// separate pass
	baseRef := &Class{CName: "Base", PyName: "Base"}
	derived := &Class{CName: "Derived", PyName: "Derived", Bases: []*Class{baseRef}}
	first := pass(derived)
	second := pass(&Class{CName: "Base", PyName: "Base"})

	ctx := New()
	ctx.Merge(first)
	ctx.Merge(second)
	require.NoError(t, ctx.Finalize())

	assert.Equal(t, []string{"Base", "Derived"}, pyNames(ctx.Classes))
	require.Len(t, ctx.Functions, 1)
	assert.Equal(t, "helper", ctx.Functions[0].PyName)
	// the base is rebound to the class owned by the merged context
	assert.Same(t, ctx.Classes[0], ctx.Classes[1].Bases[0])
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	base := &Class{CName: "Base", PyName: "Base", Methods: []*Function{fn("Base.copy", "Base_copy", PyObject, PyObject)}}
	src := pass(base, &Class{CName: "Derived", PyName: "Derived", Bases: []*Class{base}})

	ctx := New()
	ctx.Merge(src)
	ctx.Merge(src)
	ctx.Merge(ctx)

	assert.Len(t, ctx.Functions, 1)
	assert.Len(t, ctx.Classes, 2)
	assert.Len(t, ctx.Classes[0].Methods, 1)
}

func TestMergeClassMethodsFirstWins(t *testing.T) {
	t.Parallel()

	a := &Class{CName: "Vec", PyName: "vec", Methods: []*Function{
		{PyName: "vec.copy", CName: "vec_copy_a", ReturnType: PyObject, Arguments: []Argument{{Type: PyObject}}},
	}}
	base := &Class{CName: "Base", PyName: "base"}
	b := &Class{CName: "Vec", PyName: "vec", Bases: []*Class{base}, Methods: []*Function{
		{PyName: "vec.copy", CName: "vec_copy_b", ReturnType: PyObject, Arguments: []Argument{{Type: PyObject}}},
		{PyName: "vec.norm", CName: "vec_norm", ReturnType: PyObject, Arguments: []Argument{{Type: PyObject}}},
		{PyName: "vec.x", CName: "vec_x_get", IsProperty: true},
		{PyName: "vec.x", CName: "vec_x_set", IsProperty: true, IsSetter: true},
	}}

	ctx := New()
	ctx.Merge(&Context{Classes: []*Class{a}})
	ctx.Merge(&Context{Classes: []*Class{b, base}})

	require.Len(t, ctx.Classes, 2)
	vec := ctx.Classes[0]
	var cnames []string
	for _, m := range vec.Methods {
		cnames = append(cnames, m.CName)
	}
	assert.Equal(t, []string{"vec_copy_a", "vec_norm", "vec_x_get", "vec_x_set"}, cnames)
	require.Len(t, vec.Bases, 1)
	assert.Equal(t, "base", vec.Bases[0].PyName)
}

func TestMergeKeepsExistingBases(t *testing.T) {
	t.Parallel()

	b1 := &Class{CName: "B1", PyName: "B1"}
	b2 := &Class{CName: "B2", PyName: "B2"}
	ctx := New()
	ctx.Merge(&Context{Classes: []*Class{b1, b2, {CName: "D", PyName: "D", Bases: []*Class{b1}}}})
	ctx.Merge(&Context{Classes: []*Class{{CName: "D", PyName: "D", Bases: []*Class{b2}}}})

	d := ctx.ClassByCName("D")
	require.NotNil(t, d)
	assert.Equal(t, []string{"B1"}, pyNames(d.Bases))
}

func TestMergeUsesIDsWhenPresent(t *testing.T) {
	t.Parallel()

	f1 := fn("add", "add", PyObject, PyObject)
	f1.ID = "_Z3addP7_object"
	f2 := fn("add2", "add", PyObject, PyObject, PyObject)
	f2.ID = "_Z3addP7_objectS0_"

	ctx := New()
	ctx.Merge(&Context{Functions: []*Function{f1}})
	ctx.Merge(&Context{Functions: []*Function{f2}})
	assert.Len(t, ctx.Functions, 2)
}

func TestFinalizeSortsAndVerifies(t *testing.T) {
	t.Parallel()

	ctx := New()
	ctx.Functions = []*Function{
		fn("zeta", "zeta", PyObject, PyObject),
		fn("alpha", "alpha", PyObject, PyObject),
	}
	ctx.Classes = []*Class{{CName: "Vec", PyName: "vec", Methods: []*Function{
		fn("vec.norm", "vec_norm", PyObject, PyObject),
		fn("vec.__len__", "vec_len", "Py_ssize_t", PyObject),
		fn("vec.copy", "vec_copy", PyObject, PyObject),
	}}}
	require.NoError(t, ctx.Finalize())
	assert.True(t, ctx.Finalized())

	assert.Equal(t, "alpha", ctx.Functions[0].CName)
	vec := ctx.Classes[0]
	assert.Equal(t, "Vec_type_struct", vec.Names.TypeStruct)
	assert.Equal(t, []string{"vec_copy", "vec_len", "vec_norm"}, []string{vec.Methods[0].CName, vec.Methods[1].CName, vec.Methods[2].CName})
	require.Len(t, vec.NormalMethods, 2)
	assert.Equal(t, "vec_copy", vec.NormalMethods[0].CName)

	// a second finalize is harmless
	require.NoError(t, ctx.Finalize())
	assert.Len(t, vec.NormalMethods, 2)

	ctx.Merge(New())
	assert.False(t, ctx.Finalized())
}

func TestFinalizeReportsAllMismatches(t *testing.T) {
	t.Parallel()

	ctx := New()
	ctx.Classes = []*Class{{CName: "Vec", PyName: "vec", Methods: []*Function{
		fn("vec.__eq__", "vec_eq", PyObject, PyObject),
		fn("vec.__len__", "vec_len", "int", PyObject),
	}}}
	err := ctx.Finalize()
	require.Error(t, err)
	assert.False(t, ctx.Finalized())
	assert.Contains(t, err.Error(), "vec_eq")
	assert.Contains(t, err.Error(), "vec_len")

	var sm *diag.SignatureMismatch
	assert.True(t, errors.As(err, &sm))
}

func TestFinalizeTopologicalOrder(t *testing.T) {
	t.Parallel()

	// a -> b -> c chain plus an unrelated class, declared in reverse
	a := &Class{CName: "A", PyName: "A"}
	b := &Class{CName: "B", PyName: "B", Bases: []*Class{a}}
	c := &Class{CName: "C", PyName: "C", Bases: []*Class{b}}
	z := &Class{CName: "0Z", PyName: "Z", Bases: []*Class{c}}
	u := &Class{CName: "U", PyName: "U"}
	m := &Class{CName: "AA", PyName: "M", Bases: []*Class{u, b}}

	ctx := New()
	ctx.Classes = []*Class{u, z, m, c, b, a}
	require.NoError(t, ctx.Finalize())

	pos := map[*Class]int{}
	for i, cls := range ctx.Classes {
		pos[cls] = i
	}
	for _, cls := range ctx.Classes {
		for _, other := range ctx.Classes {
			if cls.HasBase(other) {
				assert.Less(t, pos[other], pos[cls], fmt.Sprintf("%s must follow %s", cls.PyName, other.PyName))
			}
		}
	}
}

func TestFinalizeRejectsCycle(t *testing.T) {
	t.Parallel()

	a := &Class{CName: "A", PyName: "A"}
	b := &Class{CName: "B", PyName: "B", Bases: []*Class{a}}
	a.Bases = []*Class{b}

	ctx := New()
	ctx.Classes = []*Class{a, b}
	err := ctx.Finalize()
	var pe *diag.ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Contains(t, err.Error(), "inheritance cycle")
}

func TestFinalizeRejectsDanglingBase(t *testing.T) {
	t.Parallel()

	ghost := &Class{CName: "Ghost", PyName: "Ghost"}
	ctx := New()
	ctx.Classes = []*Class{{CName: "D", PyName: "D", Bases: []*Class{ghost}}}
	err := ctx.Finalize()

	var ur *diag.UnresolvedReference
	require.True(t, errors.As(err, &ur), "got %v", err)
	assert.Equal(t, "base", ur.Kind)
	assert.Equal(t, "::Ghost", ur.ID)
}
