// Package render turns a finalized symbol model into the generated C++
// header and source that bind it to the CPython API.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phobologic/lolpig/internal/ctypes"
	"github.com/phobologic/lolpig/internal/model"
)

// DefaultIncludes are the include lines emitted when Options.Includes is empty.
var DefaultIncludes = []string{"#include <Python.h>", "#include <structmember.h>"}

// DefaultDefHeader is the header that defines the LOLPIG_DEF annotation macro.
const DefaultDefHeader = "lolpig_def.h"

// StampLayout formats the generation date written into every output.
const StampLayout = "2006-01-02 15:04:05"

// Options controls rendering.
type Options struct {
	// Namespaces wrap the module initialization function, outermost first.
	Namespaces []string
	// Includes replace DefaultIncludes when set.
	Includes []string
	// DefHeader is included by the export skeleton. Defaults to DefaultDefHeader.
	DefHeader string
	// Stamp is the generation date. Defaults to the time New was called.
	Stamp string
}

// Renderer renders one finalized Context. All outputs of one Renderer carry
// the same stamp.
type Renderer struct {
	ctx  *model.Context
	opts Options
}

// New returns a Renderer for ctx, which must be finalized.
func New(ctx *model.Context, opts Options) (*Renderer, error) {
	if ctx == nil {
		return nil, errors.New("render: nil context")
	}
	if !ctx.Finalized() {
		return nil, fmt.Errorf("render: %w", model.ErrNotFinalized)
	}
	if len(opts.Includes) == 0 {
		opts.Includes = DefaultIncludes
	}
	if opts.DefHeader == "" {
		opts.DefHeader = DefaultDefHeader
	}
	if opts.Stamp == "" {
		opts.Stamp = time.Now().Format(StampLayout)
	}
	return &Renderer{ctx: ctx, opts: opts}, nil
}

const headerTemplate = `/* generated by lolpig on %(date)s */

#ifndef %(guard)s
#define %(guard)s

%(includes)s

%(namespace_open)s
    /* Call this before Py_Initialize() */
    bool initialize_module_%(name)s();

%(namespace_close)s

extern "C" {

    %(struct_defs)s

    %(func_defs)s

} // extern "C"

#endif // %(guard)s
`

// Header renders the header declaring the module initializer, the class
// structs, their helper functions and every bound C function.
func (r *Renderer) Header() string {
	return ApplyStringDict(headerTemplate, []Var{
		{"date", r.opts.Stamp},
		{"guard", r.guard()},
		{"includes", r.includes()},
		{"name", r.ctx.ModuleName},
		{"namespace_open", namespaceOpen(r.opts.Namespaces)},
		{"namespace_close", namespaceClose(r.opts.Namespaces)},
		{"struct_defs", r.structDecls()},
		{"func_defs", r.funcDecls()},
	})
}

func (r *Renderer) guard() string {
	var b strings.Builder
	b.WriteString("LOLPIG_")
	for _, c := range strings.ToUpper(r.ctx.ModuleName) {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString("_H_INCLUDED_")
	return b.String()
}

func (r *Renderer) includes() string {
	return strings.Join(r.opts.Includes, "\n")
}

func (r *Renderer) structDecls() string {
	if len(r.ctx.Classes) == 0 {
		return ""
	}
	bins := binByNamespace(r.ctx.Classes, func(c *model.Class) model.Scope { return c.Scope },
		func(c *model.Class) string {
			n := c.Names
			return fmt.Sprintf("struct %s;\n%s* %s();\nbool %s(PyObject* obj);",
				c.CName, c.CName, n.UserNew, n.UserIs)
		})
	return "/* class struct forwards */\n" + renderBins(bins)
}

func (r *Renderer) funcDecls() string {
	all := r.ctx.AllFunctions()
	if len(all) == 0 {
		return ""
	}
	bins := binByNamespace(all, func(f *model.Function) model.Scope { return f.Scope },
		func(f *model.Function) string { return f.Definition() + ";" })
	return "// global functions and class methods\n" + renderBins(bins)
}

const sourceTemplate = `/* generated by lolpig on %(date)s */

%(includes)s
#include "%(header_name)s"

#ifndef CPPY_ERROR
#   include <iostream>
#   define CPPY_ERROR(arg__) { std::cerr << arg__ << std::endl; }
#endif

/* compatibility checks */
%(static_asserts)s

/* the python c-api tango */

extern "C" {
namespace {

    %(module_def)s

} // namespace

%(helper_funcs)s

} // extern "C"

/* -- module initialization -- */

%(namespace_open)s
%(module_init)s

%(namespace_close)s
`

// Source renders the implementation: descriptor tables, type objects, the
// module definition and the initializer that registers the module.
func (r *Renderer) Source() string {
	// module_def carries user doc strings and goes last
	return ApplyStringDict(sourceTemplate, []Var{
		{"date", r.opts.Stamp},
		{"includes", r.includes()},
		{"header_name", r.ctx.HeaderName},
		{"static_asserts", r.staticAsserts()},
		{"helper_funcs", r.helperFuncs()},
		{"namespace_open", namespaceOpen(r.opts.Namespaces)},
		{"namespace_close", namespaceClose(r.opts.Namespaces)},
		{"module_init", r.moduleInit()},
		{"module_def", r.moduleDef()},
	})
}

// usedShapes returns the shapes the module relies on in table order.
func (r *Renderer) usedShapes() []ctypes.Shape {
	used := map[string]bool{}
	for _, f := range r.ctx.AllFunctions() {
		if s, ok := f.Classify(); ok {
			used[s] = true
		}
	}
	if len(r.ctx.Classes) > 0 {
		used[ctypes.NewFunc] = true
		used[ctypes.Destructor] = true
	}
	var shapes []ctypes.Shape
	for _, s := range ctypes.Shapes() {
		if used[s.Name] {
			shapes = append(shapes, s)
		}
	}
	return shapes
}

func (r *Renderer) staticAsserts() string {
	shapes := r.usedShapes()
	if len(shapes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("#include <type_traits>\n")
	for _, s := range shapes {
		fmt.Fprintf(&b, "static_assert(std::is_same<%s,\n    %s>::value, \"lolpig/python api mismatch\");\n",
			s.Name, s.Typedef())
	}
	return b.String()
}

func (r *Renderer) helperFuncs() string {
	if len(r.ctx.Classes) == 0 {
		return ""
	}
	bins := binByNamespace(r.ctx.Classes, func(c *model.Class) model.Scope { return c.Scope },
		func(c *model.Class) string {
			n := c.Names
			return fmt.Sprintf("%s* %s() { return PyObject_NEW(%s, &%s); }\n"+
				"bool %s(PyObject* obj) { return PyObject_TypeCheck(obj, &%s); }",
				c.CName, n.UserNew, c.CName, n.TypeStruct, n.UserIs, n.TypeStruct)
		})
	return "/* --- helper functions --- */\n" + renderBins(bins)
}

const moduleInitTemplate = `namespace {

    PyMODINIT_FUNC create_module_%(name)s_func()
    {
        auto module = PyModule_Create(&%(module_struct)s);
        if (!module)
            return nullptr;

        %(init_calls)s

        return module;
    }

} // namespace

bool initialize_module_%(name)s()
{
    PyImport_AppendInittab("%(name)s", create_module_%(name)s_func);
    return true;
}
`

func (r *Renderer) moduleInit() string {
	var calls strings.Builder
	if len(r.ctx.Classes) > 0 {
		calls.WriteString("// add classes to module\n")
		for _, cls := range r.ctx.Classes {
			fmt.Fprintf(&calls, "%s(module);\n", cls.Names.InitFunc)
		}
	}
	return ApplyStringDict(moduleInitTemplate, []Var{
		{"name", r.ctx.ModuleName},
		{"module_struct", r.ctx.StructName()},
		{"init_calls", calls.String()},
	})
}

func (r *Renderer) moduleDef() string {
	var b strings.Builder
	if len(r.ctx.Classes) > 0 {
		b.WriteString("/* ---- classes ---- */\n\n")
		for _, cls := range r.ctx.Classes {
			b.WriteString(r.classDef(cls))
			b.WriteString("\n")
		}
	}
	methods := "nullptr"
	if len(r.ctx.Functions) > 0 {
		b.WriteString("/* ---- global functions ---- */\n")
		b.WriteString(methodStruct(r.ctx.MethodStructName(), r.ctx.Functions))
		b.WriteString("\n")
		methods = r.ctx.MethodStructName()
	}
	fmt.Fprintf(&b, "/* module definition for '%s' */\nstatic const char* module_struct_doc = \"%s\";\n\n",
		r.ctx.ModuleName, docString(r.ctx.ModuleDoc))
	b.WriteString(RenderStruct(ctypes.PyModuleDef, r.ctx.StructName(), map[string]string{
		"m_name":    `"` + r.ctx.ModuleName + `"`,
		"m_doc":     "module_struct_doc",
		"m_size":    "-1",
		"m_methods": methods,
	}, "PyModuleDef_HEAD_INIT,"))
	return b.String()
}

// docString returns the C-escaped doc part of text.
func docString(text string) string {
	doc, _ := SplitDocCpp(text)
	return ToCString(doc)
}

func methodStruct(name string, funcs []*model.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "static PyMethodDef %s[] =\n{\n", name)
	for _, f := range funcs {
		fmt.Fprintf(&b, "%s{ \"%s\", reinterpret_cast<PyCFunction>(%s), %s, \"%s\" },\n",
			Indent, f.PyNameSingle(), f.FullCName(), f.CallKind(), docString(f.Doc))
	}
	b.WriteString("\n" + Indent + "{ NULL, NULL, 0, NULL }\n};\n")
	return b.String()
}

func binByNamespace[T any](items []T, scope func(T) model.Scope, line func(T) string) []nsBin {
	var bins []nsBin
	index := map[string]int{}
	for _, item := range items {
		s := scope(item)
		key := s.NamespacePrefix()
		i, ok := index[key]
		if !ok {
			i = len(bins)
			index[key] = i
			bins = append(bins, nsBin{scope: s})
		}
		bins[i].lines = append(bins[i].lines, line(item))
	}
	return bins
}

type nsBin struct {
	scope model.Scope
	lines []string
}

func renderBins(bins []nsBin) string {
	var b strings.Builder
	for _, bin := range bins {
		body := strings.Join(bin.lines, "\n")
		if !bin.scope.HasNamespace() {
			b.WriteString(body + "\n")
			continue
		}
		b.WriteString(namespaceOpen(bin.scope.Namespaces))
		b.WriteString(ChangeTextIndent(body, len(Indent)) + "\n")
		b.WriteString(namespaceClose(bin.scope.Namespaces))
	}
	return b.String()
}

func namespaceOpen(namespaces []string) string {
	var b strings.Builder
	for _, n := range namespaces {
		if n != model.GlobalNamespace {
			fmt.Fprintf(&b, "namespace %s {\n", n)
		}
	}
	return b.String()
}

func namespaceClose(namespaces []string) string {
	var b strings.Builder
	for i := len(namespaces) - 1; i >= 0; i-- {
		if n := namespaces[i]; n != model.GlobalNamespace {
			fmt.Fprintf(&b, "} // namespace %s\n", n)
		}
	}
	return b.String()
}
