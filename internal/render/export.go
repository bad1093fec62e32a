package render

import (
	"strings"

	"github.com/phobologic/lolpig/internal/model"
)

const exportTemplate = `/* generated by lolpig on %(date)s */

%(includes)s
#include "%(def_header)s"

%(namespace_open)s
%(body)s

%(namespace_close)s
`

const exportClassTemplate = `LOLPIG_DEF(%(py_name)s, (
        %(py_doc)s
        ))
struct %(c_name)s
{
    PyObject_HEAD
};
`

const exportFuncTemplate = `LOLPIG_DEF(%(py_name)s, (
        %(py_doc)s
        ))
%(func_def)s
{
    %(body)s
}
`

// Export renders an annotated C++ skeleton for the model, suitable as a
// starting point for a hand-written implementation. A function body comes
// from the unnamed _CPP_ annotation of its doc when present.
func (r *Renderer) Export() string {
	var parts []string
	for _, cls := range r.ctx.Classes {
		doc, _ := SplitDocCpp(cls.Doc)
		parts = append(parts, ApplyStringDict(exportClassTemplate, []Var{
			{"py_name", cls.PyName},
			{"c_name", cls.CName},
			{"py_doc", doc},
		}))
		for _, m := range cls.Methods {
			parts = append(parts, exportFunc(m))
		}
	}
	for _, f := range r.ctx.Functions {
		parts = append(parts, exportFunc(f))
	}
	return ApplyStringDict(exportTemplate, []Var{
		{"date", r.opts.Stamp},
		{"includes", r.includes()},
		{"def_header", r.opts.DefHeader},
		{"namespace_open", namespaceOpen(r.opts.Namespaces)},
		{"namespace_close", namespaceClose(r.opts.Namespaces)},
		{"body", strings.Join(parts, "\n")},
	})
}

func exportFunc(f *model.Function) string {
	doc, annotations := SplitDocCpp(f.Doc)
	body, ok := annotations[""]
	if !ok {
		body = "//"
		if ret := ReturnStub(f.ReturnType); ret != "" {
			body += "\n" + ret
		}
	}
	name := f.PyName
	if f.IsProperty {
		name += "@get"
		if f.IsSetter {
			name = f.PyName + "@set"
		}
	}
	return ApplyStringDict(exportFuncTemplate, []Var{
		{"py_name", name},
		{"func_def", f.Definition()},
		{"body", body},
		{"py_doc", doc},
	})
}

// ReturnStub returns a statement that satisfies a function returning ret.
func ReturnStub(ret string) string {
	switch strings.TrimSpace(ret) {
	case model.PyObject:
		return "Py_RETURN_NONE;"
	case "int", "Py_ssize_t":
		return "return 0;"
	case "void", "":
		return ""
	}
	return "return {};"
}
