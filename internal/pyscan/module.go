// Package pyscan reads Python modules into the symbol model, either by a
// static scan of the source or by importing the module and introspecting
// it. Signatures are synthesized from the argument specification.
package pyscan

import (
	"fmt"
	"strings"

	"github.com/phobologic/lolpig/internal/ctypes"
	"github.com/phobologic/lolpig/internal/model"
)

// ArgSpec is the argument specification of a Python callable.
type ArgSpec struct {
	Args     []string `json:"args"`
	Defaults int      `json:"defaults"`
	VarArgs  bool     `json:"varargs"`
	VarKW    bool     `json:"varkw"`
}

// Func is a module function or a method.
type Func struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
	// Spec is nil when the callable could not be inspected.
	Spec *ArgSpec `json:"argspec"`
}

// Property is a class property.
type Property struct {
	Name      string `json:"name"`
	Doc       string `json:"doc"`
	Setter    bool   `json:"setter"`
	SetterDoc string `json:"setter_doc"`
}

// Class is a class introduced by the module.
type Class struct {
	Name       string     `json:"name"`
	Doc        string     `json:"doc"`
	Bases      []string   `json:"bases"`
	Methods    []Func     `json:"methods"`
	Properties []Property `json:"properties"`
}

// Module is what either scanner found in one file.
type Module struct {
	Name      string  `json:"name"`
	Doc       string  `json:"doc"`
	Functions []Func  `json:"functions"`
	Classes   []Class `json:"classes"`
}

// unknownArity stands in for the argument count of uninspectable callables.
const unknownArity = 10

// Build converts a scanned module to a Context. Bases are matched by name
// against the classes of the same module; "object" is never a base.
func Build(mod *Module, input string) *model.Context {
	ctx := model.New()
	ctx.ModuleName = mod.Name
	ctx.ModuleDoc = mod.Doc
	if input != "" {
		ctx.Inputs = []string{input}
	}

	for _, fn := range mod.Functions {
		ctx.Functions = append(ctx.Functions, newFunction(fn.Name, fn.Doc, fn.Spec, input))
	}

	byName := map[string]*model.Class{}
	for _, c := range mod.Classes {
		cls := &model.Class{CName: c.Name, PyName: c.Name, Doc: c.Doc, File: input}
		for _, m := range c.Methods {
			cls.Methods = append(cls.Methods, newFunction(c.Name+"."+m.Name, m.Doc, m.Spec, input))
		}
		for _, p := range c.Properties {
			cls.Methods = append(cls.Methods, newProperty(c.Name+"."+p.Name, p.Doc, false, input))
			if p.Setter {
				cls.Methods = append(cls.Methods, newProperty(c.Name+"."+p.Name, p.SetterDoc, true, input))
			}
		}
		ctx.Classes = append(ctx.Classes, cls)
		if _, ok := byName[c.Name]; !ok {
			byName[c.Name] = cls
		}
	}
	for i, c := range mod.Classes {
		cls := ctx.Classes[i]
		for _, b := range c.Bases {
			if b == "object" {
				continue
			}
			if base, ok := byName[b]; ok && base != cls {
				cls.Bases = append(cls.Bases, base)
			}
		}
	}
	return ctx
}

// CName derives the C identifier of a Python target name:
// "vec.__init__" becomes "vec__init__".
func CName(pyName string) string {
	return strings.ReplaceAll(strings.ReplaceAll(pyName, ".", "_"), "___", "__")
}

func newFunction(pyName, doc string, spec *ArgSpec, file string) *model.Function {
	f := &model.Function{CName: CName(pyName), PyName: pyName, Doc: doc, File: file}
	f.ReturnType, f.Arguments = Signature(pyName, spec)
	return f
}

func newProperty(pyName, doc string, setter bool, file string) *model.Function {
	f := &model.Function{
		PyName:     pyName,
		Doc:        doc,
		File:       file,
		IsProperty: true,
		IsSetter:   setter,
	}
	shape := ctypes.Getter
	f.CName = CName(pyName) + "__getter"
	if setter {
		shape = ctypes.Setter
		f.CName = CName(pyName) + "__setter"
	}
	f.ReturnType, f.Arguments = fromShape(ctypes.MustLookup(shape), true)
	return f
}

// Signature synthesizes the C return type and parameters for a callable.
// Special methods take the shape of their slot. Everything else returns
// an object and takes, after "self" for methods, nothing, a single
// object, or an argument tuple plus a keyword dict when keywords or
// defaults are accepted.
func Signature(pyName string, spec *ArgSpec) (string, []model.Argument) {
	isMethod := strings.Contains(pyName, ".")
	if isMethod {
		single := pyName[strings.LastIndexByte(pyName, '.')+1:]
		if name, ok := ctypes.ShapeFor(single); ok {
			return fromShape(ctypes.MustLookup(name), true)
		}
	}

	numArgs := unknownArity
	var varArgs, varKW bool
	if spec != nil {
		numArgs = len(spec.Args)
		varArgs, varKW = spec.VarArgs, spec.VarKW || spec.Defaults > 0
		if varKW {
			numArgs++
		}
		if varArgs {
			numArgs++
		}
	}

	var args []model.Argument
	if isMethod {
		args = append(args, model.Argument{Type: model.PyObject, Name: "self"})
		numArgs--
	}
	if numArgs > 0 {
		name := "obj"
		if numArgs > 1 || varArgs || varKW {
			name = "args"
		}
		args = append(args, model.Argument{Type: model.PyObject, Name: name})
		if varKW {
			args = append(args, model.Argument{Type: model.PyObject, Name: "kwargs"})
		}
	}
	return model.PyObject, args
}

func fromShape(s ctypes.Shape, method bool) (string, []model.Argument) {
	args := make([]model.Argument, len(s.Params))
	for i, t := range s.Params {
		args[i] = model.Argument{Type: t, Name: fmt.Sprintf("arg%d", i)}
		if i == 0 && method {
			args[i].Name = "self"
		}
	}
	return s.Return, args
}
