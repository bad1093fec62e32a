// Package model defines the symbol model shared by all front ends: the
// functions, classes and arguments that end up in a generated module.
package model

import (
	"fmt"
	"strings"
)

const (
	// PyObject is the C type of every Python object pointer.
	PyObject = "PyObject*"
	// GlobalNamespace is the root entry some front ends put in Namespaces.
	GlobalNamespace = "::"
)

// Scope is the identity part shared by functions and classes.
type Scope struct {
	// ID is a parser-assigned identifier that is stable across inputs.
	// Empty when the front end has none.
	ID         string
	Namespaces []string
}

// HasNamespace reports whether the declaration lives outside the global namespace.
func (s Scope) HasNamespace() bool {
	for _, n := range s.Namespaces {
		if n != GlobalNamespace {
			return true
		}
	}
	return false
}

// NamespacePrefix returns e.g. "MO::PYTHON::", or "::" for global declarations.
func (s Scope) NamespacePrefix() string {
	var parts []string
	for _, n := range s.Namespaces {
		if n != GlobalNamespace {
			parts = append(parts, n)
		}
	}
	if len(parts) == 0 {
		return GlobalNamespace
	}
	return strings.Join(parts, "::") + "::"
}

func (s Scope) key(cName string) string {
	if s.ID != "" {
		return s.ID
	}
	return s.NamespacePrefix() + cName
}

// Argument is one C parameter.
type Argument struct {
	Type string
	Name string
}

// Function is one exported callable.
type Function struct {
	Scope
	CName      string
	PyName     string // "func" or "Class.method"
	Doc        string
	ReturnType string
	Arguments  []Argument
	File       string
	Line       int
	EndLine    int
	IsProperty bool
	IsSetter   bool
}

// Key returns the merge identity of the function.
func (f *Function) Key() string {
	return f.key(f.CName)
}

// FullCName is the namespace-qualified linkage name.
func (f *Function) FullCName() string {
	return f.NamespacePrefix() + f.CName
}

// ParamTypes returns the C types of the arguments in order.
func (f *Function) ParamTypes() []string {
	types := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		types[i] = a.Type
	}
	return types
}

// Definition renders "ret name(type name, ...)".
func (f *Function) Definition() string {
	return fmt.Sprintf("%s %s(%s)", f.ReturnType, f.CName, ArgumentList(f.Arguments))
}

// ArgumentList renders a C parameter list.
func ArgumentList(args []Argument) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Type)
		if a.Name != "" {
			b.WriteString(" ")
			b.WriteString(a.Name)
		}
	}
	return b.String()
}

// PyNameSingle returns the Python name without the class part.
func (f *Function) PyNameSingle() string {
	if i := strings.LastIndexByte(f.PyName, '.'); i >= 0 {
		return f.PyName[i+1:]
	}
	return f.PyName
}

// ClassName returns the class part of a dotted Python name, or "".
func (f *Function) ClassName() string {
	if i := strings.IndexByte(f.PyName, '.'); i >= 0 {
		return f.PyName[:i]
	}
	return ""
}

// IsClassMethod reports whether the Python name is dotted.
func (f *Function) IsClassMethod() bool {
	return strings.Contains(f.PyName, ".")
}

// IsNormal reports whether the method goes into the method table rather
// than a descriptor slot or the getset table.
func (f *Function) IsNormal() bool {
	if !f.IsClassMethod() {
		return true
	}
	if f.IsProperty {
		return false
	}
	return !isSlotMethod(f.PyNameSingle())
}

// role distinguishes the getter and setter of one property, which share a
// Python name.
func (f *Function) role() string {
	switch {
	case f.IsProperty && f.IsSetter:
		return "set"
	case f.IsProperty:
		return "get"
	}
	return ""
}

// Class is a native struct exposed as a Python type.
type Class struct {
	Scope
	CName      string
	PyName     string
	Doc        string
	File       string
	Line       int
	StructSize int // bytes; 0 when unknown
	Methods    []*Function
	Bases      []*Class

	// Set by Finalize.
	Names         NameSet
	NormalMethods []*Function
}

// Key returns the merge identity of the class.
func (c *Class) Key() string {
	return c.key(c.CName)
}

// FullCName is the namespace-qualified struct name.
func (c *Class) FullCName() string {
	return c.NamespacePrefix() + c.CName
}

// Method returns the first non-property method with the given Python name.
func (c *Class) Method(pyName string) *Function {
	for _, m := range c.Methods {
		if !m.IsProperty && m.PyNameSingle() == pyName {
			return m
		}
	}
	return nil
}

// HasMethod reports whether the class defines the method.
func (c *Class) HasMethod(pyName string) bool {
	return c.Method(pyName) != nil
}

func (c *Class) hasMember(f *Function) bool {
	for _, m := range c.Methods {
		if m.PyNameSingle() == f.PyNameSingle() && m.role() == f.role() {
			return true
		}
	}
	return false
}

// HasBase reports whether other is a direct or indirect base.
func (c *Class) HasBase(other *Class) bool {
	for _, b := range c.Bases {
		if b == other || b.HasBase(other) {
			return true
		}
	}
	return false
}

// HasNumberMethods reports whether any method belongs in PyNumberMethods.
func (c *Class) HasNumberMethods() bool {
	for _, m := range c.Methods {
		if !m.IsProperty && isNumberMethod(m.PyNameSingle()) {
			return true
		}
	}
	return false
}

// HasSequenceMethods reports whether any method belongs in PySequenceMethods.
func (c *Class) HasSequenceMethods() bool {
	for _, m := range c.Methods {
		if !m.IsProperty && isSequenceMethod(m.PyNameSingle()) {
			return true
		}
	}
	return false
}

// Property pairs the accessors of one Python property.
type Property struct {
	Name   string
	Getter *Function
	Setter *Function
}

// Doc returns the getter's doc, falling back to the setter's.
func (p Property) Doc() string {
	if p.Getter != nil && p.Getter.Doc != "" {
		return p.Getter.Doc
	}
	if p.Setter != nil {
		return p.Setter.Doc
	}
	return ""
}

// Properties returns the class properties in method order.
func (c *Class) Properties() []Property {
	var props []Property
	index := map[string]int{}
	for _, m := range c.Methods {
		if !m.IsProperty {
			continue
		}
		name := m.PyNameSingle()
		i, ok := index[name]
		if !ok {
			i = len(props)
			index[name] = i
			props = append(props, Property{Name: name})
		}
		if m.IsSetter {
			props[i].Setter = m
		} else {
			props[i].Getter = m
		}
	}
	return props
}

// Context is the root of a symbol model for one or more merged inputs.
type Context struct {
	ModuleName string
	ModuleDoc  string
	HeaderName string
	Inputs     []string
	Functions  []*Function
	Classes    []*Class

	finalized bool
}

// New returns an empty Context with default module naming.
func New() *Context {
	return &Context{
		ModuleName: "module",
		HeaderName: "module.h",
	}
}

// StructName is the variable name of the generated PyModuleDef.
func (c *Context) StructName() string { return "module_struct" }

// MethodStructName is the variable name of the module-level method table.
func (c *Context) MethodStructName() string { return "module_method_struct" }

// Finalized reports whether Finalize succeeded since the last mutation
// through Merge.
func (c *Context) Finalized() bool { return c.finalized }

// ClassByCName returns the first class with the given C name.
func (c *Context) ClassByCName(name string) *Class {
	for _, cls := range c.Classes {
		if cls.CName == name {
			return cls
		}
	}
	return nil
}

// ClassByPyName returns the first class with the given Python name.
func (c *Context) ClassByPyName(name string) *Class {
	for _, cls := range c.Classes {
		if cls.PyName == name {
			return cls
		}
	}
	return nil
}

// AllFunctions returns module functions followed by every class method.
func (c *Context) AllFunctions() []*Function {
	all := append([]*Function(nil), c.Functions...)
	for _, cls := range c.Classes {
		all = append(all, cls.Methods...)
	}
	return all
}
