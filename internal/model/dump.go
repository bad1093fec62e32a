package model

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable listing of the model.
func (c *Context) Dump(w io.Writer) error {
	var b strings.Builder
	b.WriteString("FUNCTIONS:\n")
	for _, f := range c.Functions {
		fmt.Fprintf(&b, "  %s %s%s(%s) %s (%s) [%s]\n",
			f.ReturnType, f.NamespacePrefix(), f.CName, ArgumentList(f.Arguments),
			shapeString(f), f.Key(), f.Doc)
	}
	b.WriteString("CLASSES:\n")
	for _, cls := range c.Classes {
		fmt.Fprintf(&b, "  %s%s", cls.NamespacePrefix(), cls.PyName)
		for _, base := range cls.Bases {
			fmt.Fprintf(&b, " -> %s", base.PyName)
		}
		fmt.Fprintf(&b, " (%s)\n", cls.Key())
		for _, m := range cls.Methods {
			fmt.Fprintf(&b, "    %s %s (%s)\n", m.PyName, shapeString(m), m.Key())
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func shapeString(f *Function) string {
	if s, ok := f.Classify(); ok {
		return s
	}
	return "None"
}

// Snapshot is a serializable view of a Context.
type Snapshot struct {
	Module    string          `json:"module" toml:"module"`
	Doc       string          `json:"doc,omitempty" toml:"doc,omitempty"`
	Header    string          `json:"header" toml:"header"`
	Inputs    []string        `json:"inputs,omitempty" toml:"inputs,omitempty"`
	Functions []FunctionEntry `json:"functions" toml:"functions"`
	Classes   []ClassEntry    `json:"classes" toml:"classes"`
}

// FunctionEntry is the serializable view of a Function.
type FunctionEntry struct {
	PyName     string   `json:"py_name" toml:"py_name"`
	CName      string   `json:"c_name" toml:"c_name"`
	Key        string   `json:"key" toml:"key"`
	Definition string   `json:"definition" toml:"definition"`
	Shape      string   `json:"shape,omitempty" toml:"shape,omitempty"`
	CallKind   string   `json:"call_kind" toml:"call_kind"`
	Namespaces []string `json:"namespaces,omitempty" toml:"namespaces,omitempty"`
	Property   string   `json:"property,omitempty" toml:"property,omitempty"`
	Doc        string   `json:"doc,omitempty" toml:"doc,omitempty"`
}

// ClassEntry is the serializable view of a Class.
type ClassEntry struct {
	PyName     string          `json:"py_name" toml:"py_name"`
	CName      string          `json:"c_name" toml:"c_name"`
	Key        string          `json:"key" toml:"key"`
	Namespaces []string        `json:"namespaces,omitempty" toml:"namespaces,omitempty"`
	Bases      []string        `json:"bases,omitempty" toml:"bases,omitempty"`
	Size       int             `json:"size,omitempty" toml:"size,omitempty"`
	Doc        string          `json:"doc,omitempty" toml:"doc,omitempty"`
	Methods    []FunctionEntry `json:"methods,omitempty" toml:"methods,omitempty"`
}

// Snapshot returns the serializable view of c.
func (c *Context) Snapshot() Snapshot {
	s := Snapshot{
		Module:    c.ModuleName,
		Doc:       c.ModuleDoc,
		Header:    c.HeaderName,
		Inputs:    c.Inputs,
		Functions: []FunctionEntry{},
		Classes:   []ClassEntry{},
	}
	for _, f := range c.Functions {
		s.Functions = append(s.Functions, functionEntry(f))
	}
	for _, cls := range c.Classes {
		e := ClassEntry{
			PyName:     cls.PyName,
			CName:      cls.CName,
			Key:        cls.Key(),
			Namespaces: nonGlobal(cls.Namespaces),
			Size:       cls.StructSize,
			Doc:        cls.Doc,
		}
		for _, b := range cls.Bases {
			e.Bases = append(e.Bases, b.PyName)
		}
		for _, m := range cls.Methods {
			e.Methods = append(e.Methods, functionEntry(m))
		}
		s.Classes = append(s.Classes, e)
	}
	return s
}

func functionEntry(f *Function) FunctionEntry {
	shape, _ := f.Classify()
	return FunctionEntry{
		PyName:     f.PyName,
		CName:      f.CName,
		Key:        f.Key(),
		Definition: f.Definition(),
		Shape:      shape,
		CallKind:   string(f.CallKind()),
		Namespaces: nonGlobal(f.Namespaces),
		Property:   f.role(),
		Doc:        f.Doc,
	}
}

func nonGlobal(ns []string) []string {
	var out []string
	for _, n := range ns {
		if n != GlobalNamespace {
			out = append(out, n)
		}
	}
	return out
}
