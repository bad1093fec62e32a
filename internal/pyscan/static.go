package pyscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/lolpig/internal/lang"
)

// ModuleName is the import name of a module file: its base name without
// extension.
func ModuleName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// ScanFile statically scans a Python source file.
func ScanFile(ctx context.Context, path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ScanSource(ctx, ModuleName(path), src)
}

// ScanSource parses Python source and collects the top-level functions and
// classes with their docstrings and argument specifications. Nothing is
// executed, so only literal definitions are seen.
func ScanSource(ctx context.Context, name string, src []byte) (*Module, error) {
	py := lang.Languages["python"]
	tree, err := py.NewParser().ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	mod := &Module{Name: name, Doc: lang.PythonDocstring(root, src)}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		def, _ := unwrap(root.NamedChild(i), src)
		switch def.Type() {
		case "function_definition":
			mod.Functions = append(mod.Functions, scanFunc(def, src))
		case "class_definition":
			mod.Classes = append(mod.Classes, scanClass(def, src))
		}
	}
	return mod, nil
}

// unwrap returns the definition inside a decorated_definition and the
// names of its decorators.
func unwrap(node *sitter.Node, src []byte) (*sitter.Node, []string) {
	if node.Type() != "decorated_definition" {
		return node, nil
	}
	var decorators []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "decorator" {
			text := strings.TrimSpace(strings.TrimPrefix(lang.NodeText(child, src), "@"))
			if j := strings.IndexByte(text, '('); j >= 0 {
				text = text[:j]
			}
			decorators = append(decorators, text)
		}
	}
	if def := node.ChildByFieldName("definition"); def != nil {
		return def, decorators
	}
	return node, decorators
}

func scanFunc(def *sitter.Node, src []byte) Func {
	return Func{
		Name: lang.PythonName(def, src),
		Doc:  lang.PythonDocstring(def.ChildByFieldName("body"), src),
		Spec: argSpec(def.ChildByFieldName("parameters"), src),
	}
}

func scanClass(def *sitter.Node, src []byte) Class {
	body := def.ChildByFieldName("body")
	cls := Class{
		Name: lang.PythonName(def, src),
		Doc:  lang.PythonDocstring(body, src),
	}
	if supers := def.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			arg := supers.NamedChild(i)
			switch arg.Type() {
			case "identifier":
				cls.Bases = append(cls.Bases, lang.NodeText(arg, src))
			case "attribute":
				text := lang.NodeText(arg, src)
				cls.Bases = append(cls.Bases, text[strings.LastIndexByte(text, '.')+1:])
			}
		}
	}
	if body == nil {
		return cls
	}

	props := map[string]int{}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		def, decorators := unwrap(body.NamedChild(i), src)
		if def.Type() != "function_definition" {
			continue
		}
		fn := scanFunc(def, src)
		switch accessor, prop := propertyRole(decorators, fn.Name); accessor {
		case "getter":
			props[prop] = len(cls.Properties)
			cls.Properties = append(cls.Properties, Property{Name: prop, Doc: fn.Doc})
		case "setter":
			idx, ok := props[prop]
			if !ok {
				props[prop] = len(cls.Properties)
				idx = len(cls.Properties)
				cls.Properties = append(cls.Properties, Property{Name: prop})
			}
			cls.Properties[idx].Setter = true
			cls.Properties[idx].SetterDoc = fn.Doc
		default:
			cls.Methods = append(cls.Methods, fn)
		}
	}
	return cls
}

// propertyRole classifies a method by its decorators: "@property" makes a
// getter, "@x.setter" a setter of property x.
func propertyRole(decorators []string, name string) (accessor, property string) {
	for _, d := range decorators {
		switch {
		case d == "property":
			return "getter", name
		case strings.HasSuffix(d, ".setter"):
			return "setter", strings.TrimSuffix(d, ".setter")
		}
	}
	return "", ""
}

// argSpec mirrors inspect.getfullargspec: positional parameters up to a
// bare "*" or "*args" count; keyword-only parameters do not.
func argSpec(params *sitter.Node, src []byte) *ArgSpec {
	spec := &ArgSpec{}
	if params == nil {
		return spec
	}
	keywordOnly := false
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		kind := p.Type()
		if kind == "typed_parameter" && p.NamedChildCount() > 0 {
			if inner := p.NamedChild(0); inner.Type() != "identifier" {
				kind = inner.Type()
			}
		}
		switch kind {
		case "identifier", "typed_parameter":
			if !keywordOnly {
				spec.Args = append(spec.Args, paramName(p, src))
			}
		case "default_parameter", "typed_default_parameter":
			if !keywordOnly {
				spec.Args = append(spec.Args, paramName(p, src))
				spec.Defaults++
			}
		case "list_splat_pattern":
			spec.VarArgs = true
			keywordOnly = true
		case "keyword_separator":
			keywordOnly = true
		case "dictionary_splat_pattern":
			spec.VarKW = true
		}
	}
	return spec
}

func paramName(p *sitter.Node, src []byte) string {
	if p.Type() == "identifier" {
		return lang.NodeText(p, src)
	}
	if n := p.ChildByFieldName("name"); n != nil {
		return lang.NodeText(n, src)
	}
	for i := 0; i < int(p.NamedChildCount()); i++ {
		if c := p.NamedChild(i); c.Type() == "identifier" {
			return lang.NodeText(c, src)
		}
	}
	return lang.NodeText(p, src)
}
