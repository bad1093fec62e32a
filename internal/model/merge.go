package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/phobologic/lolpig/internal/diag"
)

// ErrNotFinalized is returned when a consumer needs a finalized Context.
var ErrNotFinalized = errors.New("context is not finalized")

// Merge adds the declarations of other that c does not have yet. Functions
// and classes are matched by Key; the first occurrence wins. A matching
// class absorbs the other's methods it lacks, and its bases when it has none.
func (c *Context) Merge(other *Context) {
	if other == nil {
		return
	}
	funcs := make(map[string]bool, len(c.Functions))
	for _, f := range c.Functions {
		funcs[f.Key()] = true
	}
	classes := make(map[string]*Class, len(c.Classes))
	for _, cls := range c.Classes {
		if _, ok := classes[cls.Key()]; !ok {
			classes[cls.Key()] = cls
		}
	}

	for _, f := range other.Functions {
		if funcs[f.Key()] {
			continue
		}
		funcs[f.Key()] = true
		c.Functions = append(c.Functions, f)
	}
	for _, cls := range other.Classes {
		if existing, ok := classes[cls.Key()]; ok {
			existing.merge(cls)
			continue
		}
		classes[cls.Key()] = cls
		c.Classes = append(c.Classes, cls)
	}
	for _, in := range other.Inputs {
		if !containsString(c.Inputs, in) {
			c.Inputs = append(c.Inputs, in)
		}
	}
	c.finalized = false
}

func (c *Class) merge(other *Class) {
	if c == other {
		return
	}
	for _, m := range other.Methods {
		if !c.hasMember(m) {
			c.Methods = append(c.Methods, m)
		}
	}
	if len(c.Bases) == 0 && len(other.Bases) > 0 {
		c.Bases = append([]*Class(nil), other.Bases...)
	}
}

// Finalize verifies every signature, derives generated names, sorts
// functions and classes by C name and orders classes so that bases come
// before the classes deriving from them. All signature mismatches are
// reported together.
func (c *Context) Finalize() error {
	var errs []error
	for _, f := range c.Functions {
		if err := f.Verify(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, cls := range c.Classes {
		errs = append(errs, cls.finalize()...)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	sort.SliceStable(c.Functions, func(i, j int) bool {
		return c.Functions[i].CName < c.Functions[j].CName
	})
	sort.SliceStable(c.Classes, func(i, j int) bool {
		return c.Classes[i].CName < c.Classes[j].CName
	})

	if err := c.resolveBases(); err != nil {
		return err
	}
	if err := checkInheritance(c.Classes); err != nil {
		return err
	}
	c.Classes = sortByBases(c.Classes)
	c.finalized = true
	return nil
}

func (c *Class) finalize() []error {
	c.Names = DeriveNames(c.CName, c.PyName)
	c.NormalMethods = c.NormalMethods[:0]
	var errs []error
	for _, m := range c.Methods {
		if m.IsNormal() {
			c.NormalMethods = append(c.NormalMethods, m)
		}
		if err := m.Verify(); err != nil {
			errs = append(errs, err)
		}
	}
	sort.SliceStable(c.Methods, func(i, j int) bool {
		return c.Methods[i].CName < c.Methods[j].CName
	})
	sort.SliceStable(c.NormalMethods, func(i, j int) bool {
		return c.NormalMethods[i].CName < c.NormalMethods[j].CName
	})
	return errs
}

// resolveBases points every base at the class of the same key owned by c.
// Bases adopted during Merge may belong to another input's Context.
func (c *Context) resolveBases() error {
	byKey := make(map[string]*Class, len(c.Classes))
	for _, cls := range c.Classes {
		if _, ok := byKey[cls.Key()]; !ok {
			byKey[cls.Key()] = cls
		}
	}
	for _, cls := range c.Classes {
		for i, b := range cls.Bases {
			owned, ok := byKey[b.Key()]
			if !ok {
				return &diag.ParseError{
					Msg: fmt.Sprintf("class %s", cls.PyName),
					Err: &diag.UnresolvedReference{Kind: "base", ID: b.Key(), From: cls.CName},
				}
			}
			cls.Bases[i] = owned
		}
	}
	return nil
}

// checkInheritance rejects cyclic base relations.
func checkInheritance(classes []*Class) error {
	g := graph.New(func(c *Class) string { return c.Key() }, graph.Directed(), graph.PreventCycles())
	for _, cls := range classes {
		if err := g.AddVertex(cls); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return err
		}
	}
	for _, cls := range classes {
		for _, b := range cls.Bases {
			err := g.AddEdge(b.Key(), cls.Key())
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return &diag.ParseError{Msg: fmt.Sprintf("class %s: inheritance cycle through base %s", cls.PyName, b.PyName)}
			default:
				return fmt.Errorf("class %s: %w", cls.PyName, err)
			}
		}
	}
	return nil
}

// sortByBases inserts each class in front of the first already placed
// class that derives from it.
func sortByBases(classes []*Class) []*Class {
	sorted := make([]*Class, 0, len(classes))
	for _, cls := range classes {
		i := 0
		for i < len(sorted) && !sorted[i].HasBase(cls) {
			i++
		}
		sorted = append(sorted, nil)
		copy(sorted[i+1:], sorted[i:])
		sorted[i] = cls
	}
	return sorted
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
