package castxml

import (
	"fmt"

	"github.com/phobologic/lolpig/internal/diag"
)

type typeKind int

const (
	kindNamed typeKind = iota
	kindPointer
	kindReference
	kindConst
	kindArray
)

type typeNode struct {
	xmlType
	kind typeKind
}

// maxTypeDepth bounds reference chains so a malformed document cannot loop.
const maxTypeDepth = 64

// index maps declaration ids to their nodes for one document.
type index struct {
	files      map[string]string
	namespaces map[string]xmlNamespace
	records    map[string]xmlRecord
	types      map[string]typeNode
	names      map[string]string
}

func newIndex(doc *document) *index {
	ix := &index{
		files:      make(map[string]string, len(doc.Files)),
		namespaces: make(map[string]xmlNamespace, len(doc.Namespaces)),
		records:    make(map[string]xmlRecord, len(doc.Structs)+len(doc.Classes)),
		types:      map[string]typeNode{},
		names:      map[string]string{},
	}
	for _, f := range doc.Files {
		if _, ok := ix.files[f.ID]; !ok {
			ix.files[f.ID] = f.Name
		}
	}
	for _, n := range doc.Namespaces {
		if _, ok := ix.namespaces[n.ID]; !ok {
			ix.namespaces[n.ID] = n
		}
	}
	for _, list := range [][]xmlRecord{doc.Structs, doc.Classes} {
		for _, r := range list {
			if _, ok := ix.records[r.ID]; !ok {
				ix.records[r.ID] = r
			}
		}
	}
	add := func(kind typeKind, list []xmlType) {
		for _, t := range list {
			if _, ok := ix.types[t.ID]; !ok {
				ix.types[t.ID] = typeNode{xmlType: t, kind: kind}
			}
		}
	}
	add(kindNamed, doc.FundamentalTypes)
	add(kindPointer, doc.PointerTypes)
	add(kindReference, doc.ReferenceTypes)
	add(kindConst, doc.CvQualifiedTypes)
	add(kindArray, doc.ArrayTypes)
	add(kindNamed, doc.FunctionTypes)
	add(kindNamed, doc.ElaboratedTypes)
	add(kindNamed, doc.Unions)
	add(kindNamed, doc.Typedefs)
	add(kindNamed, doc.Enumerations)
	return ix
}

// typeName returns the C display name of a type id, composing pointer,
// reference and const wrappers along the reference chain.
func (ix *index) typeName(id string) (string, error) {
	return ix.typeNameDepth(id, 0)
}

func (ix *index) typeNameDepth(id string, depth int) (string, error) {
	if name, ok := ix.names[id]; ok {
		return name, nil
	}
	if depth > maxTypeDepth {
		return "", fmt.Errorf("type reference chain through %s is too deep", id)
	}
	if r, ok := ix.records[id]; ok {
		return r.Name, nil
	}
	t, ok := ix.types[id]
	if !ok {
		return "", &diag.UnresolvedReference{Kind: "type", ID: id}
	}

	var name string
	switch t.kind {
	case kindPointer, kindReference, kindConst, kindArray:
		base, err := ix.typeNameDepth(t.Type, depth+1)
		if err != nil {
			return "", err
		}
		switch t.kind {
		case kindPointer:
			name = base + "*"
		case kindReference:
			name = base + "&"
		case kindArray:
			name = base + "[]"
		default:
			if ref, ok := ix.types[t.Type]; ok && ref.kind == kindPointer {
				name = base + " const"
			} else {
				name = "const " + base
			}
		}
	default:
		switch {
		case t.Name != "":
			name = t.Name
		case t.Type != "":
			base, err := ix.typeNameDepth(t.Type, depth+1)
			if err != nil {
				return "", err
			}
			name = base
		default:
			name = t.ID
		}
	}
	ix.names[id] = name
	return name, nil
}

// scope returns the chain of enclosing namespace and record names for a
// context id, outermost first. The global namespace appears as "::".
func (ix *index) scope(contextID string) ([]string, error) {
	var chain []string
	seen := map[string]bool{}
	for id := contextID; id != ""; {
		if seen[id] {
			return nil, fmt.Errorf("context cycle through %s", id)
		}
		seen[id] = true
		if n, ok := ix.namespaces[id]; ok {
			chain = append([]string{n.Name}, chain...)
			id = n.Context
			continue
		}
		if r, ok := ix.records[id]; ok {
			chain = append([]string{r.Name}, chain...)
			id = r.Context
			continue
		}
		return nil, &diag.UnresolvedReference{Kind: "context", ID: id}
	}
	return chain, nil
}
