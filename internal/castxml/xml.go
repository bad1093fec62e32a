package castxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// document is the subset of castxml/gccxml output the adapter reads. The
// root element differs between the two tools ("CastXML", "GCC_XML") and is
// not checked.
type document struct {
	Namespaces       []xmlNamespace `xml:"Namespace"`
	Files            []xmlFile      `xml:"File"`
	Functions        []xmlFunction  `xml:"Function"`
	Structs          []xmlRecord    `xml:"Struct"`
	Classes          []xmlRecord    `xml:"Class"`
	Fields           []xmlField     `xml:"Field"`
	FundamentalTypes []xmlType      `xml:"FundamentalType"`
	PointerTypes     []xmlType      `xml:"PointerType"`
	ReferenceTypes   []xmlType      `xml:"ReferenceType"`
	CvQualifiedTypes []xmlType      `xml:"CvQualifiedType"`
	ArrayTypes       []xmlType      `xml:"ArrayType"`
	FunctionTypes    []xmlType      `xml:"FunctionType"`
	ElaboratedTypes  []xmlType      `xml:"ElaboratedType"`
	Unions           []xmlType      `xml:"Union"`
	Typedefs         []xmlType      `xml:"Typedef"`
	Enumerations     []xmlType      `xml:"Enumeration"`
}

// xmlLocated carries the attributes shared by every declaration.
type xmlLocated struct {
	ID      string `xml:"id,attr"`
	Name    string `xml:"name,attr"`
	Context string `xml:"context,attr"`
	File    string `xml:"file,attr"`
	Line    string `xml:"line,attr"`
	Endline string `xml:"endline,attr"`
}

func (x xmlLocated) line() int    { return atoi(x.Line) }
func (x xmlLocated) endline() int { return max(atoi(x.Endline), x.line()) }

type xmlNamespace struct {
	xmlLocated
}

type xmlFile struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type xmlArgument struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type xmlFunction struct {
	xmlLocated
	Returns    string        `xml:"returns,attr"`
	Mangled    string        `xml:"mangled,attr"`
	Attributes string        `xml:"attributes,attr"`
	Arguments  []xmlArgument `xml:"Argument"`
}

type xmlBase struct {
	Type string `xml:"type,attr"`
}

type xmlRecord struct {
	xmlLocated
	Size    string    `xml:"size,attr"`
	Mangled string    `xml:"mangled,attr"`
	XBases  string    `xml:"bases,attr"`
	Bases   []xmlBase `xml:"Base"`
}

// baseIDs merges the gccxml "bases" attribute ("_5 private:_7") with
// castxml Base children.
func (x xmlRecord) baseIDs() []string {
	var ids []string
	for _, b := range strings.Fields(x.XBases) {
		if i := strings.LastIndexByte(b, ':'); i >= 0 {
			b = b[i+1:]
		}
		ids = append(ids, b)
	}
	for _, b := range x.Bases {
		ids = append(ids, b.Type)
	}
	return ids
}

type xmlField struct {
	xmlLocated
	Type string `xml:"type,attr"`
}

type xmlType struct {
	xmlLocated
	Type string `xml:"type,attr"`
	Size string `xml:"size,attr"`
	Min  string `xml:"min,attr"`
	Max  string `xml:"max,attr"`
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(s, "u"))
	if err != nil {
		return 0
	}
	return n
}

func decode(r io.Reader) (*document, error) {
	doc := &document{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding declaration xml: %w", err)
	}
	return doc, nil
}
