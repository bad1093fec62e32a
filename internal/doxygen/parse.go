// Package doxygen reads exported declarations from the XML doxygen writes
// for documentation groups. The target name of a declaration is the first
// inline code span of its detailed description.
package doxygen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phobologic/lolpig/internal/diag"
	"github.com/phobologic/lolpig/internal/model"
)

// Tags delimiting inline code spans while a description is flattened.
const (
	TagOpen  = "%LOLPIG{{{%"
	TagClose = "%LOLPIG}}}%"
)

// DefaultGroups are the documentation groups read when none are configured.
var DefaultGroups = []string{"python", "lolpig"}

// Parser runs doxygen and converts its group output.
type Parser struct {
	runner  Runner
	groups  []string
	tempDir string
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger for skipped declarations.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithGroups replaces DefaultGroups.
func WithGroups(groups ...string) Option {
	return func(p *Parser) { p.groups = groups }
}

// WithTempDir sets where the configuration and XML output are written.
func WithTempDir(dir string) Option {
	return func(p *Parser) { p.tempDir = dir }
}

// New returns a Parser that runs doxygen through runner.
func New(runner Runner, opts ...Option) *Parser {
	p := &Parser{runner: runner, groups: DefaultGroups}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Parse documents all inputs in one doxygen run and converts the result.
func (p *Parser) Parse(ctx context.Context, inputs []string) (*model.Context, error) {
	if p.runner == nil {
		return nil, errors.New("doxygen: no runner configured")
	}
	dir, err := os.MkdirTemp(p.tempDir, "lolpig-doxygen-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	conf := filepath.Join(dir, "Doxyfile")
	if err := os.WriteFile(conf, []byte(Doxyfile(inputs, dir)), 0o644); err != nil {
		return nil, fmt.Errorf("creating doxygen config: %w", err)
	}
	if err := p.runner.Run(ctx, conf); err != nil {
		return nil, fmt.Errorf("running doxygen: %w", err)
	}
	return p.ParseDir(filepath.Join(dir, XMLOutput), inputs)
}

// ParseDir converts an existing doxygen XML directory. Groups without a
// file are skipped.
func (p *Parser) ParseDir(xmlDir string, inputs []string) (*model.Context, error) {
	b := &builder{
		parser: p,
		xmlDir: xmlDir,
		stack:  &diag.Stack{},
		seen:   map[string]bool{},
		ids:    map[string]bool{},
	}
	b.stack.Push("reading doxygen output %s", xmlDir)
	for _, g := range p.groups {
		path := filepath.Join(xmlDir, "group__"+escapeName(g)+".xml")
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("no doxygen group file", "group", g, "path", path)
			continue
		}
		if err := b.file(path); err != nil {
			return nil, err
		}
	}
	return b.context(inputs), nil
}

// escapeName mirrors doxygen's file name escaping for compound names.
func escapeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '_':
			b.WriteString("__")
		case r >= 'A' && r <= 'Z':
			b.WriteByte('_')
			b.WriteRune(r - 'A' + 'a')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type record struct {
	cls   *model.Class
	bases []string
}

type builder struct {
	parser *Parser
	xmlDir string
	stack  *diag.Stack
	seen   map[string]bool
	ids    map[string]bool

	records   []record
	functions []*model.Function
}

func (b *builder) file(path string) error {
	if b.seen[path] {
		return nil
	}
	b.seen[path] = true

	b.stack.Push("scanning xml %s", filepath.Base(path))
	defer b.stack.Pop()

	root, err := parseTreeFile(path)
	if err != nil {
		return b.stack.Wrap(err, "reading xml")
	}
	comp := root.child("compounddef")
	if comp == nil {
		return b.stack.Errorf("no compounddef found in xml")
	}
	switch comp.attr("kind") {
	case "struct", "class":
		return b.record(comp)
	}
	for _, c := range comp.children {
		switch c.name {
		case "innerclass":
			refid := c.attr("refid")
			if refid == "" {
				return b.stack.Errorf("innerclass without refid")
			}
			if err := b.file(filepath.Join(b.xmlDir, refid+".xml")); err != nil {
				return err
			}
		case "sectiondef":
			for _, mem := range c.all("memberdef") {
				if err := b.member(mem); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *builder) member(mem *node) error {
	b.stack.Push("sectiondef.memberdef %s", mem.attr("id"))
	defer b.stack.Pop()

	switch mem.attr("kind") {
	case "":
		return b.stack.Errorf("memberdef without kind")
	case "function":
		return b.function(mem)
	}
	return nil
}

func (b *builder) record(comp *node) error {
	qualified := strings.TrimSpace(text(comp.child("compoundname")))
	b.stack.Push("parsing struct %s", qualified)
	defer b.stack.Pop()

	id := comp.attr("id")
	if b.ids[id] {
		return nil
	}
	b.ids[id] = true

	ann, err := b.annotation(comp)
	if err != nil {
		return err
	}
	file, line, err := b.location(comp)
	if err != nil {
		return err
	}
	ns, name := splitQualified(qualified)
	r := record{cls: &model.Class{
		Scope:  model.Scope{ID: id, Namespaces: ns},
		CName:  name,
		PyName: ann.pyName,
		Doc:    ann.doc,
		File:   file,
		Line:   line,
	}}
	for _, ref := range comp.all("basecompoundref") {
		_, base := splitQualified(strings.TrimSpace(text(ref)))
		r.bases = append(r.bases, base)
	}
	b.records = append(b.records, r)
	return nil
}

func (b *builder) function(mem *node) error {
	name := strings.TrimSpace(text(mem.child("name")))
	b.stack.Push("parsing function %s", name)
	defer b.stack.Pop()

	id := mem.attr("id")
	if b.ids[id] {
		return nil
	}
	b.ids[id] = true

	ret, err := b.typeOf(mem)
	if err != nil {
		return err
	}
	ann, err := b.annotation(mem)
	if err != nil {
		return err
	}
	file, line, err := b.location(mem)
	if err != nil {
		return err
	}
	ns := []string{model.GlobalNamespace}
	if q := strings.TrimSpace(text(mem.child("qualifiedname"))); q != "" {
		ns, _ = splitQualified(q)
	}
	f := &model.Function{
		Scope:      model.Scope{ID: id, Namespaces: ns},
		CName:      name,
		PyName:     ann.pyName,
		Doc:        ann.doc,
		ReturnType: ret,
		File:       file,
		Line:       line,
		EndLine:    line,
		IsProperty: ann.isProperty,
		IsSetter:   ann.isSetter,
	}

	b.stack.Push("parsing arguments")
	for _, param := range mem.all("param") {
		typ, err := b.typeOf(param)
		if err != nil {
			return err
		}
		argName := strings.TrimSpace(text(param.child("declname")))
		if typ == "void" && argName == "" {
			continue
		}
		f.Arguments = append(f.Arguments, model.Argument{Type: typ, Name: argName})
	}
	b.stack.Pop()

	b.functions = append(b.functions, f)
	return nil
}

type annotation struct {
	pyName     string
	doc        string
	isProperty bool
	isSetter   bool
}

func (b *builder) annotation(n *node) (annotation, error) {
	detailed := n.child("detaileddescription")
	if detailed == nil {
		return annotation{}, b.stack.Errorf("no <detaileddescription>")
	}
	doc := strings.TrimSpace(flatten(detailed))
	if !strings.HasPrefix(doc, TagOpen) {
		return annotation{}, b.stack.Errorf("no python name defined in documentation")
	}
	end := strings.Index(doc, TagClose)
	if end < 0 {
		return annotation{}, b.stack.Errorf("unterminated python name in documentation")
	}

	var ann annotation
	target := strings.TrimSpace(doc[len(TagOpen):end])
	ann.pyName, ann.isProperty, ann.isSetter = splitTarget(target)
	body := normalizeDoc(doc[end+len(TagClose):])
	if brief := n.child("briefdescription"); brief != nil {
		if s := normalizeDoc(flatten(brief)); s != "" {
			body = strings.TrimSpace(s + "\n" + body)
		}
	}
	ann.doc = body
	return ann, nil
}

func splitTarget(target string) (name string, isProperty, isSetter bool) {
	name, accessor, ok := strings.Cut(target, "@")
	if !ok {
		return name, false, false
	}
	return name, accessor == "get" || accessor == "set", accessor == "set"
}

func (b *builder) location(n *node) (string, int, error) {
	loc := n.child("location")
	if loc == nil {
		return "", 0, b.stack.Errorf("location not found")
	}
	line, _ := strconv.Atoi(loc.attr("line"))
	return loc.attr("file"), line, nil
}

func (b *builder) typeOf(n *node) (string, error) {
	t := n.child("type")
	if t == nil {
		return "", b.stack.Errorf("expected <type> in <%s>", n.name)
	}
	return normalizeType(text(t)), nil
}

func (b *builder) context(inputs []string) *model.Context {
	ctx := model.New()
	ctx.Inputs = append([]string(nil), inputs...)

	byPyName := map[string]*model.Class{}
	byCName := map[string]*model.Class{}
	for _, r := range b.records {
		ctx.Classes = append(ctx.Classes, r.cls)
		if _, ok := byPyName[r.cls.PyName]; !ok {
			byPyName[r.cls.PyName] = r.cls
		}
		if _, ok := byCName[r.cls.CName]; !ok {
			byCName[r.cls.CName] = r.cls
		}
	}
	for _, r := range b.records {
		for _, name := range r.bases {
			if base, ok := byCName[name]; ok && base != r.cls {
				r.cls.Bases = append(r.cls.Bases, base)
			}
		}
	}
	for _, f := range b.functions {
		if !f.IsClassMethod() {
			ctx.Functions = append(ctx.Functions, f)
			continue
		}
		cls, ok := byPyName[f.ClassName()]
		if !ok {
			b.parser.logger.Warn("dropping method of unknown class",
				"method", f.PyName, "class", f.ClassName(), "file", f.File, "line", f.Line)
			continue
		}
		cls.Methods = append(cls.Methods, f)
	}
	return ctx
}

func text(n *node) string {
	if n == nil {
		return ""
	}
	return n.innerText()
}

// flatten renders a description to text with code spans tagged.
func flatten(n *node) string {
	var b strings.Builder
	b.WriteString(n.text)
	for _, c := range n.children {
		s := flatten(c)
		if c.name == "computeroutput" {
			s = TagOpen + s + TagClose
		}
		b.WriteString(s)
		b.WriteString(c.tail)
	}
	return b.String()
}

func normalizeDoc(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// normalizeType turns doxygen type text such as "struct _object *" into
// the compact form used by the calling-convention table.
func normalizeType(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " *", "*")
	s = strings.ReplaceAll(s, " &", "&")
	return strings.TrimPrefix(s, "struct ")
}

func splitQualified(q string) (namespaces []string, name string) {
	parts := strings.Split(q, "::")
	namespaces = append([]string{model.GlobalNamespace}, parts[:len(parts)-1]...)
	return namespaces, parts[len(parts)-1]
}
