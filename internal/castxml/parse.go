// Package castxml reads C++ declarations from castxml or gccxml output and
// turns the LOLPIG_DEF annotated ones into a symbol model.
package castxml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phobologic/lolpig/internal/diag"
	"github.com/phobologic/lolpig/internal/model"
)

// Parser converts declaration documents into model Contexts.
type Parser struct {
	runner  Runner
	sources *Sources
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger for skipped declarations.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithSources shares a source cache between parsers.
func WithSources(s *Sources) Option {
	return func(p *Parser) { p.sources = s }
}

// New returns a Parser that obtains XML from runner.
func New(runner Runner, opts ...Option) (*Parser, error) {
	p := &Parser{runner: runner}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.sources == nil {
		s, err := NewSources(0)
		if err != nil {
			return nil, err
		}
		p.sources = s
	}
	return p, nil
}

// Parse runs the external parser on file and converts its output.
func (p *Parser) Parse(ctx context.Context, file string) (*model.Context, error) {
	if p.runner == nil {
		return nil, fmt.Errorf("parsing %s: no parser runner configured", file)
	}
	data, err := p.runner.Run(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}
	return p.ParseXML(bytes.NewReader(data), file)
}

// ParseXML converts an already produced declaration document. input names
// the translation unit for messages and Context.Inputs.
func (p *Parser) ParseXML(r io.Reader, input string) (*model.Context, error) {
	doc, err := decode(r)
	if err != nil {
		return nil, &diag.ParseError{File: input, Err: err}
	}
	b := &builder{
		parser: p,
		ix:     newIndex(doc),
		stack:  &diag.Stack{},
		ctx:    model.New(),
	}
	b.ctx.Inputs = []string{input}
	b.stack.Push("parsing %s", input)
	if err := b.build(doc); err != nil {
		return nil, err
	}
	return b.ctx, nil
}

type builder struct {
	parser *Parser
	ix     *index
	stack  *diag.Stack
	ctx    *model.Context

	byPyName map[string]*model.Class
}

type pendingBases struct {
	cls *model.Class
	rec xmlRecord
}

func (b *builder) build(doc *document) error {
	b.byPyName = map[string]*model.Class{}
	byCName := map[string]*model.Class{}
	var pending []pendingBases

	for _, list := range [][]xmlRecord{doc.Structs, doc.Classes} {
		for _, rec := range list {
			if rec.Name == "" {
				continue
			}
			cls, err := b.class(rec)
			if err != nil {
				return err
			}
			if cls == nil {
				continue
			}
			b.ctx.Classes = append(b.ctx.Classes, cls)
			if _, ok := b.byPyName[cls.PyName]; !ok {
				b.byPyName[cls.PyName] = cls
			}
			if _, ok := byCName[cls.CName]; !ok {
				byCName[cls.CName] = cls
			}
			pending = append(pending, pendingBases{cls: cls, rec: rec})
		}
	}

	for _, pb := range pending {
		for _, id := range pb.rec.baseIDs() {
			base, ok := b.ix.records[id]
			if !ok {
				return b.stack.Wrap(&diag.UnresolvedReference{Kind: "base", ID: id, From: pb.rec.Name},
					"struct %s", pb.rec.Name)
			}
			// bases that are not exported are not part of the model
			if cls, ok := byCName[base.Name]; ok && cls != pb.cls {
				pb.cls.Bases = append(pb.cls.Bases, cls)
			}
		}
	}

	for _, fn := range doc.Functions {
		f, err := b.function(fn)
		if err != nil {
			return err
		}
		if f == nil {
			continue
		}
		if !f.IsClassMethod() {
			b.ctx.Functions = append(b.ctx.Functions, f)
			continue
		}
		cls, ok := b.byPyName[f.ClassName()]
		if !ok {
			b.parser.logger.Warn("dropping method of unknown class",
				"method", f.PyName, "class", f.ClassName(), "file", f.File, "line", f.Line)
			continue
		}
		cls.Methods = append(cls.Methods, f)
	}
	return nil
}

func (b *builder) class(rec xmlRecord) (*model.Class, error) {
	b.stack.Push("parsing struct %s", rec.Name)
	defer b.stack.Pop()

	file, ann, ok, err := b.annotation(rec.xmlLocated)
	if err != nil || !ok {
		return nil, err
	}
	ns, err := b.ix.scope(rec.Context)
	if err != nil {
		return nil, b.stack.Wrap(err, "resolving context")
	}
	return &model.Class{
		Scope:      model.Scope{ID: rec.Mangled, Namespaces: ns},
		CName:      rec.Name,
		PyName:     ann.PyName,
		Doc:        ann.Doc,
		File:       file,
		Line:       rec.line(),
		StructSize: atoi(rec.Size) / 8,
	}, nil
}

func (b *builder) function(fn xmlFunction) (*model.Function, error) {
	b.stack.Push("parsing function %s", fn.Name)
	defer b.stack.Pop()

	file, ann, ok, err := b.annotation(fn.xmlLocated)
	if err != nil || !ok {
		return nil, err
	}
	ret, err := b.ix.typeName(fn.Returns)
	if err != nil {
		return nil, b.stack.Wrap(err, "resolving return type")
	}
	ns, err := b.ix.scope(fn.Context)
	if err != nil {
		return nil, b.stack.Wrap(err, "resolving context")
	}
	f := &model.Function{
		Scope:      model.Scope{ID: fn.Mangled, Namespaces: ns},
		CName:      fn.Name,
		PyName:     ann.PyName,
		Doc:        ann.Doc,
		ReturnType: ret,
		File:       file,
		Line:       fn.line(),
		EndLine:    fn.endline(),
		IsProperty: ann.IsProperty,
		IsSetter:   ann.IsSetter,
	}
	for i, arg := range fn.Arguments {
		typ, err := b.ix.typeName(arg.Type)
		if err != nil {
			return nil, b.stack.Wrap(err, "resolving argument #%d", i+1)
		}
		f.Arguments = append(f.Arguments, model.Argument{Type: typ, Name: arg.Name})
	}
	return f, nil
}

// annotation recovers the marker of a declaration from its source file.
func (b *builder) annotation(loc xmlLocated) (file string, ann Annotation, ok bool, err error) {
	if loc.File == "" {
		return "", Annotation{}, false, nil
	}
	file, known := b.ix.files[loc.File]
	if !known {
		return "", Annotation{}, false, b.stack.Wrap(
			&diag.UnresolvedReference{Kind: "file", ID: loc.File, From: loc.Name}, "resolving file")
	}
	lines, err := b.parser.sources.Lines(file)
	if err != nil {
		return "", Annotation{}, false, b.stack.Wrap(err, "scanning source")
	}
	if lines == nil {
		return file, Annotation{}, false, nil
	}
	ann, ok, err = FindMarker(lines, loc.line())
	if err != nil {
		pe := b.stack.Wrap(err, "scanning for %s", Marker)
		pe.File, pe.Line = file, loc.line()
		return "", Annotation{}, false, pe
	}
	return file, ann, ok, nil
}
