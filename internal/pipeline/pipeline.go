// Package pipeline reads every input through its front end, merges the
// results in input order, drops excluded targets and finalizes the model.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/gobwas/glob"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/lolpig/internal/lang"
	"github.com/phobologic/lolpig/internal/model"
)

// Input modes.
const (
	ModeAuto    = "auto"
	ModeCastXML = "castxml"
	ModeGCCXML  = "gccxml"
	ModeDoxygen = "doxygen"
	ModePython  = "python"
)

// Modes lists every accepted mode.
var Modes = []string{ModeAuto, ModeCastXML, ModeGCCXML, ModeDoxygen, ModePython}

// ErrNoInputs is returned when Run is given nothing to read.
var ErrNoInputs = errors.New("no input files specified")

// FrontEnd reads one input file.
type FrontEnd interface {
	Parse(ctx context.Context, path string) (*model.Context, error)
}

// BatchFrontEnd reads all inputs at once.
type BatchFrontEnd interface {
	Parse(ctx context.Context, paths []string) (*model.Context, error)
}

// Pipeline holds the front ends and the options of one generation run.
type Pipeline struct {
	// Mode selects the front end; see Modes. Empty means ModeAuto.
	Mode string
	// FrontEnds are keyed by lang.FrontEndCastXML and lang.FrontEndPython.
	// The castxml entry also serves ModeGCCXML.
	FrontEnds map[string]FrontEnd
	// Batch serves ModeDoxygen.
	Batch BatchFrontEnd
	// Jobs bounds concurrent parses; 0 means GOMAXPROCS.
	Jobs int
	// Exclude holds glob patterns over target names, '.' separated.
	Exclude []string
	// ModuleName and ModuleDoc override what the front ends report.
	ModuleName string
	ModuleDoc  string
	// HeaderName is the include name of the generated header.
	HeaderName string
	// Progress receives a progress bar when set.
	Progress io.Writer
	Logger   *slog.Logger
}

// Run parses inputs and returns the finalized Context.
func (p *Pipeline) Run(ctx context.Context, inputs []string) (*model.Context, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	excludes, err := CompileExcludes(p.Exclude)
	if err != nil {
		return nil, err
	}

	var parts []*model.Context
	if p.mode() == ModeDoxygen {
		if p.Batch == nil {
			return nil, fmt.Errorf("mode %s: no front end configured", ModeDoxygen)
		}
		part, err := p.Batch.Parse(ctx, inputs)
		if err != nil {
			return nil, err
		}
		parts = []*model.Context{part}
	} else {
		parts, err = p.parseAll(ctx, inputs)
		if err != nil {
			return nil, err
		}
	}

	result := merge(parts)
	if p.ModuleName != "" {
		result.ModuleName = p.ModuleName
	}
	if p.ModuleDoc != "" {
		result.ModuleDoc = p.ModuleDoc
	}
	if p.HeaderName != "" {
		result.HeaderName = p.HeaderName
	}
	p.exclude(result, excludes)

	if err := result.Finalize(); err != nil {
		return nil, err
	}
	p.logger().Debug("model finalized",
		"functions", len(result.Functions), "classes", len(result.Classes), "inputs", len(result.Inputs))
	return result, nil
}

func (p *Pipeline) mode() string {
	if p.Mode == "" {
		return ModeAuto
	}
	return p.Mode
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// FrontEndFor returns the front end that reads path in the current mode.
func (p *Pipeline) FrontEndFor(path string) (FrontEnd, error) {
	var name string
	switch mode := p.mode(); mode {
	case ModeCastXML, ModeGCCXML:
		name = lang.FrontEndCastXML
	case ModePython:
		name = lang.FrontEndPython
	case ModeAuto:
		l := lang.ForPath(path)
		if l == nil {
			return nil, fmt.Errorf("%s: no front end for this file type", path)
		}
		name = l.FrontEnd
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	fe, ok := p.FrontEnds[name]
	if !ok || fe == nil {
		return nil, fmt.Errorf("%s: %s front end not configured", path, name)
	}
	return fe, nil
}

// parseAll parses every input with bounded concurrency. The first error
// cancels the remaining parses.
func (p *Pipeline) parseAll(ctx context.Context, inputs []string) ([]*model.Context, error) {
	frontEnds := make([]FrontEnd, len(inputs))
	for i, in := range inputs {
		fe, err := p.FrontEndFor(in)
		if err != nil {
			return nil, err
		}
		frontEnds[i] = fe
	}

	jobs := p.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	bar := p.newBar(len(inputs))

	parts := make([]*model.Context, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, in := range inputs {
		g.Go(func() error {
			p.logger().Debug("parsing input", "path", in)
			part, err := frontEnds[i].Parse(gctx, in)
			if err != nil {
				return err
			}
			parts[i] = part
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func (p *Pipeline) newBar(n int) *progressbar.ProgressBar {
	if p.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Parsing inputs"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetWriter(p.Progress),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
}

// merge folds parts into one Context in order. The module name and doc
// come from the first part that has a non-default one.
func merge(parts []*model.Context) *model.Context {
	result := model.New()
	defaultName := result.ModuleName
	for _, part := range parts {
		if part == nil {
			continue
		}
		if result.ModuleName == defaultName && part.ModuleName != "" {
			result.ModuleName = part.ModuleName
		}
		if result.ModuleDoc == "" {
			result.ModuleDoc = part.ModuleDoc
		}
		result.Merge(part)
	}
	return result
}

// CompileExcludes compiles exclude patterns over '.' separated target
// names, so "*._*" drops private members but not whole modules.
func CompileExcludes(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pat := range patterns {
		g, err := glob.Compile(pat, '.')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pat, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (p *Pipeline) exclude(c *model.Context, globs []glob.Glob) {
	if len(globs) == 0 {
		return
	}
	log := p.logger()
	c.Functions = slices.DeleteFunc(c.Functions, func(f *model.Function) bool {
		if matchAny(globs, f.PyName) {
			log.Debug("excluding function", "name", f.PyName)
			return true
		}
		return false
	})
	c.Classes = slices.DeleteFunc(c.Classes, func(cls *model.Class) bool {
		if matchAny(globs, cls.PyName) {
			log.Debug("excluding class", "name", cls.PyName)
			return true
		}
		return false
	})
	for _, cls := range c.Classes {
		cls.Methods = slices.DeleteFunc(cls.Methods, func(m *model.Function) bool {
			if matchAny(globs, m.PyName) {
				log.Debug("excluding method", "name", m.PyName)
				return true
			}
			return false
		})
	}
}
