package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/lolpig/internal/castxml"
	"github.com/phobologic/lolpig/internal/config"
	"github.com/phobologic/lolpig/internal/discover"
	"github.com/phobologic/lolpig/internal/doxygen"
	"github.com/phobologic/lolpig/internal/lang"
	"github.com/phobologic/lolpig/internal/model"
	"github.com/phobologic/lolpig/internal/pipeline"
	"github.com/phobologic/lolpig/internal/pyscan"
	"github.com/phobologic/lolpig/internal/render"
)

var (
	errNoOutput = errors.New("no output file specified (-o)")
	errNoInput  = errors.New("no input files specified (-i)")
)

func newGenerateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [inputs...]",
		Short: "Write the binding header and source",
		Example: `  lolpig generate -i vector.h -o build/vector_py -m vector
  lolpig generate -i 'src/**/*.h' -o build/geom -n geom -n py --mode castxml`,
		Args: cobra.ArbitraryArgs,
		RunE: a.runGenerate,
	}
	addModelFlags(cmd)
	addOutputFlags(cmd)
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := a.load(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Output == "" {
		return errNoOutput
	}
	files, err := a.inputFiles(cfg)
	if err != nil {
		return err
	}
	return a.generate(cmd.Context(), cfg, files)
}

// inputFiles expands the configured inputs. Globs and directories only
// yield files the selected mode can read.
func (a *app) inputFiles(cfg *config.Config) ([]string, error) {
	if len(cfg.Inputs) == 0 {
		return nil, errNoInput
	}
	var languages []string
	switch cfg.Mode {
	case pipeline.ModePython:
		languages = []string{"python"}
	case pipeline.ModeCastXML, pipeline.ModeGCCXML, pipeline.ModeDoxygen:
		languages = []string{"cpp"}
	}
	files, err := discover.Inputs(cfg.Inputs, languages)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errNoInput
	}
	return files, nil
}

// buildModel runs the pipeline configured by cfg over files.
func (a *app) buildModel(ctx context.Context, cfg *config.Config, files []string) (*model.Context, error) {
	p, closeFn, err := a.newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	if cfg.Output != "" {
		p.HeaderName = filepath.Base(cfg.Output) + ".h"
	}
	return p.Run(ctx, files)
}

func (a *app) newPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	p := &pipeline.Pipeline{
		Mode:       cfg.Mode,
		Jobs:       cfg.Jobs,
		Exclude:    cfg.Exclude,
		ModuleName: cfg.Module,
		ModuleDoc:  cfg.ModuleDoc,
		Logger:     a.logger,
		FrontEnds:  map[string]pipeline.FrontEnd{},
	}
	if cfg.Progress {
		p.Progress = a.stderr
	}

	if cfg.Mode == pipeline.ModeDoxygen {
		p.Batch = doxygen.New(&doxygen.ExecRunner{Executable: cfg.Doxygen.Executable},
			doxygen.WithGroups(cfg.Doxygen.Groups...),
			doxygen.WithLogger(a.logger))
		return p, func() {}, nil
	}

	sources, err := castxml.NewSources(0)
	if err != nil {
		return nil, nil, err
	}
	dialect := castxml.CastXML
	if cfg.Mode == pipeline.ModeGCCXML {
		dialect = castxml.GCCXML
	}
	cx, err := castxml.New(&castxml.ExecRunner{
		Dialect:    dialect,
		Executable: cfg.Parser.Executable,
		Flags:      cfg.Parser.Flags,
	}, castxml.WithLogger(a.logger), castxml.WithSources(sources))
	if err != nil {
		sources.Close()
		return nil, nil, err
	}
	p.FrontEnds[lang.FrontEndCastXML] = cx
	p.FrontEnds[lang.FrontEndPython] = a.pythonScanner(cfg)
	return p, sources.Close, nil
}

func (a *app) pythonScanner(cfg *config.Config) *pyscan.Scanner {
	opts := []pyscan.Option{pyscan.WithLogger(a.logger)}
	switch {
	case cfg.Python.Embedded:
		opts = append(opts, pyscan.WithInterpreter(&pyscan.EmbeddedPython{RuntimeDir: cfg.Python.RuntimeDir}))
	case cfg.Python.Introspect:
		opts = append(opts, pyscan.WithInterpreter(pyscan.SystemPython{Executable: cfg.Python.Executable}))
	}
	return pyscan.New(opts...)
}

// generate builds the model and writes <output>.h and <output>.cpp.
func (a *app) generate(ctx context.Context, cfg *config.Config, files []string) error {
	m, err := a.buildModel(ctx, cfg, files)
	if err != nil {
		return err
	}
	r, err := render.New(m, render.Options{
		Namespaces: cfg.Namespaces,
		Includes:   cfg.IncludeLines(),
	})
	if err != nil {
		return err
	}
	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := a.write(cfg.Output+".h", r.Header()); err != nil {
		return err
	}
	return a.write(cfg.Output+".cpp", r.Source())
}

func (a *app) write(path, content string) error {
	written, err := render.WriteFile(path, content)
	if err != nil {
		return err
	}
	if written {
		_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", path)
	} else {
		_, _ = fmt.Fprintf(a.stderr, "%s unchanged\n", path)
	}
	return nil
}
