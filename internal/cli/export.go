package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/lolpig/internal/pipeline"
	"github.com/phobologic/lolpig/internal/render"
)

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [modules...]",
		Short: "Write an annotated C++ skeleton for a Python module",
		Long: `export reads Python modules and writes <base>.cpp with a LOLPIG_DEF
annotated declaration for every function, class and method, ready to be
filled in. Without -o the skeleton goes to stdout.`,
		Example: "  lolpig export -i vector.py -o src/vector",
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			if cfg.Mode == pipeline.ModeAuto {
				cfg.Mode = pipeline.ModePython
			}
			files, err := a.inputFiles(cfg)
			if err != nil {
				return err
			}
			m, err := a.buildModel(cmd.Context(), cfg, files)
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
			if cfg.Output == "" {
				_, err := fmt.Fprint(a.stdout, r.Export())
				return err
			}
			return a.write(cfg.Output+".cpp", r.Export())
		},
	}
	addModelFlags(cmd)
	addOutputFlags(cmd)
	return cmd
}
