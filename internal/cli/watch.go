package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/lolpig/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	var debounce = watch.DefaultDebounce
	cmd := &cobra.Command{
		Use:   "watch [inputs...]",
		Short: "Regenerate the bindings whenever an input changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if err := a.generate(cmd.Context(), cfg, files); err != nil {
				a.logger.Error("generation failed", "error", err)
			}

			w, err := watch.New(files, watch.WithDebounce(debounce), watch.WithLogger(a.logger))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stderr, "watching %d inputs\n", len(files))
			return w.Run(cmd.Context(), func(ctx context.Context, _ []string) error {
				return a.generate(ctx, cfg, files)
			})
		},
	}
	addModelFlags(cmd)
	addOutputFlags(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before regenerating")
	return cmd
}
