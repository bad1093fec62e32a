package cli

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newDumpCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump [inputs...]",
		Short: "Print the finalized symbol model",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			files, err := a.inputFiles(cfg)
			if err != nil {
				return err
			}
			m, err := a.buildModel(cmd.Context(), cfg, files)
			if err != nil {
				return err
			}

			switch format {
			case "text":
				return m.Dump(a.stdout)
			case "json":
				data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
				if err != nil {
					return fmt.Errorf("encoding json: %w", err)
				}
				_, err = fmt.Fprintln(a.stdout, string(data))
				return err
			case "toml":
				data, err := toml.Marshal(m.Snapshot())
				if err != nil {
					return fmt.Errorf("encoding toml: %w", err)
				}
				_, err = a.stdout.Write(data)
				return err
			}
			return fmt.Errorf("unknown format %q (want text, json or toml)", format)
		},
	}
	addModelFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or toml")
	return cmd
}
