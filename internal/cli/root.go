// Package cli implements the lolpig command tree.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phobologic/lolpig/internal/config"
)

// flagKeys maps flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"input":           "inputs",
	"output":          "output",
	"module":          "module",
	"module-doc":      "module_doc",
	"namespace":       "namespaces",
	"mode":            "mode",
	"include":         "includes",
	"exclude":         "exclude",
	"jobs":            "jobs",
	"progress":        "progress",
	"verbose":         "verbose",
	"parser":          "parser.executable",
	"cflag":           "parser.flags",
	"doxygen":         "doxygen.executable",
	"group":           "doxygen.groups",
	"python":          "python.executable",
	"introspect":      "python.introspect",
	"embedded-python": "python.embedded",
}

type app struct {
	stdout     io.Writer
	stderr     io.Writer
	version    string
	configFile string
	logger     *slog.Logger
}

// NewRootCommand builds the command tree. The bare command generates
// bindings like "generate".
func NewRootCommand(stdout, stderr io.Writer, version string) *cobra.Command {
	a := &app{
		stdout:  stdout,
		stderr:  stderr,
		version: version,
		logger:  slog.New(slog.DiscardHandler),
	}

	root := &cobra.Command{
		Use:   "lolpig",
		Short: "Generate CPython bindings for annotated C++",
		Long: `lolpig reads C++ declarations marked with LOLPIG_DEF (through castxml,
gccxml or doxygen) or a Python module, and writes a header and a source
file that expose them as a CPython extension module.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runGenerate,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default ./.lolpig.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log debug output")
	addModelFlags(root)
	addOutputFlags(root)

	root.AddCommand(
		newGenerateCommand(a),
		newDumpCommand(a),
		newExportCommand(a),
		newWatchCommand(a),
		newInitCommand(a),
		newVersionCommand(a),
	)
	return root
}

// addModelFlags adds the flags that select inputs and front ends.
func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayP("input", "i", nil, "input file, directory or ** glob (repeatable)")
	f.StringP("module", "m", "", "python module name")
	f.String("module-doc", "", "python module doc string")
	f.String("mode", "", "front end: auto, castxml, gccxml, doxygen or python")
	f.StringArray("exclude", nil, "glob over target names to leave out (repeatable)")
	f.IntP("jobs", "j", 0, "parallel parses (0 = number of CPUs)")
	f.Bool("progress", false, "show a progress bar")
	f.String("parser", "", "castxml or gccxml executable")
	f.StringArray("cflag", nil, "extra flag for castxml or gccxml (repeatable)")
	f.String("doxygen", "", "doxygen executable")
	f.StringArray("group", nil, "doxygen group to read (repeatable)")
	f.String("python", "", "python executable for --introspect")
	f.Bool("introspect", false, "import python modules instead of scanning their source")
	f.Bool("embedded-python", false, "introspect with the bundled python interpreter")
}

// addOutputFlags adds the flags that shape generated files.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "output base path; writes <base>.h and <base>.cpp")
	f.StringArrayP("namespace", "n", nil, "C++ namespace for the module initializer (repeatable)")
	f.StringArray("include", nil, "header included by the generated files (repeatable)")
}

// load reads the configuration with the flags of cmd bound over it.
// Positional args are appended to the configured inputs.
func (a *app) load(cmd *cobra.Command, args []string) (*config.Config, error) {
	loader := config.NewLoader(".")
	if a.configFile != "" {
		loader.SetFile(a.configFile)
	}
	v := loader.Viper()
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	cfg.Inputs = append(cfg.Inputs, args...)

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	if used := loader.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return cfg, nil
}
