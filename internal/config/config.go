// Package config loads generator settings from defaults, a .lolpig.yaml
// file, LOLPIG_* environment variables and command-line flags.
package config

import (
	"strings"

	"github.com/phobologic/lolpig/internal/doxygen"
	"github.com/phobologic/lolpig/internal/pipeline"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".lolpig"

// Config is the complete generator configuration.
type Config struct {
	// Module is the Python module name; empty means derived from the inputs.
	Module     string   `mapstructure:"module" toml:"module"`
	ModuleDoc  string   `mapstructure:"module_doc" toml:"module_doc"`
	Namespaces []string `mapstructure:"namespaces" toml:"namespaces"`
	Mode       string   `mapstructure:"mode" toml:"mode"`
	Inputs     []string `mapstructure:"inputs" toml:"inputs"`
	Output     string   `mapstructure:"output" toml:"output"`
	// Includes are header names or complete #include lines.
	Includes []string `mapstructure:"includes" toml:"includes"`
	Exclude  []string `mapstructure:"exclude" toml:"exclude"`
	Jobs     int      `mapstructure:"jobs" toml:"jobs"`
	Progress bool     `mapstructure:"progress" toml:"progress"`
	Verbose  bool     `mapstructure:"verbose" toml:"verbose"`

	Parser  ParserConfig  `mapstructure:"parser" toml:"parser"`
	Doxygen DoxygenConfig `mapstructure:"doxygen" toml:"doxygen"`
	Python  PythonConfig  `mapstructure:"python" toml:"python"`
}

// ParserConfig configures castxml or gccxml.
type ParserConfig struct {
	// Executable defaults to the mode name.
	Executable string   `mapstructure:"executable" toml:"executable"`
	Flags      []string `mapstructure:"flags" toml:"flags"`
}

// DoxygenConfig configures the doxygen front end.
type DoxygenConfig struct {
	Executable string   `mapstructure:"executable" toml:"executable"`
	Groups     []string `mapstructure:"groups" toml:"groups"`
}

// PythonConfig configures the Python front end.
type PythonConfig struct {
	Executable string `mapstructure:"executable" toml:"executable"`
	// Introspect imports modules instead of scanning their source.
	Introspect bool `mapstructure:"introspect" toml:"introspect"`
	// Embedded uses the bundled interpreter for introspection.
	Embedded   bool   `mapstructure:"embedded" toml:"embedded"`
	RuntimeDir string `mapstructure:"runtime_dir" toml:"runtime_dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Mode:     pipeline.ModeAuto,
		Includes: []string{"Python.h", "structmember.h"},
		Doxygen: DoxygenConfig{
			Executable: "doxygen",
			Groups:     append([]string(nil), doxygen.DefaultGroups...),
		},
		Python: PythonConfig{Executable: "python3"},
	}
}

// IncludeLines turns Includes into #include lines. Bare names are
// wrapped in angle brackets; quoted or bracketed names and lines that
// already start with '#' are kept.
func (c *Config) IncludeLines() []string {
	lines := make([]string, 0, len(c.Includes))
	for _, inc := range c.Includes {
		inc = strings.TrimSpace(inc)
		switch {
		case inc == "":
			continue
		case strings.HasPrefix(inc, "#"):
			lines = append(lines, inc)
		case strings.HasPrefix(inc, "<"), strings.HasPrefix(inc, `"`):
			lines = append(lines, "#include "+inc)
		default:
			lines = append(lines, "#include <"+inc+">")
		}
	}
	return lines
}
