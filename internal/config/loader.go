package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Loader reads a Config with the priority, highest first: bound flags,
// LOLPIG_* environment variables, the config file, defaults.
type Loader struct {
	v       *viper.Viper
	rootDir string
	file    string
}

// NewLoader returns a Loader that looks for .lolpig.yaml in rootDir.
func NewLoader(rootDir string) *Loader {
	v := viper.New()
	v.SetEnvPrefix("LOLPIG")
	v.AutomaticEnv()
	// parser.flags is read from LOLPIG_PARSER_FLAGS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return &Loader{v: v, rootDir: rootDir}
}

// SetFile uses path instead of searching rootDir. A missing explicit file
// is an error.
func (l *Loader) SetFile(path string) {
	l.file = path
}

// Viper exposes the underlying instance so commands can bind flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if l.file != "" {
		if _, err := os.Stat(l.file); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		l.v.SetConfigFile(l.file)
	} else {
		l.v.SetConfigName(FileName)
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(l.rootDir)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ConfigFileUsed returns the file read by the last Load, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("module", d.Module)
	v.SetDefault("module_doc", d.ModuleDoc)
	v.SetDefault("namespaces", d.Namespaces)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("inputs", d.Inputs)
	v.SetDefault("output", d.Output)
	v.SetDefault("includes", d.Includes)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("progress", d.Progress)
	v.SetDefault("verbose", d.Verbose)

	v.SetDefault("parser.executable", d.Parser.Executable)
	v.SetDefault("parser.flags", d.Parser.Flags)

	v.SetDefault("doxygen.executable", d.Doxygen.Executable)
	v.SetDefault("doxygen.groups", d.Doxygen.Groups)

	v.SetDefault("python.executable", d.Python.Executable)
	v.SetDefault("python.introspect", d.Python.Introspect)
	v.SetDefault("python.embedded", d.Python.Embedded)
	v.SetDefault("python.runtime_dir", d.Python.RuntimeDir)
}
