package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/phobologic/lolpig/internal/pipeline"
)

var (
	// ErrInvalidMode indicates an unsupported input mode.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidModule indicates a module name that is not a C identifier.
	ErrInvalidModule = errors.New("invalid module name")

	// ErrInvalidJobs indicates a negative job count.
	ErrInvalidJobs = errors.New("invalid jobs")

	// ErrInvalidExclude indicates an exclude pattern that does not compile.
	ErrInvalidExclude = errors.New("invalid exclude pattern")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate reports every problem in cfg at once.
func Validate(cfg *Config) error {
	var errs []error

	if !slices.Contains(pipeline.Modes, cfg.Mode) {
		errs = append(errs, fmt.Errorf("%w: must be one of %s, got %q",
			ErrInvalidMode, strings.Join(pipeline.Modes, ", "), cfg.Mode))
	}
	if cfg.Module != "" && !identifier.MatchString(cfg.Module) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidModule, cfg.Module))
	}
	for _, ns := range cfg.Namespaces {
		if !identifier.MatchString(ns) {
			errs = append(errs, fmt.Errorf("%w: namespace %q", ErrInvalidModule, ns))
		}
	}
	if cfg.Jobs < 0 {
		errs = append(errs, fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidJobs, cfg.Jobs))
	}
	if _, err := pipeline.CompileExcludes(cfg.Exclude); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidExclude, err))
	}

	return errors.Join(errs...)
}
