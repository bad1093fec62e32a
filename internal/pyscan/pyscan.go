package pyscan

import (
	"context"
	"log/slog"

	"github.com/phobologic/lolpig/internal/model"
)

// Scanner reads Python module files into Contexts.
type Scanner struct {
	interp Interpreter
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithInterpreter makes the Scanner import modules instead of scanning
// their source.
func WithInterpreter(interp Interpreter) Option {
	return func(s *Scanner) { s.interp = interp }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New returns a Scanner. Without an interpreter it scans statically.
func New(opts ...Option) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Parse reads one module file.
func (s *Scanner) Parse(ctx context.Context, path string) (*model.Context, error) {
	var (
		mod *Module
		err error
	)
	if s.interp != nil {
		s.logger.Debug("importing python module", "path", path)
		mod, err = Introspect(ctx, s.interp, path)
	} else {
		s.logger.Debug("scanning python module", "path", path)
		mod, err = ScanFile(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	return Build(mod, path), nil
}
