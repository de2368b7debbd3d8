package logging

import (
	"log/slog"
)

// Logger is the small leveled logging interface accepted by components that
// should not depend on slog directly (the agent runner, tool wrappers).
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter satisfies Logger with an *slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger, falling back to slog.Default() when nil.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }
func (a *SlogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }

// With returns an adapter whose records carry args.
func (a *SlogAdapter) With(args ...any) *SlogAdapter {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// Slog exposes the wrapped logger.
func (a *SlogAdapter) Slog() *slog.Logger {
	return a.logger
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return NewSlogAdapter(slog.New(slog.DiscardHandler))
}
