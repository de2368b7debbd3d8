package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/mailtriage/internal/logging"
)

// Action is an audit record for an operation with side effects outside the
// process: a Gmail draft or a GitHub issue. Recipients are logged hashed.
type Action struct {
	Tool      string
	Kind      string // draft, issue
	Target    string // recipient address or owner/name
	Reference string // draft id or issue url
	StartTime time.Time
	Duration  time.Duration
	Err       error
	TraceID   string
}

// NewAction starts timing an action.
func NewAction(ctx context.Context, tool, kind, target string) *Action {
	return &Action{
		Tool:      tool,
		Kind:      kind,
		Target:    target,
		StartTime: time.Now(),
		TraceID:   GetTraceID(ctx),
	}
}

// Complete stops the timer and records the outcome.
func (a *Action) Complete(reference string, err error) *Action {
	a.Duration = time.Since(a.StartTime)
	a.Reference = reference
	a.Err = err
	return a
}

func (a *Action) attrs() []any {
	target := a.Target
	if a.Kind == "draft" {
		target = logging.HashAddress(a.Target)
	}
	args := []any{
		logging.Tool(a.Tool),
		slog.String("kind", a.Kind),
		slog.String("target", target),
		slog.Duration(logging.KeyDuration, a.Duration),
	}
	if a.Reference != "" {
		args = append(args, slog.String("reference", a.Reference))
	}
	if a.TraceID != "" {
		args = append(args, slog.String("trace_id", a.TraceID))
	}
	return append(args, logging.Err(a.Err))
}

// AuditLogger writes Action records.
type AuditLogger struct {
	logger  *slog.Logger
	enabled bool
}

func NewAuditLogger(logger *slog.Logger, enabled bool) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With(slog.String("log_type", "audit")), enabled: enabled}
}

// Log writes a. A nil or disabled logger drops it.
func (al *AuditLogger) Log(a *Action) {
	if al == nil || !al.enabled || a == nil {
		return
	}
	if a.Err != nil {
		al.logger.Warn("action_failed", a.attrs()...)
		return
	}
	al.logger.Info("action_performed", a.attrs()...)
}
