package common

import (
	"context"
	"encoding/json"
	"time"

	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/logging"
	"github.com/teemow/mailtriage/internal/tools"
)

// Audited is implemented by tools with side effects that should land in the
// audit log. kind is "draft" or "issue"; target is a recipient or repo.
type Audited interface {
	AuditTarget(params json.RawMessage) (kind, target string)
}

// maxReference bounds the tool output kept as audit reference.
const maxReference = 200

type instrumentedTool struct {
	tools.Tool
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// Instrument wraps t so every call gets a span and a tool invocation metric.
// Audited tools also write an audit record. nil metrics or audit are allowed.
func Instrument(t tools.Tool, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) tools.Tool {
	return &instrumentedTool{Tool: t, metrics: metrics, audit: audit}
}

// InstrumentAll wraps every tool of r into a new registry.
func InstrumentAll(r *tools.Registry, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) *tools.Registry {
	out := tools.NewRegistry()
	for _, t := range r.Tools() {
		out.Register(Instrument(t, metrics, audit))
	}
	return out
}

func (t *instrumentedTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	ctx, span := instrumentation.StartToolSpan(ctx, t.Name(), t.ReadOnly())
	defer span.End()

	var action *instrumentation.Action
	if a, ok := t.Tool.(Audited); ok {
		kind, target := a.AuditTarget(params)
		action = instrumentation.NewAction(ctx, t.Name(), kind, target)
	}

	start := time.Now()
	out, err := t.Tool.Execute(ctx, params)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	t.metrics.RecordToolInvocation(ctx, t.Name(), status, duration)

	if action != nil {
		t.audit.Log(action.Complete(logging.Preview(out, maxReference), err))
	}
	return out, err
}
