package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used by all mailtriage spans.
const TracerName = "github.com/teemow/mailtriage"

// Span attribute keys.
const (
	SpanAttrTool       = "mailtriage.tool"
	SpanAttrAgent      = "mailtriage.agent"
	SpanAttrRunID      = "mailtriage.run_id"
	SpanAttrTurn       = "mailtriage.turn"
	SpanAttrPriority   = "mailtriage.priority"
	SpanAttrOffline    = "mailtriage.offline"
	SpanAttrReadOnly   = "mailtriage.read_only"
	SpanAttrService    = "google.service"
	SpanAttrOperation  = "api.operation"
	SpanAttrRepo       = "github.repo"
	SpanAttrResourceID = "api.resource_id"
	SpanAttrModel      = "llm.model"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts an internal span. Callers must End it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartAgentSpan starts the span covering one agent run.
func StartAgentSpan(ctx context.Context, agent, runID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "agent."+agent,
		trace.WithAttributes(
			attribute.String(SpanAttrAgent, agent),
			attribute.String(SpanAttrRunID, runID),
		),
	)
}

// StartToolSpan starts a span for a tool invocation.
func StartToolSpan(ctx context.Context, toolName string, readOnly bool) (context.Context, trace.Span) {
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(
			attribute.String(SpanAttrTool, toolName),
			attribute.Bool(SpanAttrReadOnly, readOnly),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartGoogleAPISpan starts a client span for a Google API call.
func StartGoogleAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(SpanAttrService, service),
		attribute.String(SpanAttrOperation, operation),
	}, attrs...)
	return tracer().Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartGitHubSpan starts a client span for a GitHub call.
func StartGitHubSpan(ctx context.Context, operation, repo string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "github."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrOperation, operation),
			attribute.String(SpanAttrRepo, repo),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartLLMSpan starts a client span for a completion request.
func StartLLMSpan(ctx context.Context, model string, turn int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "llm.complete",
		trace.WithAttributes(
			attribute.String(SpanAttrModel, model),
			attribute.Int(SpanAttrTurn, turn),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records err on span and marks it failed. A nil err is a no-op.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
