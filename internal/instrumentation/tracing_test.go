package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrValue(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestSpanHelpers(t *testing.T) {
	rec := withRecorder(t)
	ctx := context.Background()

	ctx, agentSpan := StartAgentSpan(ctx, "Triage", "run-1")
	assert.NotEmpty(t, GetTraceID(ctx))

	_, toolSpan := StartToolSpan(ctx, "get_repo_readme", true)
	SetSpanSuccess(toolSpan)
	toolSpan.End()

	_, ghSpan := StartGitHubSpan(ctx, OperationGetReadme, "acme/site")
	SetSpanError(ghSpan, errors.New("404"))
	ghSpan.End()

	_, gSpan := StartGoogleAPISpan(ctx, ServiceGmail, OperationList)
	gSpan.End()

	_, llmSpan := StartLLMSpan(ctx, "gpt-4o-mini", 2)
	llmSpan.End()

	_, plain := StartSpan(ctx, "custom")
	plain.End()

	agentSpan.End()

	spans := rec.Ended()
	require.Len(t, spans, 6)

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		byName[s.Name()] = s
	}

	require.Contains(t, byName, "tool.get_repo_readme")
	assert.Equal(t, "true", attrValue(byName["tool.get_repo_readme"], SpanAttrReadOnly))
	assert.Equal(t, codes.Ok, byName["tool.get_repo_readme"].Status().Code)

	require.Contains(t, byName, "github.get_readme")
	assert.Equal(t, codes.Error, byName["github.get_readme"].Status().Code)
	assert.Equal(t, "acme/site", attrValue(byName["github.get_readme"], SpanAttrRepo))

	require.Contains(t, byName, "google.gmail.list")
	require.Contains(t, byName, "llm.complete")
	assert.Equal(t, "2", attrValue(byName["llm.complete"], SpanAttrTurn))
	require.Contains(t, byName, "agent.Triage")
	assert.Equal(t, "run-1", attrValue(byName["agent.Triage"], SpanAttrRunID))

	assert.Equal(t, agentSpan.SpanContext().SpanID(), byName["custom"].Parent().SpanID())
}

func TestSetSpanError_Nil(t *testing.T) {
	rec := withRecorder(t)
	_, span := StartSpan(context.Background(), "ok")
	SetSpanError(span, nil)
	span.End()

	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, codes.Unset, rec.Ended()[0].Status().Code)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
}
