package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrAgent     = "agent"
	attrMode      = "mode"
	attrPriority  = "priority"
	attrModel     = "model"
	attrTokenType = "token_type"
	attrGuardrail = "guardrail"
	attrRepo      = "repo"
)

var (
	durationBuckets    = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}
	apiDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	runDurationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0}
)

// Metrics records mailtriage metrics. The zero value is a valid no-op
// recorder, and so is a nil *Metrics.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	triageRunsTotal   metric.Int64Counter
	triageRunDuration metric.Float64Histogram
	triagePriority    metric.Int64Counter

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	githubAPIOperationsTotal   metric.Int64Counter
	githubAPIOperationDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram
	llmTokensTotal     metric.Int64Counter

	guardrailTripsTotal metric.Int64Counter

	detailedLabels bool
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}"},
		{&m.triageRunsTotal, "triage_runs_total", "Total number of triage runs", "{run}"},
		{&m.triagePriority, "triage_priority_total", "Triage results by assigned priority", "{result}"},
		{&m.googleAPIOperationsTotal, "google_api_operations_total", "Total number of Google API operations", "{operation}"},
		{&m.githubAPIOperationsTotal, "github_api_operations_total", "Total number of GitHub API operations", "{operation}"},
		{&m.toolInvocationsTotal, "tool_invocations_total", "Total number of tool invocations", "{invocation}"},
		{&m.llmRequestsTotal, "llm_requests_total", "Total number of LLM completion requests", "{request}"},
		{&m.llmTokensTotal, "llm_tokens_total", "Total number of LLM tokens consumed", "{token}"},
		{&m.guardrailTripsTotal, "guardrail_trips_total", "Total number of tripped guardrails", "{trip}"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.dst = inst
	}

	histograms := []struct {
		dst     *metric.Float64Histogram
		name    string
		desc    string
		buckets []float64
	}{
		{&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds", durationBuckets},
		{&m.triageRunDuration, "triage_run_duration_seconds", "Triage run duration in seconds", runDurationBuckets},
		{&m.googleAPIOperationDuration, "google_api_operation_duration_seconds", "Google API operation duration in seconds", apiDurationBuckets},
		{&m.githubAPIOperationDuration, "github_api_operation_duration_seconds", "GitHub API operation duration in seconds", apiDurationBuckets},
		{&m.toolDuration, "tool_duration_seconds", "Tool execution duration in seconds", apiDurationBuckets},
		{&m.llmRequestDuration, "llm_request_duration_seconds", "LLM completion request duration in seconds", runDurationBuckets},
	}
	for _, h := range histograms {
		inst, err := meter.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(h.buckets...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
		*h.dst = inst
	}

	return m, nil
}

// RecordHTTPRequest records a request by route pattern, not raw path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, route),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTriageRun records one agent or heuristic run. priority is only
// counted for successful runs that produced a payload (priority > 0).
func (m *Metrics) RecordTriageRun(ctx context.Context, agent, mode, status string, priority int, duration time.Duration) {
	if m == nil || m.triageRunsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrAgent, agent),
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	)
	m.triageRunsTotal.Add(ctx, 1, attrs)
	m.triageRunDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusSuccess && priority > 0 {
		m.triagePriority.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrMode, mode),
			attribute.String(attrPriority, PriorityLabel(priority)),
		))
	}
}

// RecordGoogleAPIOperation records a Google API call.
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGitHubAPIOperation records a GitHub call. status is the HTTP status
// class (2xx, 4xx, ...) or "error" for transport failures.
func (m *Metrics) RecordGitHubAPIOperation(ctx context.Context, operation, repo, status string, duration time.Duration) {
	if m == nil || m.githubAPIOperationsTotal == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && repo != "" {
		kv = append(kv, attribute.String(attrRepo, repo))
	}
	attrs := metric.WithAttributes(kv...)
	m.githubAPIOperationsTotal.Add(ctx, 1, attrs)
	m.githubAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records a tool call from the agent runner or MCP.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLLMRequest records a completion request and its token usage.
func (m *Metrics) RecordLLMRequest(ctx context.Context, model, status string, promptTokens, completionTokens int64, duration time.Duration) {
	if m == nil || m.llmRequestsTotal == nil {
		return
	}
	if !m.detailedLabels {
		model = "default"
	}
	attrs := metric.WithAttributes(
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	)
	m.llmRequestsTotal.Add(ctx, 1, attrs)
	m.llmRequestDuration.Record(ctx, duration.Seconds(), attrs)

	if promptTokens > 0 {
		m.llmTokensTotal.Add(ctx, promptTokens, metric.WithAttributes(
			attribute.String(attrModel, model),
			attribute.String(attrTokenType, "prompt"),
		))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.Add(ctx, completionTokens, metric.WithAttributes(
			attribute.String(attrModel, model),
			attribute.String(attrTokenType, "completion"),
		))
	}
}

// RecordGuardrailTrip counts a tripped guardrail.
func (m *Metrics) RecordGuardrailTrip(ctx context.Context, guardrail string) {
	if m == nil || m.guardrailTripsTotal == nil {
		return
	}
	m.guardrailTripsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrGuardrail, guardrail)))
}
