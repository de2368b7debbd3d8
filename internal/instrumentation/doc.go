// Package instrumentation wires OpenTelemetry metrics and tracing for
// mailtriage.
//
// Metrics:
//   - http_requests_total, http_request_duration_seconds (method, path, status)
//   - triage_runs_total, triage_run_duration_seconds (agent, mode, status)
//   - triage_priority_total (mode, priority)
//   - google_api_operations_total, google_api_operation_duration_seconds
//   - github_api_operations_total, github_api_operation_duration_seconds
//   - tool_invocations_total, tool_duration_seconds (tool, status)
//   - llm_requests_total, llm_request_duration_seconds, llm_tokens_total
//   - guardrail_trips_total (guardrail)
//
// Spans are named agent.<name>, tool.<name>, google.gmail.<op>,
// github.<op> and llm.complete.
//
// Configuration comes from INSTRUMENTATION_ENABLED, METRICS_EXPORTER
// (prometheus, otlp, stdout), TRACING_EXPORTER (otlp, stdout, none),
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE,
// OTEL_TRACES_SAMPLER_ARG, OTEL_SERVICE_NAME, METRICS_DETAILED_LABELS and
// AUDIT_LOGGING_ENABLED.
//
//	cfg, err := instrumentation.ConfigFromEnv()
//	provider, err := instrumentation.NewProvider(ctx, cfg)
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordTriageRun(ctx, "GmailTriage", instrumentation.ModeLLM,
//	    instrumentation.StatusSuccess, 4, time.Since(start))
package instrumentation
