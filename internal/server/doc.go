// Package server exposes the agents over HTTP.
//
// ServerContext wires the configuration into the GitHub client, a lazily
// created Gmail client, the instrumented tool catalog and the agent runner.
// The same context backs the MCP stdio server.
//
// Routes served by NewHandler:
//
//	POST /run                 {"input", "agent"?} -> {"run_id", "output": Outcome}
//	POST /triage              {"input"}           -> {"run_id", "output": Payload}
//	GET  /healthz             liveness
//	GET  /readyz              readiness
//	GET  /healthz/detailed    uptime, agent mode, credential checks
//
// /run answers 400 for an empty input or unknown agent and 422 when a
// guardrail trips. Prometheus metrics are served by MetricsServer on a
// separate address.
package server
