package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mailtriage/internal/agent"
	"github.com/teemow/mailtriage/internal/guardrails"
	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/logging"
	"github.com/teemow/mailtriage/internal/triage"
)

const (
	// MaxRequestBody bounds request bodies of the API.
	MaxRequestBody = 64 << 10

	// HeuristicAgent labels runs of POST /triage, which bypass the agents.
	HeuristicAgent = "keyword_heuristic"
)

// AgentRunner runs a named agent on input.
type AgentRunner interface {
	Run(ctx context.Context, agentName, input string) (*agent.Result, error)
}

// RunRequest is the body of POST /run. Agent defaults to GmailTriage.
type RunRequest struct {
	Input string `json:"input"`
	Agent string `json:"agent,omitempty"`
}

// TriageResponse is the body returned by POST /triage.
type TriageResponse struct {
	RunID  string         `json:"run_id"`
	Output triage.Payload `json:"output"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// API serves the agent endpoints.
type API struct {
	logger  *slog.Logger
	runner  AgentRunner
	metrics *instrumentation.Metrics
}

// NewAPI panics without a runner.
func NewAPI(logger *slog.Logger, runner AgentRunner, metrics *instrumentation.Metrics) *API {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		panic("server: agent runner is required")
	}
	return &API{
		logger:  logging.WithOperation(logger, "api"),
		runner:  runner,
		metrics: metrics,
	}
}

// RegisterRoutes attaches the API endpoints to r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/run", a.handleRun)
	r.Post("/triage", a.handleTriage)
}

func (a *API) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Input == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "input required"})
		return
	}

	name, err := agent.Lookup(req.Agent)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("mailtriage.agent", name))

	res, err := a.runner.Run(r.Context(), name, req.Input)
	var tripwire *guardrails.TripwireError
	switch {
	case errors.As(err, &tripwire):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "guardrail " + tripwire.Guardrail + " tripped", Reason: tripwire.Reason})
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		a.logger.Error("agent run failed", logging.Agent(name), logging.Err(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "agent run failed"})
		return
	}

	span.SetAttributes(attribute.String("mailtriage.run_id", res.RunID))
	writeJSON(w, http.StatusOK, res)
}

// handleTriage runs the keyword heuristic only. An empty input is valid.
func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	start := time.Now()
	p := triage.Run(req.Input)
	a.metrics.RecordTriageRun(r.Context(), HeuristicAgent, instrumentation.ModeHeuristic,
		instrumentation.StatusSuccess, p.Priority, time.Since(start))
	writeJSON(w, http.StatusOK, TriageResponse{RunID: ulid.Make().String(), Output: p})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBody))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
