package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker serves liveness and readiness probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker returns a checker that starts ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

func (h *HealthChecker) isServerShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	// Mode is "llm" or "offline".
	Mode   string            `json:"mode,omitempty"`
	Agents []string          `json:"agents,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler only reports that the process serves requests.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler fails while the server is not ready or shutting down.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.checks()
		response := HealthResponse{Status: healthStatusOK, Checks: checks}
		status := http.StatusOK
		if !ok {
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

// DetailedHealthHandler adds uptime and the configured agent mode.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, _ := h.checks()
		response := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			Checks: checks,
		}

		if sc := h.serverContext; sc != nil {
			response.Agents = sc.Runner().Agents()
			response.Mode = "llm"
			if sc.Runner().Offline() {
				response.Mode = "offline"
			}
			if sc.GitHub().HasToken() {
				checks["github_token"] = healthStatusOK
			} else {
				checks["github_token"] = "missing"
			}
		}

		status := http.StatusOK
		switch {
		case !h.ready.Load():
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		case h.isServerShuttingDown():
			response.Status = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

func (h *HealthChecker) checks() (map[string]string, bool) {
	checks := map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK}
	ok := true
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}
	if h.isServerShuttingDown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	}
	return checks, ok
}

// RegisterHealthEndpoints mounts /healthz, /readyz and /healthz/detailed.
func (h *HealthChecker) RegisterHealthEndpoints(r chi.Router) {
	r.Method(http.MethodGet, "/healthz", h.LivenessHandler())
	r.Method(http.MethodGet, "/readyz", h.ReadinessHandler())
	r.Method(http.MethodGet, "/healthz/detailed", h.DetailedHealthHandler())
}
