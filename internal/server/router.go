package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/mailtriage/internal/instrumentation"
)

// NewHandler builds the HTTP handler of the API server: health endpoints,
// the agent API, request metrics and tracing.
func NewHandler(api *API, health *HealthChecker, metrics *instrumentation.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics(metrics))

	if health != nil {
		health.RegisterHealthEndpoints(r)
	}
	api.RegisterRoutes(r)

	return otelhttp.NewHandler(r, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !isHealthPath(r.URL.Path)
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// httpMetrics records every request under its chi route pattern so that
// unknown paths do not create new label values.
func httpMetrics(metrics *instrumentation.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.RecordHTTPRequest(r.Context(), r.Method, route, status, time.Since(start))
		})
	}
}

func isHealthPath(p string) bool {
	return p == "/healthz" || p == "/readyz" || p == "/healthz/detailed"
}
