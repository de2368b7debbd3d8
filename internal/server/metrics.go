package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/mailtriage/internal/instrumentation"
)

const (
	DefaultHTTPAddr    = ":8080"
	DefaultMetricsAddr = ":9090"

	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of both listeners.
	DefaultShutdownTimeout = 30 * time.Second
)

var (
	ErrNoProvider    = errors.New("instrumentation provider is required for metrics server")
	ErrNotEnabled    = errors.New("instrumentation provider is not enabled")
	ErrNotPrometheus = errors.New("metrics exporter is not prometheus")
)

// MetricsServerConfig configures the metrics listener.
type MetricsServerConfig struct {
	// Addr defaults to DefaultMetricsAddr.
	Addr                    string
	InstrumentationProvider *instrumentation.Provider
	Logger                  *slog.Logger
}

// MetricsServer serves Prometheus metrics on its own listener, apart from
// the agent API.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
	logger     *slog.Logger
}

// NewMetricsServer requires an enabled provider that exports to Prometheus.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	switch p := config.InstrumentationProvider; {
	case p == nil:
		return nil, ErrNoProvider
	case !p.Enabled():
		return nil, ErrNotEnabled
	case !p.ServesPrometheus():
		return nil, ErrNotPrometheus
	}

	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &MetricsServer{addr: config.Addr, logger: config.Logger}, nil
}

// Handler serves /metrics and a plain /healthz.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	// The otel prometheus exporter registers with the default registry.
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start blocks until the server stops. It returns http.ErrServerClosed after
// Shutdown.
func (s *MetricsServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.logger.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

func (s *MetricsServer) Addr() string {
	return s.addr
}
