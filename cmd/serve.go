package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/mailtriage/internal/logging"
	"github.com/teemow/mailtriage/internal/server"
)

// MetricsConfig holds the metrics listener settings of serve.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		offline        bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API serving the agents.

Endpoints:
  POST /run      {"input": "...", "agent": "gmail|triage|gitops"}
  POST /triage   {"input": "..."} keyword heuristic only
  GET  /healthz, /readyz, /healthz/detailed

Prometheus metrics are served on a dedicated address (--metrics-addr) when the
instrumentation exporter is prometheus.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsConfig := MetricsConfig{Enabled: metricsEnabled, Addr: metricsAddr}
			if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
				metricsConfig.Enabled = false
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsConfig.Addr = addr
				}
			}
			return runServe(httpAddr, offline, metricsConfig)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP API address")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the keyword heuristic even when OPENAI_API_KEY is set")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(httpAddr string, offline bool, metricsConfig MetricsConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(shutdownCtx, runtimeOptions{offline: offline})
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	logger := rt.logger

	errCh := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && rt.provider.Enabled() && rt.provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: rt.provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	health := server.NewHealthChecker(rt.sc)
	api := server.NewAPI(logger, rt.sc.Runner(), rt.provider.Metrics())
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           server.NewHandler(api, health, rt.provider.Metrics(), logger),
		ReadHeaderTimeout: server.DefaultReadHeaderTimeout,
		IdleTimeout:       server.DefaultIdleTimeout,
	}
	go func() {
		logger.Info("starting HTTP API", "addr", httpAddr, "offline", rt.sc.Runner().Offline())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server failed", logging.Err(serveErr))
	}

	health.SetReady(false)
	_ = rt.sc.Shutdown()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP API shutdown failed", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown failed", logging.Err(err))
		}
	}
	return serveErr
}
