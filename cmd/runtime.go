package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/mailtriage/internal/config"
	"github.com/teemow/mailtriage/internal/instrumentation"
	"github.com/teemow/mailtriage/internal/logging"
	"github.com/teemow/mailtriage/internal/server"
)

// runtime bundles what every long running command needs.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	sc       *server.ServerContext
}

type runtimeOptions struct {
	offline bool
}

func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	logger := logging.New(debugMode, cfg.LogFormat)
	slog.SetDefault(logger)

	instrConfig, err := instrumentation.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Config:  cfg,
		Metrics: provider.Metrics(),
		Audit:   provider.Audit(),
		Logger:  logger,
		Offline: opts.offline,
	})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger, provider: provider, sc: sc}, nil
}

// Close stops the server context and flushes telemetry.
func (rt *runtime) Close(ctx context.Context) {
	_ = rt.sc.Shutdown()
	if err := rt.provider.Shutdown(ctx); err != nil {
		rt.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}
