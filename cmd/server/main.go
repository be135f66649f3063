// Package main is the entry point for the admin console server.
//
// main stays minimal: load configuration, build the logger and tracing,
// hand everything to internal/server and block until shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/admin-console/internal/config"
	"github.com/sakif/admin-console/internal/server"
	"github.com/sakif/admin-console/internal/telemetry"
)

func main() {
	// === 1. LOAD .env ===
	// Optional: real deployments set the environment directly.
	_ = godotenv.Load()

	// === 2. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. SET UP LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// === 4. TRACING ===
	// No-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set.
	shutdownTracing, err := telemetry.Setup(context.Background(), server.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", slog.String("error", err.Error()))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// === 5. CREATE AND START THE SERVER ===
	// Start blocks until SIGINT/SIGTERM.
	srv := server.New(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
