// Command server runs the anonbox HTTP API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the recognised variables.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/anonbox/internal/config"
	"github.com/sakif/anonbox/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	if cfg.UsesDevSecret() {
		logger.Warn("JWT_SECRET not set, using the development secret; do not deploy like this")
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
