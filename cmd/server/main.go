// Command server runs the estate API. main stays minimal: load config,
// build a logger, hand everything to internal/server.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/mzevk/estate-api/internal/config"
	"github.com/mzevk/estate-api/internal/server"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if os.Getenv("JWT_SECRET") == "" && cfg.JWTSecret == config.Default().JWTSecret {
		logger.Warn("JWT_SECRET not set — using the built-in development secret")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
