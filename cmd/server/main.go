// Package main is the entry point of the yatube web server.
//
// main stays small: load the configuration, build the logger, hand both to
// internal/server and block in Start until the process is told to stop.
//
//	go run ./cmd/server
//	PORT=9000 DB_PATH=/var/lib/yatube/yatube.db go run ./cmd/server
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/yatube/internal/config"
	"github.com/sakif/yatube/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
