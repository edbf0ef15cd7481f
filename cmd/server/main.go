// Package main implements the entry point for the studydeck server,
// which runs interactive flashcard study sessions and tracks per-card
// mastery for authenticated users.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ewalsh/studydeck/internal/config"
	"github.com/ewalsh/studydeck/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Printf("server exited with error: %v", err)
		os.Exit(1)
	}
}

// run loads configuration, wires the application, and serves until a
// shutdown signal arrives. Split out of main so deferred cleanup runs
// before the process exit code is decided.
func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	db, err := setupAppDatabase(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		// newApplication does not take ownership of the connection
		// until it succeeds.
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("error closing database connection", "error", closeErr)
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
