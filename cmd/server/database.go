package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the pgx database/sql driver

	"github.com/ewalsh/studydeck/internal/config"
	"github.com/ewalsh/studydeck/internal/platform/postgres"
	"github.com/ewalsh/studydeck/internal/platform/sqlite"
)

// setupAppDatabase opens the configured storage backend and brings its schema
// up to date. Postgres connections run the embedded goose migrations; the
// embedded sqlite backend applies its schema at open time.
// Returns the database connection if successful, or an error if the
// connection fails.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return setupPostgres(ctx, cfg, logger)
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		logger.Info("sqlite database opened", slog.String("path", cfg.Database.URL))
		return db, nil
	default:
		// Unreachable when the config passed validation.
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func setupPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool with reasonable defaults
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database connection", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := postgres.MigrateUp(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database connection", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}
