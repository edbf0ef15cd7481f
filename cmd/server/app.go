package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ewalsh/studydeck/internal/config"
	"github.com/ewalsh/studydeck/internal/platform/postgres"
	"github.com/ewalsh/studydeck/internal/platform/sqlite"
	"github.com/ewalsh/studydeck/internal/service/auth"
	"github.com/ewalsh/studydeck/internal/service/study"
	"github.com/ewalsh/studydeck/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	sessionStore  store.SessionStore
	progressStore store.ProgressStore
	cardStore     store.CardStore

	// Service interfaces
	jwtService   auth.JWTService
	studyService study.StudyService

	// In-memory session state
	studyRunner *study.Runner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize stores for the configured backend. Both backends share
	// the store interfaces, so everything past this point is
	// driver-agnostic.
	switch cfg.Database.Driver {
	case "sqlite":
		app.sessionStore = sqlite.NewSQLiteSessionStore(db, logger)
		app.progressStore = sqlite.NewSQLiteProgressStore(db, logger)
		app.cardStore = sqlite.NewSQLiteCardStore(db, logger)
	default:
		app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
		app.progressStore = postgres.NewPostgresProgressStore(db, logger)
		app.cardStore = postgres.NewPostgresCardStore(db, logger)
	}

	// Initialize study service
	app.studyService, err = study.NewStudyService(
		app.sessionStore,
		app.progressStore,
		app.cardStore,
		study.NewTxRunner(db),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	// Initialize the session runner that holds live traces and drives
	// timed-mode countdowns.
	app.studyRunner, err = study.NewRunner(app.studyService, cfg.Study, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create study runner: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop per-session timers
	if app.studyRunner != nil {
		app.studyRunner.Shutdown()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
