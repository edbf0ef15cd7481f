package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ewalsh/studydeck/internal/api"
	apiMiddleware "github.com/ewalsh/studydeck/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Trace IDs for error correlation

	// Create API handlers using the application's services
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	studyHandler := api.NewStudyHandler(app.studyRunner, app.logger)
	progressHandler := api.NewProgressHandler(app.studyService, app.logger)

	// Register routes; everything under /api requires a valid token.
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// Session lifecycle
		r.Post("/decks/{deckID}/study", studyHandler.StartSession)
		r.Get("/study/{sessionID}", studyHandler.GetSnapshot)
		r.Post("/study/{sessionID}/complete", studyHandler.CompleteSession)
		r.Post("/study/{sessionID}/restart-wrong", studyHandler.RestartWrong)
		r.Get("/study/{sessionID}/summary", studyHandler.GetSummary)

		// In-session events
		r.Post("/study/{sessionID}/reveal", studyHandler.RevealCard)
		r.Post("/study/{sessionID}/rate", studyHandler.RateCard)
		r.Post("/study/{sessionID}/skip", studyHandler.SkipCard)
		r.Post("/study/{sessionID}/pause", studyHandler.TogglePause)
		r.Post("/study/{sessionID}/bookmark", studyHandler.ToggleBookmark)
		r.Post("/study/{sessionID}/back", studyHandler.GoBack)
		r.Post("/study/{sessionID}/forward", studyHandler.GoForward)

		// Mastery endpoints
		r.Post("/cards/{cardID}/review", progressHandler.ReviewCard)
		r.Get("/decks/{deckID}/progress", progressHandler.GetDeckProgress)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
