package api

import (
	"log/slog"
	"net/http"

	"github.com/ewalsh/studydeck/internal/api/shared"
	"github.com/ewalsh/studydeck/internal/platform/logger"
	"github.com/ewalsh/studydeck/internal/service/study"
)

// AdHocReviewRequest is the payload for a mastery review outside a session.
// IsCorrect is a pointer so an explicit false passes validation.
type AdHocReviewRequest struct {
	IsCorrect *bool `json:"is_correct" validate:"required"`
}

// ProgressHandler handles mastery-tracking HTTP requests.
type ProgressHandler struct {
	studyService study.StudyService
	logger       *slog.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(studyService study.StudyService, logger *slog.Logger) *ProgressHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for ProgressHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProgressHandler")
	}

	return &ProgressHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "progress_handler")),
	}
}

// ReviewCard handles POST /cards/{cardID}/review requests: a mastery update
// with no session awareness.
func (h *ProgressHandler) ReviewCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := authedUserID(w, r, log)
	if !ok {
		return
	}
	cardID, ok := pathUUID(w, r, "cardID")
	if !ok {
		return
	}

	var req AdHocReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "is_correct is required")
		return
	}

	progress, err := h.studyService.ReviewCardAdHoc(r.Context(), userID, cardID, *req.IsCorrect)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("recorded ad hoc review",
		slog.String("card_id", cardID.String()),
		slog.Int("mastery_level", progress.MasteryLevel))

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// GetDeckProgress handles GET /decks/{deckID}/progress requests.
func (h *ProgressHandler) GetDeckProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := authedUserID(w, r, log)
	if !ok {
		return
	}
	deckID, ok := pathUUID(w, r, "deckID")
	if !ok {
		return
	}

	progress, err := h.studyService.DeckProgress(r.Context(), userID, deckID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}
