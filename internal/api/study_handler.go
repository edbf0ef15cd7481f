// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/api/shared"
	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/platform/logger"
	"github.com/ewalsh/studydeck/internal/service/study"
)

// StartStudyRequest is the payload for starting a study session.
type StartStudyRequest struct {
	Mode string `json:"mode" validate:"required,oneof=standard shuffle timed"`
}

// RateCardRequest is the payload for rating the revealed card.
type RateCardRequest struct {
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard incorrect"`
}

// StudyHandler handles study-session HTTP requests.
type StudyHandler struct {
	runner *study.Runner
	logger *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(runner *study.Runner, logger *slog.Logger) *StudyHandler {
	if runner == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("runner cannot be nil for StudyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		runner: runner,
		logger: logger.With(slog.String("component", "study_handler")),
	}
}

// authedUserID extracts the user ID the auth middleware placed on the
// context, answering 401 itself when it is missing.
func authedUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a UUID route parameter, answering 400 itself on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// StartSession handles POST /decks/{deckID}/study requests. Starting a deck
// with an active session resumes it.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := authedUserID(w, r, log)
	if !ok {
		return
	}
	deckID, ok := pathUUID(w, r, "deckID")
	if !ok {
		return
	}

	var req StartStudyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid study mode")
		return
	}

	snapshot, err := h.runner.Start(r.Context(), userID, deckID, domain.StudyMode(req.Mode))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("study session started",
		slog.String("session_id", snapshot.SessionID.String()),
		slog.String("deck_id", deckID.String()),
		slog.String("mode", req.Mode))

	shared.RespondWithJSON(w, r, http.StatusOK, snapshot)
}

// GetSnapshot handles GET /study/{sessionID} requests.
func (h *StudyHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := authedUserID(w, r, log)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	snapshot, err := h.runner.Snapshot(r.Context(), userID, sessionID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshot)
}

// sessionEvent is the shared shape of the machine-event handlers: resolve the
// caller and the session, apply the event, answer with the new snapshot.
func (h *StudyHandler) sessionEvent(
	w http.ResponseWriter,
	r *http.Request,
	apply func(userID, sessionID uuid.UUID) (*study.Snapshot, error),
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := authedUserID(w, r, log)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	snapshot, err := apply(userID, sessionID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshot)
}

// RevealCard handles POST /study/{sessionID}/reveal requests.
func (h *StudyHandler) RevealCard(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Reveal(r.Context(), userID, sessionID)
	})
}

// RateCard handles POST /study/{sessionID}/rate requests.
func (h *StudyHandler) RateCard(w http.ResponseWriter, r *http.Request) {
	var req RateCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid difficulty rating")
		return
	}

	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Rate(r.Context(), userID, sessionID, domain.Difficulty(req.Difficulty))
	})
}

// SkipCard handles POST /study/{sessionID}/skip requests.
func (h *StudyHandler) SkipCard(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Skip(r.Context(), userID, sessionID)
	})
}

// TogglePause handles POST /study/{sessionID}/pause requests.
func (h *StudyHandler) TogglePause(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Pause(r.Context(), userID, sessionID)
	})
}

// ToggleBookmark handles POST /study/{sessionID}/bookmark requests.
func (h *StudyHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Bookmark(r.Context(), userID, sessionID)
	})
}

// GoBack handles POST /study/{sessionID}/back requests.
func (h *StudyHandler) GoBack(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Back(r.Context(), userID, sessionID)
	})
}

// GoForward handles POST /study/{sessionID}/forward requests.
func (h *StudyHandler) GoForward(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Forward(r.Context(), userID, sessionID)
	})
}

// CompleteSession handles POST /study/{sessionID}/complete requests.
func (h *StudyHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.Complete(r.Context(), userID, sessionID)
	})
}

// RestartWrong handles POST /study/{sessionID}/restart-wrong requests.
func (h *StudyHandler) RestartWrong(w http.ResponseWriter, r *http.Request) {
	h.sessionEvent(w, r, func(userID, sessionID uuid.UUID) (*study.Snapshot, error) {
		return h.runner.RestartWrong(r.Context(), userID, sessionID)
	})
}

// GetSummary handles GET /study/{sessionID}/summary requests.
func (h *StudyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := authedUserID(w, r, log)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	summary, err := h.runner.Summary(r.Context(), userID, sessionID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}
