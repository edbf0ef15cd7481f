package api

import (
	"errors"
	"net/http"

	"github.com/ewalsh/studydeck/internal/service/auth"
	"github.com/ewalsh/studydeck/internal/service/study"
	"github.com/ewalsh/studydeck/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, study.ErrSessionNotFound),
		errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, study.ErrSessionBusy),
		errors.Is(err, study.ErrNoWrongCards),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, study.ErrEmptyDeck),
		errors.Is(err, study.ErrInvalidMode),
		errors.Is(err, study.ErrInvalidDifficulty),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	// Not found errors
	case errors.Is(err, study.ErrSessionNotFound):
		return "Study session not found"

	case errors.Is(err, study.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, study.ErrCardNotFound):
		return "Card not found"

	// Conflict errors
	case errors.Is(err, study.ErrSessionBusy):
		return "Session is busy, retry the event"

	case errors.Is(err, study.ErrNoWrongCards):
		return "No incorrectly answered cards to restart with"

	// Bad request errors
	case errors.Is(err, study.ErrEmptyDeck):
		return "Deck has no cards to study"

	case errors.Is(err, study.ErrInvalidMode):
		return "Invalid study mode"

	case errors.Is(err, study.ErrInvalidDifficulty):
		return "Invalid difficulty rating"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}
