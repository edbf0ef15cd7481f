package study

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected conditions. Callers check these with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrEmptyDeck indicates a session was started on a deck with no cards.
	ErrEmptyDeck = errors.New("deck has no cards to study")

	// ErrSessionNotFound indicates the session does not exist or belongs to
	// another user. The two cases are deliberately indistinguishable.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrDeckNotFound indicates the deck does not exist or belongs to
	// another user.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrCardNotFound indicates the card does not exist or sits in a deck
	// owned by another user.
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidMode indicates an unknown study mode was requested.
	ErrInvalidMode = errors.New("invalid study mode")

	// ErrInvalidDifficulty indicates an unknown difficulty rating.
	ErrInvalidDifficulty = errors.New("invalid difficulty rating")

	// ErrSessionBusy indicates a mutating event arrived while another one
	// was still applying its durable effects. The event is dropped, not
	// queued; the client retries.
	ErrSessionBusy = errors.New("study session is busy")

	// ErrNoWrongCards indicates a focused restart was requested but every
	// studied card was answered correctly.
	ErrNoWrongCards = errors.New("no wrong cards to restart with")
)

// StudyServiceError is a custom error type for study service errors.
type StudyServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for StudyServiceError.
func (e *StudyServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("study service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("study service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StudyServiceError) Unwrap() error {
	return e.Err
}

// NewStudyServiceError creates a new StudyServiceError.
func NewStudyServiceError(operation, message string, err error) *StudyServiceError {
	return &StudyServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
