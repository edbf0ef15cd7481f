// Package study orchestrates the session ledger and the mastery tracker, and
// hosts the in-memory review state machines for active sessions.
package study

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// TxRunner executes a function within a database transaction. It exists so
// the service can be tested against mock stores without a live database.
type TxRunner func(ctx context.Context, fn store.TxFn) error

// NewTxRunner returns a TxRunner backed by a real database connection.
func NewTxRunner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, db, fn)
	}
}

// StudyService provides study-session and mastery operations.
type StudyService interface {
	// StartSession starts a session over the whole deck, or resumes the
	// user's active session on that deck if one exists. The returned cards
	// are the sequenced order for this attempt. Returns ErrDeckNotFound,
	// ErrEmptyDeck, or ErrInvalidMode for the corresponding conditions.
	StartSession(
		ctx context.Context,
		userID, deckID uuid.UUID,
		mode domain.StudyMode,
	) (*domain.StudySession, []domain.Card, error)

	// StartFocusedSession starts a session over an explicit card subset,
	// used for restarting with previously missed cards. The caller must
	// have completed the prior session first; the active-slot claim rejects
	// overlap the same way StartSession does.
	StartFocusedSession(
		ctx context.Context,
		userID, deckID uuid.UUID,
		mode domain.StudyMode,
		cards []domain.Card,
	) (*domain.StudySession, []domain.Card, error)

	// Session retrieves a session by ID, owner-scoped.
	Session(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error)

	// ReviewCard records one rated card atomically against both the session
	// ledger and the mastery tracker, and returns the updated progress.
	ReviewCard(
		ctx context.Context,
		userID, sessionID, cardID, deckID uuid.UUID,
		isCorrect bool,
	) (*domain.CardProgress, error)

	// ReviewCardAdHoc updates mastery for one card outside any session.
	// The session ledger is untouched.
	ReviewCardAdHoc(
		ctx context.Context,
		userID, cardID uuid.UUID,
		isCorrect bool,
	) (*domain.CardProgress, error)

	// CompleteSession marks the session completed. Completing an already
	// completed session is a no-op.
	CompleteSession(ctx context.Context, userID, sessionID uuid.UUID) error

	// DeckProgress aggregates the user's mastery state across one deck.
	DeckProgress(ctx context.Context, userID, deckID uuid.UUID) (*domain.DeckProgress, error)
}
