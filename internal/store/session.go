package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
)

// SessionStore defines the interface for study session persistence — the
// durable half of the session ledger.
type SessionStore interface {
	// CreateIfAbsent atomically claims the single active-session slot for
	// the session's (deck, user) pair. When no active session exists, the
	// given session is persisted and returned with created=true. When one
	// already exists — including one created by a concurrent start — that
	// existing session is returned unchanged with created=false. The
	// at-most-one-active invariant is enforced by the storage layer, not by
	// a read-then-write in the caller.
	CreateIfAbsent(ctx context.Context, session *domain.StudySession) (*domain.StudySession, bool, error)

	// Get retrieves a session by ID, scoped to the owning user.
	// A session owned by someone else is indistinguishable from an absent
	// one: both return ErrSessionNotFound.
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.StudySession, error)

	// GetActive retrieves the non-completed session for a (deck, user) pair,
	// or ErrSessionNotFound when none is active.
	GetActive(ctx context.Context, deckID, userID uuid.UUID) (*domain.StudySession, error)

	// RecordReview increments CardsStudied, and CorrectAnswers iff
	// isCorrect, on the caller's active session in a single statement.
	// Returns ErrSessionNotFound when no matching non-completed session
	// owned by userID exists.
	RecordReview(ctx context.Context, id, userID uuid.UUID, isCorrect bool) error

	// Complete marks the session completed and stamps CompletedAt.
	// Completing an already-completed session is a no-op so retries cannot
	// corrupt final counters. Returns ErrSessionNotFound when the session
	// does not exist or belongs to someone else.
	Complete(ctx context.Context, id, userID uuid.UUID) error

	// WithTx returns a SessionStore bound to the provided transaction.
	WithTx(tx *sql.Tx) SessionStore
}
