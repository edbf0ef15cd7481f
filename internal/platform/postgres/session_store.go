package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the
// SessionStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

const sessionColumns = `id, user_id, deck_id, mode, total_cards, cards_studied, correct_answers, completed, started_at, completed_at`

func scanSession(row *sql.Row) (*domain.StudySession, error) {
	var s domain.StudySession
	var completedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.DeckID,
		&s.Mode,
		&s.TotalCards,
		&s.CardsStudied,
		&s.CorrectAnswers,
		&s.Completed,
		&s.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}

// CreateIfAbsent implements store.SessionStore.CreateIfAbsent.
//
// The at-most-one-active invariant rests on the partial unique index
// idx_study_sessions_active on (user_id, deck_id) WHERE NOT completed, so two
// concurrent starts race on the index rather than on a read-then-write: the
// loser's INSERT hits ON CONFLICT DO NOTHING and the winner's row is read
// back. No session row is ever created for the loser.
func (s *PostgresSessionStore) CreateIfAbsent(
	ctx context.Context,
	session *domain.StudySession,
) (*domain.StudySession, bool, error) {
	if err := session.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	insert := `
		INSERT INTO study_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, deck_id) WHERE NOT completed DO NOTHING`

	result, err := s.db.ExecContext(ctx, insert,
		session.ID,
		session.UserID,
		session.DeckID,
		session.Mode,
		session.TotalCards,
		session.CardsStudied,
		session.CorrectAnswers,
		session.Completed,
		session.StartedAt,
		nil,
	)
	if err != nil {
		return nil, false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, MapError(err)
	}

	if rows == 1 {
		s.logger.Debug("created study session",
			slog.String("session_id", session.ID.String()),
			slog.String("deck_id", session.DeckID.String()))
		return session, true, nil
	}

	// Lost the race or resuming: hand back the existing active session.
	existing, err := s.GetActive(ctx, session.DeckID, session.UserID)
	if err != nil {
		return nil, false, err
	}

	s.logger.Debug("resumed active study session",
		slog.String("session_id", existing.ID.String()),
		slog.String("deck_id", existing.DeckID.String()))
	return existing, false, nil
}

// Get implements store.SessionStore.Get.
func (s *PostgresSessionStore) Get(ctx context.Context, id, userID uuid.UUID) (*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1 AND user_id = $2`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, MapError(err)
	}
	return session, nil
}

// GetActive implements store.SessionStore.GetActive.
func (s *PostgresSessionStore) GetActive(ctx context.Context, deckID, userID uuid.UUID) (*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE deck_id = $1 AND user_id = $2 AND NOT completed`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, deckID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, MapError(err)
	}
	return session, nil
}

// RecordReview implements store.SessionStore.RecordReview.
// The counters move in one owner-scoped statement; the guard also refuses to
// push CardsStudied past the TotalCards snapshot.
func (s *PostgresSessionStore) RecordReview(ctx context.Context, id, userID uuid.UUID, isCorrect bool) error {
	query := `
		UPDATE study_sessions
		SET cards_studied = cards_studied + 1,
		    correct_answers = correct_answers + CASE WHEN $3 THEN 1 ELSE 0 END
		WHERE id = $1 AND user_id = $2 AND NOT completed AND cards_studied < total_cards`

	result, err := s.db.ExecContext(ctx, query, id, userID, isCorrect)
	if err != nil {
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

// Complete implements store.SessionStore.Complete. A second completion of the
// same session is a no-op; only a session that never existed (for this user)
// is an error.
func (s *PostgresSessionStore) Complete(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE study_sessions
		SET completed = TRUE, completed_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT completed`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rows == 1 {
		return nil
	}

	// Nothing updated: either already completed (idempotent no-op) or absent.
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM study_sessions WHERE id = $1 AND user_id = $2)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrSessionNotFound
	}
	return nil
}

// WithTx implements store.SessionStore.WithTx.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}
