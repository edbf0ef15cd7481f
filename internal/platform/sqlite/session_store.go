package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// SQLiteSessionStore implements the store.SessionStore interface
// using an embedded sqlite database as the storage backend.
type SQLiteSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteSessionStore creates a new sqlite implementation of the
// SessionStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteSessionStore(db store.DBTX, logger *slog.Logger) *SQLiteSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure SQLiteSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*SQLiteSessionStore)(nil)

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

// CreateIfAbsent implements store.SessionStore.CreateIfAbsent. Same contract
// as the postgres store: the partial unique index on active sessions turns
// concurrent starts into one insert and one resume.
func (s *SQLiteSessionStore) CreateIfAbsent(
	ctx context.Context,
	session *domain.StudySession,
) (*domain.StudySession, bool, error) {
	if err := session.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	insert := `
		INSERT INTO study_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		session.StartedAt.UTC(),
		nil,
	)
	if err != nil {
		return nil, false, mapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, mapError(err)
	}

	if rows == 1 {
		s.logger.Debug("created study session",
			slog.String("session_id", session.ID.String()),
			slog.String("deck_id", session.DeckID.String()))
		return session, true, nil
	}

	existing, err := s.GetActive(ctx, session.DeckID, session.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Get implements store.SessionStore.Get.
func (s *SQLiteSessionStore) Get(ctx context.Context, id, userID uuid.UUID) (*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = ? AND user_id = ?`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, mapError(err)
	}
	return session, nil
}

// GetActive implements store.SessionStore.GetActive.
func (s *SQLiteSessionStore) GetActive(ctx context.Context, deckID, userID uuid.UUID) (*domain.StudySession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE deck_id = ? AND user_id = ? AND NOT completed`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, deckID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, mapError(err)
	}
	return session, nil
}

// RecordReview implements store.SessionStore.RecordReview.
func (s *SQLiteSessionStore) RecordReview(ctx context.Context, id, userID uuid.UUID, isCorrect bool) error {
	query := `
		UPDATE study_sessions
		SET cards_studied = cards_studied + 1,
		    correct_answers = correct_answers + CASE WHEN ? THEN 1 ELSE 0 END
		WHERE id = ? AND user_id = ? AND NOT completed AND cards_studied < total_cards`

	result, err := s.db.ExecContext(ctx, query, isCorrect, id, userID)
	if err != nil {
		return mapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if rows == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

// Complete implements store.SessionStore.Complete.
func (s *SQLiteSessionStore) Complete(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE study_sessions
		SET completed = 1, completed_at = ?
		WHERE id = ? AND user_id = ? AND NOT completed`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id, userID)
	if err != nil {
		return mapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM study_sessions WHERE id = ? AND user_id = ?)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return mapError(err)
	}
	if !exists {
		return store.ErrSessionNotFound
	}
	return nil
}

// WithTx implements store.SessionStore.WithTx.
func (s *SQLiteSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &SQLiteSessionStore{
		db:     tx,
		logger: s.logger,
	}
}
