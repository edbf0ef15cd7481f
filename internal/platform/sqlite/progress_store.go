package sqlite

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

// SQLiteProgressStore implements the store.ProgressStore interface
// using an embedded sqlite database as the storage backend.
type SQLiteProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteProgressStore creates a new sqlite implementation of the
// ProgressStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteProgressStore(db store.DBTX, logger *slog.Logger) *SQLiteProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure SQLiteProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*SQLiteProgressStore)(nil)

// Get implements store.ProgressStore.Get.
func (s *SQLiteProgressStore) Get(ctx context.Context, cardID, userID uuid.UUID) (*domain.CardProgress, error) {
	query := `
		SELECT card_id, user_id, deck_id, total_reviews, correct_reviews,
		       mastery_level, last_reviewed_at, created_at, updated_at
		FROM card_progress
		WHERE card_id = ? AND user_id = ?`

	var p domain.CardProgress
	var lastReviewed sql.NullTime

	err := s.db.QueryRowContext(ctx, query, cardID, userID).Scan(
		&p.CardID,
		&p.UserID,
		&p.DeckID,
		&p.TotalReviews,
		&p.CorrectReviews,
		&p.MasteryLevel,
		&lastReviewed,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		return nil, mapError(err)
	}

	if lastReviewed.Valid {
		t := lastReviewed.Time
		p.LastReviewedAt = &t
	}
	return &p, nil
}

// Upsert implements store.ProgressStore.Upsert. The conflict arm increments
// the stored counters and recomputes the mastery level in SQL rather than
// taking the incoming values, so two concurrent reviews of the same
// (card, user) both land instead of the later write clobbering the earlier
// one. Integer division floors, matching domain.CardProgress.Record.
func (s *SQLiteProgressStore) Upsert(ctx context.Context, delta *domain.CardProgress) (*domain.CardProgress, error) {
	if err := delta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO card_progress (card_id, user_id, deck_id, total_reviews, correct_reviews,
		                           mastery_level, last_reviewed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (card_id, user_id) DO UPDATE SET
			total_reviews = card_progress.total_reviews + 1,
			correct_reviews = card_progress.correct_reviews + excluded.correct_reviews,
			mastery_level = 100 * (card_progress.correct_reviews + excluded.correct_reviews)
				/ (card_progress.total_reviews + 1),
			last_reviewed_at = excluded.last_reviewed_at,
			updated_at = excluded.updated_at
		RETURNING card_id, user_id, deck_id, total_reviews, correct_reviews,
		          mastery_level, last_reviewed_at, created_at, updated_at`

	var lastReviewed sql.NullTime
	if delta.LastReviewedAt != nil {
		lastReviewed = sql.NullTime{Time: *delta.LastReviewedAt, Valid: true}
	}

	var stored domain.CardProgress
	var storedReviewed sql.NullTime
	err := s.db.QueryRowContext(ctx, query,
		delta.CardID,
		delta.UserID,
		delta.DeckID,
		delta.TotalReviews,
		delta.CorrectReviews,
		delta.MasteryLevel,
		lastReviewed,
		delta.CreatedAt,
		delta.UpdatedAt,
	).Scan(
		&stored.CardID,
		&stored.UserID,
		&stored.DeckID,
		&stored.TotalReviews,
		&stored.CorrectReviews,
		&stored.MasteryLevel,
		&storedReviewed,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if storedReviewed.Valid {
		t := storedReviewed.Time
		stored.LastReviewedAt = &t
	}

	s.logger.Debug("recorded card review",
		slog.String("card_id", stored.CardID.String()),
		slog.Int("mastery_level", stored.MasteryLevel))
	return &stored, nil
}

// DeckSummary implements store.ProgressStore.DeckSummary.
func (s *SQLiteProgressStore) DeckSummary(ctx context.Context, deckID, userID uuid.UUID) (*store.DeckSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE mastery_level >= ?),
		       COALESCE(SUM(mastery_level), 0)
		FROM card_progress
		WHERE deck_id = ? AND user_id = ?`

	var summary store.DeckSummary
	err := s.db.QueryRowContext(ctx, query, domain.MasteredThreshold, deckID, userID).Scan(
		&summary.StudiedCards,
		&summary.MasteredCards,
		&summary.MasterySum,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &summary, nil
}

// WithTx implements store.ProgressStore.WithTx.
func (s *SQLiteProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &SQLiteProgressStore{
		db:     tx,
		logger: s.logger,
	}
}
