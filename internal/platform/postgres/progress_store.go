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

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// Get implements store.ProgressStore.Get.
func (s *PostgresProgressStore) Get(ctx context.Context, cardID, userID uuid.UUID) (*domain.CardProgress, error) {
	query := `
		SELECT card_id, user_id, deck_id, total_reviews, correct_reviews,
		       mastery_level, last_reviewed_at, created_at, updated_at
		FROM card_progress
		WHERE card_id = $1 AND user_id = $2`

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
		return nil, MapError(err)
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
func (s *PostgresProgressStore) Upsert(ctx context.Context, delta *domain.CardProgress) (*domain.CardProgress, error) {
	if err := delta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO card_progress (card_id, user_id, deck_id, total_reviews, correct_reviews,
		                           mastery_level, last_reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (card_id, user_id) DO UPDATE SET
			total_reviews = card_progress.total_reviews + 1,
			correct_reviews = card_progress.correct_reviews + EXCLUDED.correct_reviews,
			mastery_level = 100 * (card_progress.correct_reviews + EXCLUDED.correct_reviews)
				/ (card_progress.total_reviews + 1),
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = EXCLUDED.updated_at
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
		return nil, MapError(err)
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
func (s *PostgresProgressStore) DeckSummary(ctx context.Context, deckID, userID uuid.UUID) (*store.DeckSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE mastery_level >= $3),
		       COALESCE(SUM(mastery_level), 0)
		FROM card_progress
		WHERE deck_id = $1 AND user_id = $2`

	var summary store.DeckSummary
	err := s.db.QueryRowContext(ctx, query, deckID, userID, domain.MasteredThreshold).Scan(
		&summary.StudiedCards,
		&summary.MasteredCards,
		&summary.MasterySum,
	)
	if err != nil {
		return nil, MapError(err)
	}
	return &summary, nil
}

// WithTx implements store.ProgressStore.WithTx.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}
