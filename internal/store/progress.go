package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
)

// DeckSummary carries the raw per-deck aggregation inputs the mastery
// tracker folds into a domain.DeckProgress.
type DeckSummary struct {
	StudiedCards  int
	MasteredCards int
	MasterySum    int
}

// ProgressStore defines the interface for card progress persistence — the
// durable state of the mastery tracker.
type ProgressStore interface {
	// Get retrieves the progress record for a (card, user) pair.
	// Returns ErrProgressNotFound when the card was never reviewed.
	Get(ctx context.Context, cardID, userID uuid.UUID) (*domain.CardProgress, error)

	// Upsert folds one review into the progress record. The given record is
	// the single-review shape produced by domain.NewCardProgress; on first
	// review it is inserted as-is, otherwise the stored counters are
	// incremented and the mastery level recomputed inside the database, so
	// concurrent reviews of the same (card, user) never lose an increment.
	// Returns the stored record.
	Upsert(ctx context.Context, delta *domain.CardProgress) (*domain.CardProgress, error)

	// DeckSummary aggregates over the caller's progress rows for one deck:
	// how many cards were studied, how many are mastered, and the sum of
	// mastery levels for averaging.
	DeckSummary(ctx context.Context, deckID, userID uuid.UUID) (*DeckSummary, error)

	// WithTx returns a ProgressStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
