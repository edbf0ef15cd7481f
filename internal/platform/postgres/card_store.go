package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// deckOwned reports whether the deck exists and belongs to the user.
func (s *PostgresCardStore) deckOwned(ctx context.Context, deckID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM decks WHERE id = $1 AND user_id = $2)`,
		deckID, userID,
	).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// GetDeckCards implements store.CardStore.GetDeckCards.
func (s *PostgresCardStore) GetDeckCards(ctx context.Context, deckID, userID uuid.UUID) ([]domain.Card, error) {
	owned, err := s.deckOwned(ctx, deckID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, store.ErrDeckNotFound
	}

	query := `
		SELECT id, deck_id, front, back, position, created_at, updated_at
		FROM cards
		WHERE deck_id = $1
		ORDER BY position, created_at`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return cards, nil
}

// CountDeckCards implements store.CardStore.CountDeckCards.
func (s *PostgresCardStore) CountDeckCards(ctx context.Context, deckID, userID uuid.UUID) (int, error) {
	owned, err := s.deckOwned(ctx, deckID, userID)
	if err != nil {
		return 0, err
	}
	if !owned {
		return 0, store.ErrDeckNotFound
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE deck_id = $1`,
		deckID,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// GetByID implements store.CardStore.GetByID. Ownership is checked through
// the card's deck; a card in someone else's deck is simply not found.
func (s *PostgresCardStore) GetByID(ctx context.Context, cardID, userID uuid.UUID) (*domain.Card, error) {
	query := `
		SELECT c.id, c.deck_id, c.front, c.back, c.position, c.created_at, c.updated_at
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		WHERE c.id = $1 AND d.user_id = $2`

	var c domain.Card
	err := s.db.QueryRowContext(ctx, query, cardID, userID).Scan(
		&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}
	return &c, nil
}
