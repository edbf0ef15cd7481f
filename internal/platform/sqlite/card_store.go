package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// SQLiteCardStore implements the store.CardStore interface
// using an embedded sqlite database as the storage backend.
type SQLiteCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteCardStore creates a new sqlite implementation of the
// CardStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteCardStore(db store.DBTX, logger *slog.Logger) *SQLiteCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure SQLiteCardStore implements store.CardStore interface
var _ store.CardStore = (*SQLiteCardStore)(nil)

// deckOwned reports whether the deck exists and belongs to the user.
func (s *SQLiteCardStore) deckOwned(ctx context.Context, deckID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM decks WHERE id = ? AND user_id = ?)`,
		deckID, userID,
	).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// GetDeckCards implements store.CardStore.GetDeckCards.
func (s *SQLiteCardStore) GetDeckCards(ctx context.Context, deckID, userID uuid.UUID) ([]domain.Card, error) {
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
		WHERE deck_id = ?
		ORDER BY position, created_at`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, mapError(err)
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
			return nil, mapError(err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return cards, nil
}

// CountDeckCards implements store.CardStore.CountDeckCards.
func (s *SQLiteCardStore) CountDeckCards(ctx context.Context, deckID, userID uuid.UUID) (int, error) {
	owned, err := s.deckOwned(ctx, deckID, userID)
	if err != nil {
		return 0, err
	}
	if !owned {
		return 0, store.ErrDeckNotFound
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE deck_id = ?`,
		deckID,
	).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// GetByID implements store.CardStore.GetByID. Ownership is checked through
// the card's deck; a card in someone else's deck is simply not found.
func (s *SQLiteCardStore) GetByID(ctx context.Context, cardID, userID uuid.UUID) (*domain.Card, error) {
	query := `
		SELECT c.id, c.deck_id, c.front, c.back, c.position, c.created_at, c.updated_at
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		WHERE c.id = ? AND d.user_id = ?`

	var c domain.Card
	err := s.db.QueryRowContext(ctx, query, cardID, userID).Scan(
		&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, mapError(err)
	}
	return &c, nil
}
