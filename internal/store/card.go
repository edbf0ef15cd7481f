package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
)

// CardStore defines the read-only view of the deck/card catalog the engine
// consumes. Authoring lives elsewhere; this service never writes cards.
type CardStore interface {
	// GetDeckCards returns the deck's cards in source order, ownership
	// checked: a deck that exists but belongs to another user returns
	// ErrDeckNotFound, same as an absent deck.
	GetDeckCards(ctx context.Context, deckID, userID uuid.UUID) ([]domain.Card, error)

	// CountDeckCards returns the number of cards in the caller's deck.
	// Returns ErrDeckNotFound under the same ownership rules as GetDeckCards.
	CountDeckCards(ctx context.Context, deckID, userID uuid.UUID) (int, error)

	// GetByID retrieves one card, ownership checked through its deck.
	// Returns ErrCardNotFound when absent or owned by another user.
	GetByID(ctx context.Context, cardID, userID uuid.UUID) (*domain.Card, error)
}
