package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// MockCardStore implements store.CardStore for testing
type MockCardStore struct {
	// Custom behavior functions
	GetDeckCardsFn   func(ctx context.Context, deckID, userID uuid.UUID) ([]domain.Card, error)
	CountDeckCardsFn func(ctx context.Context, deckID, userID uuid.UUID) (int, error)
	GetByIDFn        func(ctx context.Context, cardID, userID uuid.UUID) (*domain.Card, error)

	// Default response values
	Cards []domain.Card
	Card  *domain.Card
	Err   error

	// Call tracking for verification
	mu                  sync.Mutex
	GetDeckCardsCalls   int
	CountDeckCardsCalls int
	GetByIDCalls        int
}

var _ store.CardStore = (*MockCardStore)(nil)

func (m *MockCardStore) GetDeckCards(ctx context.Context, deckID, userID uuid.UUID) ([]domain.Card, error) {
	m.mu.Lock()
	m.GetDeckCardsCalls++
	m.mu.Unlock()

	if m.GetDeckCardsFn != nil {
		return m.GetDeckCardsFn(ctx, deckID, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Cards, nil
}

func (m *MockCardStore) CountDeckCards(ctx context.Context, deckID, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	m.CountDeckCardsCalls++
	m.mu.Unlock()

	if m.CountDeckCardsFn != nil {
		return m.CountDeckCardsFn(ctx, deckID, userID)
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Cards), nil
}

func (m *MockCardStore) GetByID(ctx context.Context, cardID, userID uuid.UUID) (*domain.Card, error) {
	m.mu.Lock()
	m.GetByIDCalls++
	m.mu.Unlock()

	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, cardID, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Card == nil {
		return nil, store.ErrCardNotFound
	}
	return m.Card, nil
}
