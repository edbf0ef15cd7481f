package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// MockProgressStore implements store.ProgressStore for testing
type MockProgressStore struct {
	// Custom behavior functions
	GetFn         func(ctx context.Context, cardID, userID uuid.UUID) (*domain.CardProgress, error)
	UpsertFn      func(ctx context.Context, delta *domain.CardProgress) (*domain.CardProgress, error)
	DeckSummaryFn func(ctx context.Context, deckID, userID uuid.UUID) (*store.DeckSummary, error)

	// Default response values
	Progress *domain.CardProgress
	Summary  *store.DeckSummary
	Err      error

	// Call tracking for verification
	mu               sync.Mutex
	GetCalls         int
	UpsertCalls      int
	Upserted         []*domain.CardProgress
	DeckSummaryCalls int
}

var _ store.ProgressStore = (*MockProgressStore)(nil)

func (m *MockProgressStore) Get(ctx context.Context, cardID, userID uuid.UUID) (*domain.CardProgress, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetFn != nil {
		return m.GetFn(ctx, cardID, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Progress == nil {
		return nil, store.ErrProgressNotFound
	}
	return m.Progress, nil
}

// Upsert mirrors the stores' fold semantics: with no existing Progress the
// delta row is stored as-is; otherwise the held record absorbs one review
// with the delta's outcome.
func (m *MockProgressStore) Upsert(ctx context.Context, delta *domain.CardProgress) (*domain.CardProgress, error) {
	m.mu.Lock()
	m.UpsertCalls++
	m.Upserted = append(m.Upserted, delta)
	m.mu.Unlock()

	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, delta)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Progress == nil {
		stored := *delta
		m.Progress = &stored
	} else {
		m.Progress.Record(delta.CorrectReviews == 1, delta.UpdatedAt)
	}
	stored := *m.Progress
	return &stored, nil
}

func (m *MockProgressStore) DeckSummary(ctx context.Context, deckID, userID uuid.UUID) (*store.DeckSummary, error) {
	m.mu.Lock()
	m.DeckSummaryCalls++
	m.mu.Unlock()

	if m.DeckSummaryFn != nil {
		return m.DeckSummaryFn(ctx, deckID, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Summary == nil {
		return &store.DeckSummary{}, nil
	}
	return m.Summary, nil
}

// WithTx returns the mock itself; transactional scoping is not simulated.
func (m *MockProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return m
}
