package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// MockSessionStore implements store.SessionStore for testing
type MockSessionStore struct {
	// Custom behavior functions
	CreateIfAbsentFn func(ctx context.Context, session *domain.StudySession) (*domain.StudySession, bool, error)
	GetFn            func(ctx context.Context, id, userID uuid.UUID) (*domain.StudySession, error)
	GetActiveFn      func(ctx context.Context, deckID, userID uuid.UUID) (*domain.StudySession, error)
	RecordReviewFn   func(ctx context.Context, id, userID uuid.UUID, isCorrect bool) error
	CompleteFn       func(ctx context.Context, id, userID uuid.UUID) error

	// Default response values
	Session *domain.StudySession
	Created bool
	Err     error

	// Call tracking for verification
	mu                  sync.Mutex
	CreateIfAbsentCalls int
	GetCalls            int
	GetActiveCalls      int
	RecordReviewCalls   int
	RecordedOutcomes    []bool
	CompleteCalls       int
}

var _ store.SessionStore = (*MockSessionStore)(nil)

func (m *MockSessionStore) CreateIfAbsent(
	ctx context.Context,
	session *domain.StudySession,
) (*domain.StudySession, bool, error) {
	m.mu.Lock()
	m.CreateIfAbsentCalls++
	m.mu.Unlock()

	if m.CreateIfAbsentFn != nil {
		return m.CreateIfAbsentFn(ctx, session)
	}
	if m.Err != nil {
		return nil, false, m.Err
	}
	if m.Session != nil {
		return m.Session, m.Created, nil
	}
	return session, true, nil
}

func (m *MockSessionStore) Get(ctx context.Context, id, userID uuid.UUID) (*domain.StudySession, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetFn != nil {
		return m.GetFn(ctx, id, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Session == nil {
		return nil, store.ErrSessionNotFound
	}
	return m.Session, nil
}

func (m *MockSessionStore) GetActive(ctx context.Context, deckID, userID uuid.UUID) (*domain.StudySession, error) {
	m.mu.Lock()
	m.GetActiveCalls++
	m.mu.Unlock()

	if m.GetActiveFn != nil {
		return m.GetActiveFn(ctx, deckID, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Session == nil {
		return nil, store.ErrSessionNotFound
	}
	return m.Session, nil
}

func (m *MockSessionStore) RecordReview(ctx context.Context, id, userID uuid.UUID, isCorrect bool) error {
	m.mu.Lock()
	m.RecordReviewCalls++
	m.RecordedOutcomes = append(m.RecordedOutcomes, isCorrect)
	m.mu.Unlock()

	if m.RecordReviewFn != nil {
		return m.RecordReviewFn(ctx, id, userID, isCorrect)
	}
	return m.Err
}

func (m *MockSessionStore) Complete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	m.CompleteCalls++
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, id, userID)
	}
	return m.Err
}

// WithTx returns the mock itself; transactional scoping is not simulated.
func (m *MockSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return m
}
