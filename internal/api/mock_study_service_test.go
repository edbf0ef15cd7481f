package api

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/service/study"
)

// MockStudyService implements study.StudyService for handler tests. It lives
// in this package rather than internal/mocks because a mock of the study
// service cannot be imported by the study package's own tests.
type MockStudyService struct {
	// Custom behavior functions
	StartSessionFn        func(ctx context.Context, userID, deckID uuid.UUID, mode domain.StudyMode) (*domain.StudySession, []domain.Card, error)
	StartFocusedSessionFn func(ctx context.Context, userID, deckID uuid.UUID, mode domain.StudyMode, cards []domain.Card) (*domain.StudySession, []domain.Card, error)
	SessionFn             func(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error)
	ReviewCardFn          func(ctx context.Context, userID, sessionID, cardID, deckID uuid.UUID, isCorrect bool) (*domain.CardProgress, error)
	ReviewCardAdHocFn     func(ctx context.Context, userID, cardID uuid.UUID, isCorrect bool) (*domain.CardProgress, error)
	CompleteSessionFn     func(ctx context.Context, userID, sessionID uuid.UUID) error
	DeckProgressFn        func(ctx context.Context, userID, deckID uuid.UUID) (*domain.DeckProgress, error)

	// Default response values
	StartedSession *domain.StudySession
	StartedCards   []domain.Card
	Progress       *domain.CardProgress
	Deck           *domain.DeckProgress
	Err            error

	// Call tracking for verification
	mu                   sync.Mutex
	StartSessionCalls    int
	ReviewCardCalls      int
	ReviewCardAdHocCalls int
	CompleteCalls        int
	DeckProgressCalls    int
}

var _ study.StudyService = (*MockStudyService)(nil)

func (m *MockStudyService) StartSession(
	ctx context.Context,
	userID, deckID uuid.UUID,
	mode domain.StudyMode,
) (*domain.StudySession, []domain.Card, error) {
	m.mu.Lock()
	m.StartSessionCalls++
	m.mu.Unlock()

	if m.StartSessionFn != nil {
		return m.StartSessionFn(ctx, userID, deckID, mode)
	}
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.StartedSession, m.StartedCards, nil
}

func (m *MockStudyService) StartFocusedSession(
	ctx context.Context,
	userID, deckID uuid.UUID,
	mode domain.StudyMode,
	cards []domain.Card,
) (*domain.StudySession, []domain.Card, error) {
	if m.StartFocusedSessionFn != nil {
		return m.StartFocusedSessionFn(ctx, userID, deckID, mode, cards)
	}
	if m.Err != nil {
		return nil, nil, m.Err
	}
	return m.StartedSession, cards, nil
}

func (m *MockStudyService) Session(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error) {
	if m.SessionFn != nil {
		return m.SessionFn(ctx, userID, sessionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.StartedSession, nil
}

func (m *MockStudyService) ReviewCard(
	ctx context.Context,
	userID, sessionID, cardID, deckID uuid.UUID,
	isCorrect bool,
) (*domain.CardProgress, error) {
	m.mu.Lock()
	m.ReviewCardCalls++
	m.mu.Unlock()

	if m.ReviewCardFn != nil {
		return m.ReviewCardFn(ctx, userID, sessionID, cardID, deckID, isCorrect)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Progress, nil
}

func (m *MockStudyService) ReviewCardAdHoc(
	ctx context.Context,
	userID, cardID uuid.UUID,
	isCorrect bool,
) (*domain.CardProgress, error) {
	m.mu.Lock()
	m.ReviewCardAdHocCalls++
	m.mu.Unlock()

	if m.ReviewCardAdHocFn != nil {
		return m.ReviewCardAdHocFn(ctx, userID, cardID, isCorrect)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Progress, nil
}

func (m *MockStudyService) CompleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	m.mu.Lock()
	m.CompleteCalls++
	m.mu.Unlock()

	if m.CompleteSessionFn != nil {
		return m.CompleteSessionFn(ctx, userID, sessionID)
	}
	return m.Err
}

func (m *MockStudyService) DeckProgress(ctx context.Context, userID, deckID uuid.UUID) (*domain.DeckProgress, error) {
	m.mu.Lock()
	m.DeckProgressCalls++
	m.mu.Unlock()

	if m.DeckProgressFn != nil {
		return m.DeckProgressFn(ctx, userID, deckID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Deck, nil
}
