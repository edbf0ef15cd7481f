package study

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/domain/review"
	"github.com/ewalsh/studydeck/internal/store"
)

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	sessions store.SessionStore
	progress store.ProgressStore
	cards    store.CardStore
	runTx    TxRunner
	logger   *slog.Logger

	// newRNG supplies the shuffle source; injectable for determinism in
	// tests.
	newRNG func() *rand.Rand

	// now is the clock used for progress timestamps.
	now func() time.Time
}

// Ensure studyServiceImpl implements StudyService interface
var _ StudyService = (*studyServiceImpl)(nil)

// NewStudyService creates a new StudyService.
// It returns an error if any of the required dependencies are nil.
func NewStudyService(
	sessions store.SessionStore,
	progress store.ProgressStore,
	cards store.CardStore,
	runTx TxRunner,
	logger *slog.Logger,
) (StudyService, error) {
	if sessions == nil {
		return nil, errors.New("session store cannot be nil")
	}
	if progress == nil {
		return nil, errors.New("progress store cannot be nil")
	}
	if cards == nil {
		return nil, errors.New("card store cannot be nil")
	}
	if runTx == nil {
		return nil, errors.New("transaction runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		sessions: sessions,
		progress: progress,
		cards:    cards,
		runTx:    runTx,
		logger:   logger.With(slog.String("component", "study_service")),
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		now: time.Now,
	}, nil
}

// StartSession implements StudyService.StartSession.
func (s *studyServiceImpl) StartSession(
	ctx context.Context,
	userID, deckID uuid.UUID,
	mode domain.StudyMode,
) (*domain.StudySession, []domain.Card, error) {
	if !mode.IsValid() {
		return nil, nil, ErrInvalidMode
	}

	cards, err := s.cards.GetDeckCards(ctx, deckID, userID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, nil, ErrDeckNotFound
		}
		return nil, nil, NewStudyServiceError("start_session", "failed to load deck cards", err)
	}

	return s.startOver(ctx, userID, deckID, mode, cards, "start_session")
}

// StartFocusedSession implements StudyService.StartFocusedSession.
func (s *studyServiceImpl) StartFocusedSession(
	ctx context.Context,
	userID, deckID uuid.UUID,
	mode domain.StudyMode,
	cards []domain.Card,
) (*domain.StudySession, []domain.Card, error) {
	if !mode.IsValid() {
		return nil, nil, ErrInvalidMode
	}
	return s.startOver(ctx, userID, deckID, mode, cards, "start_focused_session")
}

// startOver sequences the cards and claims the active-session slot. The
// returned session may be a resumed one; callers position the machine at its
// CardsStudied either way.
func (s *studyServiceImpl) startOver(
	ctx context.Context,
	userID, deckID uuid.UUID,
	mode domain.StudyMode,
	cards []domain.Card,
	operation string,
) (*domain.StudySession, []domain.Card, error) {
	sequenced, err := review.Sequence(cards, mode, s.newRNG())
	if err != nil {
		if errors.Is(err, review.ErrEmptyDeck) {
			return nil, nil, ErrEmptyDeck
		}
		return nil, nil, NewStudyServiceError(operation, "failed to sequence cards", err)
	}

	session, err := domain.NewStudySession(userID, deckID, mode, len(sequenced))
	if err != nil {
		return nil, nil, NewStudyServiceError(operation, "failed to build session", err)
	}

	claimed, created, err := s.sessions.CreateIfAbsent(ctx, session)
	if err != nil {
		return nil, nil, NewStudyServiceError(operation, "failed to claim session slot", err)
	}

	if created {
		s.logger.Info("started study session",
			slog.String("session_id", claimed.ID.String()),
			slog.String("deck_id", deckID.String()),
			slog.String("mode", string(mode)),
			slog.Int("total_cards", claimed.TotalCards))
	} else {
		s.logger.Info("resumed study session",
			slog.String("session_id", claimed.ID.String()),
			slog.String("deck_id", deckID.String()),
			slog.Int("cards_studied", claimed.CardsStudied))
	}

	return claimed, sequenced, nil
}

// Session implements StudyService.Session.
func (s *studyServiceImpl) Session(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error) {
	session, err := s.sessions.Get(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewStudyServiceError("get_session", "failed to load session", err)
	}
	return session, nil
}

// ReviewCard implements StudyService.ReviewCard. The ledger increment and
// the mastery upsert commit or roll back together.
func (s *studyServiceImpl) ReviewCard(
	ctx context.Context,
	userID, sessionID, cardID, deckID uuid.UUID,
	isCorrect bool,
) (*domain.CardProgress, error) {
	var updated *domain.CardProgress

	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.sessions.WithTx(tx).RecordReview(ctx, sessionID, userID, isCorrect); err != nil {
			return err
		}

		progress, err := s.applyReview(ctx, s.progress.WithTx(tx), userID, cardID, deckID, isCorrect)
		if err != nil {
			return err
		}
		updated = progress
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewStudyServiceError("review_card", "failed to record review", err)
	}

	s.logger.Debug("recorded review",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", cardID.String()),
		slog.Bool("is_correct", isCorrect),
		slog.Int("mastery_level", updated.MasteryLevel))

	return updated, nil
}

// ReviewCardAdHoc implements StudyService.ReviewCardAdHoc. Mastery moves,
// the session ledger does not.
func (s *studyServiceImpl) ReviewCardAdHoc(
	ctx context.Context,
	userID, cardID uuid.UUID,
	isCorrect bool,
) (*domain.CardProgress, error) {
	card, err := s.cards.GetByID(ctx, cardID, userID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, NewStudyServiceError("review_card_ad_hoc", "failed to load card", err)
	}

	var updated *domain.CardProgress
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progress, err := s.applyReview(ctx, s.progress.WithTx(tx), userID, cardID, card.DeckID, isCorrect)
		if err != nil {
			return err
		}
		updated = progress
		return nil
	})
	if err != nil {
		return nil, NewStudyServiceError("review_card_ad_hoc", "failed to record review", err)
	}

	return updated, nil
}

// applyReview folds one review outcome into the card's progress record. The
// outcome is handed to the store as a single-review delta; the store folds it
// into any existing counters atomically, so a read-then-write race between
// concurrent reviews cannot lose one.
func (s *studyServiceImpl) applyReview(
	ctx context.Context,
	progressStore store.ProgressStore,
	userID, cardID, deckID uuid.UUID,
	isCorrect bool,
) (*domain.CardProgress, error) {
	delta, err := domain.NewCardProgress(cardID, userID, deckID, isCorrect, s.now().UTC())
	if err != nil {
		return nil, err
	}

	return progressStore.Upsert(ctx, delta)
}

// CompleteSession implements StudyService.CompleteSession.
func (s *studyServiceImpl) CompleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.sessions.Complete(ctx, sessionID, userID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return NewStudyServiceError("complete_session", "failed to complete session", err)
	}

	s.logger.Info("completed study session",
		slog.String("session_id", sessionID.String()))
	return nil
}

// DeckProgress implements StudyService.DeckProgress.
func (s *studyServiceImpl) DeckProgress(ctx context.Context, userID, deckID uuid.UUID) (*domain.DeckProgress, error) {
	total, err := s.cards.CountDeckCards(ctx, deckID, userID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, NewStudyServiceError("deck_progress", "failed to count deck cards", err)
	}

	summary, err := s.progress.DeckSummary(ctx, deckID, userID)
	if err != nil {
		return nil, NewStudyServiceError("deck_progress", "failed to aggregate progress", err)
	}

	return domain.NewDeckProgress(deckID, total, summary.StudiedCards, summary.MasteredCards, summary.MasterySum), nil
}
