package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StudyMode selects how a session sequences and paces its cards.
type StudyMode string

// Possible study mode values
const (
	StudyModeStandard StudyMode = "standard"
	StudyModeShuffle  StudyMode = "shuffle"
	StudyModeTimed    StudyMode = "timed"
)

// IsValid reports whether the mode is one of the supported study modes.
func (m StudyMode) IsValid() bool {
	switch m {
	case StudyModeStandard, StudyModeShuffle, StudyModeTimed:
		return true
	}
	return false
}

// Difficulty is the recall rating a learner assigns to a revealed card.
type Difficulty string

// Possible difficulty values
const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyIncorrect Difficulty = "incorrect"
)

// IsValid reports whether the difficulty is one of the supported ratings.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyIncorrect:
		return true
	}
	return false
}

// IsCorrect maps a difficulty rating to the binary outcome the ledger and
// mastery tracker record. Every rating except "incorrect" counts as correct.
func (d Difficulty) IsCorrect() bool {
	return d != DifficultyIncorrect
}

// StudySession-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("study session ID cannot be empty")

	// ErrSessionUserIDEmpty is returned when a session's user ID is empty or nil.
	ErrSessionUserIDEmpty = errors.New("study session user ID cannot be empty")

	// ErrSessionDeckIDEmpty is returned when a session's deck ID is empty or nil.
	ErrSessionDeckIDEmpty = errors.New("study session deck ID cannot be empty")

	// ErrSessionInvalidMode is returned when a session's mode is not a known study mode.
	ErrSessionInvalidMode = errors.New("invalid study mode")

	// ErrSessionNoCards is returned when a session is created over zero cards.
	ErrSessionNoCards = errors.New("study session must cover at least one card")

	// ErrSessionCounters is returned when the studied/correct counters violate
	// 0 <= CorrectAnswers <= CardsStudied <= TotalCards.
	ErrSessionCounters = errors.New("study session counters out of range")

	// ErrSessionCompleted is returned when a review is recorded against a
	// session that has already been completed.
	ErrSessionCompleted = errors.New("study session already completed")
)

// StudySession is one bounded attempt at studying a deck. TotalCards is
// snapshotted from the sequencer at creation and never changes; CardsStudied
// and CorrectAnswers advance one review at a time; Completed is monotonic.
type StudySession struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	Mode           StudyMode  `json:"mode"`
	TotalCards     int        `json:"total_cards"`
	CardsStudied   int        `json:"cards_studied"`
	CorrectAnswers int        `json:"correct_answers"`
	Completed      bool       `json:"completed"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewStudySession creates a new StudySession for the given user, deck and
// mode, with the card count snapshotted from the sequenced deck.
// Returns an error if validation fails.
func NewStudySession(userID, deckID uuid.UUID, mode StudyMode, totalCards int) (*StudySession, error) {
	session := &StudySession{
		ID:             uuid.New(),
		UserID:         userID,
		DeckID:         deckID,
		Mode:           mode,
		TotalCards:     totalCards,
		CardsStudied:   0,
		CorrectAnswers: 0,
		Completed:      false,
		StartedAt:      time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
// Returns an error if any field fails validation.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}

	if s.DeckID == uuid.Nil {
		return ErrSessionDeckIDEmpty
	}

	if !s.Mode.IsValid() {
		return ErrSessionInvalidMode
	}

	if s.TotalCards < 1 {
		return ErrSessionNoCards
	}

	if s.CorrectAnswers < 0 || s.CorrectAnswers > s.CardsStudied || s.CardsStudied > s.TotalCards {
		return ErrSessionCounters
	}

	return nil
}

// RecordReview advances the session counters by one studied card.
// Returns ErrSessionCompleted on a completed session and ErrSessionCounters
// when the session has already covered all of its cards.
func (s *StudySession) RecordReview(isCorrect bool) error {
	if s.Completed {
		return ErrSessionCompleted
	}

	if s.CardsStudied >= s.TotalCards {
		return ErrSessionCounters
	}

	s.CardsStudied++
	if isCorrect {
		s.CorrectAnswers++
	}
	return nil
}

// MarkCompleted sets the completed flag and timestamp. Completing an already
// completed session is a no-op so that client retries cannot corrupt the
// final counters.
func (s *StudySession) MarkCompleted(now time.Time) {
	if s.Completed {
		return
	}

	s.Completed = true
	completedAt := now.UTC()
	s.CompletedAt = &completedAt
}

// IsActive reports whether the session is still open for reviews.
func (s *StudySession) IsActive() bool {
	return !s.Completed
}
