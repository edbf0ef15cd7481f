package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MasteredThreshold is the mastery level at or above which a card counts as
// mastered in deck-level aggregates.
const MasteredThreshold = 80

// CardProgress-specific validation errors
var (
	// ErrProgressCardIDEmpty is returned when a progress record's card ID is empty or nil.
	ErrProgressCardIDEmpty = errors.New("card progress card ID cannot be empty")

	// ErrProgressUserIDEmpty is returned when a progress record's user ID is empty or nil.
	ErrProgressUserIDEmpty = errors.New("card progress user ID cannot be empty")

	// ErrProgressDeckIDEmpty is returned when a progress record's deck ID is empty or nil.
	ErrProgressDeckIDEmpty = errors.New("card progress deck ID cannot be empty")

	// ErrProgressCounters is returned when 0 <= CorrectReviews <= TotalReviews is violated.
	ErrProgressCounters = errors.New("card progress counters out of range")
)

// CardProgress is the cumulative mastery record for one (card, user) pair.
// The deck ID is denormalized onto the record so deck-level aggregation does
// not have to join through the catalog. MasteryLevel is recomputed from the
// counters on every review; there is no time-based decay.
type CardProgress struct {
	CardID         uuid.UUID  `json:"card_id"`
	UserID         uuid.UUID  `json:"user_id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	TotalReviews   int        `json:"total_reviews"`
	CorrectReviews int        `json:"correct_reviews"`
	MasteryLevel   int        `json:"mastery_level"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewCardProgress creates a progress record for a card's first review.
// Returns an error if validation fails.
func NewCardProgress(cardID, userID, deckID uuid.UUID, isCorrect bool, now time.Time) (*CardProgress, error) {
	now = now.UTC()
	progress := &CardProgress{
		CardID:         cardID,
		UserID:         userID,
		DeckID:         deckID,
		TotalReviews:   0,
		CorrectReviews: 0,
		MasteryLevel:   0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	progress.Record(isCorrect, now)
	return progress, nil
}

// Validate checks if the CardProgress has valid data.
// Returns an error if any field fails validation.
func (p *CardProgress) Validate() error {
	if p.CardID == uuid.Nil {
		return ErrProgressCardIDEmpty
	}

	if p.UserID == uuid.Nil {
		return ErrProgressUserIDEmpty
	}

	if p.DeckID == uuid.Nil {
		return ErrProgressDeckIDEmpty
	}

	if p.CorrectReviews < 0 || p.CorrectReviews > p.TotalReviews {
		return ErrProgressCounters
	}

	return nil
}

// Record applies one review outcome and recomputes the mastery level as
// floor(100 * correct / total).
func (p *CardProgress) Record(isCorrect bool, now time.Time) {
	p.TotalReviews++
	if isCorrect {
		p.CorrectReviews++
	}

	p.MasteryLevel = 100 * p.CorrectReviews / p.TotalReviews

	reviewedAt := now.UTC()
	p.LastReviewedAt = &reviewedAt
	p.UpdatedAt = reviewedAt
}

// IsMastered reports whether the card counts as mastered for deck aggregates.
func (p *CardProgress) IsMastered() bool {
	return p.MasteryLevel >= MasteredThreshold
}

// DeckProgress is the per-(deck, user) aggregate over CardProgress records.
type DeckProgress struct {
	DeckID             uuid.UUID `json:"deck_id"`
	TotalCards         int       `json:"total_cards"`
	StudiedCards       int       `json:"studied_cards"`
	MasteredCards      int       `json:"mastered_cards"`
	AverageMastery     int       `json:"average_mastery"`
	ProgressPercentage int       `json:"progress_percentage"`
}

// NewDeckProgress derives the deck aggregate from the deck's card count and
// the sum of mastery levels over studied cards. Averages and percentages are
// floored; an empty deck or an unstudied deck yields zeros.
func NewDeckProgress(deckID uuid.UUID, totalCards, studiedCards, masteredCards, masterySum int) *DeckProgress {
	progress := &DeckProgress{
		DeckID:        deckID,
		TotalCards:    totalCards,
		StudiedCards:  studiedCards,
		MasteredCards: masteredCards,
	}

	if studiedCards > 0 {
		progress.AverageMastery = masterySum / studiedCards
	}

	if totalCards > 0 {
		progress.ProgressPercentage = 100 * studiedCards / totalCards
	}

	return progress
}
