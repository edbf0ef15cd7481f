package review

import (
	"errors"
	"math/rand"

	"github.com/ewalsh/studydeck/internal/domain"
)

// Sequencer errors
var (
	// ErrEmptyDeck is returned when a session is started over a deck with no cards.
	ErrEmptyDeck = errors.New("deck has no cards to study")

	// ErrNilRand is returned when shuffle sequencing is requested without a random source.
	ErrNilRand = errors.New("shuffle sequencing requires a random source")
)

// Sequence derives the frozen working order of cards for one session.
//
// Standard and timed modes preserve the source order. Shuffle mode produces a
// uniformly random permutation via Fisher-Yates using the provided source.
// The returned slice is always a copy; callers may not observe reordering of
// the input, and the sequence is computed exactly once per session.
func Sequence(cards []domain.Card, mode domain.StudyMode, rng *rand.Rand) ([]domain.Card, error) {
	if !mode.IsValid() {
		return nil, domain.ErrInvalidStudyMode
	}

	if len(cards) == 0 {
		return nil, ErrEmptyDeck
	}

	sequenced := make([]domain.Card, len(cards))
	copy(sequenced, cards)

	if mode != domain.StudyModeShuffle {
		return sequenced, nil
	}

	if rng == nil {
		return nil, ErrNilRand
	}

	for i := len(sequenced) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		sequenced[i], sequenced[j] = sequenced[j], sequenced[i]
	}

	return sequenced, nil
}
