package review

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewalsh/studydeck/internal/domain"
)

func makeCards(t *testing.T, n int) []domain.Card {
	t.Helper()

	deckID := uuid.New()
	cards := make([]domain.Card, n)
	for i := range cards {
		cards[i] = domain.Card{
			ID:       uuid.New(),
			DeckID:   deckID,
			Front:    "front",
			Back:     "back",
			Position: i,
		}
	}
	return cards
}

func TestSequenceEmptyDeck(t *testing.T) {
	t.Parallel()

	for _, mode := range []domain.StudyMode{domain.StudyModeStandard, domain.StudyModeShuffle, domain.StudyModeTimed} {
		seq, err := Sequence(nil, mode, rand.New(rand.NewSource(1)))
		assert.Nil(t, seq)
		assert.ErrorIs(t, err, ErrEmptyDeck)
	}
}

func TestSequenceInvalidMode(t *testing.T) {
	t.Parallel()

	_, err := Sequence(makeCards(t, 2), domain.StudyMode("cram"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStudyMode)
}

func TestSequenceStandardPreservesOrder(t *testing.T) {
	t.Parallel()

	cards := makeCards(t, 5)
	for _, mode := range []domain.StudyMode{domain.StudyModeStandard, domain.StudyModeTimed} {
		seq, err := Sequence(cards, mode, nil)
		require.NoError(t, err)
		assert.Equal(t, cards, seq)
	}
}

func TestSequenceShuffleIsPermutation(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 7, 50} {
		cards := makeCards(t, n)
		seq, err := Sequence(cards, domain.StudyModeShuffle, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		require.Len(t, seq, n)

		// Same multiset of IDs, nothing lost or duplicated.
		want := make(map[uuid.UUID]int, n)
		got := make(map[uuid.UUID]int, n)
		for i := range cards {
			want[cards[i].ID]++
			got[seq[i].ID]++
		}
		assert.Equal(t, want, got, "shuffle of %d cards must be a permutation", n)
	}
}

func TestSequenceShuffleDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	cards := makeCards(t, 20)
	original := make([]domain.Card, len(cards))
	copy(original, cards)

	_, err := Sequence(cards, domain.StudyModeShuffle, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, original, cards)
}

func TestSequenceShuffleDeterministicForSeed(t *testing.T) {
	t.Parallel()

	cards := makeCards(t, 12)

	first, err := Sequence(cards, domain.StudyModeShuffle, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	second, err := Sequence(cards, domain.StudyModeShuffle, rand.New(rand.NewSource(99)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSequenceShuffleRequiresRand(t *testing.T) {
	t.Parallel()

	_, err := Sequence(makeCards(t, 3), domain.StudyModeShuffle, nil)
	assert.ErrorIs(t, err, ErrNilRand)
}
