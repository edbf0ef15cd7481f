package review

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewalsh/studydeck/internal/domain"
)

const cardLimit = 30 * time.Second

func newActiveTrace(t *testing.T, mode domain.StudyMode, n int) Trace {
	t.Helper()
	return NewTrace(uuid.New(), mode, makeCards(t, n), cardLimit)
}

func TestNewTrace(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)

	assert.Equal(t, PhaseActive, trace.Phase())
	assert.Equal(t, 0, trace.Index())
	assert.False(t, trace.Revealed())
	assert.False(t, trace.Paused())
	assert.Equal(t, 3, trace.Len())

	current, ok := trace.Current()
	require.True(t, ok)
	assert.Equal(t, 0, current.Position)
}

func TestRevealGuards(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 2)

	revealed := trace.Reveal()
	assert.True(t, revealed.Revealed())

	// Revealing twice changes nothing.
	assert.Equal(t, revealed, revealed.Reveal())

	// Paused trace ignores reveal.
	paused := trace.TogglePause()
	assert.False(t, paused.Reveal().Revealed())
}

func TestRateRequiresReveal(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 2)

	next, effect, err := trace.Rate(domain.DifficultyEasy)
	require.NoError(t, err)
	assert.False(t, effect.Record)
	assert.Equal(t, trace, next)
}

func TestRateInvalidDifficulty(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 2).Reveal()

	_, _, err := trace.Rate(domain.Difficulty("impossible"))
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
}

func TestRateAdvancesAndRecords(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)
	firstCard, ok := trace.Current()
	require.True(t, ok)

	trace = trace.Reveal()
	trace, effect, err := trace.Rate(domain.DifficultyHard)
	require.NoError(t, err)

	assert.True(t, effect.Record)
	assert.True(t, effect.IsCorrect)
	assert.False(t, effect.Complete)
	assert.Equal(t, firstCard.ID, effect.Card.ID)

	assert.Equal(t, 1, trace.Index())
	assert.False(t, trace.Revealed())
	assert.Equal(t, PhaseActive, trace.Phase())
}

func TestRateIncorrectTracksWrongCard(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 2)
	card, _ := trace.Current()

	trace, effect, err := trace.Reveal().Rate(domain.DifficultyIncorrect)
	require.NoError(t, err)

	assert.True(t, effect.Record)
	assert.False(t, effect.IsCorrect)
	assert.Equal(t, []uuid.UUID{card.ID}, trace.WrongCardIDs())
}

func TestRateLastCardCompletes(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 1)

	trace, effect, err := trace.Reveal().Rate(domain.DifficultyEasy)
	require.NoError(t, err)

	assert.True(t, effect.Record)
	assert.True(t, effect.Complete)
	assert.Equal(t, PhaseCompleted, trace.Phase())

	_, ok := trace.Current()
	assert.False(t, ok)
}

func TestCompletedTraceIsTerminal(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 1)
	trace, _, err := trace.Reveal().Rate(domain.DifficultyEasy)
	require.NoError(t, err)
	require.Equal(t, PhaseCompleted, trace.Phase())

	// Every mutating event on a completed machine is a silent no-op.
	assert.Equal(t, trace, trace.Reveal())
	assert.Equal(t, trace, trace.GoBack())
	assert.Equal(t, trace, trace.GoForward())
	assert.Equal(t, trace, trace.TogglePause())
	assert.Equal(t, trace, trace.ToggleBookmark())

	next, effect, err := trace.Rate(domain.DifficultyHard)
	require.NoError(t, err)
	assert.False(t, effect.Record)
	assert.Equal(t, trace, next)

	next, effect = trace.Skip()
	assert.False(t, effect.Skipped)
	assert.Equal(t, trace, next)

	next, effect = trace.Tick(time.Second)
	assert.False(t, effect.Record)
	assert.Equal(t, trace, next)
}

func TestSkipBypassesScoring(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)
	card, _ := trace.Current()

	trace, effect := trace.Skip()
	assert.True(t, effect.Skipped)
	assert.False(t, effect.Record)
	assert.False(t, effect.Complete)
	assert.Equal(t, card.ID, effect.Card.ID)

	assert.Equal(t, 1, trace.Index())
	assert.Equal(t, 1, trace.SkippedCount())
	assert.Empty(t, trace.WrongCardIDs())
}

func TestSkipLastCardCompletes(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 1)

	trace, effect := trace.Skip()
	assert.True(t, effect.Skipped)
	assert.True(t, effect.Complete)
	assert.False(t, effect.Record)
	assert.Equal(t, PhaseCompleted, trace.Phase())
}

func TestRateSupersedesEarlierSkip(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)

	trace, _ = trace.Skip()
	require.Equal(t, 1, trace.SkippedCount())

	// Navigate back to the skipped card and rate it for real.
	trace = trace.GoBack()
	trace, effect, err := trace.Reveal().Rate(domain.DifficultyMedium)
	require.NoError(t, err)

	assert.True(t, effect.Record)
	assert.Equal(t, 0, trace.SkippedCount())
}

func TestRatedCardCannotBeRatedAgain(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)

	trace, effect, err := trace.Reveal().Rate(domain.DifficultyEasy)
	require.NoError(t, err)
	require.True(t, effect.Record)

	// Back to the already-rated card; a second rating must not be recorded.
	trace = trace.GoBack().Reveal()
	next, effect, err := trace.Rate(domain.DifficultyIncorrect)
	require.NoError(t, err)
	assert.False(t, effect.Record)
	assert.Equal(t, trace, next)
	assert.Empty(t, next.WrongCardIDs())
}

func TestNavigationBounds(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)

	// Lower bound.
	assert.Equal(t, 0, trace.GoBack().Index())

	trace = trace.GoForward()
	assert.Equal(t, 1, trace.Index())
	trace = trace.GoForward()
	assert.Equal(t, 2, trace.Index())

	// Upper bound.
	assert.Equal(t, 2, trace.GoForward().Index())
}

func TestNavigationResetsReveal(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3).Reveal()
	require.True(t, trace.Revealed())

	assert.False(t, trace.GoForward().Revealed())
}

func TestPauseMakesEventsInert(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeTimed, 3).Reveal()
	paused := trace.TogglePause()
	require.True(t, paused.Paused())

	assert.Equal(t, paused, paused.GoForward())
	assert.Equal(t, paused, paused.GoBack())
	assert.Equal(t, paused, paused.ToggleBookmark())

	next, effect, err := paused.Rate(domain.DifficultyEasy)
	require.NoError(t, err)
	assert.False(t, effect.Record)
	assert.Equal(t, paused, next)

	next, effect = paused.Skip()
	assert.False(t, effect.Skipped)
	assert.Equal(t, paused, next)

	// Timers are suspended while paused.
	next, effect = paused.Tick(time.Second)
	assert.False(t, effect.Record)
	assert.Equal(t, time.Duration(0), next.Elapsed())

	// TogglePause is the single way out.
	resumed := paused.TogglePause()
	assert.False(t, resumed.Paused())
	assert.True(t, resumed.Revealed())
}

func TestToggleBookmark(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 2)
	card, _ := trace.Current()

	trace = trace.ToggleBookmark()
	assert.True(t, trace.IsBookmarked(card.ID))
	assert.Equal(t, []uuid.UUID{card.ID}, trace.BookmarkedCardIDs())

	trace = trace.ToggleBookmark()
	assert.False(t, trace.IsBookmarked(card.ID))
	assert.Empty(t, trace.BookmarkedCardIDs())
}

func TestTickAccumulatesElapsed(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 2)

	trace, _ = trace.Tick(time.Second)
	trace, _ = trace.Tick(2 * time.Second)
	assert.Equal(t, 3*time.Second, trace.Elapsed())

	// Standard mode never auto-advances.
	assert.Equal(t, 0, trace.Index())
}

func TestTimedCountdownRunsOnlyWhileRevealed(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeTimed, 2)

	trace, _ = trace.Tick(10 * time.Second)
	assert.Equal(t, cardLimit, trace.Countdown())

	trace = trace.Reveal()
	trace, _ = trace.Tick(10 * time.Second)
	assert.Equal(t, cardLimit-10*time.Second, trace.Countdown())
}

func TestTimedExpiryActsAsMediumRating(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeTimed, 2)
	card, _ := trace.Current()

	trace = trace.Reveal()
	trace, effect := trace.Tick(cardLimit)

	// Countdown hit zero: equivalent to rate(medium), a correct outcome.
	assert.True(t, effect.Record)
	assert.True(t, effect.IsCorrect)
	assert.Equal(t, card.ID, effect.Card.ID)

	// Advanced to the next card with a full countdown again.
	assert.Equal(t, 1, trace.Index())
	assert.False(t, trace.Revealed())
	assert.Equal(t, cardLimit, trace.Countdown())
}

func TestTimedExpiryOnLastCardCompletes(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeTimed, 1).Reveal()

	trace, effect := trace.Tick(cardLimit + time.Second)
	assert.True(t, effect.Record)
	assert.True(t, effect.Complete)
	assert.Equal(t, PhaseCompleted, trace.Phase())
}

func TestResumeTracePositionsCursor(t *testing.T) {
	t.Parallel()

	cards := makeCards(t, 5)
	sessionID := uuid.New()

	trace := ResumeTrace(sessionID, domain.StudyModeStandard, cards, cardLimit, 3)
	assert.Equal(t, 3, trace.Index())

	// Studied count at or past the end clamps to the last card.
	trace = ResumeTrace(sessionID, domain.StudyModeStandard, cards, cardLimit, 9)
	assert.Equal(t, 4, trace.Index())
}

func TestWrongCardsReturnsPayloadInSequenceOrder(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)

	// Rate: wrong, correct, wrong.
	trace, _, err := trace.Reveal().Rate(domain.DifficultyIncorrect)
	require.NoError(t, err)
	trace, _, err = trace.Reveal().Rate(domain.DifficultyEasy)
	require.NoError(t, err)
	lastCard, _ := trace.Current()
	trace, _, err = trace.Reveal().Rate(domain.DifficultyIncorrect)
	require.NoError(t, err)

	wrong := trace.WrongCards()
	require.Len(t, wrong, 2)
	assert.Equal(t, 0, wrong[0].Position)
	assert.Equal(t, lastCard.ID, wrong[1].ID)
}

// Scenario: three cards studied standard, rated easy / incorrect / hard.
func TestStandardSessionScenario(t *testing.T) {
	t.Parallel()

	trace := newActiveTrace(t, domain.StudyModeStandard, 3)

	recorded := 0
	correct := 0
	var wrongID uuid.UUID

	rate := func(d domain.Difficulty) Effect {
		t.Helper()
		var effect Effect
		var err error
		trace, effect, err = trace.Reveal().Rate(d)
		require.NoError(t, err)
		require.True(t, effect.Record)
		recorded++
		if effect.IsCorrect {
			correct++
		}
		return effect
	}

	rate(domain.DifficultyEasy)
	secondCard, _ := trace.Current()
	effect := rate(domain.DifficultyIncorrect)
	wrongID = effect.Card.ID
	assert.Equal(t, secondCard.ID, wrongID)
	effect = rate(domain.DifficultyHard)
	assert.True(t, effect.Complete)

	assert.Equal(t, 3, recorded)
	assert.Equal(t, 2, correct)
	assert.Equal(t, []uuid.UUID{wrongID}, trace.WrongCardIDs())
	assert.Equal(t, PhaseCompleted, trace.Phase())
}
