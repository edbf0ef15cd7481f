package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
)

// Phase is the lifecycle state of a review trace.
type Phase string

// Possible phase values
const (
	PhaseNotStarted Phase = "not_started"
	PhaseActive     Phase = "active"
	PhaseCompleted  Phase = "completed"
)

// idSet is a small set of card IDs. Transitions clone it on write so traces
// stay value-typed: a copied Trace never shares mutable state with its origin.
type idSet map[uuid.UUID]struct{}

func (s idSet) has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) with(id uuid.UUID) idSet {
	next := make(idSet, len(s)+1)
	for k := range s {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

func (s idSet) without(id uuid.UUID) idSet {
	next := make(idSet, len(s))
	for k := range s {
		if k != id {
			next[k] = struct{}{}
		}
	}
	return next
}

// Effect describes the durable calls a transition requires. The trace itself
// never touches storage; the caller applies the effect through the ledger and
// mastery tracker and only then feeds the next event in.
type Effect struct {
	// Record is true when the transition consumed a rating: the caller must
	// record the review against the session ledger and the mastery tracker.
	Record bool

	// Skipped is true when the transition bypassed scoring for Card.
	Skipped bool

	// Complete is true when the session reached its last card: the caller
	// must mark the session completed in the ledger.
	Complete bool

	// Card is the card the effect applies to, valid when Record or Skipped.
	Card domain.Card

	// IsCorrect is the recorded outcome, valid when Record is true.
	IsCorrect bool
}

// Trace is the ephemeral working state of one active session: the frozen card
// sequence, the cursor, reveal/pause flags, timers and the per-session card
// sets. It is discarded on completion or abandonment; everything durable goes
// through the Effect values its transitions emit.
//
// All transitions are pure: they return the successor trace and leave the
// receiver untouched. Disallowed events (terminal machine, paused machine,
// unrevealed rating) return the trace unchanged with a zero Effect, mirroring
// how UI races are absorbed rather than surfaced as hard failures.
type Trace struct {
	SessionID uuid.UUID
	Mode      domain.StudyMode

	cards    []domain.Card
	index    int
	revealed bool
	paused   bool
	phase    Phase

	// cardLimit is the full per-card countdown for timed mode; countdown is
	// what remains for the current card while revealed.
	cardLimit time.Duration
	countdown time.Duration

	// elapsed accumulates active (unpaused) study time.
	elapsed time.Duration

	// handled holds cards whose rating has been recorded; rating one of these
	// again is a silent no-op so ledger counters can never double-count.
	handled    idSet
	skipped    idSet
	bookmarked idSet

	// wrong preserves rating order for the summary's wrong-card list.
	wrong []uuid.UUID
}

// NewTrace builds the trace for a freshly sequenced session, positioned on
// the first card, unrevealed and unpaused. cardLimit only matters in timed
// mode and is the full countdown granted per card.
func NewTrace(sessionID uuid.UUID, mode domain.StudyMode, cards []domain.Card, cardLimit time.Duration) Trace {
	return Trace{
		SessionID:  sessionID,
		Mode:       mode,
		cards:      cards,
		phase:      PhaseActive,
		cardLimit:  cardLimit,
		countdown:  cardLimit,
		handled:    idSet{},
		skipped:    idSet{},
		bookmarked: idSet{},
	}
}

// ResumeTrace builds a trace for a session resumed after the in-memory state
// was lost. The cursor is positioned at studied (clamped to the last card);
// per-card flags from the abandoned attempt are gone, only the durable
// counters survived.
func ResumeTrace(sessionID uuid.UUID, mode domain.StudyMode, cards []domain.Card, cardLimit time.Duration, studied int) Trace {
	t := NewTrace(sessionID, mode, cards, cardLimit)
	if studied > 0 {
		if studied > len(cards)-1 {
			studied = len(cards) - 1
		}
		t.index = studied
	}
	return t
}

// Phase returns the lifecycle state of the trace.
func (t Trace) Phase() Phase {
	if t.phase == "" {
		return PhaseNotStarted
	}
	return t.phase
}

// Index returns the position of the current card in the sequence.
func (t Trace) Index() int { return t.index }

// Revealed reports whether the current card's back side is showing.
func (t Trace) Revealed() bool { return t.revealed }

// Paused reports whether the trace is paused.
func (t Trace) Paused() bool { return t.paused }

// Elapsed returns the accumulated active study time.
func (t Trace) Elapsed() time.Duration { return t.elapsed }

// Countdown returns the remaining per-card time (timed mode).
func (t Trace) Countdown() time.Duration { return t.countdown }

// Len returns the number of cards in the sequence.
func (t Trace) Len() int { return len(t.cards) }

// Current returns the card under the cursor. The second return is false on a
// completed or empty trace.
func (t Trace) Current() (domain.Card, bool) {
	if t.phase != PhaseActive || t.index >= len(t.cards) {
		return domain.Card{}, false
	}
	return t.cards[t.index], true
}

// IsBookmarked reports whether the given card is bookmarked.
func (t Trace) IsBookmarked(cardID uuid.UUID) bool { return t.bookmarked.has(cardID) }

// SkippedCount returns the number of cards skipped so far.
func (t Trace) SkippedCount() int { return len(t.skipped) }

// WrongCardIDs returns the cards rated incorrect, in rating order.
func (t Trace) WrongCardIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(t.wrong))
	copy(ids, t.wrong)
	return ids
}

// BookmarkedCardIDs returns the bookmarked cards in sequence order.
func (t Trace) BookmarkedCardIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.bookmarked))
	for _, card := range t.cards {
		if t.bookmarked.has(card.ID) {
			ids = append(ids, card.ID)
		}
	}
	return ids
}

// WrongCards returns the full card payloads rated incorrect, in sequence
// order, for a focused follow-up session over the wrong-card subset.
func (t Trace) WrongCards() []domain.Card {
	wrongSet := make(idSet, len(t.wrong))
	for _, id := range t.wrong {
		wrongSet[id] = struct{}{}
	}

	cards := make([]domain.Card, 0, len(t.wrong))
	for _, card := range t.cards {
		if wrongSet.has(card.ID) {
			cards = append(cards, card)
		}
	}
	return cards
}

// Reveal shows the current card's back side. No-op unless the trace is
// active, unpaused and the card is still hidden.
func (t Trace) Reveal() Trace {
	if t.phase != PhaseActive || t.paused || t.revealed {
		return t
	}

	t.revealed = true
	return t
}

// Rate consumes a difficulty rating for the revealed current card. The
// returned effect carries the review to record; on the last card it also
// carries completion. Rating is inert while hidden, paused, terminal, or when
// the current card's review was already recorded.
func (t Trace) Rate(difficulty domain.Difficulty) (Trace, Effect, error) {
	if !difficulty.IsValid() {
		return t, Effect{}, domain.ErrInvalidDifficulty
	}

	if t.phase != PhaseActive || t.paused || !t.revealed {
		return t, Effect{}, nil
	}

	card := t.cards[t.index]
	if t.handled.has(card.ID) {
		return t, Effect{}, nil
	}

	isCorrect := difficulty.IsCorrect()

	t.handled = t.handled.with(card.ID)
	// A rating supersedes an earlier skip of the same card.
	if t.skipped.has(card.ID) {
		t.skipped = t.skipped.without(card.ID)
	}
	if !isCorrect {
		t.wrong = append(t.wrong[:len(t.wrong):len(t.wrong)], card.ID)
	}

	effect := Effect{
		Record:    true,
		Card:      card,
		IsCorrect: isCorrect,
	}

	t, effect = t.advance(effect)
	return t, effect, nil
}

// Skip moves past the current card without scoring it: no ledger counters,
// no mastery update. Advancing off the last card still completes the session.
func (t Trace) Skip() (Trace, Effect) {
	if t.phase != PhaseActive || t.paused {
		return t, Effect{}
	}

	card := t.cards[t.index]
	if t.handled.has(card.ID) || t.skipped.has(card.ID) {
		return t, Effect{}
	}

	t.skipped = t.skipped.with(card.ID)

	effect := Effect{
		Skipped: true,
		Card:    card,
	}

	t, effect = t.advance(effect)
	return t, effect
}

// advance moves the cursor after a rating or skip, resetting the reveal flag
// and the timed countdown, or transitions to Completed from the last card.
func (t Trace) advance(effect Effect) (Trace, Effect) {
	if t.index >= len(t.cards)-1 {
		t.phase = PhaseCompleted
		t.revealed = false
		effect.Complete = true
		return t, effect
	}

	t.index++
	t.revealed = false
	t.countdown = t.cardLimit
	return t, effect
}

// GoBack moves the cursor one card back. Pure presentation movement: nothing
// is recorded, the reveal flag resets, bounded at the first card.
func (t Trace) GoBack() Trace {
	return t.navigate(t.index - 1)
}

// GoForward moves the cursor one card forward, bounded at the last card.
func (t Trace) GoForward() Trace {
	return t.navigate(t.index + 1)
}

func (t Trace) navigate(target int) Trace {
	if t.phase != PhaseActive || t.paused {
		return t
	}

	if target < 0 || target > len(t.cards)-1 || target == t.index {
		return t
	}

	t.index = target
	t.revealed = false
	t.countdown = t.cardLimit
	return t
}

// TogglePause flips the pause flag. While paused every other event is inert;
// TogglePause is the only way out. Terminal traces stay terminal.
func (t Trace) TogglePause() Trace {
	if t.phase != PhaseActive {
		return t
	}

	t.paused = !t.paused
	return t
}

// ToggleBookmark flips the current card's membership in the bookmark set.
// Bookmarks never touch scoring or mastery.
func (t Trace) ToggleBookmark() Trace {
	if t.phase != PhaseActive || t.paused {
		return t
	}

	card := t.cards[t.index]
	if t.bookmarked.has(card.ID) {
		t.bookmarked = t.bookmarked.without(card.ID)
	} else {
		t.bookmarked = t.bookmarked.with(card.ID)
	}
	return t
}

// Tick feeds one slice of wall-clock time into the trace. Paused and terminal
// traces ignore ticks entirely. In timed mode the countdown runs only while
// the card is revealed; when it reaches zero the tick behaves exactly like
// Rate(medium), a neutral default, and the countdown resets for the next card
// via the advance.
func (t Trace) Tick(delta time.Duration) (Trace, Effect) {
	if t.phase != PhaseActive || t.paused || delta <= 0 {
		return t, Effect{}
	}

	t.elapsed += delta

	if t.Mode != domain.StudyModeTimed || !t.revealed {
		return t, Effect{}
	}

	if t.countdown > delta {
		t.countdown -= delta
		return t, Effect{}
	}

	t.countdown = 0
	next, effect, err := t.Rate(domain.DifficultyMedium)
	if err != nil {
		return t, Effect{}
	}
	return next, effect
}
