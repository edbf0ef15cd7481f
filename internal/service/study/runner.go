package study

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/config"
	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/domain/review"
)

// Runner hosts the in-memory review state machines for active sessions. One
// trace lives per session; mutating events are serialized per session and
// dropped with ErrSessionBusy while a prior event is still applying its
// durable effects. Evicting a trace loses nothing durable: starting the deck
// again resumes from the ledger's counters.
type Runner struct {
	svc       StudyService
	cardLimit time.Duration
	tickEvery time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	slots map[uuid.UUID]*slot
}

// slot pairs a trace with the locally mirrored ledger row for one session.
type slot struct {
	mu sync.Mutex

	userID  uuid.UUID
	deckID  uuid.UUID
	trace   review.Trace
	session *domain.StudySession

	// stop ends the tick goroutine.
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRunner creates a new Runner.
// It returns an error if the study service is nil.
func NewRunner(svc StudyService, cfg config.StudyConfig, logger *slog.Logger) (*Runner, error) {
	if svc == nil {
		return nil, errors.New("study service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		svc:       svc,
		cardLimit: time.Duration(cfg.CardSeconds) * time.Second,
		tickEvery: time.Duration(cfg.TickMillis) * time.Millisecond,
		logger:    logger.With(slog.String("component", "study_runner")),
		slots:     map[uuid.UUID]*slot{},
	}, nil
}

// CardView is the client-facing projection of the current card. The back is
// withheld until the card has been revealed.
type CardView struct {
	ID         uuid.UUID `json:"id"`
	Front      string    `json:"front"`
	Back       string    `json:"back,omitempty"`
	Position   int       `json:"position"`
	Bookmarked bool      `json:"bookmarked"`
}

// Snapshot is the client-facing view of a session's machine state.
type Snapshot struct {
	SessionID        uuid.UUID        `json:"session_id"`
	DeckID           uuid.UUID        `json:"deck_id"`
	Mode             domain.StudyMode `json:"mode"`
	Phase            string           `json:"phase"`
	Index            int              `json:"index"`
	TotalCards       int              `json:"total_cards"`
	CardsStudied     int              `json:"cards_studied"`
	CorrectAnswers   int              `json:"correct_answers"`
	Revealed         bool             `json:"revealed"`
	Paused           bool             `json:"paused"`
	ElapsedSeconds   int              `json:"elapsed_seconds"`
	CountdownSeconds int              `json:"countdown_seconds,omitempty"`
	Card             *CardView        `json:"card,omitempty"`
}

// Start starts or resumes a session on the deck and registers its trace.
// When the trace for the resumed session is still live in memory, the live
// one wins; the ledger resume path only applies after the trace was lost.
func (r *Runner) Start(
	ctx context.Context,
	userID, deckID uuid.UUID,
	mode domain.StudyMode,
) (*Snapshot, error) {
	session, cards, err := r.svc.StartSession(ctx, userID, deckID, mode)
	if err != nil {
		return nil, err
	}
	return r.register(userID, session, cards), nil
}

// register installs a slot for the session unless a live one already exists,
// and sweeps out completed slots for the same (user, deck).
func (r *Runner) register(userID uuid.UUID, session *domain.StudySession, cards []domain.Card) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.slots[session.ID]; ok {
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return existing.snapshot()
	}

	for id, sl := range r.slots {
		if sl.userID == userID && sl.deckID == session.DeckID && sl.session.Completed {
			sl.stopTicker()
			delete(r.slots, id)
		}
	}

	sl := &slot{
		userID:  userID,
		deckID:  session.DeckID,
		trace:   review.ResumeTrace(session.ID, session.Mode, cards, r.cardLimit, session.CardsStudied),
		session: session,
	}
	snap := sl.snapshot()

	// Every mode gets the tick source: it drives the elapsed clock for the
	// summary, and in timed mode additionally the per-card countdown.
	sl.stop = make(chan struct{})
	go r.runTicker(sl)

	r.slots[session.ID] = sl
	return snap
}

// lookup finds the caller's slot. Unknown sessions and sessions owned by
// someone else are both ErrSessionNotFound.
func (r *Runner) lookup(userID, sessionID uuid.UUID) (*slot, error) {
	r.mu.Lock()
	sl, ok := r.slots[sessionID]
	r.mu.Unlock()

	if !ok || sl.userID != userID {
		return nil, ErrSessionNotFound
	}
	return sl, nil
}

// mutate applies fn under the session's event lock. A concurrent mutating
// event is dropped with ErrSessionBusy rather than queued.
func (r *Runner) mutate(userID, sessionID uuid.UUID, fn func(sl *slot) error) (*Snapshot, error) {
	sl, err := r.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	if !sl.mu.TryLock() {
		return nil, ErrSessionBusy
	}
	defer sl.mu.Unlock()

	if err := fn(sl); err != nil {
		return nil, err
	}
	return sl.snapshot(), nil
}

// event is mutate with the terminal guard: machine events against a
// completed session are acknowledged without effect.
func (r *Runner) event(userID, sessionID uuid.UUID, fn func(sl *slot) error) (*Snapshot, error) {
	return r.mutate(userID, sessionID, func(sl *slot) error {
		if sl.session.Completed {
			return nil
		}
		return fn(sl)
	})
}

// applyEffect performs the durable calls a transition demanded and, on
// success, commits the successor trace. On failure the old trace stays in
// place so the event can be retried.
func (r *Runner) applyEffect(ctx context.Context, sl *slot, next review.Trace, effect review.Effect) error {
	if effect.Record {
		if _, err := r.svc.ReviewCard(ctx, sl.userID, sl.session.ID, effect.Card.ID, sl.deckID, effect.IsCorrect); err != nil {
			return err
		}
		if err := sl.session.RecordReview(effect.IsCorrect); err != nil {
			// The ledger accepted the review; a mirror failure only skews
			// the snapshot counters until the next resume.
			r.logger.Warn("failed to mirror review locally",
				slog.String("session_id", sl.session.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	if effect.Complete {
		if err := r.svc.CompleteSession(ctx, sl.userID, sl.session.ID); err != nil {
			return err
		}
		sl.session.MarkCompleted(time.Now().UTC())
		sl.stopTicker()
	}

	sl.trace = next
	return nil
}

// Snapshot returns the current machine state for the session.
func (r *Runner) Snapshot(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	sl, err := r.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.snapshot(), nil
}

// Reveal flips the current card face up.
func (r *Runner) Reveal(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	return r.event(userID, sessionID, func(sl *slot) error {
		sl.trace = sl.trace.Reveal()
		return nil
	})
}

// Rate consumes a difficulty rating for the revealed card and applies its
// durable effects.
func (r *Runner) Rate(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	difficulty domain.Difficulty,
) (*Snapshot, error) {
	return r.event(userID, sessionID, func(sl *slot) error {
		next, effect, err := sl.trace.Rate(difficulty)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidDifficulty) {
				return ErrInvalidDifficulty
			}
			return err
		}
		return r.applyEffect(ctx, sl, next, effect)
	})
}

// Skip moves past the current card without scoring it.
func (r *Runner) Skip(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	return r.event(userID, sessionID, func(sl *slot) error {
		next, effect := sl.trace.Skip()
		return r.applyEffect(ctx, sl, next, effect)
	})
}

// Pause toggles the pause state.
func (r *Runner) Pause(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	return r.event(userID, sessionID, func(sl *slot) error {
		sl.trace = sl.trace.TogglePause()
		return nil
	})
}

// Bookmark toggles the bookmark on the current card.
func (r *Runner) Bookmark(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	return r.event(userID, sessionID, func(sl *slot) error {
		sl.trace = sl.trace.ToggleBookmark()
		return nil
	})
}

// Back moves the cursor to the previous card.
func (r *Runner) Back(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	return r.event(userID, sessionID, func(sl *slot) error {
		sl.trace = sl.trace.GoBack()
		return nil
	})
}

// Forward moves the cursor to the next card.
func (r *Runner) Forward(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	return r.event(userID, sessionID, func(sl *slot) error {
		sl.trace = sl.trace.GoForward()
		return nil
	})
}

// Complete explicitly completes the session. Completing an already
// completed session acknowledges without changing anything, and the ack
// holds even when the trace is gone: a completion retry after a restart
// goes straight to the ledger.
func (r *Runner) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	snap, err := r.mutate(userID, sessionID, func(sl *slot) error {
		if sl.session.Completed {
			return nil
		}
		if err := r.svc.CompleteSession(ctx, sl.userID, sessionID); err != nil {
			return err
		}
		sl.session.MarkCompleted(time.Now().UTC())
		sl.stopTicker()
		return nil
	})
	if !errors.Is(err, ErrSessionNotFound) {
		return snap, err
	}

	if err := r.svc.CompleteSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	session, err := r.svc.Session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		SessionID:      session.ID,
		DeckID:         session.DeckID,
		Mode:           session.Mode,
		Phase:          string(review.PhaseCompleted),
		TotalCards:     session.TotalCards,
		CardsStudied:   session.CardsStudied,
		CorrectAnswers: session.CorrectAnswers,
	}, nil
}

// Summary builds the session report from the ledger counters and the trace.
func (r *Runner) Summary(ctx context.Context, userID, sessionID uuid.UUID) (*review.Summary, error) {
	sl, err := r.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	return review.BuildSummary(sl.trace, sl.session), nil
}

// RestartWrong completes the session if needed and starts a fresh one over
// the cards answered incorrectly, in a fresh sequence with a fresh ledger
// row.
func (r *Runner) RestartWrong(ctx context.Context, userID, sessionID uuid.UUID) (*Snapshot, error) {
	sl, err := r.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	if !sl.mu.TryLock() {
		return nil, ErrSessionBusy
	}

	wrong := sl.trace.WrongCards()
	if len(wrong) == 0 {
		sl.mu.Unlock()
		return nil, ErrNoWrongCards
	}

	if !sl.session.Completed {
		if err := r.svc.CompleteSession(ctx, sl.userID, sessionID); err != nil {
			sl.mu.Unlock()
			return nil, err
		}
		sl.session.MarkCompleted(time.Now().UTC())
		sl.stopTicker()
	}

	deckID := sl.deckID
	mode := sl.session.Mode
	sl.mu.Unlock()

	session, cards, err := r.svc.StartFocusedSession(ctx, userID, deckID, mode, wrong)
	if err != nil {
		return nil, err
	}
	return r.register(userID, session, cards), nil
}

// runTicker feeds periodic ticks into a session until stopped.
func (r *Runner) runTicker(sl *slot) {
	ticker := time.NewTicker(r.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-sl.stop:
			return
		case <-ticker.C:
			r.tick(sl)
		}
	}
}

// tick advances the session clock by one period. Ticks arriving while an
// event holds the slot are dropped; the countdown is a pacing aid, not an
// exact stopwatch.
func (r *Runner) tick(sl *slot) {
	if !sl.mu.TryLock() {
		return
	}
	defer sl.mu.Unlock()

	if sl.session.Completed {
		return
	}

	next, effect := sl.trace.Tick(r.tickEvery)
	if err := r.applyEffect(context.Background(), sl, next, effect); err != nil {
		r.logger.Warn("failed to apply timed expiry",
			slog.String("session_id", sl.session.ID.String()),
			slog.String("error", err.Error()))
	}
}

// Shutdown stops the tick goroutines of all registered sessions. Traces stay
// in memory but no further timer events fire; durable state is untouched.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sl := range r.slots {
		sl.mu.Lock()
		sl.stopTicker()
		sl.mu.Unlock()
	}
}

// stopTicker must be called with the slot lock held.
func (sl *slot) stopTicker() {
	if sl.stop == nil {
		return
	}
	sl.stopOnce.Do(func() {
		close(sl.stop)
	})
}

// snapshot must be called with the slot lock held.
func (sl *slot) snapshot() *Snapshot {
	snap := &Snapshot{
		SessionID:      sl.session.ID,
		DeckID:         sl.deckID,
		Mode:           sl.session.Mode,
		Phase:          string(sl.trace.Phase()),
		Index:          sl.trace.Index(),
		TotalCards:     sl.session.TotalCards,
		CardsStudied:   sl.session.CardsStudied,
		CorrectAnswers: sl.session.CorrectAnswers,
		Revealed:       sl.trace.Revealed(),
		Paused:         sl.trace.Paused(),
		ElapsedSeconds: int(sl.trace.Elapsed().Seconds()),
	}

	if sl.session.Completed {
		snap.Phase = string(review.PhaseCompleted)
	}

	if sl.session.Mode == domain.StudyModeTimed {
		snap.CountdownSeconds = int(sl.trace.Countdown().Seconds())
	}

	if card, ok := sl.trace.Current(); ok && !sl.session.Completed {
		view := &CardView{
			ID:         card.ID,
			Front:      card.Front,
			Position:   card.Position,
			Bookmarked: sl.trace.IsBookmarked(card.ID),
		}
		if sl.trace.Revealed() {
			view.Back = card.Back
		}
		snap.Card = view
	}

	return snap
}
