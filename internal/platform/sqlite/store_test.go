package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewalsh/studydeck/internal/domain"
	"github.com/ewalsh/studydeck/internal/store"
)

// openTestDB returns a fresh in-memory database with the schema applied.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err, "failed to open in-memory database")
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// insertDeck seeds a deck row and returns its ID.
func insertDeck(t *testing.T, db *sql.DB, userID uuid.UUID) uuid.UUID {
	t.Helper()

	deckID := uuid.New()
	_, err := db.Exec(
		`INSERT INTO decks (id, user_id, title) VALUES (?, ?, ?)`,
		deckID, userID, "Test Deck",
	)
	require.NoError(t, err, "failed to insert deck")
	return deckID
}

// insertCards seeds n cards into the deck in position order.
func insertCards(t *testing.T, db *sql.DB, deckID uuid.UUID, n int) []uuid.UUID {
	t.Helper()

	now := time.Now().UTC()
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		cardID := uuid.New()
		_, err := db.Exec(
			`INSERT INTO cards (id, deck_id, front, back, position, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cardID, deckID, "front", "back", i, now, now,
		)
		require.NoError(t, err, "failed to insert card")
		ids = append(ids, cardID)
	}
	return ids
}

func newSession(t *testing.T, userID, deckID uuid.UUID, totalCards int) *domain.StudySession {
	t.Helper()

	session, err := domain.NewStudySession(userID, deckID, domain.StudyModeStandard, totalCards)
	require.NoError(t, err)
	return session
}

func TestSessionStoreCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessionStore := NewSQLiteSessionStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)

	t.Run("creates a session when no active one exists", func(t *testing.T) {
		session := newSession(t, userID, deckID, 5)

		got, created, err := sessionStore.CreateIfAbsent(ctx, session)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, session.ID, got.ID)
	})

	t.Run("returns the existing active session instead of a duplicate", func(t *testing.T) {
		first := newSession(t, userID, deckID, 5)
		got, _, err := sessionStore.CreateIfAbsent(ctx, first)
		require.NoError(t, err)

		second := newSession(t, userID, deckID, 5)
		resumed, created, err := sessionStore.CreateIfAbsent(ctx, second)
		require.NoError(t, err)
		assert.False(t, created, "second start should resume, not create")
		assert.Equal(t, got.ID, resumed.ID)
		assert.NotEqual(t, second.ID, resumed.ID)
	})

	t.Run("allows a new session once the active one is completed", func(t *testing.T) {
		active, err := sessionStore.GetActive(ctx, deckID, userID)
		require.NoError(t, err)
		require.NoError(t, sessionStore.Complete(ctx, active.ID, userID))

		next := newSession(t, userID, deckID, 5)
		_, created, err := sessionStore.CreateIfAbsent(ctx, next)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("active sessions on different decks do not collide", func(t *testing.T) {
		otherDeck := insertDeck(t, db, userID)
		session := newSession(t, userID, otherDeck, 3)

		_, created, err := sessionStore.CreateIfAbsent(ctx, session)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestSessionStoreGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessionStore := NewSQLiteSessionStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)

	session := newSession(t, userID, deckID, 4)
	_, _, err := sessionStore.CreateIfAbsent(ctx, session)
	require.NoError(t, err)

	t.Run("returns the session for its owner", func(t *testing.T) {
		got, err := sessionStore.Get(ctx, session.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		assert.Equal(t, domain.StudyModeStandard, got.Mode)
		assert.Equal(t, 4, got.TotalCards)
		assert.False(t, got.Completed)
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("another user's session is not found", func(t *testing.T) {
		_, err := sessionStore.Get(ctx, session.ID, uuid.New())
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		_, err := sessionStore.Get(ctx, uuid.New(), userID)
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})
}

func TestSessionStoreRecordReview(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessionStore := NewSQLiteSessionStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)

	session := newSession(t, userID, deckID, 2)
	_, _, err := sessionStore.CreateIfAbsent(ctx, session)
	require.NoError(t, err)

	t.Run("increments counters for correct and incorrect reviews", func(t *testing.T) {
		require.NoError(t, sessionStore.RecordReview(ctx, session.ID, userID, true))
		require.NoError(t, sessionStore.RecordReview(ctx, session.ID, userID, false))

		got, err := sessionStore.Get(ctx, session.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.CardsStudied)
		assert.Equal(t, 1, got.CorrectAnswers)
	})

	t.Run("rejects reviews past the total card count", func(t *testing.T) {
		err := sessionStore.RecordReview(ctx, session.ID, userID, true)
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("rejects reviews on a completed session", func(t *testing.T) {
		require.NoError(t, sessionStore.Complete(ctx, session.ID, userID))

		err := sessionStore.RecordReview(ctx, session.ID, userID, true)
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("rejects reviews from a non-owner", func(t *testing.T) {
		other := newSession(t, userID, deckID, 2)
		_, _, err := sessionStore.CreateIfAbsent(ctx, other)
		require.NoError(t, err)

		err = sessionStore.RecordReview(ctx, other.ID, uuid.New(), true)
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})
}

func TestSessionStoreComplete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessionStore := NewSQLiteSessionStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)

	session := newSession(t, userID, deckID, 3)
	_, _, err := sessionStore.CreateIfAbsent(ctx, session)
	require.NoError(t, err)

	t.Run("marks the session completed with a timestamp", func(t *testing.T) {
		require.NoError(t, sessionStore.Complete(ctx, session.ID, userID))

		got, err := sessionStore.Get(ctx, session.ID, userID)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		require.NotNil(t, got.CompletedAt)
	})

	t.Run("completing twice is a no-op", func(t *testing.T) {
		first, err := sessionStore.Get(ctx, session.ID, userID)
		require.NoError(t, err)

		require.NoError(t, sessionStore.Complete(ctx, session.ID, userID))

		second, err := sessionStore.Get(ctx, session.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, first.CompletedAt, second.CompletedAt)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		err := sessionStore.Complete(ctx, uuid.New(), userID)
		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})
}

func TestProgressStoreUpsert(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)
	cardIDs := insertCards(t, db, deckID, 1)

	now := time.Now().UTC().Truncate(time.Second)

	t.Run("inserts a new progress record", func(t *testing.T) {
		delta, err := domain.NewCardProgress(cardIDs[0], userID, deckID, true, now)
		require.NoError(t, err)

		stored, err := progressStore.Upsert(ctx, delta)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.TotalReviews)
		assert.Equal(t, 1, stored.CorrectReviews)
		assert.Equal(t, 100, stored.MasteryLevel)
		require.NotNil(t, stored.LastReviewedAt)

		got, err := progressStore.Get(ctx, cardIDs[0], userID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.MasteryLevel)
	})

	t.Run("folds counters on conflict", func(t *testing.T) {
		delta, err := domain.NewCardProgress(cardIDs[0], userID, deckID, false, now.Add(time.Minute))
		require.NoError(t, err)

		updated, err := progressStore.Upsert(ctx, delta)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.TotalReviews)
		assert.Equal(t, 1, updated.CorrectReviews)
		assert.Equal(t, 50, updated.MasteryLevel)
	})

	t.Run("interleaved reviews both land", func(t *testing.T) {
		// Two deltas built from the same prior state, as when an ad hoc
		// review races a session review. The increments must sum rather
		// than the second write clobbering the first.
		first, err := domain.NewCardProgress(cardIDs[0], userID, deckID, true, now.Add(2*time.Minute))
		require.NoError(t, err)
		second, err := domain.NewCardProgress(cardIDs[0], userID, deckID, true, now.Add(2*time.Minute))
		require.NoError(t, err)

		_, err = progressStore.Upsert(ctx, first)
		require.NoError(t, err)
		stored, err := progressStore.Upsert(ctx, second)
		require.NoError(t, err)

		assert.Equal(t, 4, stored.TotalReviews)
		assert.Equal(t, 3, stored.CorrectReviews)
		assert.Equal(t, 75, stored.MasteryLevel)
	})

	t.Run("missing record is not found", func(t *testing.T) {
		_, err := progressStore.Get(ctx, uuid.New(), userID)
		assert.ErrorIs(t, err, store.ErrProgressNotFound)
	})
}

func TestProgressStoreDeckSummary(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)
	cardIDs := insertCards(t, db, deckID, 3)

	now := time.Now().UTC()

	t.Run("empty deck summarizes to zero", func(t *testing.T) {
		summary, err := progressStore.DeckSummary(ctx, deckID, userID)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.StudiedCards)
		assert.Equal(t, 0, summary.MasteredCards)
		assert.Equal(t, 0, summary.MasterySum)
	})

	t.Run("counts studied and mastered cards", func(t *testing.T) {
		// Card 0: one correct review, mastery 100.
		first, err := domain.NewCardProgress(cardIDs[0], userID, deckID, true, now)
		require.NoError(t, err)
		_, err = progressStore.Upsert(ctx, first)
		require.NoError(t, err)

		// Card 1: one of two correct, mastery 50.
		second, err := domain.NewCardProgress(cardIDs[1], userID, deckID, true, now)
		require.NoError(t, err)
		_, err = progressStore.Upsert(ctx, second)
		require.NoError(t, err)
		miss, err := domain.NewCardProgress(cardIDs[1], userID, deckID, false, now)
		require.NoError(t, err)
		_, err = progressStore.Upsert(ctx, miss)
		require.NoError(t, err)

		summary, err := progressStore.DeckSummary(ctx, deckID, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.StudiedCards)
		assert.Equal(t, 1, summary.MasteredCards)
		assert.Equal(t, 150, summary.MasterySum)
	})

	t.Run("summary is scoped to the user", func(t *testing.T) {
		summary, err := progressStore.DeckSummary(ctx, deckID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 0, summary.StudiedCards)
	})
}

func TestCardStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	cardStore := NewSQLiteCardStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)
	cardIDs := insertCards(t, db, deckID, 3)

	t.Run("returns deck cards in position order", func(t *testing.T) {
		cards, err := cardStore.GetDeckCards(ctx, deckID, userID)
		require.NoError(t, err)
		require.Len(t, cards, 3)
		for i, c := range cards {
			assert.Equal(t, cardIDs[i], c.ID)
			assert.Equal(t, i, c.Position)
		}
	})

	t.Run("counts deck cards", func(t *testing.T) {
		count, err := cardStore.CountDeckCards(ctx, deckID, userID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("someone else's deck is not found", func(t *testing.T) {
		_, err := cardStore.GetDeckCards(ctx, deckID, uuid.New())
		assert.ErrorIs(t, err, store.ErrDeckNotFound)

		_, err = cardStore.CountDeckCards(ctx, deckID, uuid.New())
		assert.ErrorIs(t, err, store.ErrDeckNotFound)
	})

	t.Run("fetches a single card by ID", func(t *testing.T) {
		card, err := cardStore.GetByID(ctx, cardIDs[1], userID)
		require.NoError(t, err)
		assert.Equal(t, cardIDs[1], card.ID)
		assert.Equal(t, deckID, card.DeckID)
	})

	t.Run("a card behind someone else's deck is not found", func(t *testing.T) {
		_, err := cardStore.GetByID(ctx, cardIDs[1], uuid.New())
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})
}

func TestRunInTransaction(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessionStore := NewSQLiteSessionStore(db, nil)

	userID := uuid.New()
	deckID := insertDeck(t, db, userID)

	t.Run("commits on success", func(t *testing.T) {
		session := newSession(t, userID, deckID, 2)

		err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			_, _, err := sessionStore.WithTx(tx).CreateIfAbsent(ctx, session)
			return err
		})
		require.NoError(t, err)

		_, err = sessionStore.Get(ctx, session.ID, userID)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		active, err := sessionStore.GetActive(ctx, deckID, userID)
		require.NoError(t, err)

		err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			if err := sessionStore.WithTx(tx).RecordReview(ctx, active.ID, userID, true); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		got, err := sessionStore.Get(ctx, active.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.CardsStudied, "review should have been rolled back")
	})
}
