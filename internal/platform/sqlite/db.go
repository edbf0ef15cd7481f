// Package sqlite provides an embedded storage backend implementing the store
// interfaces over modernc.org/sqlite. It mirrors the postgres package's
// semantics, including the partial unique index guarding the single active
// session per (user, deck). The schema is applied at open time; there is no
// separate migration step for the embedded database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlitedrv "modernc.org/sqlite" // Registers the sqlite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ewalsh/studydeck/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_decks_user ON decks (user_id);

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL REFERENCES decks (id) ON DELETE CASCADE,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards (deck_id, position);

CREATE TABLE IF NOT EXISTS study_sessions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    deck_id TEXT NOT NULL REFERENCES decks (id) ON DELETE CASCADE,
    mode TEXT NOT NULL CHECK (mode IN ('standard', 'shuffle', 'timed')),
    total_cards INTEGER NOT NULL CHECK (total_cards >= 1),
    cards_studied INTEGER NOT NULL DEFAULT 0,
    correct_answers INTEGER NOT NULL DEFAULT 0,
    completed INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP,
    CHECK (correct_answers >= 0),
    CHECK (correct_answers <= cards_studied),
    CHECK (cards_studied <= total_cards)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_study_sessions_active
    ON study_sessions (user_id, deck_id) WHERE NOT completed;

CREATE TABLE IF NOT EXISTS card_progress (
    card_id TEXT NOT NULL REFERENCES cards (id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    deck_id TEXT NOT NULL,
    total_reviews INTEGER NOT NULL DEFAULT 0,
    correct_reviews INTEGER NOT NULL DEFAULT 0,
    mastery_level INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (card_id, user_id),
    CHECK (correct_reviews >= 0),
    CHECK (correct_reviews <= total_reviews),
    CHECK (mastery_level >= 0 AND mastery_level <= 100)
);

CREATE INDEX IF NOT EXISTS idx_card_progress_deck ON card_progress (deck_id, user_id);
`

// Open creates a new database connection and ensures the schema is in place.
// Use ":memory:" as the dsn for an ephemeral database in tests.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The embedded database serializes writers; a single connection avoids
	// SQLITE_BUSY churn and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// mapError maps a sqlite error to the store error vocabulary, mirroring the
// postgres package's MapError.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var sqliteErr *sqlitedrv.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	return err
}
