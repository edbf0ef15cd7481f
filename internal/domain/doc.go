// Package domain contains the core entities of the study-session engine:
// decks and cards consumed from the catalog, study sessions with their
// counter invariants, and per-card mastery records.
//
// Entities validate themselves; persistence and transport concerns live in
// the store and api packages. Nothing in this package touches a database or
// the network.
package domain
