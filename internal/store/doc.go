// Package store defines the persistence interfaces of the study-session
// engine and their shared error vocabulary. Implementations live under
// internal/platform; services depend only on these interfaces.
package store
