// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidStudyMode is returned when a study mode is not valid.
	ErrInvalidStudyMode = errors.New("invalid study mode")

	// ErrInvalidDifficulty is returned when a difficulty rating is not valid.
	ErrInvalidDifficulty = errors.New("invalid difficulty rating")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
