package auth

import "errors"

// Errors returned by token validation. Tokens are issued elsewhere, so every
// failure here is a rejection of a presented token, never an issuance fault.
var (
	// ErrInvalidToken rejects a token that is malformed or whose signature
	// does not verify against the shared secret.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken rejects a token past its expiry claim.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid rejects a token whose nbf claim lies in the future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken reports that no token accompanied the request.
	ErrMissingToken = errors.New("authentication token is missing")
)
