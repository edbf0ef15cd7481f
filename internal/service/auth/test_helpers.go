package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable clock for tests.
// Production code should use NewJWTService, which reads configuration and
// always uses the real clock.
func NewTestJWTService(
	secret string,
	tokenLifetime time.Duration,
	timeFunc func() time.Time,
) JWTService {
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: tokenLifetime,
		timeFunc:      timeFunc,
		clockSkew:     0,
	}
}
