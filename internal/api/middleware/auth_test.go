package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewalsh/studydeck/internal/service/auth"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	secret := "test-secret-that-is-long-enough-for-testing"
	userID := uuid.New()
	jwtService := auth.NewTestJWTService(secret, time.Hour, time.Now)
	mw := NewAuthMiddleware(jwtService)

	// The protected handler records the user ID it saw.
	var seenUserID uuid.UUID
	var seenOK bool
	protected := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, seenOK = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("rejects a missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		expiredService := auth.NewTestJWTService(secret, time.Hour, func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		})
		token, err := expiredService.GenerateToken(context.Background(), userID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("passes a valid token through with the user ID", func(t *testing.T) {
		token, err := jwtService.GenerateToken(context.Background(), userID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, seenOK)
		assert.Equal(t, userID, seenUserID)
	})
}
