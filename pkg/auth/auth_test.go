package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nayher/commerce-backend/pkg/apperr"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerify(t *testing.T) {
	verifier := NewVerifier("test-secret")

	t.Run("accepts a valid token", func(t *testing.T) {
		token := signToken(t, "test-secret", Claims{
			UserID: "665f1c2ab8f4a21d34c0ffee",
			Email:  "amaya@example.com",
			Role:   "user",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		claims, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "665f1c2ab8f4a21d34c0ffee", claims.UserID)
		assert.Equal(t, "amaya@example.com", claims.Email)
		assert.Equal(t, "user", claims.Role)
	})

	t.Run("rejects a wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", Claims{UserID: "abc"})
		_, err := verifier.Verify(token)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token := signToken(t, "test-secret", Claims{
			UserID: "abc",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		_, err := verifier.Verify(token)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.token")
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
	})
}
