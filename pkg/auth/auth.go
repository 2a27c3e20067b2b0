// Package auth consumes bearer credentials issued by the external identity
// provider. Tokens are only verified here, never issued.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/nayher/commerce-backend/pkg/apperr"
)

// Claims is the authenticated principal carried by a bearer token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.CodeUnauthorized, "Unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUnauthorized, "Invalid token")
	}
	if !token.Valid {
		return nil, apperr.New(apperr.CodeUnauthorized, "Invalid token")
	}
	return claims, nil
}
