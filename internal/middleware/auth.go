package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	userdomain "github.com/nayher/commerce-backend/internal/user/domain"
	"github.com/nayher/commerce-backend/pkg/auth"
	"github.com/nayher/commerce-backend/pkg/logger"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
	RoleKey   contextKey = "role"
)

// Auth validates the bearer token and loads the principal's account.
func Auth(verifier *auth.Verifier, users userdomain.UserRepository) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := verifyRequest(verifier, r)
			if !ok {
				respondError(w, http.StatusUnauthorized, "Authorization required")
				return
			}

			id, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			account, err := users.FindByID(r.Context(), id)
			if err != nil {
				logger.Warn(r.Context()).Err(err).
					Str("user_id", claims.UserID).
					Msg("Failed to verify user account")
				respondError(w, http.StatusUnauthorized, "User verification failed")
				return
			}
			if !account.IsActive {
				respondError(w, http.StatusForbidden, "Account is disabled")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, account.Email)
			ctx = context.WithValue(ctx, RoleKey, account.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// RequireAdmin chains Auth with an admin role check.
func RequireAdmin(verifier *auth.Verifier, users userdomain.UserRepository) func(http.HandlerFunc) http.HandlerFunc {
	authMW := Auth(verifier, users)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return authMW(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(RoleKey).(string)
			if role != userdomain.RoleAdmin {
				logger.Warn(r.Context()).Str("role", role).Msg("Admin access denied")
				respondError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth attaches the principal when a valid token is present and
// silently continues without one otherwise.
func OptionalAuth(verifier *auth.Verifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := verifyRequest(verifier, r); ok {
				ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
				ctx = context.WithValue(ctx, EmailKey, claims.Email)
				ctx = context.WithValue(ctx, RoleKey, claims.Role)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		}
	}
}

func verifyRequest(verifier *auth.Verifier, r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}
	claims, err := verifier.Verify(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

// UserIDFrom returns the authenticated user's id from the request context.
func UserIDFrom(ctx context.Context) (primitive.ObjectID, bool) {
	hex, _ := ctx.Value(UserIDKey).(string)
	if hex == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// EmailFrom returns the authenticated user's email from the request context.
func EmailFrom(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// IsAdmin reports whether the request context carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(RoleKey).(string)
	return role == userdomain.RoleAdmin
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
