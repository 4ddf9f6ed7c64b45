package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/poofware/leasing-service/internal/models"
	"github.com/poofware/leasing-service/internal/utils"
)

type contextKey string

const (
	ContextKeyUserID = contextKey("userID")
	ContextKeyRole   = contextKey("role")
)

// AuthMiddleware rejects requests without a valid Bearer token and stores
// the subject and role claims in the request context.
func AuthMiddleware(pub *rsa.PublicKey, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractAccessToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			claims, vErr := ValidateToken(tokenStr, pub, issuer)
			if vErr != nil {
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil, vErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", nil, vErr,
				)
				return
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing subject", nil,
				)
				return
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid subject", nil, err,
				)
				return
			}
			role, _ := claims["role"].(string)
			if !models.Role(role).IsValid() {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing or invalid role", nil,
				)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), userID, models.Role(role))))
		})
	}
}

// RequireRole wraps handlers that only one role may call (admin review).
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got, _ := r.Context().Value(ContextKeyRole).(models.Role); got != role {
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient role", nil,
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithCaller stores an authenticated identity on ctx.
func WithCaller(ctx context.Context, userID uuid.UUID, role models.Role) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID.String())
	return context.WithValue(ctx, ContextKeyRole, role)
}

// Caller returns the authenticated user id and role from ctx.
func Caller(ctx context.Context) (uuid.UUID, models.Role, bool) {
	sub, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", false
	}
	role, _ := ctx.Value(ContextKeyRole).(models.Role)
	return id, role, true
}

func extractAccessToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}
