package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/poofware/leasing-service/internal/models"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	userID := uuid.New()

	var gotID uuid.UUID
	var gotRole models.Role
	h := AuthMiddleware(&key.PublicKey, "poofware")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotRole, _ = Caller(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	valid := signToken(t, key, jwt.MapClaims{
		"sub": userID.String(), "role": "landlord", "iss": "poofware",
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	})
	require.Equal(t, http.StatusNoContent, do(valid))
	require.Equal(t, userID, gotID)
	require.Equal(t, models.RoleLandlord, gotRole)

	require.Equal(t, http.StatusUnauthorized, do(""))

	expired := signToken(t, key, jwt.MapClaims{
		"sub": userID.String(), "role": "landlord", "iss": "poofware",
		"exp": float64(time.Now().Add(-time.Hour).Unix()),
	})
	require.Equal(t, http.StatusUnauthorized, do(expired))

	wrongIssuer := signToken(t, key, jwt.MapClaims{
		"sub": userID.String(), "role": "tenant", "iss": "someone-else",
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	})
	require.Equal(t, http.StatusUnauthorized, do(wrongIssuer))

	noRole := signToken(t, key, jwt.MapClaims{
		"sub": userID.String(), "iss": "poofware",
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	})
	require.Equal(t, http.StatusUnauthorized, do(noRole))
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithCaller(req.Context(), uuid.New(), models.RoleTenant)))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithCaller(req.Context(), uuid.New(), models.RoleAdmin)))
	require.Equal(t, http.StatusOK, rec.Code)
}
