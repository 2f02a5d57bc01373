package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret, audience string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "family-42",
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireJWT(t *testing.T) {
	cases := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		header string
		want   int
	}{
		{"missing secret", AdminJWT(""), "Bearer " + signedToken(t, "secret", AudienceAdmin, time.Hour), http.StatusUnauthorized},
		{"missing header", AdminJWT("secret"), "", http.StatusUnauthorized},
		{"not bearer", AdminJWT("secret"), "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
		{"wrong key", AdminJWT("secret"), "Bearer " + signedToken(t, "wrong", AudienceAdmin, time.Hour), http.StatusUnauthorized},
		{"expired", AdminJWT("secret"), "Bearer " + signedToken(t, "secret", AudienceAdmin, -time.Minute), http.StatusUnauthorized},
		{"portal token on admin", AdminJWT("secret"), "Bearer " + signedToken(t, "secret", AudiencePortal, time.Hour), http.StatusUnauthorized},
		{"admin token on portal", PortalJWT("secret"), "Bearer " + signedToken(t, "secret", AudienceAdmin, time.Hour), http.StatusUnauthorized},
		{"admin ok", AdminJWT("secret"), "Bearer " + signedToken(t, "secret", AudienceAdmin, time.Hour), http.StatusOK},
		{"portal ok", PortalJWT("secret"), "Bearer " + signedToken(t, "secret", AudiencePortal, time.Hour), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var subject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				claims, ok := ClaimsFromContext(r.Context())
				require.True(t, ok)
				subject = claims.Subject
			})
			req := httptest.NewRequest(http.MethodGet, "/api/admin/submissions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			tc.mw(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "family-42", subject)
			}
		})
	}
}
