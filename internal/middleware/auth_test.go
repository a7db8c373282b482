package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyntable/internal/domain"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
	seen   string
}

func (v *stubValidator) Validate(_ context.Context, token string) (*JWTClaims, error) {
	v.seen = token
	return v.claims, v.err
}

func nextHandler() (http.Handler, func() (domain.ContextPrincipal, bool)) {
	var cp domain.ContextPrincipal
	var found bool
	h := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		cp, found = domain.PrincipalFromContext(r.Context())
	})
	return h, func() (domain.ContextPrincipal, bool) { return cp, found }
}

func failHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be called")
	})
}

func TestAuth_ValidToken(t *testing.T) {
	email := "user1@example.com"
	v := &stubValidator{claims: &JWTClaims{Subject: "user1", Issuer: "https://issuer.example.com", Email: &email}}
	handler, getPrincipal := nextHandler()

	req := httptest.NewRequest(http.MethodGet, "/table", nil)
	req.Header.Set("Authorization", "bearer test-token")
	w := httptest.NewRecorder()
	NewAuthenticator(v, nil).Middleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-token", v.seen)
	cp, found := getPrincipal()
	require.True(t, found)
	assert.Equal(t, "user1@example.com", cp.DisplayName())
	assert.Equal(t, "https://issuer.example.com", cp.Issuer)
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator *stubValidator
	}{
		{name: "no_header", validator: &stubValidator{}},
		{name: "basic_scheme", header: "Basic dXNlcjpwYXNz", validator: &stubValidator{}},
		{name: "empty_token", header: "Bearer   ", validator: &stubValidator{}},
		{name: "invalid_token", header: "Bearer expired", validator: &stubValidator{err: errors.New("token expired")}},
		{name: "no_subject", header: "Bearer ok", validator: &stubValidator{claims: &JWTClaims{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/table", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			NewAuthenticator(tt.validator, nil).Middleware(failHandler(t)).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":401`)
		})
	}
}

func TestAuth_PublicPathsSkipAuth(t *testing.T) {
	handler, getPrincipal := nextHandler()
	auth := NewAuthenticator(&stubValidator{err: errors.New("unused")}, nil, "/healthz")

	w := httptest.NewRecorder()
	auth.Middleware(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	_, found := getPrincipal()
	assert.False(t, found)
}

func TestAuth_WithHS256Validator(t *testing.T) {
	const secret = "integration-secret"
	v, err := NewHS256Validator(secret)
	require.NoError(t, err)
	handler, getPrincipal := nextHandler()

	req := httptest.NewRequest(http.MethodGet, "/table", nil)
	req.Header.Set("Authorization", "Bearer "+makeToken(secret, map[string]any{"sub": "svc-account"}))
	w := httptest.NewRecorder()
	NewAuthenticator(v, nil).Middleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cp, found := getPrincipal()
	require.True(t, found)
	assert.Equal(t, "svc-account", cp.Subject)
}
