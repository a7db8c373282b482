package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"dyntable/internal/domain"
)

// Authenticator requires a valid bearer token on every request except the
// public paths, and stores the caller in the request context.
type Authenticator struct {
	validator JWTValidator
	public    map[string]bool
	logger    *slog.Logger
}

// NewAuthenticator creates an Authenticator. Requests to publicPaths skip
// authentication entirely.
func NewAuthenticator(validator JWTValidator, logger *slog.Logger, publicPaths ...string) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return &Authenticator{validator: validator, public: public, logger: logger.With("component", "auth")}
}

// Middleware returns 401 when the bearer token is missing or invalid.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.public[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized: provide a valid Bearer token")
			return
		}
		claims, err := a.validator.Validate(r.Context(), token)
		if err != nil {
			a.logger.DebugContext(r.Context(), "token rejected", "error", err, "request_id", RequestIDFromContext(r.Context()))
			writeJSONError(w, http.StatusUnauthorized, "unauthorized: invalid token")
			return
		}
		if claims.Subject == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized: token has no subject")
			return
		}

		ctx := domain.WithPrincipal(r.Context(), claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}
