package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// contextKey is unexported so no other package can read or shadow the
// claims we store in the request context.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth is a middleware that enforces a valid session on protected
// routes.
//
// It reads "Authorization: Bearer <token>", verifies the token, and stores
// the claims in the request context. A missing, malformed, or expired token
// ends the request with 401 before the wrapped handler runs, so nothing
// behind the gate is ever reached by an anonymous caller.
func RequireAuth(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "no token provided")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				logger.Debug("rejected session token",
					slog.String("request_id", chimiddleware.GetReqID(r.Context())),
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified session claims placed in the
// context by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil && c.UserID != ""
}

// WithClaims returns a copy of ctx carrying claims. Handler tests use it to
// skip the middleware.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="anonbox"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  "unauthorized",
	})
}
