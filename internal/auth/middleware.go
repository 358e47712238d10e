package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow values
// stored under it.
type contextKey string

const usernameKey contextKey = "username"

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the token's username in the request context otherwise.
//
// A nil TokenService means tokens are disabled; every request passes
// through anonymously.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := extractUsername(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}

// OptionalAuth extracts the caller's identity if a valid token is present
// but never blocks the request. Missing and invalid tokens both leave the
// request anonymous.
//
// Handlers check for the caller via UsernameFromContext; ("", false) means
// anonymous.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username, err := extractUsername(r, tokens); err == nil && username != "" {
				r = r.WithContext(WithUsername(r.Context(), username))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUsername returns a copy of ctx carrying the authenticated username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext retrieves the authenticated caller's username.
//
//	username, ok := auth.UsernameFromContext(r.Context())
//	if !ok {
//	    // anonymous caller
//	}
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}

// extractUsername reads the token from the Authorization header, falling
// back to the token query parameter for WebSocket upgrades.
func extractUsername(r *http.Request, tokens *TokenService) (string, error) {
	return tokens.Validate(bearerToken(r))
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
