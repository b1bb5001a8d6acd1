package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// claims stored in a request context.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth enforces authentication on mutating and admin routes.
//
// The credential travels as "Authorization: Bearer <token>" — the admin
// panel is a separate origin, so a header beats a cookie here (no CSRF
// surface, and the client controls exactly which requests carry it).
// A missing, malformed or expired token stops the chain with a 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractClaims(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the authenticated user's claims. Returns
// (nil, false) on routes that did not pass through RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

var errNoBearer = errors.New("auth: missing bearer token")

// extractClaims reads and validates the bearer token from the
// Authorization header.
func extractClaims(r *http.Request, tokens *TokenService) (*Claims, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, errNoBearer
	}
	return tokens.Validate(token)
}
