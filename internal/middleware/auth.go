// Package middleware contains HTTP middleware: bearer-token authentication
// and request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/creatorhub/creator-hub-api/internal/auth"
)

type contextKey string

const claimsContextKey contextKey = "session_claims"

// ClaimsFromContext returns the session claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.SessionClaims)
	return claims, ok
}

// Authenticate returns middleware that requires a valid Bearer access token
// and stores its claims in the request context.
func Authenticate(jwtAuth auth.JWTAuthenticator, accessSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			claims := &auth.SessionClaims{}
			if _, err := jwtAuth.ValidateTokenWithClaims(token, accessSecret, claims); err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"missing or invalid access token"}`))
}
