package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/duobloom/garden/pkg/auth/providers"
	"github.com/duobloom/garden/pkg/log"
)

type ContextKey int

const (
	// ClaimsContextKey is the key used to store verified token claims
	// in the request context
	ClaimsContextKey ContextKey = iota
)

// ClaimsFromContext returns the verified claims stored by the auth
// middleware.
func ClaimsFromContext(ctx context.Context) (*authproviders.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*authproviders.TokenClaims)
	return claims, ok
}

func NewAuthMiddleware(authProvider authproviders.AuthProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearerToken, err := parseBearerToken(r)
			if err != nil {
				log.Debug("failed to parse bearer token: %v", err)
				http.Error(w, "failed to parse bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := authProvider.VerifyToken(r.Context(), bearerToken)
			if err != nil {
				log.Debug("failed to verify ID token: %v", err)
				http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseBearerToken parses the bearer token from the Authorization header
func parseBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	return parts[1], nil
}
