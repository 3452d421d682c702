package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/presenca/attendance-notify/internal/model"
)

type identityKey struct{}

// Identity returns the logged-in staff member attached by Require.
func Identity(r *http.Request) (model.Identity, bool) {
	id, ok := r.Context().Value(identityKey{}).(model.Identity)
	return id, ok
}

// Require enforces a bearer session token and threads the resulting
// identity through the request context.
func Require(key, issuer string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, key, issuer)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, model.Identity{Username: claims.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
