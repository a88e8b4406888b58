// internal/identity/middleware.go
package identity

import (
	"context"
	"net/http"
	"strings"

	"campuslib/internal/httpx"
)

type contextKey struct{}

// FromContext returns the authenticated principal stored by Authenticated,
// or nil when the request was not authenticated.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKey{}).(*Principal)
	return p
}

// Authenticated validates the bearer token and injects the principal into
// the request context. Requests without a valid token are rejected.
func Authenticated(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}

			principal, err := parseToken(jwtSecret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLibrarian rejects requests whose principal does not carry the
// librarian role. It assumes Authenticated ran earlier in the chain.
func RequireLibrarian(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := FromContext(r.Context())
		if principal == nil || principal.Role != RoleLibrarian {
			httpx.JSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
