package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/user/mealvault-go/apperror"
	"github.com/user/mealvault-go/httpx"
)

// TokenResolver resolves an opaque token key to its user. *Service satisfies
// it; tests substitute a stub.
type TokenResolver interface {
	ResolveToken(ctx context.Context, key string) (*User, error)
}

// TokenResolverFunc adapts a function to the TokenResolver interface.
type TokenResolverFunc func(ctx context.Context, key string) (*User, error)

// ResolveToken calls f.
func (f TokenResolverFunc) ResolveToken(ctx context.Context, key string) (*User, error) {
	return f(ctx, key)
}

// TokenMiddleware returns middleware that authenticates requests from the
// Authorization header and places the resolved user in the request context.
// Both "Token <key>" and "Bearer <key>" schemes are accepted.
func TokenMiddleware(resolver TokenResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.WriteError(w, r, apperror.NewAuthError("authentication credentials were not provided", nil))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 {
				httpx.WriteError(w, r, apperror.NewAuthError("invalid Authorization header format", nil))
				return
			}
			scheme := strings.ToLower(parts[0])
			if scheme != "token" && scheme != "bearer" {
				httpx.WriteError(w, r, apperror.NewAuthError("unsupported authorization scheme", nil))
				return
			}
			key := strings.TrimSpace(parts[1])
			if key == "" {
				httpx.WriteError(w, r, apperror.NewAuthError("invalid token", nil))
				return
			}

			user, err := resolver.ResolveToken(r.Context(), key)
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithUser(r.Context(), user)))
		})
	}
}

// RequestUser returns the authenticated user for the request, or writes a
// 401 and returns false. Handlers behind TokenMiddleware use this instead of
// re-checking the header.
func RequestUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
		return nil, false
	}
	return user, true
}
