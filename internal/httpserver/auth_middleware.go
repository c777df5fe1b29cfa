package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"messaging_go/internal/directory"
	"messaging_go/internal/domain"
)

type contextKey string

const identityContextKey contextKey = "currentIdentity"

// Authenticator resolves a bearer token to a caller identity.
type Authenticator interface {
	Identify(token string) (*domain.Identity, error)
}

// WithIdentity returns a new context carrying the caller identity.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// CurrentIdentity extracts the caller identity from context, if any.
func CurrentIdentity(r *http.Request) *domain.Identity {
	if v := r.Context().Value(identityContextKey); v != nil {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}

// AuthMiddleware validates the Bearer token and attaches the caller identity
// to the context. The token also rides along for directory calls. With
// trustHeader set, a gateway-supplied X-User-Id is accepted when no token is
// present.
func AuthMiddleware(auth Authenticator, trustHeader bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")

			switch {
			case strings.HasPrefix(strings.ToLower(authHeader), "bearer "):
				tokenStr := strings.TrimSpace(authHeader[len("Bearer "):])
				id, err := auth.Identify(tokenStr)
				if err != nil {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
					return
				}
				ctx = directory.WithToken(WithIdentity(ctx, id), tokenStr)

			case trustHeader && r.Header.Get("X-User-Id") != "":
				userID, err := strconv.ParseInt(r.Header.Get("X-User-Id"), 10, 64)
				if err != nil || userID <= 0 {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid X-User-Id header"})
					return
				}
				ctx = WithIdentity(ctx, &domain.Identity{UserID: userID})

			default:
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing or invalid Authorization header"})
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
