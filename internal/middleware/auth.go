package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/todolist/todolist-go/internal/crypto"
	"github.com/todolist/todolist-go/internal/model"
)

// TokenValidator verifies a session token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*crypto.Claims, error)
}

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	AccountID string
	Role      model.Role
}

type identityKey struct{}

// Authenticate returns middleware that validates a Bearer token from the
// Authorization header and attaches the caller's Identity to the request.
// Requests without a valid token are rejected before reaching next.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			role, ok := model.ParseAuthority(claims.Role)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{AccountID: claims.Subject, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.AccountID == "" {
		return Identity{}, false
	}
	return id, true
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
