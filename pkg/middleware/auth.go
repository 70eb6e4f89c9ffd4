package middleware

import (
	"net/http"
	"strings"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/contextkeys"
	"github.com/shelfhub/shelfhub/pkg/httputil"
)

// AuthMiddleware resolves Bearer tokens into an AuthContext
type AuthMiddleware struct {
	tokens   *auth.TokenManager
	store    *auth.Store
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens *auth.TokenManager, store *auth.Store, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		store:    store,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		// Format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		// The token proves identity; the store is authoritative for role,
		// superuser flag and active status.
		user, err := m.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			httputil.WriteUnauthorized(w, "account not found or deactivated")
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), &auth.AuthContext{User: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
