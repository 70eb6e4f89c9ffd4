package rbac

import (
	"net/http"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/httputil"
)

// PermissionMiddleware gates handlers on permission checks
type PermissionMiddleware struct {
	checker *Checker
}

// NewPermissionMiddleware creates a new permission middleware
func NewPermissionMiddleware(checker *Checker) *PermissionMiddleware {
	return &PermissionMiddleware{checker: checker}
}

// RequirePermission creates middleware that requires a specific permission.
// Unauthenticated requests get 401, authenticated requests without the
// permission get 403.
func (pm *PermissionMiddleware) RequirePermission(resource Resource, action Action) func(http.Handler) http.Handler {
	perm := Permission{Resource: resource, Action: action}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.FromContext(r.Context())
			if authCtx == nil || authCtx.User == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}

			result, err := pm.checker.Check(r.Context(), authCtx.User, perm)
			if err != nil {
				httputil.WriteInternalError(w, err)
				return
			}
			if !result.Allowed {
				httputil.WriteForbidden(w, "permission denied: "+perm.Code())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
