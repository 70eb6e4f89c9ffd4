package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/contextkeys"
	"github.com/shelfhub/shelfhub/pkg/storage"
)

func TestRequirePermission(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	checker := NewChecker(store, 0, nil)
	pm := NewPermissionMiddleware(checker)
	ctx := context.Background()

	user := createTestUser(t, users, "nina@example.com")
	if err := store.GrantPermission(ctx, user.ID, Permission{Resource: ResourceBook, Action: ActionView}); err != nil {
		t.Fatalf("GrantPermission failed: %v", err)
	}

	handler := pm.RequirePermission(ResourceBook, ActionView)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	denyHandler := pm.RequirePermission(ResourceBook, ActionDelete)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not be reached without permission")
		}))

	// No auth context: 401
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth, got %d", rec.Code)
	}

	// Authenticated with permission: 200
	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	req = req.WithContext(contextkeys.WithAuth(req.Context(), &auth.AuthContext{User: user}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with permission, got %d", rec.Code)
	}

	// Authenticated without permission: 403
	req = httptest.NewRequest(http.MethodDelete, "/books/1", nil)
	req = req.WithContext(contextkeys.WithAuth(req.Context(), &auth.AuthContext{User: user}))
	rec = httptest.NewRecorder()
	denyHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without permission, got %d", rec.Code)
	}
}
