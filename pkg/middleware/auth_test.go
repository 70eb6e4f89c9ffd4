package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/storage"
)

func setupAuth(t *testing.T) (*auth.Store, *auth.TokenManager, *auth.User) {
	t.Helper()
	db := storage.SetupTestDB(t)
	store := auth.NewStore(db)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	user := &auth.User{
		Email:        "hank@example.com",
		Username:     "hank",
		PasswordHash: "h",
		Role:         auth.RoleMember,
		IsActive:     true,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return store, tokens, user
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	store, tokens, user := setupAuth(t)
	mw := NewAuthMiddleware(tokens, store, false)

	token, err := tokens.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var captured *auth.AuthContext
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured == nil || captured.User == nil || captured.User.ID != user.ID {
		t.Errorf("expected auth context for user %d, got %+v", user.ID, captured)
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	store, tokens, _ := setupAuth(t)
	mw := NewAuthMiddleware(tokens, store, false)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	store, tokens, _ := setupAuth(t)
	mw := NewAuthMiddleware(tokens, store, false)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareOptional(t *testing.T) {
	store, tokens, _ := setupAuth(t)
	mw := NewAuthMiddleware(tokens, store, true)

	reached := false
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if auth.FromContext(r.Context()) != nil {
			t.Error("expected no auth context for anonymous request")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !reached {
		t.Error("optional middleware must pass anonymous requests through")
	}
}
