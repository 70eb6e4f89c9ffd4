package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/config"
	"github.com/shelfhub/shelfhub/pkg/observability"
	"github.com/shelfhub/shelfhub/pkg/rbac"
	"github.com/shelfhub/shelfhub/pkg/storage"
)

func testServerConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
		// TTL 0 disables the permission decision cache so grant changes
		// take effect between requests
		Redis: config.RedisConfig{CacheTTL: 0},
	}
}

func setupServer(t *testing.T) (*Server, *rbac.Store) {
	t.Helper()
	db := storage.SetupTestDB(t)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	srv := NewServer(testServerConfig(), Deps{DB: db, Logger: logger})
	return srv, rbac.NewStore(db)
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginFlow(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email":            "reader@example.com",
		"username":         "reader",
		"password":         "hunter22",
		"password_confirm": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "reader@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string     `json:"token"`
		User  *auth.User `json:"user"`
	}
	json.Unmarshal(rec.Body.Bytes(), &login)
	if login.Token == "" {
		t.Fatal("expected a token")
	}
	if login.User.Role != auth.RoleMember {
		t.Errorf("registered users must be members, got %s", login.User.Role)
	}

	rec = doJSON(t, srv, http.MethodGet, "/auth/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := setupServer(t)

	for _, path := range []string{"/books", "/authors", "/posts", "/feed", "/notifications"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 without a token, got %d", path, rec.Code)
		}
	}
}

func TestPermissionGateEndToEnd(t *testing.T) {
	srv, groups := setupServer(t)
	ctx := context.Background()

	rec := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email":            "viewer@example.com",
		"username":         "viewer",
		"password":         "hunter22",
		"password_confirm": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "viewer@example.com",
		"password": "hunter22",
	})
	var login struct {
		Token string     `json:"token"`
		User  *auth.User `json:"user"`
	}
	json.Unmarshal(rec.Body.Bytes(), &login)

	// No grants yet: authenticated but forbidden
	rec = doJSON(t, srv, http.MethodGet, "/books", login.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without grants, got %d", rec.Code)
	}

	// A direct view grant opens the list endpoint
	if err := groups.GrantPermission(ctx, login.User.ID,
		rbac.Permission{Resource: rbac.ResourceBook, Action: rbac.ActionView}); err != nil {
		t.Fatalf("GrantPermission failed: %v", err)
	}
	rec = doJSON(t, srv, http.MethodGet, "/books", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a view grant, got %d: %s", rec.Code, rec.Body.String())
	}

	// View does not imply create
	rec = doJSON(t, srv, http.MethodPost, "/books", login.Token, map[string]interface{}{
		"title": "Nope", "author_id": 1, "isbn": "9780000000000", "publication_year": 2000,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on create, got %d", rec.Code)
	}
}

func TestFreshMemberCanUseSocialLayer(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"email":            "newbie@example.com",
		"username":         "newbie",
		"password":         "hunter22",
		"password_confirm": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "newbie@example.com",
		"password": "hunter22",
	})
	var login struct {
		Token string `json:"token"`
	}
	json.Unmarshal(rec.Body.Bytes(), &login)

	// Posting, browsing, commenting and liking need no grants at all
	rec = doJSON(t, srv, http.MethodPost, "/posts", login.Token, map[string]string{
		"title": "Hello", "content": "First post",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var post struct {
		ID int64 `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &post)

	rec = doJSON(t, srv, http.MethodGet, "/posts", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list posts: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodGet, "/feed", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("feed: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/posts/%d/like", post.ID), login.Token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("like: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/posts/%d/comments", post.ID), login.Token, map[string]string{
		"content": "Replying to myself",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodGet, "/notifications", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications: expected 200, got %d", rec.Code)
	}

	// The catalog is still permission-gated
	rec = doJSON(t, srv, http.MethodGet, "/books", login.Token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on the catalog without grants, got %d", rec.Code)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/books", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a garbage token, got %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{}")))
	req.Header.Set("X-Request-ID", "trace-me")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "trace-me" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}
