package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/shelfhub/shelfhub/pkg/apperr"
	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/storage"
)

func setupCache(t *testing.T) (*Store, *PostCache, *miniredis.Miniredis) {
	t.Helper()
	db := storage.SetupTestDB(t)
	store := NewStore(db)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return store, NewPostCache(store, client, time.Minute), mr
}

func TestCacheReadThrough(t *testing.T) {
	store, cache, mr := setupCache(t)
	ctx := context.Background()

	db := store.db
	users := auth.NewStore(db)
	author := createSocialUser(t, users, "author@example.com")
	post := createTestPost(t, store, author.ID, "Cached Post")

	// First read populates the cache
	got, err := cache.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Cached Post" {
		t.Errorf("unexpected post: %+v", got)
	}
	if !mr.Exists(postKey(post.ID)) {
		t.Error("expected post to be cached after first read")
	}

	// Second read is served from the cache even if the row changed underneath
	if _, err := db.Exec("UPDATE posts SET title = 'Changed' WHERE id = $1", post.ID); err != nil {
		t.Fatalf("failed to update post: %v", err)
	}
	got, err = cache.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Cached Post" {
		t.Errorf("expected cached title, got %q", got.Title)
	}
}

func TestCacheInvalidate(t *testing.T) {
	store, cache, mr := setupCache(t)
	ctx := context.Background()

	users := auth.NewStore(store.db)
	author := createSocialUser(t, users, "author@example.com")
	post := createTestPost(t, store, author.ID, "Original")

	if _, err := cache.GetPost(ctx, post.ID); err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}

	cache.Invalidate(ctx, post.ID)
	if mr.Exists(postKey(post.ID)) {
		t.Fatal("expected cache entry to be removed")
	}

	if _, err := store.db.Exec("UPDATE posts SET title = 'Renamed' WHERE id = $1", post.ID); err != nil {
		t.Fatalf("failed to update post: %v", err)
	}
	got, err := cache.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("expected fresh read after invalidation, got %q", got.Title)
	}
}

func TestCacheMissingPost(t *testing.T) {
	_, cache, _ := setupCache(t)

	_, err := cache.GetPost(context.Background(), 9999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCacheFallsBackWhenRedisDown(t *testing.T) {
	store, cache, mr := setupCache(t)
	ctx := context.Background()

	users := auth.NewStore(store.db)
	author := createSocialUser(t, users, "author@example.com")
	post := createTestPost(t, store, author.ID, "Resilient")

	mr.Close()

	got, err := cache.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost should fall back to the database, got %v", err)
	}
	if got.Title != "Resilient" {
		t.Errorf("unexpected post: %+v", got)
	}
}
