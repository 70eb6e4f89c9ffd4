package social

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shelfhub/shelfhub/pkg/apperr"
	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/storage"
)

func createSocialUser(t *testing.T, users *auth.Store, email string) *auth.User {
	t.Helper()
	user := &auth.User{Email: email, Username: email, PasswordHash: "h", Role: auth.RoleMember, IsActive: true}
	if err := users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, store *Store, authorID int64, title string) *Post {
	t.Helper()
	post := &Post{AuthorID: authorID, Title: title, Content: "content of " + title}
	if err := store.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	return post
}

func TestCreateAndGetPost(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	post := createTestPost(t, store, author.ID, "First Post")

	got, err := store.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "First Post" || got.AuthorID != author.ID {
		t.Errorf("unexpected post: %+v", got)
	}
}

func TestGetPostNotFound(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)

	_, err := store.GetPost(context.Background(), 9999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLikeIsIdempotent(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	liker := createSocialUser(t, users, "liker@example.com")
	post := createTestPost(t, store, author.ID, "Likeable")

	created, err := store.LikePost(ctx, liker.ID, post.ID)
	if err != nil {
		t.Fatalf("LikePost failed: %v", err)
	}
	if !created {
		t.Fatal("first like should report created")
	}

	created, err = store.LikePost(ctx, liker.ID, post.ID)
	if err != nil {
		t.Fatalf("second LikePost failed: %v", err)
	}
	if created {
		t.Fatal("second like must be a no-op")
	}

	// Liking twice leaves exactly one like row and exactly one notification
	count, err := store.CountLikes(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountLikes failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 like, got %d", count)
	}

	notifs, err := store.ListNotifications(ctx, author.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	n := notifs[0]
	if n.Verb != VerbLiked {
		t.Errorf("expected verb %q, got %q", VerbLiked, n.Verb)
	}
	if n.ActorID != liker.ID || n.RecipientID != author.ID {
		t.Errorf("notification wired to wrong users: %+v", n)
	}
	if n.PostID == nil || *n.PostID != post.ID {
		t.Errorf("notification should reference post %d, got %v", post.ID, n.PostID)
	}
}

func TestLikeMissingPost(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)

	liker := createSocialUser(t, users, "liker@example.com")

	_, err := store.LikePost(context.Background(), liker.ID, 9999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUnlikeAbsentIsNoOp(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	liker := createSocialUser(t, users, "liker@example.com")
	post := createTestPost(t, store, author.ID, "Never Liked")

	if err := store.UnlikePost(ctx, liker.ID, post.ID); err != nil {
		t.Fatalf("unliking an unliked post must succeed, got %v", err)
	}

	// Like, unlike, and the count is back to zero
	if _, err := store.LikePost(ctx, liker.ID, post.ID); err != nil {
		t.Fatalf("LikePost failed: %v", err)
	}
	if err := store.UnlikePost(ctx, liker.ID, post.ID); err != nil {
		t.Fatalf("UnlikePost failed: %v", err)
	}
	count, err := store.CountLikes(ctx, post.ID)
	if err != nil {
		t.Fatalf("CountLikes failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 likes after unlike, got %d", count)
	}

	// Unlike does not retract the notification
	notifs, err := store.ListNotifications(ctx, author.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notifs) != 1 {
		t.Errorf("expected notification to survive unlike, got %d", len(notifs))
	}
}

func TestUnlikeMissingPost(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)

	liker := createSocialUser(t, users, "liker@example.com")

	err := store.UnlikePost(context.Background(), liker.ID, 9999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotificationsNewestFirst(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	var postIDs []int64
	for i := 0; i < 3; i++ {
		liker := createSocialUser(t, users, fmt.Sprintf("liker%d@example.com", i))
		post := createTestPost(t, store, author.ID, fmt.Sprintf("Post %d", i))
		if _, err := store.LikePost(ctx, liker.ID, post.ID); err != nil {
			t.Fatalf("LikePost failed: %v", err)
		}
		postIDs = append(postIDs, post.ID)
	}

	notifs, err := store.ListNotifications(ctx, author.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(notifs) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(notifs))
	}
	for i, n := range notifs {
		wantPost := postIDs[len(postIDs)-1-i]
		if n.PostID == nil || *n.PostID != wantPost {
			t.Errorf("position %d: expected post %d, got %v", i, wantPost, n.PostID)
		}
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	for i := 0; i < 2; i++ {
		liker := createSocialUser(t, users, fmt.Sprintf("liker%d@example.com", i))
		post := createTestPost(t, store, author.ID, fmt.Sprintf("Post %d", i))
		if _, err := store.LikePost(ctx, liker.ID, post.ID); err != nil {
			t.Fatalf("LikePost failed: %v", err)
		}
	}

	count, err := store.CountUnread(ctx, author.ID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}

	if err := store.MarkAllRead(ctx, author.ID); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}

	count, err = store.CountUnread(ctx, author.ID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 unread after mark-read, got %d", count)
	}
}

func TestMarkReadSingleNotification(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	liker := createSocialUser(t, users, "liker@example.com")
	post := createTestPost(t, store, author.ID, "Read Me")
	if _, err := store.LikePost(ctx, liker.ID, post.ID); err != nil {
		t.Fatalf("LikePost failed: %v", err)
	}

	notifs, err := store.ListNotifications(ctx, author.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if err := store.MarkRead(ctx, author.ID, notifs[0].ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	count, err := store.CountUnread(ctx, author.ID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 unread, got %d", count)
	}

	// A user cannot mark someone else's notification
	if err := store.MarkRead(ctx, liker.ID, notifs[0].ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for another user's notification, got %v", err)
	}
}

func TestPurgeReadNotifications(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	liker := createSocialUser(t, users, "liker@example.com")
	post := createTestPost(t, store, author.ID, "Old News")
	if _, err := store.LikePost(ctx, liker.ID, post.ID); err != nil {
		t.Fatalf("LikePost failed: %v", err)
	}

	// Unread notifications are never purged
	purged, err := store.PurgeReadNotifications(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeReadNotifications failed: %v", err)
	}
	if purged != 0 {
		t.Errorf("expected no unread notifications purged, got %d", purged)
	}

	if err := store.MarkAllRead(ctx, author.ID); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	purged, err = store.PurgeReadNotifications(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeReadNotifications failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged notification, got %d", purged)
	}
}

func TestDeletePost(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	post := createTestPost(t, store, author.ID, "Doomed")

	if err := store.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := store.GetPost(ctx, post.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.DeletePost(ctx, post.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found deleting twice, got %v", err)
	}
}

func TestCommentsNewestFirst(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	post := createTestPost(t, store, author.ID, "Thread")

	first := &Comment{PostID: post.ID, AuthorID: author.ID, Content: "first"}
	if err := store.CreateComment(ctx, first); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	second := &Comment{PostID: post.ID, AuthorID: author.ID, Content: "second"}
	if err := store.CreateComment(ctx, second); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	comments, err := store.ListComments(ctx, post.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Content != "second" || comments[1].Content != "first" {
		t.Errorf("comments not newest-first: %q then %q", comments[0].Content, comments[1].Content)
	}
}

func TestCreateCommentMissingPost(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	comment := &Comment{PostID: 9999, AuthorID: author.ID, Content: "lost"}
	if err := store.CreateComment(ctx, comment); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.ListComments(ctx, 9999, 0, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found listing, got %v", err)
	}
}

func TestUpdateMissingComment(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	comment := &Comment{ID: 9999, Content: "ghost"}
	if err := store.UpdateComment(ctx, comment); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.DeleteComment(ctx, 9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	post := createTestPost(t, store, author.ID, "Doomed Thread")
	comment := &Comment{PostID: post.ID, AuthorID: author.ID, Content: "soon gone"}
	if err := store.CreateComment(ctx, comment); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if err := store.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := store.GetComment(ctx, comment.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected comment gone with its post, got %v", err)
	}
}

func TestSearchPostsMatchesTitleAndContent(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	users := auth.NewStore(db)
	ctx := context.Background()

	author := createSocialUser(t, users, "author@example.com")
	createTestPost(t, store, author.ID, "Baking bread")
	other := &Post{AuthorID: author.ID, Title: "Weekend plans", Content: "Some bread baking maybe"}
	if err := store.CreatePost(ctx, other); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	createTestPost(t, store, author.ID, "Bike maintenance")

	posts, err := store.SearchPosts(ctx, "bread", 0, 0)
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(posts))
	}

	posts, err = store.SearchPosts(ctx, "sourdough", 0, 0)
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no matches, got %d", len(posts))
	}
}
