package social

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

// Store persists posts, comments, likes and notifications
type Store struct {
	db *sql.DB
}

// NewStore creates a social store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// --- Posts ---

// CreatePost inserts a new post
func (s *Store) CreatePost(ctx context.Context, post *Post) error {
	now := nowUTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (author_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		post.AuthorID, post.Title, post.Content, post.CreatedAt, post.UpdatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetPost fetches a post by ID
func (s *Store) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	err := s.db.QueryRowContext(ctx, `
		SELECT id, author_id, title, content, created_at, updated_at
		FROM posts WHERE id = $1`, id,
	).Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("post %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// ListPosts returns posts newest-first
func (s *Store) ListPosts(ctx context.Context, limit, offset int) ([]*Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, title, content, created_at, updated_at
		FROM posts ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		var post Post
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content,
			&post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}

// SearchPosts returns posts whose title or content contains the query,
// case-insensitive, newest-first
func (s *Store) SearchPosts(ctx context.Context, query string, limit, offset int) ([]*Post, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author_id, title, content, created_at, updated_at
		FROM posts
		WHERE LOWER(title) LIKE $1 OR LOWER(content) LIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	defer rows.Close()

	var posts []*Post
	for rows.Next() {
		var post Post
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content,
			&post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}

// UpdatePost rewrites a post's title and content
func (s *Store) UpdatePost(ctx context.Context, post *Post) error {
	post.UpdatedAt = nowUTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE posts SET title = $1, content = $2, updated_at = $3 WHERE id = $4",
		post.Title, post.Content, post.UpdatedAt, post.ID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("post %d not found", post.ID)
	}
	return nil
}

// DeletePost removes a post and, via cascade, its comments, likes and
// notifications
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("post %d not found", id)
	}
	return nil
}

// CountPosts returns the total number of posts
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// --- Likes ---

// LikePost records a like for (user, post). The first call stores the like
// and fans out a notification to the post's author in the same transaction;
// repeat calls are no-ops and return created=false. Concurrent likes for the
// same pair resolve to one row through the storage uniqueness constraint.
func (s *Store) LikePost(ctx context.Context, userID, postID int64) (created bool, err error) {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := nowUTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO likes (user_id, post_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID, now)
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check like insert: %w", err)
	}
	if inserted == 0 {
		// Already liked; nothing to notify
		return false, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (recipient_id, actor_id, verb, post_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		post.AuthorID, userID, VerbLiked, postID, false, now); err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit like: %w", err)
	}
	return true, nil
}

// UnlikePost removes the like for (user, post). Removing an absent like is a
// successful no-op.
func (s *Store) UnlikePost(ctx context.Context, userID, postID int64) error {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM likes WHERE user_id = $1 AND post_id = $2", userID, postID)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// CountLikes returns the number of likes on a post
func (s *Store) CountLikes(ctx context.Context, postID int64) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE post_id = $1", postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// --- Comments ---

// CreateComment inserts a comment on an existing post
func (s *Store) CreateComment(ctx context.Context, comment *Comment) error {
	if _, err := s.GetPost(ctx, comment.PostID); err != nil {
		return err
	}

	now := nowUTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, author_id, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt, comment.UpdatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetComment fetches a comment by ID
func (s *Store) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var comment Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, post_id, author_id, content, created_at, updated_at
		FROM comments WHERE id = $1`, id,
	).Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("comment %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// ListComments returns a post's comments newest-first
func (s *Store) ListComments(ctx context.Context, postID int64, limit, offset int) ([]*Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, author_id, content, created_at, updated_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.AuthorID,
			&comment.Content, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}

// UpdateComment rewrites a comment's content
func (s *Store) UpdateComment(ctx context.Context, comment *Comment) error {
	comment.UpdatedAt = nowUTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3",
		comment.Content, comment.UpdatedAt, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("comment %d not found", comment.ID)
	}
	return nil
}

// DeleteComment removes a comment
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("comment %d not found", id)
	}
	return nil
}

// CountComments returns the number of comments on a post
func (s *Store) CountComments(ctx context.Context, postID int64) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE post_id = $1", postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// --- Notifications ---

// ListNotifications returns a user's notifications newest-first
func (s *Store) ListNotifications(ctx context.Context, recipientID int64, limit, offset int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_id, actor_id, verb, post_id, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		var n Notification
		var postID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ActorID, &n.Verb, &postID,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if postID.Valid {
			n.PostID = &postID.Int64
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// CountUnread returns the number of unread notifications for a user
func (s *Store) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read",
		recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks a single notification as read. The notification must belong
// to the given recipient.
func (s *Store) MarkRead(ctx context.Context, recipientID, notificationID int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = $1 WHERE id = $2 AND recipient_id = $3",
		true, notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("notification %d not found", notificationID)
	}
	return nil
}

// MarkAllRead marks every notification for the user as read
func (s *Store) MarkAllRead(ctx context.Context, recipientID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = $1 WHERE recipient_id = $2 AND NOT is_read",
		true, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// CountAllLikes returns the total number of likes across all posts
func (s *Store) CountAllLikes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM likes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// CountNotifications returns the total number of notifications
func (s *Store) CountNotifications(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// PurgeReadNotifications deletes read notifications older than the cutoff.
// Run periodically to keep the table small.
func (s *Store) PurgeReadNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE is_read = $1 AND created_at < $2",
		true, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return result.RowsAffected()
}
