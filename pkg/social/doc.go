// Package social implements posts, comments, likes, and notifications.
//
// Every endpoint is open to any authenticated member; no granted permission
// is required. Posts and comments can only be edited or deleted by their
// author (superusers aside).
//
// Likes are idempotent: the likes table carries a UNIQUE(user_id, post_id)
// constraint, and liking an already-liked post is a successful no-op. A
// notification is fanned out to the post's author only when the like row is
// actually created, in the same transaction. Notifications list newest-first.
package social
