package social

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shelfhub/shelfhub/pkg/apperr"
	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/httputil"
)

// Handlers handles social HTTP requests
type Handlers struct {
	store *Store
	cache *PostCache // nil when Redis is not configured
}

// NewHandlers creates social handlers
func NewHandlers(store *Store, cache *PostCache) *Handlers {
	return &Handlers{store: store, cache: cache}
}

// RegisterRoutes registers the social routes. Unlike the catalog, the social
// layer is open to every authenticated member: posts, comments and likes need
// no granted permission, only a valid session. Edits and deletes are still
// restricted to the author. Like and unlike are POST-only sub-resources of a
// post.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/posts", h.listPosts).Methods("GET")
	router.HandleFunc("/posts", h.createPost).Methods("POST")
	router.HandleFunc("/posts/{id}", h.getPost).Methods("GET")
	router.HandleFunc("/posts/{id}", h.updatePost).Methods("PUT")
	router.HandleFunc("/posts/{id}", h.deletePost).Methods("DELETE")
	router.HandleFunc("/posts/{id}/like", h.likePost).Methods("POST")
	router.HandleFunc("/posts/{id}/unlike", h.unlikePost).Methods("POST")

	router.HandleFunc("/posts/{id}/comments", h.listComments).Methods("GET")
	router.HandleFunc("/posts/{id}/comments", h.createComment).Methods("POST")
	router.HandleFunc("/comments/{id}", h.updateComment).Methods("PUT")
	router.HandleFunc("/comments/{id}", h.deleteComment).Methods("DELETE")

	router.HandleFunc("/feed", h.feed).Methods("GET")

	// Notifications are scoped to the caller
	router.HandleFunc("/notifications", h.listNotifications).Methods("GET")
	router.HandleFunc("/notifications/unread-count", h.unreadCount).Methods("GET")
	router.HandleFunc("/notifications/mark-read", h.markAllRead).Methods("POST")
	router.HandleFunc("/notifications/{id}/read", h.markRead).Methods("POST")
}

func requireUser(w http.ResponseWriter, r *http.Request) *auth.User {
	authCtx := auth.FromContext(r.Context())
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteAppError(w, apperr.ErrAuthRequired)
		return nil
	}
	return authCtx.User
}

// --- Posts ---

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handlers) listPosts(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}

	limit := httputil.ParseQueryInt(r, "limit", 50)
	offset := httputil.ParseQueryInt(r, "offset", 0)

	var posts []*Post
	var err error
	if query := r.URL.Query().Get("search"); query != "" {
		posts, err = h.store.SearchPosts(r.Context(), query, limit, offset)
	} else {
		posts, err = h.store.ListPosts(r.Context(), limit, offset)
	}
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, posts)
}

// feed returns the newest posts first, same ordering as the post list. There
// is no follow graph, so every member sees the same feed.
func (h *Handlers) feed(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}

	limit := httputil.ParseQueryInt(r, "limit", 50)
	offset := httputil.ParseQueryInt(r, "offset", 0)

	posts, err := h.store.ListPosts(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, posts)
}

func (h *Handlers) createPost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req postRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	ve := &apperr.ValidationError{}
	if req.Title == "" {
		ve.Add("title", "title is required")
	}
	if req.Content == "" {
		ve.Add("content", "content is required")
	}
	if err := ve.OrNil(); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	post := &Post{AuthorID: user.ID, Title: req.Title, Content: req.Content}
	if err := h.store.CreatePost(r.Context(), post); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteCreated(w, post)
}

func (h *Handlers) getPost(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var post *Post
	if h.cache != nil {
		post, err = h.cache.GetPost(r.Context(), id)
	} else {
		post, err = h.store.GetPost(r.Context(), id)
	}
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, post)
}

func (h *Handlers) updatePost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	// Only the author may edit, superusers aside
	if post.AuthorID != user.ID && !user.IsSuperuser {
		httputil.WriteAppError(w, apperr.ErrPermissionDenied)
		return
	}

	var req postRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	ve := &apperr.ValidationError{}
	if req.Title == "" {
		ve.Add("title", "title is required")
	}
	if req.Content == "" {
		ve.Add("content", "content is required")
	}
	if err := ve.OrNil(); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	post.Title = req.Title
	post.Content = req.Content
	if err := h.store.UpdatePost(r.Context(), post); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), id)
	}
	httputil.WriteSuccess(w, post)
}

func (h *Handlers) deletePost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.store.GetPost(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if post.AuthorID != user.ID && !user.IsSuperuser {
		httputil.WriteAppError(w, apperr.ErrPermissionDenied)
		return
	}

	if err := h.store.DeletePost(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), id)
	}
	httputil.WriteNoContent(w)
}

// --- Likes ---

func (h *Handlers) likePost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.store.LikePost(r.Context(), user.ID, id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), id)
	}
	if created {
		httputil.WriteCreated(w, map[string]string{"detail": "liked"})
		return
	}
	httputil.WriteSuccess(w, map[string]string{"detail": "already liked"})
}

func (h *Handlers) unlikePost(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.store.UnlikePost(r.Context(), user.ID, id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), id)
	}
	httputil.WriteSuccess(w, map[string]string{"detail": "unliked"})
}

// --- Comments ---

type commentRequest struct {
	Content string `json:"content"`
}

func (h *Handlers) listComments(w http.ResponseWriter, r *http.Request) {
	if requireUser(w, r) == nil {
		return
	}
	postID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	limit := httputil.ParseQueryInt(r, "limit", 50)
	offset := httputil.ParseQueryInt(r, "offset", 0)

	comments, err := h.store.ListComments(r.Context(), postID, limit, offset)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, comments)
}

func (h *Handlers) createComment(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	postID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	ve := &apperr.ValidationError{}
	if req.Content == "" {
		ve.Add("content", "content is required")
	}
	if err := ve.OrNil(); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	comment := &Comment{PostID: postID, AuthorID: user.ID, Content: req.Content}
	if err := h.store.CreateComment(r.Context(), comment); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteCreated(w, comment)
}

func (h *Handlers) updateComment(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.store.GetComment(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if comment.AuthorID != user.ID && !user.IsSuperuser {
		httputil.WriteAppError(w, apperr.ErrPermissionDenied)
		return
	}

	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	ve := &apperr.ValidationError{}
	if req.Content == "" {
		ve.Add("content", "content is required")
	}
	if err := ve.OrNil(); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	comment.Content = req.Content
	if err := h.store.UpdateComment(r.Context(), comment); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, comment)
}

func (h *Handlers) deleteComment(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.store.GetComment(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if comment.AuthorID != user.ID && !user.IsSuperuser {
		httputil.WriteAppError(w, apperr.ErrPermissionDenied)
		return
	}

	if err := h.store.DeleteComment(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// --- Notifications ---

func (h *Handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	limit := httputil.ParseQueryInt(r, "limit", 50)
	offset := httputil.ParseQueryInt(r, "offset", 0)

	notifications, err := h.store.ListNotifications(r.Context(), user.ID, limit, offset)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, notifications)
}

func (h *Handlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	count, err := h.store.CountUnread(r.Context(), user.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]int64{"unread": count})
}

func (h *Handlers) markRead(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.store.MarkRead(r.Context(), user.ID, id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	if err := h.store.MarkAllRead(r.Context(), user.ID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
