package catalog

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/httputil"
	"github.com/shelfhub/shelfhub/pkg/rbac"
)

// Handlers handles catalog HTTP requests
type Handlers struct {
	store *Store
	users *auth.Store
}

// NewHandlers creates catalog handlers
func NewHandlers(store *Store, users *auth.Store) *Handlers {
	return &Handlers{store: store, users: users}
}

// RegisterRoutes registers catalog routes, each gated on its permission
func (h *Handlers) RegisterRoutes(router *mux.Router, pm *rbac.PermissionMiddleware) {
	require := func(resource rbac.Resource, action rbac.Action, fn http.HandlerFunc) http.Handler {
		return pm.RequirePermission(resource, action)(fn)
	}

	// Authors
	router.Handle("/authors", require(rbac.ResourceAuthor, rbac.ActionView, h.listAuthors)).Methods("GET")
	router.Handle("/authors", require(rbac.ResourceAuthor, rbac.ActionCreate, h.createAuthor)).Methods("POST")
	router.Handle("/authors/{id}", require(rbac.ResourceAuthor, rbac.ActionView, h.getAuthor)).Methods("GET")
	router.Handle("/authors/{id}", require(rbac.ResourceAuthor, rbac.ActionEdit, h.updateAuthor)).Methods("PUT")
	router.Handle("/authors/{id}", require(rbac.ResourceAuthor, rbac.ActionDelete, h.deleteAuthor)).Methods("DELETE")

	// Books
	router.Handle("/books", require(rbac.ResourceBook, rbac.ActionView, h.listBooks)).Methods("GET")
	router.Handle("/books", require(rbac.ResourceBook, rbac.ActionCreate, h.createBook)).Methods("POST")
	router.Handle("/books/assign-owners", require(rbac.ResourceBook, rbac.ActionEdit, h.assignOwners)).Methods("POST")
	router.Handle("/books/reassign-admin", require(rbac.ResourceBook, rbac.ActionEdit, h.reassignAdmin)).Methods("POST")
	router.Handle("/books/{id}", require(rbac.ResourceBook, rbac.ActionView, h.getBook)).Methods("GET")
	router.Handle("/books/{id}", require(rbac.ResourceBook, rbac.ActionEdit, h.updateBook)).Methods("PUT")
	router.Handle("/books/{id}", require(rbac.ResourceBook, rbac.ActionDelete, h.deleteBook)).Methods("DELETE")

	// Libraries
	router.Handle("/libraries", require(rbac.ResourceLibrary, rbac.ActionView, h.listLibraries)).Methods("GET")
	router.Handle("/libraries", require(rbac.ResourceLibrary, rbac.ActionCreate, h.createLibrary)).Methods("POST")
	router.Handle("/libraries/{id}", require(rbac.ResourceLibrary, rbac.ActionView, h.getLibrary)).Methods("GET")
	router.Handle("/libraries/{id}/books", require(rbac.ResourceLibrary, rbac.ActionView, h.listLibraryBooks)).Methods("GET")
	router.Handle("/libraries/{id}/books/{book_id}", require(rbac.ResourceLibrary, rbac.ActionEdit, h.addLibraryBook)).Methods("POST")
	router.Handle("/libraries/{id}/books/{book_id}", require(rbac.ResourceLibrary, rbac.ActionEdit, h.removeLibraryBook)).Methods("DELETE")
	router.Handle("/libraries/{id}/librarian", require(rbac.ResourceLibrary, rbac.ActionView, h.getLibrarian)).Methods("GET")
	router.Handle("/libraries/{id}/librarian", require(rbac.ResourceLibrary, rbac.ActionEdit, h.assignLibrarian)).Methods("POST")
}

// --- Authors ---

type authorRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio,omitempty"`
}

func (h *Handlers) listAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.store.ListAuthors(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, authors)
}

func (h *Handlers) createAuthor(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	author := &Author{Name: req.Name, Bio: req.Bio}
	if err := ValidateAuthor(author); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.store.CreateAuthor(r.Context(), author); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteCreated(w, author)
}

func (h *Handlers) getAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	author, err := h.store.GetAuthor(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, author)
}

func (h *Handlers) updateAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req authorRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	author := &Author{ID: id, Name: req.Name, Bio: req.Bio}
	if err := ValidateAuthor(author); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.store.UpdateAuthor(r.Context(), author); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, author)
}

func (h *Handlers) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.store.DeleteAuthor(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// --- Books ---

type bookRequest struct {
	Title           string `json:"title"`
	AuthorID        int64  `json:"author_id"`
	ISBN            string `json:"isbn"`
	PublicationYear int    `json:"publication_year"`
}

func (h *Handlers) listBooks(w http.ResponseWriter, r *http.Request) {
	filter := BookFilter{
		AuthorID: int64(httputil.ParseQueryInt(r, "author", 0)),
		Title:    httputil.ParseQueryString(r, "title", ""),
		Search:   httputil.ParseQueryString(r, "search", ""),
		Ordering: httputil.ParseQueryString(r, "ordering", ""),
		Limit:    httputil.ParseQueryInt(r, "limit", 0),
		Offset:   httputil.ParseQueryInt(r, "offset", 0),
	}

	books, err := h.store.ListBooks(r.Context(), filter)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, books)
}

func (h *Handlers) createBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	book := &Book{
		Title:           req.Title,
		AuthorID:        req.AuthorID,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
	}
	if err := ValidateBook(book); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.store.CreateBook(r.Context(), book); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteCreated(w, book)
}

func (h *Handlers) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	book, err := h.store.GetBook(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, book)
}

func (h *Handlers) updateBook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req bookRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	existing, err := h.store.GetBook(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	book := &Book{
		ID:              id,
		Title:           req.Title,
		AuthorID:        req.AuthorID,
		ISBN:            req.ISBN,
		PublicationYear: req.PublicationYear,
		OwnerID:         existing.OwnerID,
	}
	if err := ValidateBook(book); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.store.UpdateBook(r.Context(), book); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, book)
}

func (h *Handlers) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.store.DeleteBook(r.Context(), id); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// --- Ownership ---

func (h *Handlers) assignOwners(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserIDs []int64 `json:"user_ids"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	for _, userID := range req.UserIDs {
		if _, err := h.users.GetUserByID(r.Context(), userID); err != nil {
			httputil.WriteAppError(w, err)
			return
		}
	}

	assigned, err := h.store.AssignOwnersRoundRobin(r.Context(), req.UserIDs)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]int{"assigned": assigned})
}

func (h *Handlers) reassignAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminID int64 `json:"admin_id"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if _, err := h.users.GetUserByID(r.Context(), req.AdminID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	updated, err := h.store.ReassignAllToAdmin(r.Context(), req.AdminID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]int{"reassigned": updated})
}

// --- Libraries ---

type libraryRequest struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

func (h *Handlers) listLibraries(w http.ResponseWriter, r *http.Request) {
	libraries, err := h.store.ListLibraries(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, libraries)
}

func (h *Handlers) createLibrary(w http.ResponseWriter, r *http.Request) {
	var req libraryRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	library := &Library{Name: req.Name, Location: req.Location}
	if err := ValidateLibrary(library); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.store.CreateLibrary(r.Context(), library); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteCreated(w, library)
}

func (h *Handlers) getLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	library, err := h.store.GetLibrary(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, library)
}

func (h *Handlers) listLibraryBooks(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	books, err := h.store.GetLibraryBooks(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, books)
}

func (h *Handlers) addLibraryBook(w http.ResponseWriter, r *http.Request) {
	libraryID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	bookID, err := httputil.ParsePathInt64(r, "book_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.store.AddBookToLibrary(r.Context(), libraryID, bookID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) removeLibraryBook(w http.ResponseWriter, r *http.Request) {
	libraryID, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	bookID, err := httputil.ParsePathInt64(r, "book_id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.store.RemoveBookFromLibrary(r.Context(), libraryID, bookID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handlers) getLibrarian(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	librarian, err := h.store.GetLibrarian(r.Context(), id)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, librarian)
}

func (h *Handlers) assignLibrarian(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	librarian := &Librarian{Name: req.Name, LibraryID: id}
	if err := ValidateLibrarian(librarian); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	if err := h.store.AssignLibrarian(r.Context(), librarian); err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteCreated(w, librarian)
}
