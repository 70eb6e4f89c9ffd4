package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/shelfhub/shelfhub/pkg/apperr"
	"github.com/shelfhub/shelfhub/pkg/contextkeys"
	"github.com/shelfhub/shelfhub/pkg/httputil"
)

// dateLayout is the wire format for dates of birth
const dateLayout = "2006-01-02"

// Handlers handles authentication-related HTTP requests
type Handlers struct {
	store  *Store
	tokens *TokenManager
}

// NewHandlers creates auth handlers
func NewHandlers(store *Store, tokens *TokenManager) *Handlers {
	return &Handlers{store: store, tokens: tokens}
}

// RegisterRoutes registers authentication routes. The /auth/me route expects
// the auth middleware to have populated the request context.
func (h *Handlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/auth/register", h.register).Methods("POST")
	public.HandleFunc("/auth/login", h.login).Methods("POST")
	protected.HandleFunc("/auth/me", h.me).Methods("GET")
	protected.HandleFunc("/auth/me", h.updateProfile).Methods("PUT")
}

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	DateOfBirth     string `json:"date_of_birth,omitempty"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
}

// register handles POST /auth/register
func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	ve := &apperr.ValidationError{Fields: map[string]string{}}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		ve.Add("email", "a valid email address is required")
	}
	if req.Username == "" {
		ve.Add("username", "username is required")
	}
	if len(req.Password) < MinPasswordLength {
		ve.Add("password", "password must be at least 8 characters")
	}
	if req.Password != req.PasswordConfirm {
		ve.Add("password_confirm", "passwords do not match")
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			ve.Add("date_of_birth", "must be in YYYY-MM-DD format")
		} else {
			dob = &parsed
		}
	}

	if err := ve.OrNil(); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	user := &User{
		Email:           strings.ToLower(req.Email),
		Username:        req.Username,
		PasswordHash:    hash,
		Role:            RoleMember,
		DateOfBirth:     dob,
		ProfilePhotoURL: req.ProfilePhotoURL,
		IsActive:        true,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// login handles POST /auth/login
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil || !user.IsActive || !CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown email and wrong password
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}

	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, loginResponse{Token: token, User: user})
}

// me handles GET /auth/me
func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	authCtx := FromContext(r.Context())
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteAppError(w, apperr.ErrAuthRequired)
		return
	}
	httputil.WriteSuccess(w, authCtx.User)
}

type updateProfileRequest struct {
	Username        string `json:"username"`
	DateOfBirth     string `json:"date_of_birth,omitempty"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
}

// updateProfile handles PUT /auth/me
func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	authCtx := FromContext(r.Context())
	if authCtx == nil || authCtx.User == nil {
		httputil.WriteAppError(w, apperr.ErrAuthRequired)
		return
	}

	var req updateProfileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	ve := &apperr.ValidationError{Fields: map[string]string{}}
	if req.Username == "" {
		ve.Add("username", "username is required")
	}
	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			ve.Add("date_of_birth", "must be in YYYY-MM-DD format")
		} else {
			dob = &parsed
		}
	}
	if err := ve.OrNil(); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	userID := authCtx.UserID()
	if err := h.store.UpdateProfile(r.Context(), userID, req.Username, dob, req.ProfilePhotoURL); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	user, err := h.store.GetUserByID(r.Context(), userID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// FromContext returns the AuthContext stored by the auth middleware, or nil
func FromContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(contextkeys.AuthKey).(*AuthContext); ok {
		return authCtx
	}
	return nil
}
