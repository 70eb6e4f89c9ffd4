package auth

import "time"

// Role represents an application-level user role
type Role string

const (
	RoleAdmin     Role = "admin"     // Full access, owns reassigned books
	RoleLibrarian Role = "librarian" // Manages catalog entries
	RoleMember    Role = "member"    // Regular account
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return true
	}
	return false
}

// User represents an account identified by email
type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	PasswordHash    string     `json:"-"` // Never expose hash
	Role            Role       `json:"role"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	ProfilePhotoURL string     `json:"profile_photo_url,omitempty"`
	IsSuperuser     bool       `json:"is_superuser"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AuthContext holds the authenticated user for a request
type AuthContext struct {
	User *User
}

// UserID returns the authenticated user's ID, or 0 when anonymous
func (c *AuthContext) UserID() int64 {
	if c == nil || c.User == nil {
		return 0
	}
	return c.User.ID
}
