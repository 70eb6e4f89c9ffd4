package rbac

import (
	"fmt"
	"time"
)

// Resource represents a resource type in the system
type Resource string

const (
	ResourceBook    Resource = "book"
	ResourceLibrary Resource = "library"
	ResourceAuthor  Resource = "author"
	ResourcePost    Resource = "post"
)

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Permission represents a specific permission (resource + action)
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// Code returns the canonical permission code, e.g. "can_edit_book".
// Codes are what gets stored for direct user grants.
func (p Permission) Code() string {
	return fmt.Sprintf("can_%s_%s", p.Action, p.Resource)
}

// String returns a string representation of the permission
func (p Permission) String() string {
	return p.Code()
}

// AllActions lists every action, in grant-display order
var AllActions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

// AllResources lists every resource type
var AllResources = []Resource{ResourceBook, ResourceLibrary, ResourceAuthor, ResourcePost}

// Group represents a named set of permissions users can belong to
type Group struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	IsBuiltIn   bool         `json:"is_built_in"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HasPermission reports whether the group grants the permission
func (g *Group) HasPermission(p Permission) bool {
	for _, perm := range g.Permissions {
		if perm == p {
			return true
		}
	}
	return false
}

// Built-in group names
const (
	GroupAdmins  = "Admins"
	GroupEditors = "Editors"
	GroupViewers = "Viewers"
)

// CheckResult describes the outcome of a permission check
type CheckResult struct {
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason"`
	CheckedAt time.Time `json:"checked_at"`
}
