// Package rbac implements group-based access control with direct user grants.
//
// # Overview
//
// Permissions are (resource, action) pairs with canonical codes of the form
// can_<action>_<resource>, e.g. can_edit_book. A user holds a permission if
// any of the following is true, evaluated in order:
//
//  1. the user is a superuser (bypasses everything)
//  2. the permission was granted to the user directly
//  3. one of the user's groups carries the permission
//
// Decisions are cached in an expiring LRU; call Checker.InvalidateUser after
// changing a user's grants or memberships.
//
// # Built-in Groups
//
// EnsureBuiltInGroups seeds three groups on startup and keeps their
// permission sets current across releases:
//
//	Admins:  every action on every resource
//	Editors: view, create, edit
//	Viewers: view only
//
// # Route Protection
//
//	pm := rbac.NewPermissionMiddleware(checker)
//	books.Use(pm.RequirePermission(rbac.ResourceBook, rbac.ActionEdit))
package rbac
