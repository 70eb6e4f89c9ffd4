// Package auth provides user identity, password hashing, and JWT session tokens.
//
// # Overview
//
// Accounts are identified by email. Every user carries a role (admin,
// librarian, member) used for coarse grouping; fine-grained permissions live
// in pkg/rbac. Passwords are stored as bcrypt hashes and sessions are HS256
// JWTs issued by TokenManager.
//
// # Authentication Flow
//
//  1. POST /auth/register creates a member account
//  2. POST /auth/login verifies credentials and returns a signed token
//  3. The auth middleware resolves the Bearer token into an AuthContext
//  4. GET /auth/me returns the authenticated user
//
// # Related Packages
//
//   - pkg/middleware: resolves tokens into request contexts
//   - pkg/rbac: permission checks on top of the identity layer
package auth
