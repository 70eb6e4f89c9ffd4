// Package middleware provides HTTP middleware for authentication.
//
// # Overview
//
// AuthMiddleware extracts the Bearer token from the Authorization header,
// validates it, loads the account, and stores an AuthContext on the request
// context under contextkeys.AuthKey:
//
//	authMW := middleware.NewAuthMiddleware(tokens, userStore, false)
//	protected.Use(authMW.Handler)
//
// Requests without a valid token receive 401 unless the middleware was
// constructed as optional. Authorization decisions (403) belong to pkg/rbac.
package middleware
