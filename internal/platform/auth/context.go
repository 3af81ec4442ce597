package auth

import "context"

// withRoles is used by tests and internal wiring to seed roles on a context.
func withRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, UserRolesKey, roles)
}

// WithUser returns a context carrying the given user identity. Used by
// components that run outside the HTTP middleware chain (CLI, tests).
func WithUser(ctx context.Context, userID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRolesKey, roles)
}
