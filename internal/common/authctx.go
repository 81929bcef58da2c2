package common

import "context"

type ctxKey string

const (
	userIDKey ctxKey = "auth/user-id"
	roleKey   ctxKey = "auth/role"
)

// Roles recognised by the storefront.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// WithRole stores the authenticated user's role on the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// Role returns the authenticated role, defaulting to RoleCustomer.
func Role(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok && role != "" {
		return role
	}
	return RoleCustomer
}
