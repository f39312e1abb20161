package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/lawdir/directory-api/internal/domain"
)

// Authentication methods recorded on the user context
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
	MethodCLI    = "cli"
)

// SystemUserID identifies API key and CLI callers, which have no admin user row
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Role        domain.AdminRole
	Method      string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// SystemContext marks work done by the service itself (CLI, scheduled jobs)
func SystemContext(ctx context.Context, name string) context.Context {
	return WithUserContext(ctx, &UserContext{
		UserID:      SystemUserID,
		DisplayName: name,
		Role:        domain.AdminRoleService,
		Method:      MethodCLI,
	})
}

// HasRole checks if user has one of the given roles
func (u *UserContext) HasRole(roles ...domain.AdminRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller may manage admin users. API keys act as admins.
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.AdminRoleAdmin, domain.AdminRoleService)
}

// IsSystem reports whether the caller is not a named admin user
func (u *UserContext) IsSystem() bool {
	return u.UserID == SystemUserID
}

// Actor returns the ID and display name recorded on reviewed or imported records
func Actor(ctx context.Context) (id, name string) {
	if u, ok := FromContext(ctx); ok {
		return u.UserID.String(), u.DisplayName
	}
	return SystemUserID.String(), "system"
}
