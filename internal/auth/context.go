package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/nordbooks/billing-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	Roles       []domain.UserRoleType
	CompanyID   uuid.UUID
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
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin for their company
func (u *UserContext) IsAdmin() bool {
	return u.HasAnyRole(domain.RoleAdmin, domain.RoleSystem)
}

// IsSystem checks if the caller is a service identity (API key auth).
// System callers are not bound to a single company.
func (u *UserContext) IsSystem() bool {
	return u.HasRole(domain.RoleSystem)
}

// HasPermission checks if user has a specific permission based on their roles
func (u *UserContext) HasPermission(permission domain.PermissionType) bool {
	// admins and service identities hold every permission
	if u.IsAdmin() {
		return true
	}
	for _, role := range u.Roles {
		if hasRolePermission(role, permission) {
			return true
		}
	}
	return false
}

// hasRolePermission checks if a role has a specific permission by default
func hasRolePermission(role domain.UserRoleType, permission domain.PermissionType) bool {
	rolePermissions := map[domain.UserRoleType][]domain.PermissionType{
		domain.RoleManager: {
			domain.PermissionClientsRead, domain.PermissionClientsWrite,
			domain.PermissionQuotesRead, domain.PermissionQuotesWrite, domain.PermissionQuotesConvert,
			domain.PermissionInvoicesRead, domain.PermissionInvoicesWrite,
			domain.PermissionAgreementsRead, domain.PermissionAgreementsWrite,
			domain.PermissionTemplatesRead, domain.PermissionTemplatesWrite, domain.PermissionTemplatesDelete,
			domain.PermissionUsageView,
		},
		domain.RoleMember: {
			domain.PermissionClientsRead, domain.PermissionClientsWrite,
			domain.PermissionQuotesRead, domain.PermissionQuotesWrite, domain.PermissionQuotesConvert,
			domain.PermissionInvoicesRead,
			domain.PermissionAgreementsRead,
			domain.PermissionTemplatesRead,
		},
		domain.RoleViewer: {
			domain.PermissionClientsRead,
			domain.PermissionQuotesRead,
			domain.PermissionInvoicesRead,
			domain.PermissionAgreementsRead,
			domain.PermissionTemplatesRead,
			domain.PermissionUsageView,
		},
	}

	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}

// GetCompanyFilter returns the company ID queries must be scoped to.
// Returns nil for service identities, which operate across tenants.
func (u *UserContext) GetCompanyFilter() *uuid.UUID {
	if u.IsSystem() {
		return nil
	}
	return &u.CompanyID
}

// GetEffectiveCompanyFilter returns the tenant filter for the current
// request, used by repositories to scope queries.
func GetEffectiveCompanyFilter(ctx context.Context) *uuid.UUID {
	if userCtx, ok := FromContext(ctx); ok {
		return userCtx.GetCompanyFilter()
	}
	return nil
}
