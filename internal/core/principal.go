// AngelaMos | 2026
// principal.go

package core

import (
	"slices"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated caller. Handlers pull it from the request
// context and hand it to services explicitly.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authorize is the single role check shared by middleware and services.
// An empty role list only requires authentication.
func Authorize(p Principal, roles ...string) error {
	if !p.Authenticated() {
		return UnauthorizedError("authentication required")
	}

	if len(roles) == 0 || slices.Contains(roles, p.Role) {
		return nil
	}

	return ForbiddenError("insufficient permissions")
}
