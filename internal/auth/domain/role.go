package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role names with built-in semantics. RoleSiteAdmin grants every action
// unconditionally; any other role authorizes only actions whose object id
// matches the grant's scope.
const (
	RoleSiteAdmin  = "site-admin"
	RoleGroupAdmin = "group-admin"
)

// Role is a named set of permissions.
type Role struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// RoleGrant assigns a role to a user, optionally scoped to a single object
// (a group id today). A nil GroupID means the grant is unscoped.
type RoleGrant struct {
	UserID   uuid.UUID
	RoleID   uuid.UUID
	RoleName string
	GroupID  *uuid.UUID
}

// IsSiteAdmin reports whether the grant carries the global admin role.
func (g RoleGrant) IsSiteAdmin() bool {
	return g.RoleName == RoleSiteAdmin
}

// Covers reports whether the grant's scope matches the given object id.
// Unscoped non-admin grants cover nothing.
func (g RoleGrant) Covers(objectID string) bool {
	if g.GroupID == nil {
		return false
	}
	return g.GroupID.String() == objectID
}
