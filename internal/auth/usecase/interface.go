// Package usecase defines business logic interfaces for authentication and authorization operations.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
)

// RoleRepository defines persistence operations for roles and role grants.
// Implementations must support transaction-aware operations via context propagation.
type RoleRepository interface {
	// CreateRole stores a role, resolving to a no-op when the name exists.
	CreateRole(ctx context.Context, role *authDomain.Role) error

	// GetRoleByName retrieves a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (*authDomain.Role, error)

	// ListGrantsForUser returns every role grant held by the user, with role
	// names resolved.
	ListGrantsForUser(ctx context.Context, userID uuid.UUID) ([]*authDomain.RoleGrant, error)

	// AssignRole grants a role to a user, optionally scoped to a group.
	// Granting an already-held role resolves to a no-op.
	AssignRole(ctx context.Context, userID, roleID uuid.UUID, groupID *uuid.UUID) error
}

// Authorizer decides whether an identity may perform an action. Absence of a
// matching grant is denial; only infrastructure failures return an error.
type Authorizer interface {
	// CanPerform evaluates the action descriptor against the identity's role
	// grants. A legitimate "no" is (false, nil), never an error.
	CanPerform(ctx context.Context, identity authDomain.Identity, descriptor string) (bool, error)
}

// RoleUseCase defines administrative role operations driven by the CLI.
type RoleUseCase interface {
	// SeedRoles ensures the built-in roles exist. Safe to run repeatedly.
	SeedRoles(ctx context.Context) error

	// GrantRole grants the named role to a user, optionally scoped to a
	// group. Granting an already-held role is a no-op.
	GrantRole(ctx context.Context, userID uuid.UUID, roleName string, groupID *uuid.UUID) error
}
