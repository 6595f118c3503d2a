package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	apperrors "github.com/helperhq/helper/internal/errors"
)

// roleUseCase implements RoleUseCase over a RoleRepository.
type roleUseCase struct {
	roleRepo RoleRepository
}

// NewRoleUseCase creates a RoleUseCase backed by the repository.
func NewRoleUseCase(roleRepo RoleRepository) RoleUseCase {
	return &roleUseCase{roleRepo: roleRepo}
}

// SeedRoles ensures the built-in roles exist. Re-seeding is a no-op per role.
func (r *roleUseCase) SeedRoles(ctx context.Context) error {
	for _, name := range []string{authDomain.RoleSiteAdmin, authDomain.RoleGroupAdmin} {
		role := &authDomain.Role{
			ID:        uuid.Must(uuid.NewV7()),
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}
		if err := r.roleRepo.CreateRole(ctx, role); err != nil {
			return apperrors.Wrap(err, "failed to seed role "+name)
		}
	}
	return nil
}

// GrantRole grants the named role to a user, optionally scoped to a group.
func (r *roleUseCase) GrantRole(
	ctx context.Context,
	userID uuid.UUID,
	roleName string,
	groupID *uuid.UUID,
) error {
	role, err := r.roleRepo.GetRoleByName(ctx, roleName)
	if err != nil {
		return err
	}

	return r.roleRepo.AssignRole(ctx, userID, role.ID, groupID)
}
