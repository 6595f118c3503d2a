package usecase

import (
	"context"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	apperrors "github.com/helperhq/helper/internal/errors"
)

// authorizer implements Authorizer over a RoleRepository.
type authorizer struct {
	roleRepo RoleRepository
}

// NewAuthorizer creates an Authorizer evaluating grants from the repository.
func NewAuthorizer(roleRepo RoleRepository) Authorizer {
	return &authorizer{roleRepo: roleRepo}
}

// CanPerform evaluates the action descriptor against the identity's grants.
// Site admins pass unconditionally; any other grant authorizes only actions
// whose object id equals the grant's scope. Anonymous identities hold no
// grants, so they are denied without a storage round trip.
func (a *authorizer) CanPerform(
	ctx context.Context,
	identity authDomain.Identity,
	descriptor string,
) (bool, error) {
	action, err := authDomain.ParseAction(descriptor)
	if err != nil {
		// A malformed descriptor is a bug in the route wiring, not a denial.
		return false, apperrors.Internal(err)
	}

	if identity.IsAnonymous() {
		return false, nil
	}

	grants, err := a.roleRepo.ListGrantsForUser(ctx, identity.ID)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to load role grants")
	}

	for _, grant := range grants {
		if grant.IsSiteAdmin() {
			return true, nil
		}
		if action.ObjectID != "" && grant.Covers(action.ObjectID) {
			return true, nil
		}
	}

	return false, nil
}
