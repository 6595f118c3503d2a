package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	authUseCase "github.com/helperhq/helper/internal/auth/usecase"
)

// RunGrantRole grants the named role to a user. When groupID is non-empty
// the grant is scoped to that group. Granting an already-held role is a
// no-op.
//
// Requirements: Database must be migrated and roles seeded.
func RunGrantRole(
	ctx context.Context,
	roleUseCase authUseCase.RoleUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
	roleName string,
	groupID string,
) error {
	parsedUserID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	var parsedGroupID *uuid.UUID
	if groupID != "" {
		id, err := uuid.Parse(groupID)
		if err != nil {
			return fmt.Errorf("invalid group id: %w", err)
		}
		parsedGroupID = &id
	}

	logger.Info("granting role",
		slog.String("user_id", parsedUserID.String()),
		slog.String("role", roleName),
	)

	if err := roleUseCase.GrantRole(ctx, parsedUserID, roleName, parsedGroupID); err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}

	if parsedGroupID != nil {
		fmt.Fprintf(writer, "Granted %q to user %s in group %s\n", roleName, parsedUserID, parsedGroupID)
	} else {
		fmt.Fprintf(writer, "Granted %q to user %s\n", roleName, parsedUserID)
	}

	logger.Info("role granted successfully",
		slog.String("user_id", parsedUserID.String()),
		slog.String("role", roleName),
	)

	return nil
}
