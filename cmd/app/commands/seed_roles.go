package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	authUseCase "github.com/helperhq/helper/internal/auth/usecase"
)

// RunSeedRoles ensures the built-in roles exist. Safe to run repeatedly.
//
// Requirements: Database must be migrated and accessible.
func RunSeedRoles(
	ctx context.Context,
	roleUseCase authUseCase.RoleUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("seeding built-in roles")

	if err := roleUseCase.SeedRoles(ctx); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	roleNames := strings.Join([]string{authDomain.RoleSiteAdmin, authDomain.RoleGroupAdmin}, ", ")
	fmt.Fprintf(writer, "Roles seeded: %s\n", roleNames)

	logger.Info("roles seeded successfully")
	return nil
}
