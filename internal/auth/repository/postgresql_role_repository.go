// Package repository provides persistence implementations for roles and role grants.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	"github.com/helperhq/helper/internal/database"
	apperrors "github.com/helperhq/helper/internal/errors"
)

// PostgreSQLRoleRepository implements role persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLRoleRepository struct {
	db *sql.DB
}

// NewPostgreSQLRoleRepository creates a new PostgreSQL role repository.
func NewPostgreSQLRoleRepository(db *sql.DB) *PostgreSQLRoleRepository {
	return &PostgreSQLRoleRepository{db: db}
}

// roleConflicts resolves seeding an existing role name to a no-op.
var roleConflicts = database.ConflictPolicy{
	Swallow: []string{"roles_name_key"},
}

// grantConflicts resolves re-granting an already-held role to a no-op.
var grantConflicts = database.ConflictPolicy{
	Swallow: []string{"user_roles_user_id_role_id_group_id_key"},
}

// CreateRole inserts a role. Inserting an existing name is a no-op.
func (p *PostgreSQLRoleRepository) CreateRole(ctx context.Context, role *authDomain.Role) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO roles (id, name, created_at) VALUES ($1, $2, $3)`

	_, err := querier.ExecContext(ctx, query, role.ID, role.Name, role.CreatedAt)
	if _, err = roleConflicts.Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to create role")
	}
	return nil
}

// GetRoleByName retrieves a role by its unique name.
func (p *PostgreSQLRoleRepository) GetRoleByName(
	ctx context.Context,
	name string,
) (*authDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, created_at FROM roles WHERE name = $1`

	role := &authDomain.Role{}
	err := querier.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("role", name)
		}
		return nil, apperrors.Wrap(err, "failed to get role by name")
	}

	return role, nil
}

// ListGrantsForUser returns every role grant held by the user with role names resolved.
func (p *PostgreSQLRoleRepository) ListGrantsForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*authDomain.RoleGrant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ur.user_id, ur.role_id, r.name, ur.group_id
			  FROM user_roles ur
			  JOIN roles r ON r.id = ur.role_id
			  WHERE ur.user_id = $1`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list role grants")
	}
	defer func() { _ = rows.Close() }()

	var grants []*authDomain.RoleGrant
	for rows.Next() {
		grant := &authDomain.RoleGrant{}
		if err := rows.Scan(&grant.UserID, &grant.RoleID, &grant.RoleName, &grant.GroupID); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan role grant")
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate role grants")
	}

	return grants, nil
}

// AssignRole grants a role to a user. Re-granting an already-held role is a no-op.
func (p *PostgreSQLRoleRepository) AssignRole(
	ctx context.Context,
	userID, roleID uuid.UUID,
	groupID *uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO user_roles (user_id, role_id, group_id) VALUES ($1, $2, $3)`

	_, err := querier.ExecContext(ctx, query, userID, roleID, groupID)
	if _, err = grantConflicts.Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to assign role")
	}
	return nil
}
