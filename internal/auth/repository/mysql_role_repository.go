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

// MySQLRoleRepository implements role persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLRoleRepository struct {
	db *sql.DB
}

// NewMySQLRoleRepository creates a new MySQL role repository.
func NewMySQLRoleRepository(db *sql.DB) *MySQLRoleRepository {
	return &MySQLRoleRepository{db: db}
}

// CreateRole inserts a role. Inserting an existing name is a no-op.
func (m *MySQLRoleRepository) CreateRole(ctx context.Context, role *authDomain.Role) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO roles (id, name, created_at) VALUES (?, ?, ?)`

	id, err := role.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	_, err = querier.ExecContext(ctx, query, id, role.Name, role.CreatedAt)
	if _, err = roleConflicts.Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to create role")
	}
	return nil
}

// GetRoleByName retrieves a role by its unique name.
func (m *MySQLRoleRepository) GetRoleByName(
	ctx context.Context,
	name string,
) (*authDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, created_at FROM roles WHERE name = ?`

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
func (m *MySQLRoleRepository) ListGrantsForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*authDomain.RoleGrant, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ur.user_id, ur.role_id, r.name, ur.group_id
			  FROM user_roles ur
			  JOIN roles r ON r.id = ur.role_id
			  WHERE ur.user_id = ?`

	id, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	rows, err := querier.QueryContext(ctx, query, id)
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
func (m *MySQLRoleRepository) AssignRole(
	ctx context.Context,
	userID, roleID uuid.UUID,
	groupID *uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO user_roles (user_id, role_id, group_id) VALUES (?, ?, ?)`

	uid, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	rid, err := roleID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	var gid any
	if groupID != nil {
		gid, err = groupID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal group id")
		}
	}

	_, err = querier.ExecContext(ctx, query, uid, rid, gid)
	if _, err = grantConflicts.Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to assign role")
	}
	return nil
}
