package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
	apperrors "github.com/helperhq/helper/internal/errors"
)

func newMockDB(t *testing.T) (*PostgreSQLRoleRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgreSQLRoleRepository(db), mock
}

func TestPostgreSQLRoleRepository_CreateRole(t *testing.T) {
	ctx := context.Background()
	role := &authDomain.Role{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      authDomain.RoleSiteAdmin,
		CreatedAt: time.Now().UTC(),
	}
	insertQuery := regexp.QuoteMeta(`INSERT INTO roles (id, name, created_at) VALUES ($1, $2, $3)`)

	t.Run("Success_CreateRole", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(role.ID, role.Name, role.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CreateRole(ctx, role)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_DuplicateNameIsNoop", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(role.ID, role.Name, role.CreatedAt).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "roles_name_key"})

		err := repo.CreateRole(ctx, role)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_DatabaseFailure", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(role.ID, role.Name, role.CreatedAt).
			WillReturnError(errors.New("connection refused"))

		err := repo.CreateRole(ctx, role)

		require.Error(t, err)
	})
}

func TestPostgreSQLRoleRepository_GetRoleByName(t *testing.T) {
	ctx := context.Background()
	selectQuery := regexp.QuoteMeta(`SELECT id, name, created_at FROM roles WHERE name = $1`)

	t.Run("Success_GetRole", func(t *testing.T) {
		repo, mock := newMockDB(t)
		roleID := uuid.Must(uuid.NewV7())
		createdAt := time.Now().UTC()
		mock.ExpectQuery(selectQuery).
			WithArgs(authDomain.RoleGroupAdmin).
			WillReturnRows(
				sqlmock.NewRows([]string{"id", "name", "created_at"}).
					AddRow(roleID, authDomain.RoleGroupAdmin, createdAt),
			)

		role, err := repo.GetRoleByName(ctx, authDomain.RoleGroupAdmin)

		require.NoError(t, err)
		assert.Equal(t, roleID, role.ID)
		assert.Equal(t, authDomain.RoleGroupAdmin, role.Name)
	})

	t.Run("Error_RoleNotFound", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectQuery(selectQuery).
			WithArgs("missing-role").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))

		role, err := repo.GetRoleByName(ctx, "missing-role")

		require.Error(t, err)
		assert.Nil(t, role)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestPostgreSQLRoleRepository_ListGrantsForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	selectQuery := `SELECT ur\.user_id, ur\.role_id, r\.name, ur\.group_id.*FROM user_roles ur.*JOIN roles r ON r\.id = ur\.role_id.*WHERE ur\.user_id = \$1`

	t.Run("Success_ListGrants", func(t *testing.T) {
		repo, mock := newMockDB(t)
		roleID := uuid.Must(uuid.NewV7())
		groupID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery(selectQuery).
			WithArgs(userID).
			WillReturnRows(
				sqlmock.NewRows([]string{"user_id", "role_id", "name", "group_id"}).
					AddRow(userID, roleID, authDomain.RoleGroupAdmin, groupID).
					AddRow(userID, roleID, authDomain.RoleSiteAdmin, nil),
			)

		grants, err := repo.ListGrantsForUser(ctx, userID)

		require.NoError(t, err)
		require.Len(t, grants, 2)
		assert.Equal(t, authDomain.RoleGroupAdmin, grants[0].RoleName)
		require.NotNil(t, grants[0].GroupID)
		assert.Equal(t, groupID, *grants[0].GroupID)
		assert.Nil(t, grants[1].GroupID)
	})

	t.Run("Success_NoGrants", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectQuery(selectQuery).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "role_id", "name", "group_id"}))

		grants, err := repo.ListGrantsForUser(ctx, userID)

		require.NoError(t, err)
		assert.Empty(t, grants)
	})
}

func TestPostgreSQLRoleRepository_AssignRole(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	roleID := uuid.Must(uuid.NewV7())
	groupID := uuid.Must(uuid.NewV7())
	insertQuery := regexp.QuoteMeta(
		`INSERT INTO user_roles (user_id, role_id, group_id) VALUES ($1, $2, $3)`,
	)

	t.Run("Success_AssignScopedRole", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(userID, roleID, &groupID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.AssignRole(ctx, userID, roleID, &groupID)

		require.NoError(t, err)
	})

	t.Run("Success_ReassignIsNoop", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(userID, roleID, &groupID).
			WillReturnError(&pq.Error{
				Code:       "23505",
				Constraint: "user_roles_user_id_role_id_group_id_key",
			})

		err := repo.AssignRole(ctx, userID, roleID, &groupID)

		require.NoError(t, err)
	})
}
