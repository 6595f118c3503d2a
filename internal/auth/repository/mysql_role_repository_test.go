package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/helperhq/helper/internal/auth/domain"
)

func newMySQLMockDB(t *testing.T) (*MySQLRoleRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLRoleRepository(db), mock
}

func binaryID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestMySQLRoleRepository_CreateRole(t *testing.T) {
	ctx := context.Background()
	role := &authDomain.Role{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      authDomain.RoleSiteAdmin,
		CreatedAt: time.Now().UTC(),
	}
	insertQuery := regexp.QuoteMeta(`INSERT INTO roles (id, name, created_at) VALUES (?, ?, ?)`)

	t.Run("Success_CreateRole", func(t *testing.T) {
		repo, mock := newMySQLMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(binaryID(t, role.ID), role.Name, role.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CreateRole(ctx, role)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_DuplicateNameIsNoop", func(t *testing.T) {
		repo, mock := newMySQLMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(binaryID(t, role.ID), role.Name, role.CreatedAt).
			WillReturnError(&mysql.MySQLError{
				Number:  1062,
				Message: "Duplicate entry 'site-admin' for key 'roles.roles_name_key'",
			})

		err := repo.CreateRole(ctx, role)

		require.NoError(t, err)
	})
}

func TestMySQLRoleRepository_ListGrantsForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	selectQuery := `SELECT ur\.user_id, ur\.role_id, r\.name, ur\.group_id.*FROM user_roles ur.*JOIN roles r ON r\.id = ur\.role_id.*WHERE ur\.user_id = \?`

	t.Run("Success_ListGrants", func(t *testing.T) {
		repo, mock := newMySQLMockDB(t)
		roleID := uuid.Must(uuid.NewV7())
		groupID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery(selectQuery).
			WithArgs(binaryID(t, userID)).
			WillReturnRows(
				sqlmock.NewRows([]string{"user_id", "role_id", "name", "group_id"}).
					AddRow(binaryID(t, userID), binaryID(t, roleID), authDomain.RoleGroupAdmin, binaryID(t, groupID)).
					AddRow(binaryID(t, userID), binaryID(t, roleID), authDomain.RoleSiteAdmin, nil),
			)

		grants, err := repo.ListGrantsForUser(ctx, userID)

		require.NoError(t, err)
		require.Len(t, grants, 2)
		assert.Equal(t, userID, grants[0].UserID)
		require.NotNil(t, grants[0].GroupID)
		assert.Equal(t, groupID, *grants[0].GroupID)
		assert.Nil(t, grants[1].GroupID)
	})
}

func TestMySQLRoleRepository_AssignRole(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	roleID := uuid.Must(uuid.NewV7())
	groupID := uuid.Must(uuid.NewV7())
	insertQuery := regexp.QuoteMeta(
		`INSERT INTO user_roles (user_id, role_id, group_id) VALUES (?, ?, ?)`,
	)

	t.Run("Success_AssignUnscopedRole", func(t *testing.T) {
		repo, mock := newMySQLMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(binaryID(t, userID), binaryID(t, roleID), nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.AssignRole(ctx, userID, roleID, nil)

		require.NoError(t, err)
	})

	t.Run("Success_ReassignIsNoop", func(t *testing.T) {
		repo, mock := newMySQLMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(binaryID(t, userID), binaryID(t, roleID), binaryID(t, groupID)).
			WillReturnError(&mysql.MySQLError{
				Number:  1062,
				Message: "Duplicate entry 'x' for key 'user_roles.user_roles_user_id_role_id_group_id_key'",
			})

		err := repo.AssignRole(ctx, userID, roleID, &groupID)

		require.NoError(t, err)
	})
}
