package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/helperhq/helper/internal/errors"
)

func newMySQLMockDB(t *testing.T) (*MySQLGroupRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLGroupRepository(db), mock
}

func binaryID(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	bin, err := id.MarshalBinary()
	require.NoError(t, err)
	return bin
}

func TestMySQLGroupRepository_Create(t *testing.T) {
	ctx := context.Background()
	insertQuery := regexp.QuoteMeta(`INSERT INTO groups (id, slug, name, description, meta, created_at)`)

	t.Run("Error_DuplicateSlugSurfacesConflict", func(t *testing.T) {
		repo, mock := newMySQLMockDB(t)
		group := testGroup()
		mock.ExpectExec(insertQuery).
			WithArgs(binaryID(t, group.ID), group.Slug, group.Name, nil,
				[]byte(`{"email":"hello@elm.example"}`), group.CreatedAt).
			WillReturnError(&mysql.MySQLError{
				Number:  1062,
				Message: "Duplicate entry 'elm-street' for key 'groups.groups_slug_key'",
			})

		err := repo.Create(ctx, group)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
		assert.Contains(t, apperrors.ClientMessage(err), "already in use")
	})
}

func TestMySQLGroupRepository_AddMember(t *testing.T) {
	ctx := context.Background()
	groupID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	insertQuery := regexp.QuoteMeta(`INSERT INTO user_groups (group_id, user_id) VALUES (?, ?)`)

	t.Run("Success_ReaddIsNoop", func(t *testing.T) {
		repo, mock := newMySQLMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(binaryID(t, groupID), binaryID(t, userID)).
			WillReturnError(&mysql.MySQLError{
				Number:  1062,
				Message: "Duplicate entry 'x' for key 'user_groups.user_groups_group_id_user_id_key'",
			})

		noop, err := repo.AddMember(ctx, groupID, userID)

		require.NoError(t, err)
		assert.True(t, noop)
	})
}
