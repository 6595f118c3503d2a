package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/helperhq/helper/internal/errors"
	"github.com/helperhq/helper/internal/helpitem/domain"
)

func newMockDB(t *testing.T) (*PostgreSQLHelpItemRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgreSQLHelpItemRepository(db), mock
}

func testHelpItem() *domain.HelpItem {
	return &domain.HelpItem{
		ID:        uuid.Must(uuid.NewV7()),
		Title:     "Groceries run",
		HelpType:  domain.HelpTypeTime,
		GroupID:   uuid.Must(uuid.NewV7()),
		CreatorID: uuid.Must(uuid.NewV7()),
		Meta:      map[string]any{},
		CreatedAt: time.Now().UTC(),
	}
}

func helpItemRows(item *domain.HelpItem) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "help_type", "group_id", "creator_id",
		"end_at", "done", "meta", "image", "created_at",
	}).AddRow(
		item.ID, item.Title, item.Description, string(item.HelpType), item.GroupID,
		item.CreatorID, item.EndAt, item.Done, []byte(`{}`), item.Image, item.CreatedAt,
	)
}

func TestPostgreSQLHelpItemRepository_Create(t *testing.T) {
	ctx := context.Background()
	item := testHelpItem()
	insertQuery := regexp.QuoteMeta(`INSERT INTO help_items`)

	t.Run("Success_CreateHelpItem", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(item.ID, item.Title, nil, item.HelpType, item.GroupID, item.CreatorID,
				nil, false, []byte(`{}`), nil, item.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, item)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLHelpItemRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	selectQuery := `SELECT help_items\.id, .*FROM help_items WHERE id = \$1`

	t.Run("Success_GetHelpItem", func(t *testing.T) {
		repo, mock := newMockDB(t)
		item := testHelpItem()
		mock.ExpectQuery(selectQuery).WithArgs(item.ID).WillReturnRows(helpItemRows(item))

		got, err := repo.GetByID(ctx, item.ID)

		require.NoError(t, err)
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, domain.HelpTypeTime, got.HelpType)
	})

	t.Run("Error_HelpItemNotFound", func(t *testing.T) {
		repo, mock := newMockDB(t)
		missing := uuid.Must(uuid.NewV7())
		mock.ExpectQuery(selectQuery).
			WithArgs(missing).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		got, err := repo.GetByID(ctx, missing)

		require.Error(t, err)
		assert.Nil(t, got)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestPostgreSQLHelpItemRepository_AddHelper(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())
	insertQuery := regexp.QuoteMeta(`INSERT INTO helpers (help_item_id, user_id) VALUES ($1, $2)`)

	t.Run("Success_AddHelper", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(itemID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		noop, err := repo.AddHelper(ctx, itemID, userID)

		require.NoError(t, err)
		assert.False(t, noop)
	})

	t.Run("Success_RevolunteerIsNoop", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(insertQuery).
			WithArgs(itemID, userID).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "helpers_user_id_help_item_id_key"})

		noop, err := repo.AddHelper(ctx, itemID, userID)

		require.NoError(t, err)
		assert.True(t, noop)
	})
}

func TestPostgreSQLHelpItemRepository_ListHelpers(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.Must(uuid.NewV7())
	selectQuery := `SELECT u\.id, u\.email, u\.meta.*FROM helpers h.*JOIN users u ON u\.id = h\.user_id.*WHERE h\.help_item_id = \$1`

	t.Run("Success_ListHelpers", func(t *testing.T) {
		repo, mock := newMockDB(t)
		helperID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery(selectQuery).
			WithArgs(itemID).
			WillReturnRows(
				sqlmock.NewRows([]string{"id", "email", "meta"}).
					AddRow(helperID, "bob@example.com", []byte(`{}`)),
			)

		helpers, err := repo.ListHelpers(ctx, itemID)

		require.NoError(t, err)
		require.Len(t, helpers, 1)
		assert.Equal(t, helperID, helpers[0].ID)
		assert.Equal(t, "bob@example.com", helpers[0].Email)
	})
}

func TestPostgreSQLHelpItemRepository_ListForHelper(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success_WithoutAfter", func(t *testing.T) {
		repo, mock := newMockDB(t)
		item := testHelpItem()
		mock.ExpectQuery(`WHERE h\.user_id = \$1 AND hi\.done = \$2.*ORDER BY hi\.created_at DESC LIMIT \$3`).
			WithArgs(userID, false, 10).
			WillReturnRows(helpItemRows(item))

		items, err := repo.ListForHelper(ctx, userID, domain.ListFilter{Limit: 10})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, item.ID, items[0].ID)
	})

	t.Run("Success_WithAfterKeepsOpenEndedItems", func(t *testing.T) {
		repo, mock := newMockDB(t)
		after := time.Now().UTC()
		mock.ExpectQuery(`AND \(hi\.end_at > \$3 OR hi\.end_at IS NULL\).*LIMIT \$4`).
			WithArgs(userID, true, after, 5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		items, err := repo.ListForHelper(ctx, userID, domain.ListFilter{
			Done:  true,
			After: &after,
			Limit: 5,
		})

		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestPostgreSQLHelpItemRepository_ListByCreator(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success_ListRequests", func(t *testing.T) {
		repo, mock := newMockDB(t)
		item := testHelpItem()
		mock.ExpectQuery(`FROM help_items.*WHERE creator_id = \$1 AND done = \$2.*LIMIT \$3`).
			WithArgs(userID, false, 10).
			WillReturnRows(helpItemRows(item))

		items, err := repo.ListByCreator(ctx, userID, domain.ListFilter{Limit: 10})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, item.Title, items[0].Title)
	})
}

func TestPostgreSQLHelpItemRepository_Delete(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.Must(uuid.NewV7())
	deleteQuery := regexp.QuoteMeta(`DELETE FROM help_items WHERE id = $1`)

	t.Run("Success_DeleteMissingItem", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(deleteQuery).
			WithArgs(itemID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, itemID)

		require.NoError(t, err)
	})
}
