package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/helperhq/helper/internal/database"
	apperrors "github.com/helperhq/helper/internal/errors"
	"github.com/helperhq/helper/internal/helpitem/domain"
)

// MySQLHelpItemRepository implements help item persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLHelpItemRepository struct {
	db *sql.DB
}

// NewMySQLHelpItemRepository creates a new MySQL help item repository.
func NewMySQLHelpItemRepository(db *sql.DB) *MySQLHelpItemRepository {
	return &MySQLHelpItemRepository{db: db}
}

// Create inserts a help item.
func (m *MySQLHelpItemRepository) Create(ctx context.Context, item *domain.HelpItem) error {
	querier := database.GetTx(ctx, m.db)

	meta, err := marshalMeta(item.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item meta")
	}

	id, err := item.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item id")
	}
	gid, err := item.GroupID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group id")
	}
	cid, err := item.CreatorID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal creator id")
	}

	query := `INSERT INTO help_items
			  (id, title, description, help_type, group_id, creator_id, end_at, done, meta, image, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		id, item.Title, item.Description, item.HelpType, gid, cid,
		item.EndAt, item.Done, meta, item.Image, item.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create help item")
	}
	return nil
}

// GetByID retrieves a help item by id.
func (m *MySQLHelpItemRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.HelpItem, error) {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal help item id")
	}

	query := `SELECT ` + helpItemColumns("help_items") + ` FROM help_items WHERE id = ?`

	item, err := scanHelpItem(querier.QueryRowContext(ctx, query, binID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("HelpItem", id.String())
		}
		return nil, apperrors.Wrap(err, "failed to get help item by id")
	}
	return item, nil
}

// Update writes the mutable help item columns.
func (m *MySQLHelpItemRepository) Update(ctx context.Context, item *domain.HelpItem) error {
	querier := database.GetTx(ctx, m.db)

	meta, err := marshalMeta(item.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item meta")
	}

	id, err := item.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item id")
	}

	query := `UPDATE help_items
			  SET title = ?, description = ?, help_type = ?, end_at = ?, done = ?, meta = ?, image = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(ctx, query,
		item.Title, item.Description, item.HelpType, item.EndAt, item.Done, meta, item.Image, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update help item")
	}
	return nil
}

// Delete removes a help item. Deleting a missing item succeeds.
func (m *MySQLHelpItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item id")
	}

	query := `DELETE FROM help_items WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, binID); err != nil {
		return apperrors.Wrap(err, "failed to delete help item")
	}
	return nil
}

// AddHelper inserts a helper assignment. It reports noop when the user
// already volunteered; the insert is attempted unconditionally so concurrent
// volunteers race safely on the unique constraint.
func (m *MySQLHelpItemRepository) AddHelper(
	ctx context.Context,
	itemID, userID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	iid, err := itemID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal help item id")
	}
	uid, err := userID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO helpers (help_item_id, user_id) VALUES (?, ?)`

	_, err = querier.ExecContext(ctx, query, iid, uid)
	noop, err := helperConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to add helper")
	}
	return noop, nil
}

// RemoveHelper deletes a helper assignment. Removing a non-helper succeeds.
func (m *MySQLHelpItemRepository) RemoveHelper(
	ctx context.Context,
	itemID, userID uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	iid, err := itemID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item id")
	}
	uid, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `DELETE FROM helpers WHERE help_item_id = ? AND user_id = ?`

	if _, err := querier.ExecContext(ctx, query, iid, uid); err != nil {
		return apperrors.Wrap(err, "failed to remove helper")
	}
	return nil
}

// ListHelpers returns the public projection of every user who volunteered on
// the item.
func (m *MySQLHelpItemRepository) ListHelpers(
	ctx context.Context,
	itemID uuid.UUID,
) ([]*domain.Helper, error) {
	querier := database.GetTx(ctx, m.db)

	iid, err := itemID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal help item id")
	}

	query := `SELECT u.id, u.email, u.meta
			  FROM helpers h
			  JOIN users u ON u.id = h.user_id
			  WHERE h.help_item_id = ?`

	rows, err := querier.QueryContext(ctx, query, iid)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list helpers")
	}
	defer func() { _ = rows.Close() }()

	var helpers []*domain.Helper
	for rows.Next() {
		helper := &domain.Helper{Meta: map[string]any{}}
		var meta []byte
		if err := rows.Scan(&helper.ID, &helper.Email, &meta); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan helper")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &helper.Meta); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal helper meta")
			}
		}
		helpers = append(helpers, helper)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate helpers")
	}
	return helpers, nil
}

// ListByGroup returns every help item posted in the group.
func (m *MySQLHelpItemRepository) ListByGroup(
	ctx context.Context,
	groupID uuid.UUID,
) ([]*domain.HelpItem, error) {
	querier := database.GetTx(ctx, m.db)

	gid, err := groupID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal group id")
	}

	query := `SELECT ` + helpItemColumns("help_items") + ` FROM help_items WHERE group_id = ?`

	return queryHelpItems(ctx, querier, query, gid)
}

// ListForHelper returns the help items the user volunteered on, filtered by
// completion and end date, newest first.
func (m *MySQLHelpItemRepository) ListForHelper(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.ListFilter,
) ([]*domain.HelpItem, error) {
	querier := database.GetTx(ctx, m.db)

	uid, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT ` + helpItemColumns("hi") + `
			  FROM helpers h
			  JOIN help_items hi ON hi.id = h.help_item_id
			  WHERE h.user_id = ? AND hi.done = ?
			  ORDER BY hi.created_at DESC LIMIT ?`
	args := []any{uid, filter.Done, filter.Limit}

	if filter.After != nil {
		query = `SELECT ` + helpItemColumns("hi") + `
			  FROM helpers h
			  JOIN help_items hi ON hi.id = h.help_item_id
			  WHERE h.user_id = ? AND hi.done = ? AND (hi.end_at > ? OR hi.end_at IS NULL)
			  ORDER BY hi.created_at DESC LIMIT ?`
		args = []any{uid, filter.Done, *filter.After, filter.Limit}
	}

	return queryHelpItems(ctx, querier, query, args...)
}

// ListByCreator returns the help items the user created, filtered by
// completion and end date, newest first.
func (m *MySQLHelpItemRepository) ListByCreator(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.ListFilter,
) ([]*domain.HelpItem, error) {
	querier := database.GetTx(ctx, m.db)

	uid, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT ` + helpItemColumns("help_items") + `
			  FROM help_items
			  WHERE creator_id = ? AND done = ?
			  ORDER BY created_at DESC LIMIT ?`
	args := []any{uid, filter.Done, filter.Limit}

	if filter.After != nil {
		query = `SELECT ` + helpItemColumns("help_items") + `
			  FROM help_items
			  WHERE creator_id = ? AND done = ? AND (end_at > ? OR end_at IS NULL)
			  ORDER BY created_at DESC LIMIT ?`
		args = []any{uid, filter.Done, *filter.After, filter.Limit}
	}

	return queryHelpItems(ctx, querier, query, args...)
}
