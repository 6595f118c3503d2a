// Package repository provides persistence implementations for help items and
// helper assignments.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/helperhq/helper/internal/database"
	apperrors "github.com/helperhq/helper/internal/errors"
	"github.com/helperhq/helper/internal/helpitem/domain"
)

// helperConflicts resolves re-volunteering on the same item to a no-op.
var helperConflicts = database.ConflictPolicy{
	Swallow: []string{"helpers_user_id_help_item_id_key"},
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	return json.Marshal(meta)
}

func unmarshalMeta(raw []byte) (map[string]any, error) {
	meta := map[string]any{}
	if len(raw) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func helpItemColumns(alias string) string {
	return fmt.Sprintf(
		`%[1]s.id, %[1]s.title, %[1]s.description, %[1]s.help_type, %[1]s.group_id, %[1]s.creator_id,
		 %[1]s.end_at, %[1]s.done, %[1]s.meta, %[1]s.image, %[1]s.created_at`,
		alias,
	)
}

func scanHelpItem(row *sql.Row) (*domain.HelpItem, error) {
	item := &domain.HelpItem{}
	var meta []byte
	err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.HelpType, &item.GroupID,
		&item.CreatorID, &item.EndAt, &item.Done, &meta, &item.Image, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Meta, err = unmarshalMeta(meta)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func queryHelpItems(
	ctx context.Context,
	querier database.Querier,
	query string,
	args ...any,
) ([]*domain.HelpItem, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list help items")
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.HelpItem
	for rows.Next() {
		item := &domain.HelpItem{}
		var meta []byte
		err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.HelpType, &item.GroupID,
			&item.CreatorID, &item.EndAt, &item.Done, &meta, &item.Image, &item.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan help item")
		}
		item.Meta, err = unmarshalMeta(meta)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal help item meta")
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate help items")
	}
	return items, nil
}

// PostgreSQLHelpItemRepository implements help item persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLHelpItemRepository struct {
	db *sql.DB
}

// NewPostgreSQLHelpItemRepository creates a new PostgreSQL help item repository.
func NewPostgreSQLHelpItemRepository(db *sql.DB) *PostgreSQLHelpItemRepository {
	return &PostgreSQLHelpItemRepository{db: db}
}

// Create inserts a help item.
func (p *PostgreSQLHelpItemRepository) Create(ctx context.Context, item *domain.HelpItem) error {
	querier := database.GetTx(ctx, p.db)

	meta, err := marshalMeta(item.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item meta")
	}

	query := `INSERT INTO help_items
			  (id, title, description, help_type, group_id, creator_id, end_at, done, meta, image, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(ctx, query,
		item.ID, item.Title, item.Description, item.HelpType, item.GroupID, item.CreatorID,
		item.EndAt, item.Done, meta, item.Image, item.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create help item")
	}
	return nil
}

// GetByID retrieves a help item by id.
func (p *PostgreSQLHelpItemRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.HelpItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + helpItemColumns("help_items") + ` FROM help_items WHERE id = $1`

	item, err := scanHelpItem(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("HelpItem", id.String())
		}
		return nil, apperrors.Wrap(err, "failed to get help item by id")
	}
	return item, nil
}

// Update writes the mutable help item columns.
func (p *PostgreSQLHelpItemRepository) Update(ctx context.Context, item *domain.HelpItem) error {
	querier := database.GetTx(ctx, p.db)

	meta, err := marshalMeta(item.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal help item meta")
	}

	query := `UPDATE help_items
			  SET title = $1, description = $2, help_type = $3, end_at = $4, done = $5, meta = $6, image = $7
			  WHERE id = $8`

	_, err = querier.ExecContext(ctx, query,
		item.Title, item.Description, item.HelpType, item.EndAt, item.Done, meta, item.Image, item.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update help item")
	}
	return nil
}

// Delete removes a help item. Deleting a missing item succeeds.
func (p *PostgreSQLHelpItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM help_items WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return apperrors.Wrap(err, "failed to delete help item")
	}
	return nil
}

// AddHelper inserts a helper assignment. It reports noop when the user
// already volunteered; the insert is attempted unconditionally so concurrent
// volunteers race safely on the unique constraint.
func (p *PostgreSQLHelpItemRepository) AddHelper(
	ctx context.Context,
	itemID, userID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO helpers (help_item_id, user_id) VALUES ($1, $2)`

	_, err := querier.ExecContext(ctx, query, itemID, userID)
	noop, err := helperConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to add helper")
	}
	return noop, nil
}

// RemoveHelper deletes a helper assignment. Removing a non-helper succeeds.
func (p *PostgreSQLHelpItemRepository) RemoveHelper(
	ctx context.Context,
	itemID, userID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM helpers WHERE help_item_id = $1 AND user_id = $2`

	if _, err := querier.ExecContext(ctx, query, itemID, userID); err != nil {
		return apperrors.Wrap(err, "failed to remove helper")
	}
	return nil
}

// ListHelpers returns the public projection of every user who volunteered on
// the item.
func (p *PostgreSQLHelpItemRepository) ListHelpers(
	ctx context.Context,
	itemID uuid.UUID,
) ([]*domain.Helper, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT u.id, u.email, u.meta
			  FROM helpers h
			  JOIN users u ON u.id = h.user_id
			  WHERE h.help_item_id = $1`

	rows, err := querier.QueryContext(ctx, query, itemID)
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
func (p *PostgreSQLHelpItemRepository) ListByGroup(
	ctx context.Context,
	groupID uuid.UUID,
) ([]*domain.HelpItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + helpItemColumns("help_items") + ` FROM help_items WHERE group_id = $1`

	return queryHelpItems(ctx, querier, query, groupID)
}

// ListForHelper returns the help items the user volunteered on, filtered by
// completion and end date, newest first.
func (p *PostgreSQLHelpItemRepository) ListForHelper(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.ListFilter,
) ([]*domain.HelpItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + helpItemColumns("hi") + `
			  FROM helpers h
			  JOIN help_items hi ON hi.id = h.help_item_id
			  WHERE h.user_id = $1 AND hi.done = $2
			  ORDER BY hi.created_at DESC LIMIT $3`
	args := []any{userID, filter.Done, filter.Limit}

	if filter.After != nil {
		query = `SELECT ` + helpItemColumns("hi") + `
			  FROM helpers h
			  JOIN help_items hi ON hi.id = h.help_item_id
			  WHERE h.user_id = $1 AND hi.done = $2 AND (hi.end_at > $3 OR hi.end_at IS NULL)
			  ORDER BY hi.created_at DESC LIMIT $4`
		args = []any{userID, filter.Done, *filter.After, filter.Limit}
	}

	return queryHelpItems(ctx, querier, query, args...)
}

// ListByCreator returns the help items the user created, filtered by
// completion and end date, newest first.
func (p *PostgreSQLHelpItemRepository) ListByCreator(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.ListFilter,
) ([]*domain.HelpItem, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + helpItemColumns("help_items") + `
			  FROM help_items
			  WHERE creator_id = $1 AND done = $2
			  ORDER BY created_at DESC LIMIT $3`
	args := []any{userID, filter.Done, filter.Limit}

	if filter.After != nil {
		query = `SELECT ` + helpItemColumns("help_items") + `
			  FROM help_items
			  WHERE creator_id = $1 AND done = $2 AND (end_at > $3 OR end_at IS NULL)
			  ORDER BY created_at DESC LIMIT $4`
		args = []any{userID, filter.Done, *filter.After, filter.Limit}
	}

	return queryHelpItems(ctx, querier, query, args...)
}
