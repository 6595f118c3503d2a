// Package repository provides persistence implementations for groups,
// memberships and the request tables that feed them.
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
	"github.com/helperhq/helper/internal/group/domain"
)

// slugConflicts surfaces a duplicate slug as a client-facing conflict.
// The policy is built per call because the message names the slug.
func slugConflicts(slug string) database.ConflictPolicy {
	return database.ConflictPolicy{
		Surface: map[string]error{
			"groups_slug_key": apperrors.Conflict(fmt.Sprintf(
				"The slug %q is already in use. Please modify your request before trying again.",
				slug,
			)),
		},
	}
}

// memberConflicts resolves re-adding an existing member to a no-op.
var memberConflicts = database.ConflictPolicy{
	Swallow: []string{"user_groups_group_id_user_id_key"},
}

// joinRequestConflicts resolves a repeated join request to a no-op.
var joinRequestConflicts = database.ConflictPolicy{
	Swallow: []string{"group_join_requests_user_id_group_id_key"},
}

// demoRequestConflicts resolves a repeated demo request to a no-op.
var demoRequestConflicts = database.ConflictPolicy{
	Swallow: []string{"new_group_requests_email_key"},
}

func marshalGroupMeta(meta domain.GroupMeta) ([]byte, error) {
	return json.Marshal(meta)
}

func scanGroup(row *sql.Row) (*domain.Group, error) {
	group := &domain.Group{}
	var meta []byte
	err := row.Scan(&group.ID, &group.Slug, &group.Name, &group.Description, &meta, &group.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &group.Meta); err != nil {
			return nil, err
		}
	}
	return group, nil
}

// PostgreSQLGroupRepository implements group persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLGroupRepository struct {
	db *sql.DB
}

// NewPostgreSQLGroupRepository creates a new PostgreSQL group repository.
func NewPostgreSQLGroupRepository(db *sql.DB) *PostgreSQLGroupRepository {
	return &PostgreSQLGroupRepository{db: db}
}

// Create inserts a group. A duplicate slug surfaces as a conflict.
func (p *PostgreSQLGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, p.db)

	meta, err := marshalGroupMeta(group.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group meta")
	}

	query := `INSERT INTO groups (id, slug, name, description, meta, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = querier.ExecContext(ctx, query,
		group.ID, group.Slug, group.Name, group.Description, meta, group.CreatedAt)
	if _, err = slugConflicts(group.Slug).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to create group")
	}
	return nil
}

const groupColumns = `id, slug, name, description, meta, created_at`

// GetByID retrieves a group by id.
func (p *PostgreSQLGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

	group, err := scanGroup(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("Group", id.String())
		}
		return nil, apperrors.Wrap(err, "failed to get group by id")
	}
	return group, nil
}

// GetBySlug retrieves a group by its unique slug.
func (p *PostgreSQLGroupRepository) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + groupColumns + ` FROM groups WHERE slug = $1`

	group, err := scanGroup(querier.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("Group", slug)
		}
		return nil, apperrors.Wrap(err, "failed to get group by slug")
	}
	return group, nil
}

// Update writes the mutable group columns. Changing the slug to one that is
// already taken surfaces as a conflict.
func (p *PostgreSQLGroupRepository) Update(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, p.db)

	meta, err := marshalGroupMeta(group.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group meta")
	}

	query := `UPDATE groups SET slug = $1, name = $2, description = $3, meta = $4 WHERE id = $5`

	_, err = querier.ExecContext(ctx, query, group.Slug, group.Name, group.Description, meta, group.ID)
	if _, err = slugConflicts(group.Slug).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to update group")
	}
	return nil
}

// Delete removes a group. Deleting a missing group succeeds.
func (p *PostgreSQLGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM groups WHERE id = $1`

	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return apperrors.Wrap(err, "failed to delete group")
	}
	return nil
}

// ListMembers returns the member projection of every user in the group.
func (p *PostgreSQLGroupRepository) ListMembers(
	ctx context.Context,
	groupID uuid.UUID,
) ([]*domain.Member, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT u.id, u.email, u.meta
			  FROM user_groups ug
			  JOIN users u ON u.id = ug.user_id
			  WHERE ug.group_id = $1`

	rows, err := querier.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list group members")
	}
	defer func() { _ = rows.Close() }()

	var members []*domain.Member
	for rows.Next() {
		member := &domain.Member{Meta: map[string]any{}}
		var meta []byte
		if err := rows.Scan(&member.ID, &member.Email, &meta); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan group member")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &member.Meta); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal member meta")
			}
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate group members")
	}
	return members, nil
}

// AddMember inserts a membership row. It reports noop when the user was
// already a member; the insert is attempted unconditionally so concurrent
// adds race safely on the unique constraint.
func (p *PostgreSQLGroupRepository) AddMember(
	ctx context.Context,
	groupID, userID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO user_groups (group_id, user_id) VALUES ($1, $2)`

	_, err := querier.ExecContext(ctx, query, groupID, userID)
	noop, err := memberConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to add group member")
	}
	return noop, nil
}

// RemoveMember deletes a membership row. Removing a non-member succeeds.
func (p *PostgreSQLGroupRepository) RemoveMember(
	ctx context.Context,
	groupID, userID uuid.UUID,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM user_groups WHERE group_id = $1 AND user_id = $2`

	if _, err := querier.ExecContext(ctx, query, groupID, userID); err != nil {
		return apperrors.Wrap(err, "failed to remove group member")
	}
	return nil
}

// CreateJoinRequest records a sponsored request to join a group. It reports
// noop when the same user already has a pending request for the group.
func (p *PostgreSQLGroupRepository) CreateJoinRequest(
	ctx context.Context,
	request *domain.JoinRequest,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO group_join_requests (group_id, user_id, sponsor_id) VALUES ($1, $2, $3)`

	_, err := querier.ExecContext(ctx, query, request.GroupID, request.UserID, request.SponsorID)
	noop, err := joinRequestConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to create join request")
	}
	return noop, nil
}

// CreateDemoRequest records interest in starting a new group. It reports noop
// when the email already asked.
func (p *PostgreSQLGroupRepository) CreateDemoRequest(ctx context.Context, email string) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO new_group_requests (email) VALUES ($1)`

	_, err := querier.ExecContext(ctx, query, email)
	noop, err := demoRequestConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to create demo request")
	}
	return noop, nil
}
