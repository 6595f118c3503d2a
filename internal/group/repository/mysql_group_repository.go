package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/helperhq/helper/internal/database"
	apperrors "github.com/helperhq/helper/internal/errors"
	"github.com/helperhq/helper/internal/group/domain"
)

// MySQLGroupRepository implements group persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLGroupRepository struct {
	db *sql.DB
}

// NewMySQLGroupRepository creates a new MySQL group repository.
func NewMySQLGroupRepository(db *sql.DB) *MySQLGroupRepository {
	return &MySQLGroupRepository{db: db}
}

// Create inserts a group. A duplicate slug surfaces as a conflict.
func (m *MySQLGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, m.db)

	meta, err := marshalGroupMeta(group.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group meta")
	}

	id, err := group.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group id")
	}

	query := `INSERT INTO groups (id, slug, name, description, meta, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		id, group.Slug, group.Name, group.Description, meta, group.CreatedAt)
	if _, err = slugConflicts(group.Slug).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to create group")
	}
	return nil
}

// GetByID retrieves a group by id.
func (m *MySQLGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal group id")
	}

	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = ?`

	group, err := scanGroup(querier.QueryRowContext(ctx, query, binID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("Group", id.String())
		}
		return nil, apperrors.Wrap(err, "failed to get group by id")
	}
	return group, nil
}

// GetBySlug retrieves a group by its unique slug.
func (m *MySQLGroupRepository) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + groupColumns + ` FROM groups WHERE slug = ?`

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
func (m *MySQLGroupRepository) Update(ctx context.Context, group *domain.Group) error {
	querier := database.GetTx(ctx, m.db)

	meta, err := marshalGroupMeta(group.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group meta")
	}

	id, err := group.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group id")
	}

	query := `UPDATE groups SET slug = ?, name = ?, description = ?, meta = ? WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, group.Slug, group.Name, group.Description, meta, id)
	if _, err = slugConflicts(group.Slug).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to update group")
	}
	return nil
}

// Delete removes a group. Deleting a missing group succeeds.
func (m *MySQLGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group id")
	}

	query := `DELETE FROM groups WHERE id = ?`

	if _, err := querier.ExecContext(ctx, query, binID); err != nil {
		return apperrors.Wrap(err, "failed to delete group")
	}
	return nil
}

// ListMembers returns the member projection of every user in the group.
func (m *MySQLGroupRepository) ListMembers(
	ctx context.Context,
	groupID uuid.UUID,
) ([]*domain.Member, error) {
	querier := database.GetTx(ctx, m.db)

	gid, err := groupID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal group id")
	}

	query := `SELECT u.id, u.email, u.meta
			  FROM user_groups ug
			  JOIN users u ON u.id = ug.user_id
			  WHERE ug.group_id = ?`

	rows, err := querier.QueryContext(ctx, query, gid)
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
func (m *MySQLGroupRepository) AddMember(
	ctx context.Context,
	groupID, userID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	gid, err := groupID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal group id")
	}
	uid, err := userID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO user_groups (group_id, user_id) VALUES (?, ?)`

	_, err = querier.ExecContext(ctx, query, gid, uid)
	noop, err := memberConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to add group member")
	}
	return noop, nil
}

// RemoveMember deletes a membership row. Removing a non-member succeeds.
func (m *MySQLGroupRepository) RemoveMember(
	ctx context.Context,
	groupID, userID uuid.UUID,
) error {
	querier := database.GetTx(ctx, m.db)

	gid, err := groupID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal group id")
	}
	uid, err := userID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `DELETE FROM user_groups WHERE group_id = ? AND user_id = ?`

	if _, err := querier.ExecContext(ctx, query, gid, uid); err != nil {
		return apperrors.Wrap(err, "failed to remove group member")
	}
	return nil
}

// CreateJoinRequest records a sponsored request to join a group. It reports
// noop when the same user already has a pending request for the group.
func (m *MySQLGroupRepository) CreateJoinRequest(
	ctx context.Context,
	request *domain.JoinRequest,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	gid, err := request.GroupID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal group id")
	}
	uid, err := request.UserID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal user id")
	}
	sid, err := request.SponsorID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal sponsor id")
	}

	query := `INSERT INTO group_join_requests (group_id, user_id, sponsor_id) VALUES (?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, gid, uid, sid)
	noop, err := joinRequestConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to create join request")
	}
	return noop, nil
}

// CreateDemoRequest records interest in starting a new group. It reports noop
// when the email already asked.
func (m *MySQLGroupRepository) CreateDemoRequest(ctx context.Context, email string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO new_group_requests (email) VALUES (?)`

	_, err := querier.ExecContext(ctx, query, email)
	noop, err := demoRequestConflicts.Resolve(err)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to create demo request")
	}
	return noop, nil
}
