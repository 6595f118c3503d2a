package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/helperhq/helper/internal/database"
	apperrors "github.com/helperhq/helper/internal/errors"
	groupDomain "github.com/helperhq/helper/internal/group/domain"
	"github.com/helperhq/helper/internal/user/domain"
)

// MySQLUserRepository implements user persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL user repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a user. A duplicate email surfaces as a conflict.
func (m *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	meta, err := marshalMeta(user.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user meta")
	}

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO users (id, email, password, referral_email, meta, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		id, user.Email, user.Password, user.ReferralEmail, meta, user.CreatedAt, user.UpdatedAt)
	if _, err = emailConflicts(user.Email).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// GetByID retrieves a user by id.
func (m *MySQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(querier.QueryRowContext(ctx, query, binID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("User", id.String())
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func (m *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	user, err := scanUser(querier.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("User", email)
		}
		return nil, apperrors.Wrap(err, "failed to get user by email")
	}
	return user, nil
}

// Exists reports whether a user with the given id exists.
func (m *MySQLUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	binID, err := id.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT 1 FROM users WHERE id = ?`

	var one int
	err = querier.QueryRowContext(ctx, query, binID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to check user existence")
	}
	return true, nil
}

// Update writes the mutable user columns. Changing the email to one that is
// already taken surfaces as a conflict.
func (m *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, m.db)

	meta, err := marshalMeta(user.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user meta")
	}

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users SET email = ?, password = ?, meta = ?, updated_at = ? WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, user.Email, user.Password, meta, user.UpdatedAt, id)
	if _, err = emailConflicts(user.Email).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to update user")
	}
	return nil
}

// IsMemberOf reports whether the user belongs to the group.
func (m *MySQLUserRepository) IsMemberOf(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	uid, err := userID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal user id")
	}
	gid, err := groupID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal group id")
	}

	query := `SELECT 1 FROM user_groups WHERE user_id = ? AND group_id = ?`

	var one int
	err = querier.QueryRowContext(ctx, query, uid, gid).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to check group membership")
	}
	return true, nil
}

// ListGroups returns every group the user is a member of.
func (m *MySQLUserRepository) ListGroups(
	ctx context.Context,
	userID uuid.UUID,
) ([]*groupDomain.Group, error) {
	querier := database.GetTx(ctx, m.db)

	uid, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT g.id, g.slug, g.name, g.description, g.meta, g.created_at
			  FROM user_groups ug
			  JOIN groups g ON g.id = ug.group_id
			  WHERE ug.user_id = ?`

	rows, err := querier.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list groups for user")
	}
	defer func() { _ = rows.Close() }()

	var groups []*groupDomain.Group
	for rows.Next() {
		group := &groupDomain.Group{}
		var meta []byte
		err := rows.Scan(&group.ID, &group.Slug, &group.Name, &group.Description, &meta, &group.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan group")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &group.Meta); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal group meta")
			}
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate groups")
	}
	return groups, nil
}
