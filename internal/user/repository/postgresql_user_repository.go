// Package repository provides persistence implementations for users and
// their group and help item relations.
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
	groupDomain "github.com/helperhq/helper/internal/group/domain"
	"github.com/helperhq/helper/internal/user/domain"
)

// emailConflicts surfaces a duplicate email as a client-facing conflict.
// The policy is built per call because the message names the email.
func emailConflicts(email string) database.ConflictPolicy {
	return database.ConflictPolicy{
		Surface: map[string]error{
			"users_email_key": apperrors.Conflict(fmt.Sprintf(
				"The email %q already has an account. Please change your query or try to log in instead.",
				email,
			)),
		},
	}
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

// PostgreSQLUserRepository implements user persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQL user repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a user. A duplicate email surfaces as a conflict.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, p.db)

	meta, err := marshalMeta(user.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user meta")
	}

	query := `INSERT INTO users (id, email, password, referral_email, meta, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(ctx, query,
		user.ID, user.Email, user.Password, user.ReferralEmail, meta, user.CreatedAt, user.UpdatedAt)
	if _, err = emailConflicts(user.Email).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

const userColumns = `id, email, password, referral_email, meta, created_at, updated_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var meta []byte
	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.ReferralEmail,
		&meta, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Meta, err = unmarshalMeta(meta)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by id.
func (p *PostgreSQLUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ResourceNotFound("User", id.String())
		}
		return nil, apperrors.Wrap(err, "failed to get user by id")
	}
	return user, nil
}

// GetByEmail retrieves a user by email.
func (p *PostgreSQLUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

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
func (p *PostgreSQLUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT 1 FROM users WHERE id = $1`

	var one int
	err := querier.QueryRowContext(ctx, query, id).Scan(&one)
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
func (p *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, p.db)

	meta, err := marshalMeta(user.Meta)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user meta")
	}

	query := `UPDATE users SET email = $1, password = $2, meta = $3, updated_at = $4 WHERE id = $5`

	_, err = querier.ExecContext(ctx, query, user.Email, user.Password, meta, user.UpdatedAt, user.ID)
	if _, err = emailConflicts(user.Email).Resolve(err); err != nil {
		return apperrors.Wrap(err, "failed to update user")
	}
	return nil
}

// IsMemberOf reports whether the user belongs to the group.
func (p *PostgreSQLUserRepository) IsMemberOf(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT 1 FROM user_groups WHERE user_id = $1 AND group_id = $2`

	var one int
	err := querier.QueryRowContext(ctx, query, userID, groupID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.Wrap(err, "failed to check group membership")
	}
	return true, nil
}

// ListGroups returns every group the user is a member of.
func (p *PostgreSQLUserRepository) ListGroups(
	ctx context.Context,
	userID uuid.UUID,
) ([]*groupDomain.Group, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT g.id, g.slug, g.name, g.description, g.meta, g.created_at
			  FROM user_groups ug
			  JOIN groups g ON g.id = ug.group_id
			  WHERE ug.user_id = $1`

	rows, err := querier.QueryContext(ctx, query, userID)
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
