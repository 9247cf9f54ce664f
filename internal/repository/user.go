package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/creatorhub/creator-hub-api/internal/model"
)

// UserRepository defines the interface for profile row operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, uid string) (*model.User, error)
	UpdateUser(ctx context.Context, uid string, params UpdateUserParams) (*model.User, error)
	UpdateAvatar(ctx context.Context, uid string, avatarURL *string) error
}

// UpdateUserParams defines the optional parameters for a partial profile
// update. Only non-nil fields are written; updated_at is always bumped.
type UpdateUserParams struct {
	Name            *string
	Bio             *string
	DashboardLayout *json.RawMessage
}

type userPostgresRepository struct {
	db *sql.DB
}

// NewUserPostgresRepository creates a Postgres-backed UserRepository.
func NewUserPostgresRepository(db *sql.DB) UserRepository {
	return &userPostgresRepository{db: db}
}

func (r *userPostgresRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (uid, email, name, bio, avatar_url, dashboard_layout_preferences, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID,
		user.Email,
		user.Name,
		user.Bio,
		user.AvatarURL,
		nullableJSON(user.DashboardLayout),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userPostgresRepository) GetUser(ctx context.Context, uid string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT uid, email, name, bio, avatar_url, dashboard_layout_preferences, created_at, updated_at
		 FROM users WHERE uid = $1`,
		uid,
	)

	return scanUser(row)
}

func (r *userPostgresRepository) UpdateUser(
	ctx context.Context,
	uid string,
	params UpdateUserParams,
) (*model.User, error) {
	// Build the SET clause from the supplied fields only. Values are always
	// passed as positional parameters, never interpolated.
	set := make([]string, 0, 4)
	args := make([]any, 0, 5)

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		appendSet("name", *params.Name)
	}
	if params.Bio != nil {
		appendSet("bio", *params.Bio)
	}
	if params.DashboardLayout != nil {
		appendSet("dashboard_layout_preferences", nullableJSON(*params.DashboardLayout))
	}

	if len(set) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	appendSet("updated_at", time.Now())

	args = append(args, uid)
	query := fmt.Sprintf("UPDATE users SET %s WHERE uid = $%d", strings.Join(set, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if affected, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if affected == 0 {
		return nil, sql.ErrNoRows
	}

	return r.GetUser(ctx, uid)
}

func (r *userPostgresRepository) UpdateAvatar(ctx context.Context, uid string, avatarURL *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_url = $1, updated_at = $2 WHERE uid = $3`,
		avatarURL, time.Now(), uid,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u      model.User
		layout []byte
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Bio,
		&u.AvatarURL,
		&layout,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.DashboardLayout = layout

	return &u, nil
}

// nullableJSON maps an empty layout blob to SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
