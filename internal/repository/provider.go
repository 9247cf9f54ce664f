package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/creatorhub/creator-hub-api/internal/model"
)

// ProviderRepository defines the interface for linked-login-provider rows.
// Rows are insert-if-absent and never updated.
type ProviderRepository interface {
	CreateProvider(ctx context.Context, link *model.LinkedProvider) (*model.LinkedProvider, error)
	GetByUserAndProvider(ctx context.Context, userID, provider string) (*model.LinkedProvider, error)
	GetByProviderUser(ctx context.Context, provider, providerUserID string) (*model.LinkedProvider, error)
	ListByUserID(ctx context.Context, userID string) ([]model.LinkedProvider, error)
}

type providerPostgresRepository struct {
	db *sql.DB
}

// NewProviderPostgresRepository creates a Postgres-backed ProviderRepository.
func NewProviderPostgresRepository(db *sql.DB) ProviderRepository {
	return &providerPostgresRepository{db: db}
}

func (r *providerPostgresRepository) CreateProvider(
	ctx context.Context,
	link *model.LinkedProvider,
) (*model.LinkedProvider, error) {
	link.ID = uuid.NewString()
	link.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_providers_linked (id, user_id, provider_name, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		link.ID,
		link.UserID,
		link.Provider,
		link.ProviderUserID,
		link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return link, nil
}

func (r *providerPostgresRepository) GetByUserAndProvider(
	ctx context.Context,
	userID, provider string,
) (*model.LinkedProvider, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider_name, provider_user_id, created_at
		 FROM auth_providers_linked WHERE user_id = $1 AND provider_name = $2`,
		userID, provider,
	)

	return scanProvider(row)
}

func (r *providerPostgresRepository) GetByProviderUser(
	ctx context.Context,
	provider, providerUserID string,
) (*model.LinkedProvider, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider_name, provider_user_id, created_at
		 FROM auth_providers_linked WHERE provider_name = $1 AND provider_user_id = $2`,
		provider, providerUserID,
	)

	return scanProvider(row)
}

func (r *providerPostgresRepository) ListByUserID(
	ctx context.Context,
	userID string,
) ([]model.LinkedProvider, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, provider_name, provider_user_id, created_at
		 FROM auth_providers_linked WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []model.LinkedProvider{}
	for rows.Next() {
		var link model.LinkedProvider
		if err := rows.Scan(&link.ID, &link.UserID, &link.Provider, &link.ProviderUserID, &link.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func scanProvider(row *sql.Row) (*model.LinkedProvider, error) {
	var link model.LinkedProvider
	if err := row.Scan(&link.ID, &link.UserID, &link.Provider, &link.ProviderUserID, &link.CreatedAt); err != nil {
		return nil, err
	}

	return &link, nil
}
