// Package postgres opens the shared relational connection pool.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens a pooled connection to Postgres and verifies it with a ping.
func Connect(ctx context.Context, url string, opts Options) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("empty postgres URL")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the tables and indexes used by the profile flow. All
// statements are idempotent so startup can run them unconditionally.
//
// The partial unique index on web3_wallets backs the exactly-one-primary
// invariant at the store level; the wallet repository additionally runs its
// clear-then-set sequence inside one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			uid                          TEXT PRIMARY KEY,
			email                        TEXT NOT NULL,
			name                         TEXT NOT NULL DEFAULT '',
			bio                          TEXT NOT NULL DEFAULT '',
			avatar_url                   TEXT,
			dashboard_layout_preferences JSONB,
			created_at                   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at                   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS auth_providers_linked (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(uid),
			provider_name    TEXT NOT NULL,
			provider_user_id TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, provider_name)
		)`,
		`CREATE TABLE IF NOT EXISTS web3_wallets (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(uid),
			address    TEXT NOT NULL,
			chain_id   TEXT NOT NULL,
			is_primary BOOLEAN NOT NULL DEFAULT false,
			linked_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, address, chain_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS web3_wallets_one_primary
			ON web3_wallets (user_id) WHERE is_primary`,
		`CREATE TABLE IF NOT EXISTS user_points (
			user_id    TEXT PRIMARY KEY REFERENCES users(uid),
			points     BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(uid),
			course_id  TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, course_id)
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(uid),
			title      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(uid),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			earned_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
