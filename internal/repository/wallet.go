package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/creatorhub/creator-hub-api/internal/model"
)

// WalletRepository defines the interface for linked-wallet rows.
type WalletRepository interface {
	// LinkWallet inserts the (user, address, chain) wallet or, when the row
	// already exists, updates only the primary flag when one was supplied.
	// The returned bool reports whether a new row was created.
	LinkWallet(ctx context.Context, userID, address, chainID string, isPrimary *bool) (*model.LinkedWallet, bool, error)
	ListByUserID(ctx context.Context, userID string) ([]model.LinkedWallet, error)
}

type walletPostgresRepository struct {
	db *sql.DB
}

// NewWalletPostgresRepository creates a Postgres-backed WalletRepository.
func NewWalletPostgresRepository(db *sql.DB) WalletRepository {
	return &walletPostgresRepository{db: db}
}

// LinkWallet runs the whole link inside one transaction so the
// at-most-one-primary invariant cannot be observed violated between the
// clearing update and the insert/update that sets the new primary. The
// partial unique index on (user_id) WHERE is_primary backs it at the store
// level as well.
func (r *walletPostgresRepository) LinkWallet(
	ctx context.Context,
	userID, address, chainID string,
	isPrimary *bool,
) (*model.LinkedWallet, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var existing model.LinkedWallet
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, address, chain_id, is_primary, linked_at
		 FROM web3_wallets
		 WHERE user_id = $1 AND address = $2 AND chain_id = $3
		 FOR UPDATE`,
		userID, address, chainID,
	).Scan(&existing.ID, &existing.UserID, &existing.Address, &existing.ChainID, &existing.IsPrimary, &existing.LinkedAt)

	switch {
	case err == nil:
		// Existing wallet: update-only-if-primary-flag-supplied.
		if isPrimary == nil || *isPrimary == existing.IsPrimary {
			return &existing, false, tx.Commit()
		}
		if *isPrimary {
			if err := clearPrimary(ctx, tx, userID, existing.ID); err != nil {
				return nil, false, err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE web3_wallets SET is_primary = $1 WHERE id = $2`,
			*isPrimary, existing.ID,
		); err != nil {
			return nil, false, err
		}
		existing.IsPrimary = *isPrimary

		return &existing, false, tx.Commit()

	case err == sql.ErrNoRows:
		// New wallet: primary when asked for, or when it is the user's first.
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM web3_wallets WHERE user_id = $1`,
			userID,
		).Scan(&count); err != nil {
			return nil, false, err
		}

		primary := count == 0
		if isPrimary != nil {
			primary = *isPrimary
		}

		wallet := model.LinkedWallet{
			ID:        uuid.NewString(),
			UserID:    userID,
			Address:   address,
			ChainID:   chainID,
			IsPrimary: primary,
			LinkedAt:  time.Now(),
		}

		if primary {
			if err := clearPrimary(ctx, tx, userID, wallet.ID); err != nil {
				return nil, false, err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO web3_wallets (id, user_id, address, chain_id, is_primary, linked_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			wallet.ID, wallet.UserID, wallet.Address, wallet.ChainID, wallet.IsPrimary, wallet.LinkedAt,
		); err != nil {
			return nil, false, err
		}

		return &wallet, true, tx.Commit()

	default:
		return nil, false, err
	}
}

func clearPrimary(ctx context.Context, tx *sql.Tx, userID, keepID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE web3_wallets SET is_primary = false WHERE user_id = $1 AND id <> $2 AND is_primary`,
		userID, keepID,
	)
	return err
}

func (r *walletPostgresRepository) ListByUserID(
	ctx context.Context,
	userID string,
) ([]model.LinkedWallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, address, chain_id, is_primary, linked_at
		 FROM web3_wallets WHERE user_id = $1 ORDER BY linked_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wallets := []model.LinkedWallet{}
	for rows.Next() {
		var w model.LinkedWallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Address, &w.ChainID, &w.IsPrimary, &w.LinkedAt); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}

	return wallets, rows.Err()
}
