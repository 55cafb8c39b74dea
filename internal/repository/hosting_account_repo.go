package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

var ErrNotFound = errors.New("not found")

type HostingAccountRepository struct {
	pool *pgxpool.Pool
}

func NewHostingAccountRepository(pool *pgxpool.Pool) *HostingAccountRepository {
	return &HostingAccountRepository{pool: pool}
}

func (r *HostingAccountRepository) GetByUsername(ctx context.Context, username string) (*models.HostingAccount, error) {
	query := `
		SELECT account_id, account_label, account_username, account_password,
			   account_status, account_sql, account_key, account_for,
			   account_time, account_domain, account_main
		FROM hosting_accounts
		WHERE account_username = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

// Upsert inserts or refreshes the local mirror of a reseller account,
// keyed by username.
func (r *HostingAccountRepository) Upsert(ctx context.Context, acct *models.HostingAccount) error {
	query := `
		INSERT INTO hosting_accounts (
			account_label, account_username, account_password,
			account_status, account_sql, account_key, account_for,
			account_time, account_domain, account_main
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_username) DO UPDATE SET
			account_label = EXCLUDED.account_label,
			account_password = EXCLUDED.account_password,
			account_status = EXCLUDED.account_status,
			account_key = EXCLUDED.account_key,
			account_time = EXCLUDED.account_time,
			account_domain = EXCLUDED.account_domain,
			account_main = EXCLUDED.account_main
	`
	_, err := r.pool.Exec(ctx, query,
		acct.Label, acct.Username, acct.Password,
		acct.Status, acct.SQL, acct.Key, acct.For,
		acct.Time, acct.Domain, acct.Main,
	)
	if err != nil {
		return fmt.Errorf("upsert hosting_account: %w", err)
	}
	return nil
}

func (r *HostingAccountRepository) UpdateStatus(ctx context.Context, username, status string) error {
	query := `UPDATE hosting_accounts SET account_status = $1 WHERE account_username = $2`
	tag, err := r.pool.Exec(ctx, query, status, username)
	if err != nil {
		return fmt.Errorf("update hosting_account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *HostingAccountRepository) scanOne(row pgx.Row) (*models.HostingAccount, error) {
	acct := &models.HostingAccount{}
	err := row.Scan(
		&acct.ID, &acct.Label, &acct.Username, &acct.Password,
		&acct.Status, &acct.SQL, &acct.Key, &acct.For,
		&acct.Time, &acct.Domain, &acct.Main,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan hosting_account: %w", err)
	}
	return acct, nil
}
