package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zkredit/vault/internal/idgen"
)

// PostgresStore persists balances and entries in PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	opening float64
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed ledger store. Unknown
// wallets start at the opening balance.
func NewPostgresStore(db *sql.DB, opening float64) *PostgresStore {
	return &PostgresStore{db: db, opening: opening}
}

// Migrate creates the ledger tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS balances (
			wallet      VARCHAR(128) PRIMARY KEY,
			amount      NUMERIC(18,2) NOT NULL DEFAULT 0,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS ledger_entries (
			id          VARCHAR(64) PRIMARY KEY,
			wallet      VARCHAR(128) NOT NULL,
			delta       NUMERIC(18,2) NOT NULL,
			reference   VARCHAR(128),
			description TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_entries_wallet
			ON ledger_entries(wallet, created_at DESC);
	`)
	return err
}

func (s *PostgresStore) GetBalance(ctx context.Context, wallet string) (*Balance, error) {
	// Seed-if-missing then read, so first sight of a wallet creates the
	// opening balance row.
	var bal Balance
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO balances (wallet, amount)
		VALUES ($1, $2)
		ON CONFLICT (wallet) DO UPDATE SET wallet = EXCLUDED.wallet
		RETURNING wallet, amount, updated_at
	`, wallet, s.opening).Scan(&bal.Wallet, &bal.Amount, &bal.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	return &bal, nil
}

func (s *PostgresStore) Apply(ctx context.Context, wallet string, delta float64, reference, description string) (*Balance, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var bal Balance
	err = tx.QueryRowContext(ctx, `
		INSERT INTO balances (wallet, amount, updated_at)
		VALUES ($1, $2 + $3, NOW())
		ON CONFLICT (wallet) DO UPDATE SET
			amount = balances.amount + $3,
			updated_at = NOW()
		RETURNING wallet, amount, updated_at
	`, wallet, s.opening, delta).Scan(&bal.Wallet, &bal.Amount, &bal.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to apply balance delta: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, wallet, delta, reference, description)
		VALUES ($1, $2, $3, $4, $5)
	`, idgen.WithPrefix("entry_"), wallet, delta, nullIfEmpty(reference), nullIfEmpty(description))
	if err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return &bal, nil
}

func (s *PostgresStore) GetHistory(ctx context.Context, wallet string, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet, delta, COALESCE(reference, ''), COALESCE(description, ''), created_at
		FROM ledger_entries
		WHERE wallet = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Wallet, &e.Delta, &e.Reference, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
