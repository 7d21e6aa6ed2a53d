package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zkredit/vault/internal/pagination"
	"github.com/zkredit/vault/internal/risk"
)

// PostgresStore persists the transaction list in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed transaction store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the transactions table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id          VARCHAR(64) PRIMARY KEY,
			type        VARCHAR(16) NOT NULL,
			status      VARCHAR(16) NOT NULL,
			amount      VARCHAR(32) NOT NULL,
			token       VARCHAR(16) NOT NULL,
			value       VARCHAR(32) NOT NULL,
			address     VARCHAR(128) NOT NULL DEFAULT '',
			ts_display  VARCHAR(64) NOT NULL,
			gas_used    VARCHAR(32) NOT NULL,
			description TEXT,
			risk_level  VARCHAR(16),
			risk_score  INT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_created
			ON transactions(created_at DESC);
	`)
	return err
}

func (s *PostgresStore) Add(ctx context.Context, tx *Transaction) error {
	var riskLevel, riskScore interface{}
	if tx.RiskLevel != "" {
		riskLevel = string(tx.RiskLevel)
	}
	if tx.RiskScore != nil {
		riskScore = *tx.RiskScore
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, type, status, amount, token, value, address, ts_display,
			 gas_used, description, risk_level, risk_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		tx.ID, string(tx.Type), string(tx.Status), tx.Amount, tx.Token,
		tx.Value, tx.Address, tx.Timestamp, tx.GasUsed,
		nullIfEmpty(tx.Description), riskLevel, riskScore, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, status, amount, token, value, address, ts_display,
		       gas_used, COALESCE(description, ''), risk_level, risk_score, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*Transaction, error) {
	var txs []*Transaction
	for rows.Next() {
		var tx Transaction
		var riskLevel sql.NullString
		var riskScore sql.NullInt64
		if err := rows.Scan(
			&tx.ID, &tx.Type, &tx.Status, &tx.Amount, &tx.Token, &tx.Value,
			&tx.Address, &tx.Timestamp, &tx.GasUsed, &tx.Description,
			&riskLevel, &riskScore, &tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if riskLevel.Valid {
			tx.RiskLevel = risk.Level(riskLevel.String)
		}
		if riskScore.Valid {
			score := int(riskScore.Int64)
			tx.RiskScore = &score
		}
		txs = append(txs, &tx)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) ListBefore(ctx context.Context, cur *pagination.Cursor, limit int) ([]*Transaction, error) {
	if cur == nil {
		return s.List(ctx, limit)
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, status, amount, token, value, address, ts_display,
		       gas_used, COALESCE(description, ''), risk_level, risk_score, created_at
		FROM transactions
		WHERE (created_at, id) < ($1, $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, cur.CreatedAt, cur.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
