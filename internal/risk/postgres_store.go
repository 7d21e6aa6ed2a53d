package risk

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists risk assessments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed risk assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the risk_assessments table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_assessments (
			id                VARCHAR(36) PRIMARY KEY,
			wallet            VARCHAR(128) NOT NULL,
			address           VARCHAR(256) NOT NULL,
			amount            NUMERIC(20,8) NOT NULL,
			amount_score      INT NOT NULL CHECK (amount_score >= 0 AND amount_score <= 100),
			address_score     INT NOT NULL CHECK (address_score >= 0 AND address_score <= 100),
			description_score INT NOT NULL CHECK (description_score >= 0 AND description_score <= 100),
			score             INT NOT NULL CHECK (score >= 0 AND score <= 100),
			level             VARCHAR(10) NOT NULL CHECK (level IN ('low', 'medium', 'high', 'critical')),
			evaluated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_risk_assessments_wallet
			ON risk_assessments (wallet, evaluated_at DESC);

		CREATE INDEX IF NOT EXISTS idx_risk_assessments_critical
			ON risk_assessments (evaluated_at DESC) WHERE level = 'critical';
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, assessment *Assessment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments
			(id, wallet, address, amount, amount_score, address_score, description_score, score, level, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		assessment.ID,
		assessment.Wallet,
		assessment.Address,
		assessment.Amount,
		assessment.AmountScore,
		assessment.AddressScore,
		assessment.DescriptionScore,
		assessment.Score,
		string(assessment.Level),
		assessment.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record risk assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet, address, amount, amount_score, address_score, description_score, score, level, evaluated_at
		FROM risk_assessments
		WHERE wallet = $1
		ORDER BY evaluated_at DESC
		LIMIT $2
	`, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Assessment
	for rows.Next() {
		var a Assessment
		if err := rows.Scan(
			&a.ID, &a.Wallet, &a.Address, &a.Amount,
			&a.AmountScore, &a.AddressScore, &a.DescriptionScore,
			&a.Score, &a.Level, &a.EvaluatedAt,
		); err != nil {
			continue
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}
