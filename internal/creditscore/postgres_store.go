package creditscore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PostgresStore persists credit score snapshots in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed credit score store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the credit_scores table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credit_scores (
			wallet        VARCHAR(128) PRIMARY KEY,
			score         INT NOT NULL CHECK (score >= 300 AND score <= 850),
			max_score     INT NOT NULL DEFAULT 850,
			factors       JSONB NOT NULL DEFAULT '{"positive":[],"negative":[]}',
			last_updated  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, wallet string) (*CreditScore, error) {
	var score CreditScore
	var factorsJSON []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT wallet, score, max_score, factors, last_updated
		FROM credit_scores
		WHERE wallet = $1
	`, strings.ToLower(wallet)).Scan(
		&score.Wallet, &score.Score, &score.MaxScore, &factorsJSON, &score.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, ErrScoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credit score: %w", err)
	}

	if err := json.Unmarshal(factorsJSON, &score.Factors); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScore, err)
	}
	return &score, nil
}

func (s *PostgresStore) Put(ctx context.Context, wallet string, score *CreditScore) error {
	factorsJSON, err := json.Marshal(score.Factors)
	if err != nil {
		return fmt.Errorf("failed to marshal factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credit_scores (wallet, score, max_score, factors, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet) DO UPDATE SET
			score = EXCLUDED.score,
			max_score = EXCLUDED.max_score,
			factors = EXCLUDED.factors,
			last_updated = EXCLUDED.last_updated
	`,
		strings.ToLower(wallet),
		score.Score,
		score.MaxScore,
		factorsJSON,
		score.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to write credit score: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, wallet string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM credit_scores WHERE wallet = $1
	`, strings.ToLower(wallet))
	if err != nil {
		return fmt.Errorf("failed to delete credit score: %w", err)
	}
	return nil
}
