package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PostgresStore persists price alerts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgreSQL-backed alert store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the price_alerts table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS price_alerts (
			id            VARCHAR(64) PRIMARY KEY,
			email         VARCHAR(256) NOT NULL,
			crypto_symbol VARCHAR(16) NOT NULL,
			crypto_name   VARCHAR(64),
			current_price VARCHAR(32),
			price         VARCHAR(32) NOT NULL,
			alert_type    VARCHAR(8) NOT NULL,
			frequency     VARCHAR(8) NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_fired_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_price_alerts_email ON price_alerts(LOWER(email));
		CREATE INDEX IF NOT EXISTS idx_price_alerts_active ON price_alerts(active) WHERE active;
	`)
	return err
}

const alertColumns = `id, email, crypto_symbol, COALESCE(crypto_name, ''),
	COALESCE(current_price, ''), price, alert_type, frequency, active,
	created_at, last_fired_at`

func (s *PostgresStore) Create(ctx context.Context, alert *PriceAlert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_alerts
			(id, email, crypto_symbol, crypto_name, current_price, price,
			 alert_type, frequency, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		alert.ID, alert.Email, alert.CryptoSymbol,
		nullIfEmpty(alert.CryptoName), nullIfEmpty(alert.CurrentPrice),
		alert.Price, string(alert.AlertType), string(alert.Frequency),
		alert.Active, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*PriceAlert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM price_alerts WHERE id = $1`, id)
	return scanAlert(row)
}

func (s *PostgresStore) ListByEmail(ctx context.Context, email string) ([]*PriceAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM price_alerts
		 WHERE LOWER(email) = $1 ORDER BY created_at`, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list price alerts: %w", err)
	}
	return collectAlerts(rows)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*PriceAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM price_alerts WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active price alerts: %w", err)
	}
	return collectAlerts(rows)
}

func (s *PostgresStore) SetActive(ctx context.Context, id string, active bool) (*PriceAlert, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE price_alerts SET active = $2 WHERE id = $1
		RETURNING `+alertColumns, id, active)
	return scanAlert(row)
}

func (s *PostgresStore) MarkFired(ctx context.Context, id string, firedAt time.Time, stillActive bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE price_alerts SET last_fired_at = $2, active = $3 WHERE id = $1
	`, id, firedAt, stillActive)
	if err != nil {
		return fmt.Errorf("failed to mark price alert fired: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete price alert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlertNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*PriceAlert, error) {
	var a PriceAlert
	var alertType, frequency string
	var lastFired sql.NullTime

	err := row.Scan(
		&a.ID, &a.Email, &a.CryptoSymbol, &a.CryptoName, &a.CurrentPrice,
		&a.Price, &alertType, &frequency, &a.Active, &a.CreatedAt, &lastFired,
	)
	if err == sql.ErrNoRows {
		return nil, ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan price alert: %w", err)
	}

	a.AlertType = AlertType(alertType)
	a.Frequency = Frequency(frequency)
	if lastFired.Valid {
		fired := lastFired.Time
		a.LastFiredAt = &fired
	}
	return &a, nil
}

func collectAlerts(rows *sql.Rows) ([]*PriceAlert, error) {
	defer func() { _ = rows.Close() }()

	result := []*PriceAlert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, alert)
	}
	return result, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
