package store

// Package store holds the PostgreSQL persistence layer: registered users,
// their notification filters, and the collected swap history.

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"whale-tracker/internal/infra/config"
	"whale-tracker/internal/infra/log"
)

// DB wraps the sqlx connection shared by the repositories.
type DB struct {
	db *sqlx.DB
}

// NewDB opens the PostgreSQL connection and verifies it with a ping.
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.LogSuccess("Connected to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name))

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// HealthCheck pings the database; used by the read API's health endpoint.
func (d *DB) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	telegram_id BIGINT PRIMARY KEY,
	username    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_filters (
	id           BIGSERIAL PRIMARY KEY,
	telegram_id  BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
	filter_type  TEXT NOT NULL,
	filter_value TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_user_filters_user ON user_filters(telegram_id);

CREATE TABLE IF NOT EXISTS swaps (
	swap_id            TEXT PRIMARY KEY,
	timestamp          BIGINT NOT NULL,
	fee_payer          TEXT NOT NULL,
	source             TEXT NOT NULL DEFAULT '',
	signature          TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	whale_asset        TEXT NOT NULL DEFAULT '',
	whale_symbol       TEXT NOT NULL DEFAULT '',
	input_token_mint   TEXT,
	input_token_amount DOUBLE PRECISION,
	input_token_symbol TEXT,
	output_token_mint   TEXT,
	output_token_amount DOUBLE PRECISION,
	output_token_symbol TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_swaps_timestamp ON swaps(timestamp DESC);
`

// EnsureSchema creates the tables and indexes when they do not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
