package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresKV stores values in the kv_store table
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV connects, pings and ensures the schema exists
func NewPostgresKV(ctx context.Context, connString string) (*PostgresKV, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	kv := &PostgresKV{pool: pool}
	if err := kv.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return kv, nil
}

// EnsureSchema creates the kv_store table if needed
func (d *PostgresKV) EnsureSchema(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, kvSchema); err != nil {
		return fmt.Errorf("failed to create kv_store: %w", err)
	}
	return nil
}

// Get reads the value of key
func (d *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := d.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, nil
}

// Put upserts the value of key
func (d *PostgresKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Close closes the connection pool
func (d *PostgresKV) Close() error {
	d.pool.Close()
	return nil
}

// Pool returns the underlying connection pool
func (d *PostgresKV) Pool() *pgxpool.Pool {
	return d.pool
}
