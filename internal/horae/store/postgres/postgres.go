package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so a kiosk can bootstrap the shared database
// schema on first connect. Every statement is idempotent.
//
//go:embed schema.sql
var schemaSQL string

// DB wraps the pgx pool shared by the postgres-backed stores. Used when
// several kiosks record against one central ledger.
type DB struct {
	pool *pgxpool.Pool
}

// Open creates a connection pool and fails fast if the database is
// unreachable.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(pingCtx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return &DB{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *DB) Close() {
	d.pool.Close()
}
