package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPgxPool creates a PostgreSQL connection pool for the given URL and
// verifies connectivity with a ping. The name only labels log lines; the
// application runs one pool per store.
func NewPgxPool(ctx context.Context, databaseURL string, name string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL for %s cannot be empty", name)
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s database config: %w", name, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connection pool: %w", name, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", name, err)
	}

	slog.Info("Connected to PostgreSQL database", slog.String("store", name))
	return pool, nil
}

// ClosePgxPool closes a PostgreSQL connection pool.
func ClosePgxPool(pool *pgxpool.Pool, name string) {
	if pool != nil {
		pool.Close()
		slog.Info("PostgreSQL connection pool closed", slog.String("store", name))
	}
}
