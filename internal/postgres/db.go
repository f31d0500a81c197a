package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS product (
	sku            TEXT PRIMARY KEY,
	version_number INT  NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS batch (
	id        UUID PRIMARY KEY,
	reference TEXT UNIQUE NOT NULL,
	sku       TEXT NOT NULL REFERENCES product(sku),
	qty       INT  NOT NULL CHECK (qty >= 0),
	eta       DATE
);
CREATE TABLE IF NOT EXISTS allocation (
	id        UUID PRIMARY KEY,
	batch_ref TEXT NOT NULL REFERENCES batch(reference),
	order_id  TEXT NOT NULL,
	sku       TEXT NOT NULL,
	qty       INT  NOT NULL,
	UNIQUE (batch_ref, order_id, sku)
);`

// EnsureSchema creates the allocation tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
