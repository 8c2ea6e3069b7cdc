package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKeystore looks keys up in a PostgreSQL table maintained by an
// external provisioning process. Expected schema:
//
//	CREATE TABLE signing_keys (
//	    key_id    TEXT PRIMARY KEY,
//	    secret    BYTEA NOT NULL,
//	    algorithm TEXT NOT NULL DEFAULT ''
//	);
type PostgresKeystore struct {
	pool *pgxpool.Pool
}

// NewPostgresKeystore creates a connection pool and verifies connectivity.
func NewPostgresKeystore(dsn string) (*PostgresKeystore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("keystore: postgres dsn is required")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("keystore: failed to ping database: %w", err)
	}

	return &PostgresKeystore{pool: pool}, nil
}

// Lookup implements Keystore.
func (p *PostgresKeystore) Lookup(ctx context.Context, keyID string) (*Key, error) {
	key := &Key{KeyID: keyID}
	err := p.pool.QueryRow(ctx,
		`SELECT secret, algorithm FROM signing_keys WHERE key_id = $1`, keyID,
	).Scan(&key.Secret, &key.Algorithm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("keystore: postgres lookup failed: %w", err)
	}
	return key, nil
}

// Close implements Keystore.
func (p *PostgresKeystore) Close() error {
	p.pool.Close()
	return nil
}
