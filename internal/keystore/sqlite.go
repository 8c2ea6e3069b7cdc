package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteKeystore looks keys up in a SQLite database maintained by an
// external provisioning process. Expected schema:
//
//	CREATE TABLE signing_keys (
//	    key_id    TEXT PRIMARY KEY,
//	    secret    BLOB NOT NULL,
//	    algorithm TEXT NOT NULL DEFAULT ''
//	);
type SQLiteKeystore struct {
	db *sql.DB
}

// NewSQLiteKeystore opens the database and verifies connectivity.
func NewSQLiteKeystore(dsn string) (*SQLiteKeystore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("keystore: sqlite dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("keystore: failed to ping sqlite database: %w", err)
	}

	return &SQLiteKeystore{db: db}, nil
}

// Lookup implements Keystore.
func (s *SQLiteKeystore) Lookup(ctx context.Context, keyID string) (*Key, error) {
	key := &Key{KeyID: keyID}
	err := s.db.QueryRowContext(ctx,
		`SELECT secret, algorithm FROM signing_keys WHERE key_id = ?`, keyID,
	).Scan(&key.Secret, &key.Algorithm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("keystore: sqlite lookup failed: %w", err)
	}
	return key, nil
}

// Close implements Keystore.
func (s *SQLiteKeystore) Close() error {
	return s.db.Close()
}
