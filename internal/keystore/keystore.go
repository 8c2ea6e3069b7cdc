// Package keystore resolves signing key ids to shared secrets. It is a
// lookup-only surface: provisioning, rotation, and any other credential
// management happen outside this service. Backends exist for inline config
// keys (memory) and for read-only lookup against SQLite or PostgreSQL.
package keystore

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when no key exists for the requested key id.
// Callers treat it as an authentication failure, not an operational error.
var ErrKeyNotFound = errors.New("keystore: key not found")

// Key is a resolved signing key. Algorithm, when non-empty, pins the only
// algorithm signatures under this key may use.
type Key struct {
	KeyID     string
	Secret    []byte
	Algorithm string
}

// Keystore looks up signing keys. Implementations must be safe for
// concurrent use; lookups run on every authenticated request.
type Keystore interface {
	// Lookup resolves a key id to its key, or ErrKeyNotFound.
	Lookup(ctx context.Context, keyID string) (*Key, error)

	// Close releases backend resources.
	Close() error
}
