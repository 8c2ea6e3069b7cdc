package keystore

import (
	"context"
	"fmt"

	"siggate/internal/models"
)

// MemoryKeystore serves keys loaded once from configuration. The map is
// never mutated after construction, so lookups need no locking.
type MemoryKeystore struct {
	keys map[string]*Key
}

// NewMemoryKeystore builds a keystore from inline config entries.
func NewMemoryKeystore(entries []models.SigningKey) (*MemoryKeystore, error) {
	keys := make(map[string]*Key, len(entries))
	for _, entry := range entries {
		if entry.KeyID == "" || entry.Secret == "" {
			return nil, fmt.Errorf("keystore: key entries require key_id and secret")
		}
		if _, dup := keys[entry.KeyID]; dup {
			return nil, fmt.Errorf("keystore: duplicate key id %q", entry.KeyID)
		}
		keys[entry.KeyID] = &Key{
			KeyID:     entry.KeyID,
			Secret:    []byte(entry.Secret),
			Algorithm: entry.Algorithm,
		}
	}
	return &MemoryKeystore{keys: keys}, nil
}

// Lookup implements Keystore.
func (m *MemoryKeystore) Lookup(_ context.Context, keyID string) (*Key, error) {
	key, ok := m.keys[keyID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// Close implements Keystore. The memory keystore holds no resources.
func (m *MemoryKeystore) Close() error {
	return nil
}

// Len reports the number of loaded keys. Startup logging uses it.
func (m *MemoryKeystore) Len() int {
	return len(m.keys)
}
