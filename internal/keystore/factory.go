package keystore

import (
	"fmt"

	"siggate/internal/models"
)

// Factory creates keystore instances from configuration, so the backend can
// be swapped without touching wiring code.
type Factory struct{}

// NewFactory creates a keystore factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates the keystore backend named by the configuration.
// Supported backends:
//   - memory: keys inline in the service configuration
//   - sqlite: read-only lookup in a SQLite database
//   - postgres: read-only lookup in a PostgreSQL database
func (f *Factory) Create(cfg models.KeystoreConfig) (Keystore, error) {
	switch cfg.Type {
	case models.KeystoreTypeMemory:
		return NewMemoryKeystore(cfg.Keys)
	case models.KeystoreTypeSQLite:
		return NewSQLiteKeystore(cfg.Database.DSN)
	case models.KeystoreTypePostgres:
		return NewPostgresKeystore(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported keystore type: %s", cfg.Type)
	}
}

// SupportedTypes returns all supported keystore backend names.
func (f *Factory) SupportedTypes() []string {
	return []string{models.KeystoreTypeMemory, models.KeystoreTypeSQLite, models.KeystoreTypePostgres}
}
