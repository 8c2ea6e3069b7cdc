package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siggate/internal/models"
)

func TestFactory_Create_Memory(t *testing.T) {
	store, err := NewFactory().Create(models.KeystoreConfig{
		Type: models.KeystoreTypeMemory,
		Keys: []models.SigningKey{{KeyID: "k", Secret: "s"}},
	})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &MemoryKeystore{}, store)
}

func TestFactory_Create_SQLite(t *testing.T) {
	store, err := NewFactory().Create(models.KeystoreConfig{
		Type:     models.KeystoreTypeSQLite,
		Database: models.DatabaseConfig{DSN: newTestDatabase(t)},
	})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &SQLiteKeystore{}, store)
}

func TestFactory_Create_Unsupported(t *testing.T) {
	_, err := NewFactory().Create(models.KeystoreConfig{Type: "etcd"})
	assert.Error(t, err)
}

func TestFactory_SupportedTypes(t *testing.T) {
	assert.Equal(t,
		[]string{models.KeystoreTypeMemory, models.KeystoreTypeSQLite, models.KeystoreTypePostgres},
		NewFactory().SupportedTypes(),
	)
}
