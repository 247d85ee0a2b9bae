package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsStoreWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dbConfigFile.json")

	store, err := NewSettingsStore(path, zap.NewNop())
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Equal(DefaultDatabaseConfig()))
	assert.Equal(t, 3308, cfg.Port)
	assert.Equal(t, 10, cfg.MaximumPoolSize)
}

func TestSettingsStoreSaveIsObservedByLoad(t *testing.T) {
	store, err := NewSettingsStore(filepath.Join(t.TempDir(), "dbConfigFile.json"), zap.NewNop())
	require.NoError(t, err)

	updated := DefaultDatabaseConfig()
	updated.Host = "db.internal"
	updated.MaximumPoolSize = 4
	require.NoError(t, store.Save(updated))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 4, cfg.MaximumPoolSize)
	assert.False(t, cfg.Equal(DefaultDatabaseConfig()))
}

func TestSettingsStoreRejectsInvalidConfig(t *testing.T) {
	store, err := NewSettingsStore(filepath.Join(t.TempDir(), "dbConfigFile.json"), zap.NewNop())
	require.NoError(t, err)

	bad := DefaultDatabaseConfig()
	bad.Driver = "oracle"
	assert.Error(t, store.Save(bad))

	bad = DefaultDatabaseConfig()
	bad.MaximumPoolSize = 0
	assert.Error(t, store.Save(bad))
}

func TestDatabaseConfigSQLiteNeedsNoHost(t *testing.T) {
	cfg := DatabaseConfig{DatabaseName: "/tmp/students.db", Driver: DriverSQLite, MaximumPoolSize: 1}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "/tmp/students.db", cfg.Address())
}
