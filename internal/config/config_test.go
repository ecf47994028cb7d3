package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, StoreModeMemory, cfg.Store.Mode)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  read_timeout: 5s
store:
  mode: nats
nats:
  url: nats://example:4222
log:
  level: debug
  format: text
`), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, StoreModeNATS, cfg.Store.Mode)
	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
	assert.Equal(t, "cart_es", cfg.NATS.StreamName)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromPath_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SERVER_READ_TIMEOUT", "42s")
	t.Setenv("STORE_MODE", "nats")
	t.Setenv("NATS_URL", "nats://env:4222")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	// environment wins over the file
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 42*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, StoreModeNATS, cfg.Store.Mode)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
}

func TestLoadFromPath_MissingExplicitFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestValidate(t *testing.T) {
	t.Run("bad port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Port = -1
		require.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)
	})

	t.Run("bad store mode", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Mode = "postgres"
		require.ErrorIs(t, cfg.Validate(), ErrInvalidStoreMode)
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Level = "verbose"
		require.ErrorIs(t, cfg.Validate(), ErrInvalidLogLevel)
	})

	t.Run("nats mode requires stream name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Store.Mode = StoreModeNATS
		cfg.NATS.StreamName = ""
		require.ErrorIs(t, cfg.Validate(), ErrConfigInvalid)
	})
}
