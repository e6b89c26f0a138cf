package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 20, cfg.SnapshotInterval)
	assert.Equal(t, 4<<20, cfg.MaxMessageBytes)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TIMESTORE_GRPC_PORT", "6000")
	t.Setenv("TIMESTORE_LOG_PRETTY", "true")
	t.Setenv("TIMESTORE_SNAPSHOT_INTERVAL", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.GRPCPort)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 5, cfg.SnapshotInterval)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TIMESTORE_LOG_LEVEL=debug\nTIMESTORE_METRICS_PORT=9191\n"), 0o600))

	// Register cleanup for the variables the file sets.
	t.Setenv("TIMESTORE_LOG_LEVEL", "")
	t.Setenv("TIMESTORE_METRICS_PORT", "")
	require.NoError(t, os.Unsetenv("TIMESTORE_LOG_LEVEL"))
	require.NoError(t, os.Unsetenv("TIMESTORE_METRICS_PORT"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9191, cfg.MetricsPort)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TIMESTORE_GRPC_PORT=7000\n"), 0o600))
	t.Setenv("TIMESTORE_GRPC_PORT", "7100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.GRPCPort)
}

func TestMissingFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("TIMESTORE_GRPC_PORT", "not-a-port")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")

	t.Setenv("TIMESTORE_GRPC_PORT", "50051")
	t.Setenv("TIMESTORE_SNAPSHOT_INTERVAL", "0")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot interval")
}
