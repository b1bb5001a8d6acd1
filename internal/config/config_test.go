package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzevk/estate-api/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "json", cfg.Backend)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "uploads", cfg.UploadsDir)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, 5, cfg.Backup.Keep)
	assert.Equal(t, time.Hour, cfg.Backup.Interval.Duration)
	assert.False(t, cfg.Backup.OnWrite)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 3001, cfg.Port)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
port = 9000
backend = "sqlite"
data_dir = "/var/lib/estate"
jwt_secret = "file-secret-0123456789"

[admin]
username = "agent"
password = "hunter22"

[backup]
keep = 3
interval = "15m"
on_write = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "/var/lib/estate", cfg.DataDir)
	assert.Equal(t, "file-secret-0123456789", cfg.JWTSecret)
	assert.Equal(t, "agent", cfg.Admin.Username)
	assert.Equal(t, "hunter22", cfg.Admin.Password)
	assert.Equal(t, 3, cfg.Backup.Keep)
	assert.Equal(t, 15*time.Minute, cfg.Backup.Interval.Duration)
	assert.True(t, cfg.Backup.OnWrite)

	// Unset fields keep their defaults.
	assert.Equal(t, "uploads", cfg.UploadsDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9000\n"), 0o644))

	t.Setenv("PORT", "8081")
	t.Setenv("JWT_SECRET", "env-secret-0123456789")
	t.Setenv("ESTATE_BACKEND", "memory")
	t.Setenv("ESTATE_DATA_DIR", "/tmp/estate-data")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "env-secret-0123456789", cfg.JWTSecret)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "/tmp/estate-data", cfg.DataDir)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = [broken\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
