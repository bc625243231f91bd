package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "suitability.db", cfg.Store.SQLitePath)
	assert.Equal(t, 10, cfg.Store.MaxConns)
	assert.Equal(t, 2, cfg.Store.MinConns)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, 3, cfg.Engine.RetryAttempts)
	assert.Equal(t, 1000, cfg.Import.BatchSize)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20, cfg.Server.RequestsPerSec, 0.001)
	assert.Equal(t, 40, cfg.Server.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  sqlite_path: /tmp/scores.db
engine:
  workers: 8
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/scores.db", cfg.Store.SQLitePath)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 1000, cfg.Import.BatchSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SUITABILITY_STORE_DRIVER", "postgres")
	t.Setenv("SUITABILITY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SUITABILITY_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = "suitability.db"
	cfg.Engine.Workers = 4
	cfg.Engine.RetryAttempts = 3
	cfg.Import.BatchSize = 1000
	cfg.Server.Port = 8080
	cfg.Server.RequestsPerSec = 20
	return cfg
}

func TestValidateCLI_SQLite(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateCLI_PostgresRequiresURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/suitability"
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Engine.Workers = 0
	err := cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "engine.workers must be between 1 and 64")

	cfg.Engine.Workers = 65
	err = cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "engine.workers must be between 1 and 64")

	cfg.Engine.Workers = 64
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_RateLimit(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.RequestsPerSec = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.requests_per_sec must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
