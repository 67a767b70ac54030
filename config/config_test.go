package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.paylink.dev", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.RetryAttempts)
	assert.Equal(t, time.Second, cfg.API.RetryBaseDelay)
	assert.True(t, cfg.API.CacheEnabled)
	assert.Equal(t, 30*time.Second, cfg.API.CacheTTL)
	assert.Equal(t, 2*time.Minute, cfg.Session.BalanceRefreshInterval)
	assert.Equal(t, 3*time.Minute, cfg.Session.TransactionRefreshInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Empty(t, cfg.Sentry.DSN)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paylink.yaml")
	content := `
api:
  base_url: https://staging.paylink.dev
  retry_attempts: 5
  cache_ttl: 10s
session:
  balance_refresh_interval: 45s
log:
  level: debug
  pretty: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.paylink.dev", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.RetryAttempts)
	assert.Equal(t, 10*time.Second, cfg.API.CacheTTL)
	assert.Equal(t, 45*time.Second, cfg.Session.BalanceRefreshInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)

	// Unset values keep their defaults.
	assert.Equal(t, 3*time.Minute, cfg.Session.TransactionRefreshInterval)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PAYLINK_API_BASE_URL", "https://env.paylink.dev")
	t.Setenv("PAYLINK_LOG_LEVEL", "warn")
	t.Setenv("PAYLINK_API_RETRY_ATTEMPTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.paylink.dev", cfg.API.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 7, cfg.API.RetryAttempts)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
