package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 32*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("YC_PROVIDER_URL", "http://localhost:9999")
	t.Setenv("YC_HTTP_TIMEOUT", "5s")
	t.Setenv("YC_INTERVAL", "weekly")
	t.Setenv("YC_RATE_LIMIT_REQUESTS", "75")
	t.Setenv("YC_CACHE_BACKEND", "badger")
	t.Setenv("YC_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.Provider.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "weekly", cfg.Provider.Interval)
	assert.Equal(t, 75, cfg.RateLimit.Requests)
	assert.Equal(t, CacheBadger, cfg.Cache.Backend)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("YC_RETRY_MAX_ATTEMPTS=2\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("YC_RETRY_MAX_ATTEMPTS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)

	// a missing file falls back to the environment
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Unknown interval", func(c *Config) { c.Provider.Interval = "hourly" }},
		{"Zero timeout", func(c *Config) { c.Provider.Timeout = 0 }},
		{"Empty key variable", func(c *Config) { c.Provider.APIKeyEnv = "" }},
		{"No attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"Cap below base", func(c *Config) { c.Retry.MaxDelay = 10 * time.Millisecond }},
		{"Window missing", func(c *Config) { c.RateLimit.Window = 0 }},
		{"Unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"Unknown level", func(c *Config) { c.Log.Level = "loud" }},
		{"Zero range", func(c *Config) { c.Provider.MaxRangeDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	unlimited := Default()
	unlimited.RateLimit = RateLimit{}
	assert.NoError(t, unlimited.Validate())
}

func TestAPIKey(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKeyEnv = "YC_TEST_KEY"

	t.Setenv("YC_TEST_KEY", "secret")
	assert.Equal(t, "secret", cfg.APIKey())

	t.Setenv("YC_TEST_KEY", "")
	assert.Equal(t, "", cfg.APIKey())
}

func TestLoadMalformedEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("YC_LOG_LEVEL=\"DEBUG\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("YC_LOG_LEVEL") })

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to load env file")
}
