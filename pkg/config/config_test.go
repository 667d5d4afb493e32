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

	assert.Equal(t, 5*time.Minute, cfg.Resolver.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Resolver.RequestTimeout)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 60, cfg.Server.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 3, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, "./downloads", cfg.Download.OutputDirectory)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
instagram:
  session_token: "abc123"
resolver:
  cache_ttl: 2m
server:
  address: ":9090"
  requests_per_minute: 30
download:
  output_directory: /tmp/media
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "abc123", cfg.Instagram.SessionToken)
	assert.Equal(t, 2*time.Minute, cfg.Resolver.CacheTTL)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 30, cfg.Server.RequestsPerMinute)
	assert.Equal(t, "/tmp/media", cfg.Download.OutputDirectory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGRESOLVER_SESSION_TOKEN", "env-token")
	t.Setenv("IGRESOLVER_LISTEN_ADDR", ":7070")
	t.Setenv("IGRESOLVER_REQUESTS_PER_MINUTE", "10")
	t.Setenv("IGRESOLVER_CACHE_TTL", "90s")
	t.Setenv("IGRESOLVER_CONCURRENT_DOWNLOADS", "5")
	t.Setenv("IGRESOLVER_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-token", cfg.Instagram.SessionToken)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, 10, cfg.Server.RequestsPerMinute)
	assert.Equal(t, 90*time.Second, cfg.Resolver.CacheTTL)
	assert.Equal(t, 5, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cache ttl", func(c *Config) { c.Resolver.CacheTTL = 0 }},
		{"zero request timeout", func(c *Config) { c.Resolver.RequestTimeout = 0 }},
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"zero rate limit", func(c *Config) { c.Server.RequestsPerMinute = 0 }},
		{"zero max attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"zero concurrency", func(c *Config) { c.Download.ConcurrentDownloads = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
