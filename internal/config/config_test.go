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
	t.Setenv("SCENYX_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "token", cfg.Auth.TokenQueryParam)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 5*time.Second, cfg.Hub.FeatureTTL)
	assert.Equal(t, time.Hour, cfg.Hub.PresetTTL)
	assert.Equal(t, 24*time.Hour, cfg.Hub.RoomStateTTL)
	assert.Equal(t, 100, cfg.Hub.ChatHistory)
	assert.Equal(t, 0, cfg.Hub.ChatBurst)
	assert.Equal(t, 54*time.Second, cfg.Hub.PingInterval)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCENYX_JWT_SECRET", "s3cret")
	t.Setenv("SCENYX_PORT", "9000")
	t.Setenv("SCENYX_CACHE_DRIVER", "valkey")
	t.Setenv("SCENYX_CACHE_ADDRESS", "valkey:6379")
	t.Setenv("SCENYX_HUB_FEATURETTL", "2s")
	t.Setenv("SCENYX_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SCENYX_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "valkey", cfg.Cache.Driver)
	assert.Equal(t, "valkey:6379", cfg.Cache.Address)
	assert.Equal(t, 2*time.Second, cfg.Hub.FeatureTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SCENYX_JWT_SECRET=from-file\nSCENYX_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SCENYX_JWT_SECRET")
		os.Unsetenv("SCENYX_LOG_LEVEL")
	})

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	t.Setenv("SCENYX_JWT_SECRET", "s3cret")
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"no credentials", func(c *Config) { c.Auth.JWTSecret = ""; c.Auth.StaticKeys = nil }},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"valkey without address", func(c *Config) { c.Cache.Driver = "valkey"; c.Cache.Address = "" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"zero feature ttl", func(c *Config) { c.Hub.FeatureTTL = 0 }},
		{"ping after idle", func(c *Config) { c.Hub.PingInterval = c.Hub.IdleTimeout }},
		{"tiny send buffer", func(c *Config) { c.Hub.SendBuffer = 0 }},
		{"chat history above bound", func(c *Config) { c.Hub.ChatHistory = 101 }},
		{"negative chat burst", func(c *Config) { c.Hub.ChatBurst = -1 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, base.Validate())
}

func TestValidateChatLimits(t *testing.T) {
	t.Setenv("SCENYX_JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Hub.ChatBurst = 0
	assert.NoError(t, cfg.Validate(), "zero burst disables chat limiting")

	cfg.Hub.ChatBurst = 10
	cfg.Hub.ChatHistory = 100
	assert.NoError(t, cfg.Validate())
}
