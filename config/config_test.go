package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromConfigFilePath_OverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9090
  read_timeout: 5s
cache:
  driver: redis
  ttl: 30m
redis:
  addr: redis:6379
  db: 2
rate_limit:
  capacity: 10
`)

	cfg, err := LoadFromConfigFilePath(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset keys keep their defaults")
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 10, cfg.RateLimit.Capacity)
	assert.Equal(t, time.Minute, cfg.RateLimit.Refill)
}

func TestLoadFromConfigFilePath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromConfigFilePath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadFromConfigFilePath_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("LOGGING_LEVEL", "debug")
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("RATE_LIMIT_REFILL_SECONDS", "30")
	t.Setenv("OTEL_COLLECTOR_URL", "otel:4318")

	cfg, err := LoadFromConfigFilePath(writeTempConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Refill)
	assert.Equal(t, "otel:4318", cfg.Otel.CollectorURL)
}

func TestLoadFromConfigFilePath_InvalidYAML(t *testing.T) {
	_, err := LoadFromConfigFilePath(writeTempConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config")
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"port too high", func(c *AppConfig) { c.Server.Port = 70000 }},
		{"unknown gin mode", func(c *AppConfig) { c.Server.GinMode = "loud" }},
		{"unknown log level", func(c *AppConfig) { c.Logging.Level = "trace" }},
		{"unknown cache driver", func(c *AppConfig) { c.Cache.Driver = "memcached" }},
		{"redis driver without addr", func(c *AppConfig) { c.Cache.Driver = "redis"; c.Redis.Addr = " " }},
		{"zero rate limit capacity", func(c *AppConfig) { c.RateLimit.Capacity = 0 }},
		{"zero refill", func(c *AppConfig) { c.RateLimit.Refill = 0 }},
		{"missing service name", func(c *AppConfig) { c.Otel.ServiceName = "" }},
		{"zero max term", func(c *AppConfig) { c.Limits.MaxTermYears = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}

	assert.NoError(t, validateConfig(Default()))
}

func TestLoadFromConfig_UsesConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeTempConfig(t, "server:\n  port: 8181\n"))

	cfg, err := LoadFromConfig()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("CFG_INT", "42")
	t.Setenv("CFG_BAD_INT", "forty-two")
	t.Setenv("CFG_BLANK", "   ")

	assert.Equal(t, 42, GetEnvOrDefaultAsInt("CFG_INT", 1))
	assert.Equal(t, 1, GetEnvOrDefaultAsInt("CFG_BAD_INT", 1))
	assert.Equal(t, 1, GetEnvOrDefaultAsInt("CFG_UNSET", 1))
	assert.Equal(t, 42*time.Second, GetEnvOrDefaultAsSeconds("CFG_INT", time.Second))
	assert.Equal(t, "fallback", GetEnvOrDefaultAsString("CFG_BLANK", "fallback"))
}
