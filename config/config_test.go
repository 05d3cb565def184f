package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curriculum.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "curriculum", cfg.Redis.KeyPrefix)
	assert.Equal(t, 3, cfg.Publish.VersionRetries)
	assert.Equal(t, 10*time.Minute, cfg.Publish.ReconcileAfter)
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `server:
  addr: ":8080"
postgres:
  url: "postgres://localhost/curriculum"
redis:
  addr: "redis:6379"
  db: 2
  key_prefix: "piano"
log:
  level: debug
  format: json
publish:
  version_retries: 5
  reconcile_after: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/curriculum", cfg.Postgres.URL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "piano", cfg.Redis.KeyPrefix)
	assert.Equal(t, "curriculum:published", cfg.Redis.EventsChannel)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Publish.VersionRetries)
	assert.Equal(t, 30*time.Minute, cfg.Publish.ReconcileAfter)
	assert.NoError(t, cfg.RequirePostgres())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeConfig(t, `postgres:
  url: "postgres://file/db"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.Postgres.URL)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Redis.DB)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_BadRedisDBEnv(t *testing.T) {
	t.Setenv("REDIS_DB", "two")

	_, err := Load("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/curriculum.yml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server:\n  - not\n  a map\n")

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative db", func(c *Config) { c.Redis.DB = -1 }, "redis.db"},
		{"zero retries", func(c *Config) { c.Publish.VersionRetries = 0 }, "version_retries"},
		{"negative reconcile", func(c *Config) { c.Publish.ReconcileAfter = -time.Second }, "reconcile_after"},
		{"zero reconcile", func(c *Config) { c.Publish.ReconcileAfter = 0 }, "reconcile_after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequirePostgres(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequirePostgres())
}
