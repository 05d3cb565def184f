package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level curriculum.yml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Publish  PublishConfig  `yaml:"publish"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// PostgresConfig points at the relational version store.
type PostgresConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig points at the graph document store.
type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password,omitempty"`
	DB            int    `yaml:"db"`
	KeyPrefix     string `yaml:"key_prefix"`
	EventsChannel string `yaml:"events_channel"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// PublishConfig tunes the publisher.
type PublishConfig struct {
	VersionRetries int           `yaml:"version_retries"`
	// ReconcileAfter is the age at which a publishing version counts as
	// stuck. It must exceed the longest expected publish.
	ReconcileAfter time.Duration `yaml:"reconcile_after"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":3000"},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			KeyPrefix:     "curriculum",
			EventsChannel: "curriculum:published",
		},
		Log:     LogConfig{Level: "info", Format: "console"},
		Publish: PublishConfig{VersionRetries: 3, ReconcileAfter: 10 * time.Minute},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB must be an integer, got %q", v)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks values that would otherwise fail late. A missing
// Postgres URL is allowed here; commands that need it check it themselves.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
	}
	if c.Publish.VersionRetries < 1 {
		return fmt.Errorf("publish.version_retries must be >= 1, got %d", c.Publish.VersionRetries)
	}
	if c.Publish.ReconcileAfter <= 0 {
		return fmt.Errorf("publish.reconcile_after must be positive")
	}
	return nil
}

// RequirePostgres reports a missing database URL.
func (c *Config) RequirePostgres() error {
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is not set (or DATABASE_URL)")
	}
	return nil
}
