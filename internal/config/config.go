// Package config provides environment-driven configuration for neighborrank.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string
	DBMaxConns  int32

	Rank RankConfig

	LabelCacheSize int
	LabelCacheTTL  time.Duration
}

// RankConfig holds the neighbor rank defaults and execution limits.
type RankConfig struct {
	DefaultDegree   int64
	DefaultCapacity int64
	DefaultLimit    int64
	LimitPolicy     string
	Workers         int
	Timeout         time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "3030"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		Rank: RankConfig{
			LimitPolicy: envOrDefault("RANK_LIMIT_POLICY", "per_hop"),
		},
	}

	maxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "20"))
	if err != nil || maxConns < 2 || maxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 2 and 200")
	}
	cfg.DBMaxConns = int32(maxConns) //nolint:gosec // bounded above.

	if err := cfg.loadRank(); err != nil {
		return nil, err
	}

	if cfg.LabelCacheSize, err = strconv.Atoi(envOrDefault("LABEL_CACHE_SIZE", "4096")); err != nil {
		return nil, fmt.Errorf("LABEL_CACHE_SIZE must be an integer: %w", err)
	}

	if cfg.LabelCacheTTL, err = time.ParseDuration(envOrDefault("LABEL_CACHE_TTL", "5m")); err != nil {
		return nil, fmt.Errorf("LABEL_CACHE_TTL must be a duration: %w", err)
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3002")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadRank() error {
	var err error

	if c.Rank.DefaultDegree, err = envInt64("RANK_DEFAULT_DEGREE", 10000); err != nil {
		return err
	}

	if c.Rank.DefaultCapacity, err = envInt64("RANK_DEFAULT_CAPACITY", 10000000); err != nil {
		return err
	}

	if c.Rank.DefaultLimit, err = envInt64("RANK_DEFAULT_LIMIT", 10); err != nil {
		return err
	}

	if c.Rank.Workers, err = strconv.Atoi(envOrDefault("RANK_WORKERS", "8")); err != nil {
		return fmt.Errorf("RANK_WORKERS must be an integer: %w", err)
	}

	if c.Rank.Timeout, err = time.ParseDuration(envOrDefault("RANK_TIMEOUT", "30s")); err != nil {
		return fmt.Errorf("RANK_TIMEOUT must be a duration: %w", err)
	}

	return nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	return n, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
