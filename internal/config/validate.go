package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/rank"
)

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateRank(); err != nil {
		return err
	}

	if c.LabelCacheSize < 1 {
		return fmt.Errorf("LABEL_CACHE_SIZE must be positive")
	}

	if c.LabelCacheTTL <= 0 {
		return fmt.Errorf("LABEL_CACHE_TTL must be positive")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		sslmode := dbURL.Query().Get("sslmode")
		if sslmode == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local use, wildcard for containers behind an external boundary.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	return nil
}

func (c *Config) validateRank() error {
	r := c.Rank

	if err := rank.CheckDegree(r.DefaultDegree); err != nil {
		return fmt.Errorf("RANK_DEFAULT_DEGREE: %w", err)
	}

	if r.DefaultCapacity <= 0 && r.DefaultCapacity != rank.Unbounded {
		return fmt.Errorf("RANK_DEFAULT_CAPACITY must be > 0 or %d, got %d", rank.Unbounded, r.DefaultCapacity)
	}

	if r.DefaultLimit <= 0 && r.DefaultLimit != rank.Unbounded {
		return fmt.Errorf("RANK_DEFAULT_LIMIT must be > 0 or %d, got %d", rank.Unbounded, r.DefaultLimit)
	}

	if _, err := rank.ParseLimitPolicy(r.LimitPolicy); err != nil {
		return fmt.Errorf("RANK_LIMIT_POLICY: %w", err)
	}

	if r.Workers < 1 || r.Workers > 64 {
		return fmt.Errorf("RANK_WORKERS must be between 1 and 64")
	}

	if r.Timeout < time.Second {
		return fmt.Errorf("RANK_TIMEOUT must be at least 1s")
	}

	return nil
}
