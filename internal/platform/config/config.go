// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file is
read first when present so development setups need no exported variables.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Controller) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the site API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis) for sessions and the blog read cache
	RedisURL string `env:"REDIS_URL,required"`

	// Session token signing keys (RS256)
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Session lifetime and transport
	SessionTTL        time.Duration `env:"SESSION_TTL"         envDefault:"168h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"flow_session"`

	// Authorization controller tuning
	ProfileRetryDelay     time.Duration `env:"PROFILE_RETRY_DELAY"     envDefault:"1s"`
	ProfileMaxAttempts    int           `env:"PROFILE_MAX_ATTEMPTS"    envDefault:"3"`
	ProfileReconcileDelay time.Duration `env:"PROFILE_RECONCILE_DELAY" envDefault:"1500ms"`
	StoreCallTimeout      time.Duration `env:"STORE_CALL_TIMEOUT"      envDefault:"30s"`
	ViewSettleTimeout     time.Duration `env:"VIEW_SETTLE_TIMEOUT"     envDefault:"10s"`

	// Blog
	BlogCacheTTL time.Duration `env:"BLOG_CACHE_TTL" envDefault:"5m"`

	// Demo requests
	DemoRequestRecipient string `env:"DEMO_REQUEST_RECIPIENT"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string   `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"flowimmersive.com"`
	ExtraOrigins        []string `env:"EXTRA_ORIGINS"         envSeparator:","`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load() (*Config, error) {

	// A missing .env file is the normal case outside development.
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("config: failed to load .env file: %w", err)
		}
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects values that parse but cannot work at runtime.
func (c *Config) validate() error {
	if c.ProfileMaxAttempts < 1 {
		return fmt.Errorf("config: PROFILE_MAX_ATTEMPTS must be at least 1, got %d", c.ProfileMaxAttempts)
	}
	if c.StoreCallTimeout <= 0 {
		return fmt.Errorf("config: STORE_CALL_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsOriginAllowed reports whether a browser origin may call the API.
func (c *Config) IsOriginAllowed(origin string) bool {
	if c.AllowedOriginSuffix != "" && strings.HasSuffix(origin, c.AllowedOriginSuffix) {
		return true
	}
	for _, extra := range c.ExtraOrigins {
		if strings.TrimSpace(extra) == origin {
			return true
		}
	}
	return false
}
