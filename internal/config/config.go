// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/rank"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "PULSE_"

// Feed modes.
const (
	FeedSim   = "sim"
	FeedWS    = "ws"
	FeedRedis = "redis"
)

// Config holds the pulse service configuration.
type Config struct {
	// Server
	Addr     string `env:"ADDR" envDefault:":8080"`
	FeedAddr string `env:"FEED_ADDR" envDefault:":8081"`

	// Dataset
	Chain            string        `env:"CHAIN" envDefault:"SOL"`
	Capacity         int           `env:"CAPACITY" envDefault:"12"`
	MaxPerCategory   int           `env:"MAX_PER_CATEGORY" envDefault:"0"`
	FrameInterval    time.Duration `env:"FRAME_INTERVAL" envDefault:"16ms"`
	MutationInterval time.Duration `env:"MUTATION_INTERVAL" envDefault:"2s"`
	DebounceDelay    time.Duration `env:"DEBOUNCE_DELAY" envDefault:"150ms"`
	LoadingDelay     time.Duration `env:"LOADING_DELAY" envDefault:"400ms"`
	MaxArrivalDelay  time.Duration `env:"MAX_ARRIVAL_DELAY" envDefault:"15s"`
	Seed             uint64        `env:"SEED" envDefault:"0"` // 0 seeds from the clock

	// Feed
	Feed          string        `env:"FEED" envDefault:"sim"`
	FeedURL       string        `env:"FEED_URL" envDefault:"ws://localhost:8081/feed"`
	SimInterval   time.Duration `env:"SIM_INTERVAL" envDefault:"500ms"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisStream   string        `env:"REDIS_STREAM" envDefault:"pulse:updates"`

	// Observability
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	LoadEnvFile(".env")
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	opts := env.Options{
		Prefix: EnvPrefix,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads environment variables from path if it exists.
// Variables already set are not overridden.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
}

// ParsedChain returns the configured start chain.
func (c *Config) ParsedChain() domain.Chain {
	chain, _ := domain.ParseChain(c.Chain)
	return chain
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if _, err := domain.ParseChain(c.Chain); err != nil {
		errs = append(errs, err)
	}

	switch c.Feed {
	case FeedSim, FeedWS, FeedRedis:
	default:
		errs = append(errs, fmt.Errorf("invalid feed mode: %q", c.Feed))
	}

	if c.Capacity < 1 || c.Capacity > rank.DefaultCapacity {
		errs = append(errs, fmt.Errorf("capacity must be between 1 and %d, got %d", rank.DefaultCapacity, c.Capacity))
	}
	if c.MaxPerCategory < 0 {
		errs = append(errs, fmt.Errorf("max per category must not be negative, got %d", c.MaxPerCategory))
	}

	for name, d := range map[string]time.Duration{
		"frame interval":    c.FrameInterval,
		"mutation interval": c.MutationInterval,
		"debounce delay":    c.DebounceDelay,
		"loading delay":     c.LoadingDelay,
		"max arrival delay": c.MaxArrivalDelay,
		"sim interval":      c.SimInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.LogLevel))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.LogFormat))
	}

	return errors.Join(errs...)
}
