// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config is the service configuration.
type Config struct {
	Host      string `env:"HOST,default=0.0.0.0"`
	Port      int    `env:"PORT,default=8080"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	// MaxBodyBytes caps request bodies and fetched images alike.
	MaxBodyBytes int64         `env:"MAX_BODY_BYTES,default=10485760"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT,default=15s"`
	Workers      int           `env:"WORKERS,default=0"`

	RateLimitMax        int           `env:"RATE_LIMIT_MAX,default=20"`
	RateLimitWindow     time.Duration `env:"RATE_LIMIT_WINDOW,default=60s"`
	RateLimitMaxBuckets int           `env:"RATE_LIMIT_MAX_BUCKETS,default=100000"`
	// RedisAddr switches the limiter to Redis when set.
	RedisAddr string `env:"REDIS_ADDR"`

	// Sample images fall back to a fixed set when either is empty.
	GoogleCSEAPIKey string `env:"GOOGLE_CSE_API_KEY"`
	GoogleCSECX     string `env:"GOOGLE_CSE_CX"`
}

// Load reads the configuration from the environment, optionally after
// loading variables from a .env file in the working directory.
func Load(useDotEnv bool) (Config, error) {
	if useDotEnv {
		if err := godotenv.Load(); err != nil {
			slog.Debug("config: no .env file, using process environment")
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT %d out of range", c.Port)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config error: MAX_BODY_BYTES must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config error: LOG_FORMAT %q must be text or json", c.LogFormat)
	}
	return nil
}

// Address is the listen address.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config error: LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// SamplesEnabled reports whether Google Custom Search credentials are set.
func (c Config) SamplesEnabled() bool {
	return c.GoogleCSEAPIKey != "" && c.GoogleCSECX != ""
}
