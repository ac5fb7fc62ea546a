// Package config loads pipeline construction configuration from
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/venuekit/venuekit/breaker"
	"github.com/venuekit/venuekit/httpclient"
	"github.com/venuekit/venuekit/ratelimit"
)

// Config holds everything needed to assemble one venue client.
// Endpoint weights are code-level configuration (maps do not encode
// cleanly in the environment) and are set on RateLimit.Weights by the
// adapter before construction.
type Config struct {
	Venue     VenueConfig
	RateLimit RateLimitConfig
	Breaker   BreakerConfig
	Retry     RetryConfig
	Logging   LogConfig
}

// VenueConfig identifies the remote venue.
type VenueConfig struct {
	Label     string `envconfig:"VENUE_LABEL" default:"venue"`
	BaseURL   string `envconfig:"VENUE_BASE_URL"`
	TimeoutMs int    `envconfig:"VENUE_TIMEOUT_MS" default:"10000"`
}

// RateLimitConfig holds the token-bucket budget.
type RateLimitConfig struct {
	MaxTokens  int     `envconfig:"RATE_LIMIT_MAX_TOKENS" default:"10"`
	RefillRate float64 `envconfig:"RATE_LIMIT_REFILL_RATE" default:"10"`
	WindowMs   int     `envconfig:"RATE_LIMIT_WINDOW_MS" default:"1000"`
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold uint32 `envconfig:"BREAKER_FAILURE_THRESHOLD" default:"5"`
	SuccessThreshold uint32 `envconfig:"BREAKER_SUCCESS_THRESHOLD" default:"2"`
	ResetTimeoutMs   int    `envconfig:"BREAKER_RESET_TIMEOUT_MS" default:"60000"`
	Enabled          bool   `envconfig:"BREAKER_ENABLED" default:"true"`
}

// RetryConfig holds the retry policy.
type RetryConfig struct {
	MaxAttempts       int     `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	InitialDelayMs    int     `envconfig:"RETRY_INITIAL_DELAY_MS" default:"1000"`
	MaxDelayMs        int     `envconfig:"RETRY_MAX_DELAY_MS" default:"30000"`
	Multiplier        float64 `envconfig:"RETRY_MULTIPLIER" default:"2"`
	RetryableStatuses []int   `envconfig:"RETRY_RETRYABLE_STATUSES" default:"429,500,502,503,504"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Venue: VenueConfig{
			Label:     "venue",
			TimeoutMs: 10000,
		},
		RateLimit: RateLimitConfig{
			MaxTokens:  10,
			RefillRate: 10,
			WindowMs:   1000,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			ResetTimeoutMs:   60000,
			Enabled:          true,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialDelayMs:    1000,
			MaxDelayMs:        30000,
			Multiplier:        2,
			RetryableStatuses: []int{429, 500, 502, 503, 504},
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Bucket converts the rate-limit section to a ratelimit.Config.
func (c RateLimitConfig) Bucket() ratelimit.Config {
	return ratelimit.Config{
		Capacity:   c.MaxTokens,
		RefillRate: c.RefillRate,
		Window:     time.Duration(c.WindowMs) * time.Millisecond,
	}
}

// Settings converts the breaker section to breaker.Settings.
func (c BreakerConfig) Settings() breaker.Settings {
	return breaker.Settings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		ResetTimeout:     time.Duration(c.ResetTimeoutMs) * time.Millisecond,
		Disabled:         !c.Enabled,
	}
}

// Policy converts the retry section to an httpclient.RetryPolicy.
func (c RetryConfig) Policy() httpclient.RetryPolicy {
	return httpclient.RetryPolicy{
		MaxAttempts:       c.MaxAttempts,
		InitialDelay:      time.Duration(c.InitialDelayMs) * time.Millisecond,
		MaxDelay:          time.Duration(c.MaxDelayMs) * time.Millisecond,
		Multiplier:        c.Multiplier,
		RetryableStatuses: c.RetryableStatuses,
	}
}

// Client converts the whole config to an httpclient.Config.
func (c *Config) Client() httpclient.Config {
	return httpclient.Config{
		Exchange:  c.Venue.Label,
		BaseURL:   c.Venue.BaseURL,
		Timeout:   time.Duration(c.Venue.TimeoutMs) * time.Millisecond,
		Retry:     c.Retry.Policy(),
		RateLimit: c.RateLimit.Bucket(),
		Breaker:   c.Breaker.Settings(),
	}
}
