package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "venue", cfg.Venue.Label)
	assert.Equal(t, 10, cfg.RateLimit.MaxTokens)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.Equal(t, uint32(2), cfg.Breaker.SuccessThreshold)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, []int{429, 500, 502, 503, 504}, cfg.Retry.RetryableStatuses)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VENUE_LABEL", "kraken")
	t.Setenv("VENUE_BASE_URL", "https://api.kraken.com")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_RETRYABLE_STATUSES", "429,503")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("RATE_LIMIT_MAX_TOKENS", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "kraken", cfg.Venue.Label)
	assert.Equal(t, "https://api.kraken.com", cfg.Venue.BaseURL)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, []int{429, 503}, cfg.Retry.RetryableStatuses)
	assert.False(t, cfg.Breaker.Enabled)
	assert.Equal(t, 20, cfg.RateLimit.MaxTokens)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Venue.BaseURL = "https://api.example.com"

	bucket := cfg.RateLimit.Bucket()
	assert.Equal(t, 10, bucket.Capacity)
	assert.Equal(t, time.Second, bucket.Window)

	settings := cfg.Breaker.Settings()
	assert.Equal(t, 60*time.Second, settings.ResetTimeout)
	assert.False(t, settings.Disabled)

	policy := cfg.Retry.Policy()
	assert.Equal(t, time.Second, policy.InitialDelay)
	assert.Equal(t, 30*time.Second, policy.MaxDelay)

	client := cfg.Client()
	assert.Equal(t, "venue", client.Exchange)
	assert.Equal(t, "https://api.example.com", client.BaseURL)
	assert.Equal(t, 10*time.Second, client.Timeout)
}

func TestDisabledBreakerMapsToDisabledSettings(t *testing.T) {
	cfg := Default()
	cfg.Breaker.Enabled = false
	assert.True(t, cfg.Breaker.Settings().Disabled)
}
