package httpclient

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy is the immutable retry configuration for one client.
type RetryPolicy struct {
	// MaxAttempts is the total number of transport attempts, including
	// the first. Defaults to 3.
	MaxAttempts int
	// InitialDelay is the backoff before the second attempt. Defaults
	// to 1 second.
	InitialDelay time.Duration
	// MaxDelay caps every backoff, including venue-provided Retry-After
	// values. Defaults to 30 seconds.
	MaxDelay time.Duration
	// Multiplier grows the delay between attempts. Defaults to 2.
	Multiplier float64
	// RetryableStatuses lists the HTTP statuses worth retrying.
	// Defaults to 429, 500, 502, 503, 504.
	RetryableStatuses []int
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	if p.RetryableStatuses == nil {
		p.RetryableStatuses = []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		}
	}
	return p
}

// delay computes the capped exponential backoff after the given attempt
// (1-based), before jitter.
func (p RetryPolicy) delay(attempt int) time.Duration {
	backoff := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if backoff > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(backoff)
}

// defaultJitter spreads a delay by ±25% to avoid synchronized retry
// storms across callers hitting the same venue.
func defaultJitter(d time.Duration) time.Duration {
	spread := float64(d) * 0.25 * (rand.Float64()*2 - 1)
	out := time.Duration(float64(d) + spread)
	if out < 0 {
		return 0
	}
	return out
}

// parseRetryAfter parses a Retry-After header value in either seconds
// or HTTP-date form. Returns 0 when absent or unparseable.
func parseRetryAfter(val string, now time.Time) time.Duration {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}

	if secs, err := strconv.ParseFloat(val, 64); err == nil && secs >= 0 {
		return time.Duration(math.Ceil(secs)) * time.Second
	}

	if t, err := http.ParseTime(val); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
