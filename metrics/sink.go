package metrics

import "time"

// Sink receives one observation per transport attempt plus pipeline
// events. Implementations must be safe for concurrent use.
type Sink interface {
	// ObserveAttempt records one transport attempt. status is the HTTP
	// status code as a string, or "error" for network-level failures.
	ObserveAttempt(exchange, endpoint, method, status string, d time.Duration, failed bool)
	// ObserveRateLimitWait records time spent waiting on the token bucket.
	ObserveRateLimitWait(exchange string, d time.Duration)
	// SetBreakerState records the breaker state as a numeric gauge
	// (0 closed, 1 half-open, 2 open).
	SetBreakerState(exchange string, state int)
}

// Nop is a Sink that discards every observation.
type Nop struct{}

func (Nop) ObserveAttempt(string, string, string, string, time.Duration, bool) {}
func (Nop) ObserveRateLimitWait(string, time.Duration)                         {}
func (Nop) SetBreakerState(string, int)                                        {}
