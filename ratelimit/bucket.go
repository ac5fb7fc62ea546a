package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/venuekit/venuekit/clock"
)

// ErrWeightExceedsCapacity is returned when an endpoint weight can never
// be satisfied because it is larger than the bucket capacity.
var ErrWeightExceedsCapacity = fmt.Errorf("ratelimit: weight exceeds bucket capacity")

// Config defines the token budget for one venue.
type Config struct {
	// Capacity is the maximum number of tokens the bucket holds.
	Capacity int
	// RefillRate is how many tokens accrue per Window.
	RefillRate float64
	// Window is the refill accounting window. Zero means one second.
	Window time.Duration
	// Weights maps endpoint keys to their token cost. Unknown keys cost 1.
	Weights map[string]int
}

// unlimited reports whether the config disables throttling entirely.
func (c Config) unlimited() bool {
	return c.Capacity <= 0 && c.RefillRate <= 0
}

// Bucket is a weighted token bucket. Refill is lazy: token arithmetic
// happens at acquire time against the injected clock, never via a
// background timer. Safe for concurrent use.
type Bucket struct {
	lim *rate.Limiter
	clk clock.Clock

	mu      sync.RWMutex
	weights map[string]int
}

// Option customizes a Bucket.
type Option func(*Bucket)

// WithClock injects a time source. Defaults to the system clock.
func WithClock(c clock.Clock) Option {
	return func(b *Bucket) { b.clk = c }
}

// New creates a Bucket from cfg. A zero-valued budget (no capacity, no
// refill rate) yields an unlimited bucket that admits every caller
// immediately.
func New(cfg Config, opts ...Option) (*Bucket, error) {
	b := &Bucket{clk: clock.Real()}
	for _, opt := range opts {
		opt(b)
	}

	if cfg.unlimited() {
		b.lim = rate.NewLimiter(rate.Inf, 0)
		return b, nil
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("ratelimit: capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.RefillRate <= 0 {
		return nil, fmt.Errorf("ratelimit: refill rate must be positive, got %v", cfg.RefillRate)
	}

	window := cfg.Window
	if window <= 0 {
		window = time.Second
	}
	perSecond := cfg.RefillRate / window.Seconds()

	b.lim = rate.NewLimiter(rate.Limit(perSecond), cfg.Capacity)

	if len(cfg.Weights) > 0 {
		b.weights = make(map[string]int, len(cfg.Weights))
		for key, w := range cfg.Weights {
			if w < 1 {
				return nil, fmt.Errorf("ratelimit: weight for %q must be >= 1, got %d", key, w)
			}
			if w > cfg.Capacity {
				return nil, fmt.Errorf("%w: %q costs %d, capacity %d", ErrWeightExceedsCapacity, key, w, cfg.Capacity)
			}
			b.weights[key] = w
		}
	}

	return b, nil
}

// Weight returns the configured token cost for an endpoint key, or 1
// for unknown keys.
func (b *Bucket) Weight(endpointKey string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if w, ok := b.weights[endpointKey]; ok {
		return w
	}
	return 1
}

// Acquire suspends until the endpoint's configured weight can be
// deducted, then deducts it atomically. Cancelling ctx aborts the wait
// without consuming tokens.
func (b *Bucket) Acquire(ctx context.Context, endpointKey string) error {
	return b.AcquireN(ctx, endpointKey, b.Weight(endpointKey))
}

// AcquireN is Acquire with an explicit weight, for callers that compute
// cost dynamically (batch order endpoints and the like).
func (b *Bucket) AcquireN(ctx context.Context, endpointKey string, weight int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if weight < 1 {
		weight = 1
	}

	now := b.clk.Now()
	res := b.lim.ReserveN(now, weight)
	if !res.OK() {
		return fmt.Errorf("%w: %q costs %d, capacity %d", ErrWeightExceedsCapacity, endpointKey, weight, b.lim.Burst())
	}

	delay := res.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := b.clk.Sleep(ctx, delay); err != nil {
		// Return the reserved tokens so an aborted wait costs nothing.
		res.CancelAt(b.clk.Now())
		return err
	}
	return nil
}

// Tokens reports the number of tokens currently available.
func (b *Bucket) Tokens() float64 {
	return b.lim.TokensAt(b.clk.Now())
}

// Capacity reports the maximum token budget.
func (b *Bucket) Capacity() int {
	return b.lim.Burst()
}
