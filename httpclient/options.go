package httpclient

import (
	"time"

	"github.com/venuekit/venuekit/clock"
	"github.com/venuekit/venuekit/logging"
	"github.com/venuekit/venuekit/metrics"
	"github.com/venuekit/venuekit/ratelimit"
)

// Option customizes a Client at construction.
type Option func(*Client)

// WithLogger injects a structured logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetricsSink injects a metrics sink. Defaults to metrics.Nop.
func WithMetricsSink(s metrics.Sink) Option {
	return func(c *Client) { c.sink = s }
}

// WithClock injects a time source for backoff, token refill, and breaker
// timing. Defaults to the system clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clk = clk }
}

// WithSharedBucket replaces the client-private token bucket with a
// caller-provided one, for throttling several adapters against a single
// venue-wide budget. Sharing is always this explicit choice, never a
// hidden default.
func WithSharedBucket(b *ratelimit.Bucket) Option {
	return func(c *Client) { c.bucket = b }
}

// WithJitter replaces the backoff jitter function. Tests pass the
// identity function for deterministic delays.
func WithJitter(fn func(time.Duration) time.Duration) Option {
	return func(c *Client) { c.jitter = fn }
}

// RequestOption customizes a single request.
type RequestOption func(*Descriptor)

// WithHeaders merges headers into the request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(d *Descriptor) {
		if d.Headers == nil {
			d.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			d.Headers[k] = v
		}
	}
}

// WithHeader sets a single request header.
func WithHeader(key, value string) RequestOption {
	return WithHeaders(map[string]string{key: value})
}

// WithQuery merges query parameters into the request.
func WithQuery(params map[string]string) RequestOption {
	return func(d *Descriptor) {
		if d.Query == nil {
			d.Query = make(map[string]string, len(params))
		}
		for k, v := range params {
			d.Query[k] = v
		}
	}
}

// WithBody sets the request body. Structs and maps are JSON-encoded;
// []byte and string pass through unchanged.
func WithBody(body any) RequestOption {
	return func(d *Descriptor) { d.Body = body }
}

// WithEndpointKey sets the logical endpoint key used for token-bucket
// weight lookup and metrics labels. Defaults to the request path.
func WithEndpointKey(key string) RequestOption {
	return func(d *Descriptor) { d.EndpointKey = key }
}

// WithRequestTimeout overrides the per-attempt timeout for this call.
func WithRequestTimeout(timeout time.Duration) RequestOption {
	return func(d *Descriptor) { d.Timeout = timeout }
}
