package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/venuekit/venuekit/breaker"
	"github.com/venuekit/venuekit/clock"
	"github.com/venuekit/venuekit/logging"
	"github.com/venuekit/venuekit/metrics"
	"github.com/venuekit/venuekit/ratelimit"
)

// Config assembles one client for one venue. The client owns exactly
// one token bucket and one circuit breaker; nothing is shared across
// instances unless WithSharedBucket makes it explicit.
type Config struct {
	// Exchange is the venue label used in logs, metrics, and errors.
	Exchange string
	// BaseURL is the venue API root, e.g. "https://api.kraken.com".
	BaseURL string
	// Timeout bounds each individual transport attempt. Defaults to
	// 10 seconds; WithRequestTimeout overrides it per call.
	Timeout time.Duration
	// Retry is the retry policy. Zero fields take defaults.
	Retry RetryPolicy
	// RateLimit is the token-bucket budget. A zero value disables
	// throttling.
	RateLimit ratelimit.Config
	// Breaker configures the circuit breaker. Zero fields take defaults.
	Breaker breaker.Settings
}

// Descriptor describes one logical request. It is transient: built per
// call and discarded after completion.
type Descriptor struct {
	Method      string
	Path        string
	Headers     map[string]string
	Query       map[string]string
	Body        any
	Timeout     time.Duration
	EndpointKey string
	RequestID   string
}

// Response is a completed call. Body is the raw payload; adapters own
// the venue-specific decoding.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	// Attempts is how many transport attempts the call took.
	Attempts int
	// Duration is the latency of the final (successful) attempt.
	Duration time.Duration
}

// Client is the retrying HTTP client at the center of the pipeline.
// Safe for concurrent use.
type Client struct {
	exchange string
	rest     *resty.Client
	bucket   *ratelimit.Bucket
	brk      *breaker.Breaker
	policy   RetryPolicy

	retryable map[int]bool
	clk       clock.Clock
	log       *logging.Logger
	sink      metrics.Sink
	tracker   *metrics.Tracker
	jitter    func(time.Duration) time.Duration
	timeout   time.Duration
}

// New creates a Client for one venue.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpclient: base URL is required")
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "venue"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		exchange: cfg.Exchange,
		policy:   cfg.Retry.withDefaults(),
		clk:      clock.Real(),
		log:      logging.NewNop(),
		sink:     metrics.Nop{},
		tracker:  metrics.NewTracker(),
		jitter:   defaultJitter,
		timeout:  cfg.Timeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.retryable = make(map[int]bool, len(c.policy.RetryableStatuses))
	for _, status := range c.policy.RetryableStatuses {
		c.retryable[status] = true
	}

	if c.bucket == nil {
		bucket, err := ratelimit.New(cfg.RateLimit, ratelimit.WithClock(c.clk))
		if err != nil {
			return nil, fmt.Errorf("httpclient: rate limiter: %w", err)
		}
		c.bucket = bucket
	}

	settings := cfg.Breaker
	if settings.Clock == nil {
		settings.Clock = c.clk
	}
	userHook := settings.OnStateChange
	settings.OnStateChange = func(name string, from, to breaker.State) {
		c.log.Warn("circuit breaker state change",
			zap.String("exchange", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		c.sink.SetBreakerState(name, int(to))
		if userHook != nil {
			userHook(name, from, to)
		}
	}
	c.brk = breaker.New(cfg.Exchange, settings)

	// The hashicorp client contributes its pooled transport; retries
	// stay off because this pipeline owns the retry loop.
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil

	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "venuekit/1.0").
		SetTransport(rc.HTTPClient.Transport)
	rest.JSONMarshal = sonic.Marshal
	rest.JSONUnmarshal = sonic.Unmarshal
	c.rest = rest

	return c, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

// Post performs a POST request with the given body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, append(opts, WithBody(body))...)
}

// Put performs a PUT request with the given body.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, append(opts, WithBody(body))...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts...)
}

// DoJSON performs a request with a JSON body and decodes the response
// payload into out when out is non-nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, reqBody, out any, opts ...RequestOption) (*Response, error) {
	if reqBody != nil {
		opts = append(opts, WithBody(reqBody), WithHeader("Content-Type", "application/json"))
	}
	resp, err := c.Do(ctx, method, path, opts...)
	if err != nil {
		return resp, err
	}
	if out != nil && len(resp.Body) > 0 {
		if err := sonic.Unmarshal(resp.Body, out); err != nil {
			return resp, fmt.Errorf("httpclient: decode response: %w", err)
		}
	}
	return resp, nil
}

// Do performs a request with an arbitrary method.
func (c *Client) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	d := Descriptor{
		Method:    method,
		Path:      path,
		Timeout:   c.timeout,
		RequestID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.EndpointKey == "" {
		d.EndpointKey = path
	}
	return c.execute(ctx, d)
}

// execute runs the full pipeline for one descriptor.
func (c *Client) execute(ctx context.Context, d Descriptor) (*Response, error) {
	waitStart := c.clk.Now()
	if err := c.bucket.Acquire(ctx, d.EndpointKey); err != nil {
		return nil, c.fail(d, 0, fmt.Errorf("rate limit wait: %w", err))
	}
	c.sink.ObserveRateLimitWait(c.exchange, c.clk.Now().Sub(waitStart))

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		// Re-checked before every attempt so a breaker that opened
		// mid-loop never lets a retry through. A first-attempt
		// rejection consumes no retry budget.
		if !c.brk.Allow() {
			c.log.Warn("short-circuited by circuit breaker",
				zap.String("exchange", c.exchange),
				zap.String("endpoint", d.EndpointKey),
				zap.Int("attempts", attempt-1),
			)
			return nil, c.fail(d, attempt-1, breaker.ErrOpen)
		}

		resp, latency, err := c.attempt(ctx, d)

		if err != nil {
			// Network-level failure: timeout, reset, DNS.
			c.brk.ReportFailure()
			c.observe(d, "error", latency, true)
			cause := fmt.Errorf("transport: %w", err)
			if attempt == c.policy.MaxAttempts {
				return nil, c.fail(d, attempt, cause)
			}
			if werr := c.backoff(ctx, d, attempt, cause, nil); werr != nil {
				return nil, c.fail(d, attempt, werr)
			}
			continue
		}

		status := resp.StatusCode()
		label := strconv.Itoa(status)

		if status >= 200 && status < 300 {
			c.brk.ReportSuccess()
			c.observe(d, label, latency, false)
			return &Response{
				StatusCode: status,
				Body:       resp.Body(),
				Header:     resp.Header(),
				Attempts:   attempt,
				Duration:   latency,
			}, nil
		}

		// Failures feed the breaker whether retryable or not, so
		// sustained client misconfiguration cannot mask a degraded
		// endpoint.
		c.brk.ReportFailure()
		c.observe(d, label, latency, true)
		cause := &StatusError{Status: status, Body: resp.Body()}

		if !c.retryable[status] || attempt == c.policy.MaxAttempts {
			return nil, c.fail(d, attempt, cause)
		}
		if werr := c.backoff(ctx, d, attempt, cause, resp.Header()); werr != nil {
			return nil, c.fail(d, attempt, werr)
		}
	}

	// Unreachable: the loop always returns.
	return nil, c.fail(d, c.policy.MaxAttempts, fmt.Errorf("retries exhausted"))
}

// attempt performs one transport call bounded by the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, d Descriptor) (*resty.Response, time.Duration, error) {
	attemptCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	req := c.rest.R().SetContext(attemptCtx)
	if len(d.Headers) > 0 {
		req.SetHeaders(d.Headers)
	}
	if len(d.Query) > 0 {
		req.SetQueryParams(d.Query)
	}
	if d.Body != nil {
		req.SetBody(d.Body)
	}

	start := c.clk.Now()
	resp, err := req.Execute(d.Method, d.Path)
	return resp, c.clk.Now().Sub(start), err
}

// backoff sleeps before the next attempt. A venue-provided Retry-After
// wins over the computed delay but is capped at MaxDelay so a
// misbehaving venue cannot park the caller; jitter applies only to the
// computed delay.
func (c *Client) backoff(ctx context.Context, d Descriptor, attempt int, cause error, header http.Header) error {
	delay := c.jitter(c.policy.delay(attempt))
	if header != nil {
		if ra := parseRetryAfter(header.Get("Retry-After"), c.clk.Now()); ra > 0 {
			delay = ra
			if delay > c.policy.MaxDelay {
				delay = c.policy.MaxDelay
			}
		}
	}

	c.log.Warn("retrying request",
		zap.String("exchange", c.exchange),
		zap.String("endpoint", d.EndpointKey),
		zap.String("request_id", d.RequestID),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)

	if err := c.clk.Sleep(ctx, delay); err != nil {
		return fmt.Errorf("backoff interrupted: %w", err)
	}
	return nil
}

func (c *Client) observe(d Descriptor, status string, latency time.Duration, failed bool) {
	c.tracker.Record(d.EndpointKey, latency, failed)
	c.sink.ObserveAttempt(c.exchange, d.EndpointKey, d.Method, status, latency, failed)
}

func (c *Client) fail(d Descriptor, attempts int, cause error) error {
	return &Error{
		Exchange:    c.exchange,
		Method:      d.Method,
		Path:        d.Path,
		EndpointKey: d.EndpointKey,
		RequestID:   d.RequestID,
		Attempts:    attempts,
		Err:         cause,
	}
}

// Exchange returns the venue label.
func (c *Client) Exchange() string {
	return c.exchange
}

// RateLimiter exposes the token bucket for adapters that bypass the
// client and pay for non-HTTP operations against the same budget.
func (c *Client) RateLimiter() *ratelimit.Bucket {
	return c.bucket
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() breaker.State {
	return c.brk.State()
}

// BreakerMetrics returns a snapshot of the breaker counters.
func (c *Client) BreakerMetrics() breaker.Metrics {
	return c.brk.Metrics()
}

// MetricsSnapshot returns the per-endpoint latency/error counters for
// this client instance.
func (c *Client) MetricsSnapshot() map[string]metrics.EndpointStats {
	return c.tracker.Snapshot()
}
