/*
Package httpclient is the integration point of the resilience pipeline:
a retrying HTTP client that routes every outbound venue call through a
token bucket and a circuit breaker before it touches the network.

# Pipeline

Each logical request runs:

 1. acquire token-bucket budget for the endpoint key (may suspend)
 2. check the circuit breaker; fail fast with zero network calls when open
 3. attempt loop: transport call bounded by the per-attempt timeout,
    outcome classified, breaker informed, retry with exponential backoff
    plus jitter (or Retry-After when the venue provides one)

All three suspension points (token wait, transport I/O, backoff sleep)
honor the caller's context, so one end-to-end deadline aborts the call
wherever it happens to be waiting.

# Latency bound

A call makes at most MaxAttempts transport attempts. With no caller
deadline, worst-case latency is MaxAttempts*(Timeout+MaxDelay); adapters
that need a hard ceiling should pass a context with a deadline.

# Usage

	client, err := httpclient.New(httpclient.Config{
		Exchange: "kraken",
		BaseURL:  "https://api.kraken.com",
		Timeout:  10 * time.Second,
		Retry: httpclient.RetryPolicy{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
		RateLimit: ratelimit.Config{Capacity: 15, RefillRate: 15},
		Breaker:   breaker.Settings{FailureThreshold: 5, SuccessThreshold: 2},
	})
	if err != nil {
		return err
	}

	var book OrderBook
	_, err = client.DoJSON(ctx, http.MethodGet, "/0/public/Depth", nil, &book,
		httpclient.WithEndpointKey("depth"))

The client surfaces raw failure information (status, body, attempt
count, underlying cause) in a typed *Error; adapter-level error mapping
is the caller's concern.
*/
package httpclient
