/*
Package ratelimit provides the admission-control half of the request
pipeline: a weighted token bucket that every outbound venue call must
pass through before touching the network.

# Overview

A Bucket holds a budget of tokens that refills continuously at a
configured rate. Each logical endpoint carries a weight (default 1)
reflecting how expensive the call is to the remote venue; Acquire
suspends the caller until the weight can be deducted without ever
granting tokens that do not exist.

# Usage

	bucket, err := ratelimit.New(ratelimit.Config{
		Capacity:   10,
		RefillRate: 10, // tokens per window
		Window:     time.Second,
		Weights:    map[string]int{"placeOrder": 2},
	})
	if err != nil {
		return err
	}

	// Suspends until 2 tokens are available, then deducts them.
	if err := bucket.Acquire(ctx, "placeOrder"); err != nil {
		return err // context canceled; no tokens consumed
	}

Cancelling the context while waiting aborts the wait and returns the
reserved tokens to the bucket.

Buckets are private to one client instance by default. Cross-adapter
throttling against a shared venue budget is an explicit choice: build
one Bucket and hand it to each client at construction.
*/
package ratelimit
