package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerAggregatesPerEndpoint(t *testing.T) {
	tracker := NewTracker()

	tracker.Record("ticker", 10*time.Millisecond, false)
	tracker.Record("ticker", 30*time.Millisecond, true)
	tracker.Record("ticker", 20*time.Millisecond, false)
	tracker.Record("placeOrder", 5*time.Millisecond, false)

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 2)

	ticker := snapshot["ticker"]
	assert.Equal(t, uint64(3), ticker.Count)
	assert.Equal(t, uint64(1), ticker.Errors)
	assert.Equal(t, 10*time.Millisecond, ticker.MinLatency)
	assert.Equal(t, 30*time.Millisecond, ticker.MaxLatency)
	assert.Equal(t, 60*time.Millisecond, ticker.TotalLatency)

	order := snapshot["placeOrder"]
	assert.Equal(t, uint64(1), order.Count)
	assert.Equal(t, uint64(0), order.Errors)
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tracker := NewTracker()
	tracker.Record("ticker", time.Millisecond, false)

	snapshot := tracker.Snapshot()
	tracker.Record("ticker", time.Millisecond, true)

	assert.Equal(t, uint64(1), snapshot["ticker"].Count)
	assert.Equal(t, uint64(2), tracker.Snapshot()["ticker"].Count)
}

func TestTrackerConcurrentRecords(t *testing.T) {
	tracker := NewTracker()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				tracker.Record("ticker", time.Millisecond, j%2 == 0)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	stats := tracker.Snapshot()["ticker"]
	assert.Equal(t, uint64(800), stats.Count)
	assert.Equal(t, uint64(400), stats.Errors)
}

func TestPromSinkRegistersAndObserves(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := NewProm(registry)

	sink.ObserveAttempt("kraken", "ticker", "GET", "200", 12*time.Millisecond, false)
	sink.ObserveAttempt("kraken", "ticker", "GET", "503", 40*time.Millisecond, true)
	sink.ObserveRateLimitWait("kraken", 3*time.Millisecond)
	sink.SetBreakerState("kraken", 2)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["venuekit_http_attempts_total"])
	assert.True(t, names["venuekit_http_attempt_errors_total"])
	assert.True(t, names["venuekit_ratelimit_wait_seconds"])
	assert.True(t, names["venuekit_breaker_state"])
}

func TestNopSinkDiscardsEverything(t *testing.T) {
	var sink Sink = Nop{}
	sink.ObserveAttempt("x", "y", "GET", "200", time.Millisecond, false)
	sink.ObserveRateLimitWait("x", time.Millisecond)
	sink.SetBreakerState("x", 0)
}
