package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuekit/venuekit/clock"
)

func newTestBreaker(t *testing.T, settings Settings) (*Breaker, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Unix(1700000000, 0))
	settings.Clock = fake
	return New("test", settings), fake
}

func TestBreakerTransitionTable(t *testing.T) {
	brk, fake := newTestBreaker(t, Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     60 * time.Second,
	})

	// Five consecutive failures trip the breaker.
	for i := 0; i < 4; i++ {
		brk.ReportFailure()
		assert.Equal(t, StateClosed, brk.State())
	}
	brk.ReportFailure()
	require.Equal(t, StateOpen, brk.State())

	// Rejected while the reset timeout has not elapsed.
	assert.False(t, brk.Allow())
	fake.Advance(59 * time.Second)
	assert.False(t, brk.Allow())

	// After the timeout the next allow-check admits a probe and moves
	// to half-open; no background timer is involved.
	fake.Advance(time.Second)
	assert.True(t, brk.Allow())
	assert.Equal(t, StateHalfOpen, brk.State())

	// One success is not enough to close with SuccessThreshold=2.
	brk.ReportSuccess()
	assert.Equal(t, StateHalfOpen, brk.State())

	// The second consecutive success closes.
	brk.ReportSuccess()
	assert.Equal(t, StateClosed, brk.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	brk, fake := newTestBreaker(t, Settings{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		ResetTimeout:     time.Minute,
	})

	brk.ReportFailure()
	brk.ReportFailure()
	require.Equal(t, StateOpen, brk.State())

	fake.Advance(time.Minute)
	require.True(t, brk.Allow())
	require.Equal(t, StateHalfOpen, brk.State())

	// Any half-open failure re-opens immediately with a fresh window.
	brk.ReportFailure()
	assert.Equal(t, StateOpen, brk.State())
	assert.False(t, brk.Allow())

	// The fresh window starts at the re-open, not the original trip.
	fake.Advance(59 * time.Second)
	assert.False(t, brk.Allow())
	fake.Advance(time.Second)
	assert.True(t, brk.Allow())
}

func TestBreakerBoundsHalfOpenProbes(t *testing.T) {
	brk, fake := newTestBreaker(t, Settings{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		ResetTimeout:     time.Second,
	})

	brk.ReportFailure()
	fake.Advance(time.Second)

	// At most SuccessThreshold probes may be in flight.
	assert.True(t, brk.Allow())
	assert.True(t, brk.Allow())
	assert.False(t, brk.Allow())

	// Finishing a probe frees its slot.
	brk.ReportSuccess()
	assert.True(t, brk.Allow())
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	brk, _ := newTestBreaker(t, Settings{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		ResetTimeout:     time.Minute,
	})

	brk.ReportFailure()
	brk.ReportFailure()
	brk.ReportSuccess()
	brk.ReportFailure()
	brk.ReportFailure()
	assert.Equal(t, StateClosed, brk.State())

	brk.ReportFailure()
	assert.Equal(t, StateOpen, brk.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string

	fake := clock.NewFake(time.Unix(1700000000, 0))
	brk := New("kraken", Settings{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		ResetTimeout:     time.Second,
		Clock:            fake,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	brk.ReportFailure()
	brk.ReportFailure()
	fake.Advance(time.Second)
	require.True(t, brk.Allow())
	brk.ReportSuccess()

	assert.Equal(t, []string{
		"closed->open",
		"open->half-open",
		"half-open->closed",
	}, transitions)
}

func TestBreakerMetrics(t *testing.T) {
	brk, fake := newTestBreaker(t, Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     time.Minute,
	})

	brk.ReportSuccess()
	brk.ReportSuccess()
	brk.ReportFailure()
	fake.Advance(10 * time.Second)

	m := brk.Metrics()
	assert.Equal(t, StateClosed, m.State)
	assert.Equal(t, uint64(3), m.TotalRequests)
	assert.Equal(t, uint64(1), m.TotalFailures)
	assert.InDelta(t, 1.0/3.0, m.ErrorRate, 1e-9)
	assert.Equal(t, uint32(1), m.ConsecutiveFailures)
	assert.Equal(t, 10*time.Second, m.TimeInState)
}

func TestBreakerDisabled(t *testing.T) {
	brk, _ := newTestBreaker(t, Settings{
		FailureThreshold: 1,
		Disabled:         true,
	})

	for i := 0; i < 10; i++ {
		brk.ReportFailure()
	}
	assert.Equal(t, StateClosed, brk.State())
	assert.True(t, brk.Allow())
	assert.Equal(t, uint64(10), brk.Metrics().TotalFailures)
}

func TestBreakerReset(t *testing.T) {
	brk, _ := newTestBreaker(t, Settings{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		ResetTimeout:     time.Hour,
	})

	brk.ReportFailure()
	require.Equal(t, StateOpen, brk.State())

	brk.Reset()
	assert.Equal(t, StateClosed, brk.State())
	assert.True(t, brk.Allow())
	assert.Equal(t, uint64(0), brk.Metrics().TotalRequests)
}

func TestBreakerConcurrentReports(t *testing.T) {
	brk, _ := newTestBreaker(t, Settings{
		FailureThreshold: 1000,
		SuccessThreshold: 2,
		ResetTimeout:     time.Minute,
	})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(fail bool) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if fail {
					brk.ReportFailure()
				} else {
					brk.ReportSuccess()
				}
			}
		}(i%2 == 0)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	m := brk.Metrics()
	assert.Equal(t, uint64(800), m.TotalRequests)
	assert.Equal(t, uint64(400), m.TotalFailures)
	assert.Equal(t, StateClosed, m.State)
}
