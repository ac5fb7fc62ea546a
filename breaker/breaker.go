package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/venuekit/venuekit/clock"
)

var (
	// ErrOpen is returned by callers that short-circuit on a rejected Allow.
	ErrOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests signals that the half-open probe budget is spent.
	ErrTooManyRequests = errors.New("too many half-open probes")
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from closed to open. Defaults to 5.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the breaker. It also bounds the number of
	// concurrent half-open probes. Defaults to 2, minimum 1.
	SuccessThreshold uint32
	// ResetTimeout is how long the breaker stays open before the next
	// Allow admits a probe. Defaults to 60 seconds.
	ResetTimeout time.Duration
	// Disabled turns the breaker into a pass-through: Allow always
	// returns true and reports only feed the totals.
	Disabled bool
	// OnStateChange is called whenever the state changes. It runs with
	// the breaker lock held and must not call back into the breaker.
	OnStateChange func(name string, from State, to State)
	// Clock is the time source. Defaults to the system clock.
	Clock clock.Clock
}

// Metrics is a read-only snapshot for telemetry collaborators.
type Metrics struct {
	State                State
	TotalRequests        uint64
	TotalFailures        uint64
	ErrorRate            float64
	ConsecutiveFailures  uint32
	ConsecutiveSuccesses uint32
	TimeInState          time.Duration
}

// Breaker is a three-state circuit breaker. All state mutation happens
// under one mutex, so concurrent reports cannot interleave into an
// inconsistent state.
type Breaker struct {
	name     string
	settings Settings
	clk      clock.Clock

	mu                   sync.Mutex
	state                State
	consecutiveFailures  uint32
	consecutiveSuccesses uint32
	totalRequests        uint64
	totalFailures        uint64
	openedAt             time.Time
	changedAt            time.Time
	probes               uint32
}

// New creates a circuit breaker with the given settings.
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.SuccessThreshold == 0 {
		settings.SuccessThreshold = 2
	}
	if settings.ResetTimeout == 0 {
		settings.ResetTimeout = 60 * time.Second
	}
	clk := settings.Clock
	if clk == nil {
		clk = clock.Real()
	}

	return &Breaker{
		name:      name,
		settings:  settings,
		clk:       clk,
		state:     StateClosed,
		changedAt: clk.Now(),
	}
}

// Name returns the name of the circuit breaker.
func (b *Breaker) Name() string {
	return b.name
}

// Allow reports whether a call may proceed. In the open state it lazily
// transitions to half-open once ResetTimeout has elapsed; in half-open
// it admits at most SuccessThreshold in-flight probes. Every true
// result must be balanced by one ReportSuccess or ReportFailure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.settings.Disabled {
		return true
	}

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.clk.Now().Sub(b.openedAt) < b.settings.ResetTimeout {
			return false
		}
		b.setState(StateHalfOpen)
		b.probes = 1
		return true
	case StateHalfOpen:
		if b.probes >= b.settings.SuccessThreshold {
			return false
		}
		b.probes++
		return true
	default:
		return false
	}
}

// ReportSuccess records a successful call outcome.
func (b *Breaker) ReportSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalRequests++
	if b.settings.Disabled {
		return
	}

	switch b.state {
	case StateClosed:
		b.consecutiveSuccesses++
		b.consecutiveFailures = 0
	case StateHalfOpen:
		if b.probes > 0 {
			b.probes--
		}
		b.consecutiveSuccesses++
		b.consecutiveFailures = 0
		if b.consecutiveSuccesses >= b.settings.SuccessThreshold {
			b.setState(StateClosed)
		}
	case StateOpen:
		// Late report from a call admitted before the trip; counters only.
	}
}

// ReportFailure records a failed call outcome.
func (b *Breaker) ReportFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalRequests++
	b.totalFailures++
	if b.settings.Disabled {
		return
	}

	switch b.state {
	case StateClosed:
		b.consecutiveFailures++
		b.consecutiveSuccesses = 0
		if b.consecutiveFailures >= b.settings.FailureThreshold {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		// A single failed probe re-opens immediately with a fresh window.
		b.setState(StateOpen)
	case StateOpen:
		// Late report; totals already updated.
	}
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Metrics returns a snapshot of the breaker counters.
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := Metrics{
		State:                b.state,
		TotalRequests:        b.totalRequests,
		TotalFailures:        b.totalFailures,
		ConsecutiveFailures:  b.consecutiveFailures,
		ConsecutiveSuccesses: b.consecutiveSuccesses,
		TimeInState:          b.clk.Now().Sub(b.changedAt),
	}
	if b.totalRequests > 0 {
		m.ErrorRate = float64(b.totalFailures) / float64(b.totalRequests)
	}
	return m
}

// Reset forces the breaker back to closed and clears every counter.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setState(StateClosed)
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
	b.probes = 0
	b.totalRequests = 0
	b.totalFailures = 0
	b.changedAt = b.clk.Now()
}

// setState changes state, resets the per-state counters, and fires the
// transition callback. Callers must hold b.mu.
func (b *Breaker) setState(state State) {
	if b.state == state {
		// Re-opening from half-open still needs a fresh window.
		if state == StateOpen {
			b.openedAt = b.clk.Now()
		}
		return
	}

	prev := b.state
	b.state = state
	now := b.clk.Now()
	b.changedAt = now

	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
	b.probes = 0

	if state == StateOpen {
		b.openedAt = now
	} else {
		b.openedAt = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
