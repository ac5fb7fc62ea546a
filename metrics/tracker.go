package metrics

import (
	"sync"
	"time"
)

// EndpointStats aggregates attempt outcomes for one endpoint key.
type EndpointStats struct {
	Count        uint64
	Errors       uint64
	MinLatency   time.Duration
	MaxLatency   time.Duration
	TotalLatency time.Duration
}

// Tracker keeps an instance-scoped per-endpoint snapshot. Every client
// owns its own Tracker; snapshots never leak across adapters.
type Tracker struct {
	mu        sync.RWMutex
	endpoints map[string]*EndpointStats
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{endpoints: make(map[string]*EndpointStats)}
}

// Record folds one attempt into the endpoint's stats.
func (t *Tracker) Record(endpoint string, d time.Duration, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.endpoints[endpoint]
	if !ok {
		s = &EndpointStats{MinLatency: d}
		t.endpoints[endpoint] = s
	}

	s.Count++
	s.TotalLatency += d
	if d < s.MinLatency {
		s.MinLatency = d
	}
	if d > s.MaxLatency {
		s.MaxLatency = d
	}
	if failed {
		s.Errors++
	}
}

// Snapshot returns a copy of the current per-endpoint stats.
func (t *Tracker) Snapshot() map[string]EndpointStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]EndpointStats, len(t.endpoints))
	for key, s := range t.endpoints {
		out[key] = *s
	}
	return out
}
