package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prom is a Sink backed by Prometheus metric vectors.
type Prom struct {
	attempts     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	limiterWait  *prometheus.HistogramVec
	breakerState *prometheus.GaugeVec
}

// NewProm creates a Prom sink registered on reg. A nil registerer uses
// the default Prometheus registry. Register at most one Prom per
// registry; the metric names collide otherwise.
func NewProm(reg prometheus.Registerer) *Prom {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prom{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "venuekit_http_attempts_total",
				Help: "Total number of transport attempts",
			},
			[]string{"exchange", "endpoint", "method", "status"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "venuekit_http_attempt_duration_seconds",
				Help:    "Transport attempt duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"exchange", "endpoint", "method"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "venuekit_http_attempt_errors_total",
				Help: "Total number of failed transport attempts",
			},
			[]string{"exchange", "endpoint", "method"},
		),
		limiterWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "venuekit_ratelimit_wait_seconds",
				Help:    "Time spent waiting on the token bucket",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
			},
			[]string{"exchange"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "venuekit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"exchange"},
		),
	}
}

func (p *Prom) ObserveAttempt(exchange, endpoint, method, status string, d time.Duration, failed bool) {
	p.attempts.WithLabelValues(exchange, endpoint, method, status).Inc()
	p.latency.WithLabelValues(exchange, endpoint, method).Observe(d.Seconds())
	if failed {
		p.errors.WithLabelValues(exchange, endpoint, method).Inc()
	}
}

func (p *Prom) ObserveRateLimitWait(exchange string, d time.Duration) {
	p.limiterWait.WithLabelValues(exchange).Observe(d.Seconds())
}

func (p *Prom) SetBreakerState(exchange string, state int) {
	p.breakerState.WithLabelValues(exchange).Set(float64(state))
}
