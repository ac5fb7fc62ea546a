/*
Package breaker implements the failure-detector half of the request
pipeline: a three-state circuit breaker that short-circuits calls to a
degraded venue.

# States

  - Closed: normal operation, every call admitted
  - Open: venue judged unhealthy, calls rejected without touching the network
  - HalfOpen: probing recovery with a bounded number of concurrent trials

Transitions:

	Closed --[FailureThreshold consecutive failures]--> Open
	Open   --[ResetTimeout elapsed, checked on Allow]--> HalfOpen
	HalfOpen --[SuccessThreshold consecutive successes]--> Closed
	HalfOpen --[any failure]--> Open

The Open to HalfOpen transition happens lazily on the next Allow call,
never via a background timer. HalfOpen admits at most SuccessThreshold
in-flight probes so a recovering venue is not flooded.

# Usage

	brk := breaker.New("kraken", breaker.Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		ResetTimeout:     60 * time.Second,
		OnStateChange: func(name string, from, to breaker.State) {
			log.Warn("breaker transition", zap.String("venue", name))
		},
	})

	if !brk.Allow() {
		return breaker.ErrOpen
	}
	err := call()
	if err != nil {
		brk.ReportFailure()
	} else {
		brk.ReportSuccess()
	}

Every Allow that returns true must be balanced by exactly one report,
otherwise half-open probe slots leak until the next transition.
*/
package breaker
