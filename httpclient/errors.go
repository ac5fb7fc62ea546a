package httpclient

import (
	"errors"
	"fmt"

	"github.com/venuekit/venuekit/breaker"
)

// StatusError is a non-2xx HTTP response surfaced as an error. The raw
// body is kept so the adapter's error mapper can decode venue-specific
// error payloads.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Error is the single error type the pipeline surfaces to adapters. It
// carries enough raw information (attempt count, request identity,
// final underlying cause) for adapter-level error-code mapping; the
// pipeline itself never decides the venue-facing classification.
//
// The wrapped cause is one of:
//   - breaker.ErrOpen: the call was short-circuited, zero network calls
//   - *StatusError: the last response had a non-success status
//   - a transport error: timeout, connection reset, DNS failure
//   - a context error: the caller's deadline or cancellation fired
type Error struct {
	Exchange    string
	Method      string
	Path        string
	EndpointKey string
	RequestID   string
	// Attempts is the number of transport attempts actually performed.
	// Zero means the call never reached the network.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %s after %d attempt(s): %v",
		e.Exchange, e.Method, e.Path, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsShortCircuit reports whether err is a breaker fast-fail, meaning no
// network call was made and the caller should back off at a higher level.
func IsShortCircuit(err error) bool {
	return errors.Is(err, breaker.ErrOpen)
}

// StatusOf extracts the HTTP status from err, if the final failure was
// an HTTP response rather than a transport or short-circuit error.
func StatusOf(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return 0, false
}
