// Package governance enforces per-endpoint traffic limits: a fixed-window
// call counter and a counted admission semaphore, composed into a single
// gate that yields one admit/reject decision per request.
//
// All mutable state lives in explicitly constructed stores keyed by endpoint,
// never in package globals, so tests and multi-tenant wiring get isolated
// instances.
package governance

import "net/http"

// Decision is the outcome of a gate admission check.
type Decision int

const (
	Admitted Decision = iota
	RateExceeded
	ConcurrencyExceeded
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case RateExceeded:
		return "rate_exceeded"
	case ConcurrencyExceeded:
		return "concurrency_exceeded"
	default:
		return "unknown"
	}
}

// StatusCode maps a rejection to its governing HTTP status. Admitted maps
// to 0; the admitted call's status belongs to the handler, not the gate.
func (d Decision) StatusCode() int {
	switch d {
	case RateExceeded:
		return http.StatusTooManyRequests
	case ConcurrencyExceeded:
		return http.StatusLocked
	default:
		return 0
	}
}

// Policy is the traffic configuration for one endpoint. A nil limit means
// that dimension is ungoverned.
type Policy struct {
	Rate        *RateLimit
	Concurrency *ConcurrencyLimit
}
