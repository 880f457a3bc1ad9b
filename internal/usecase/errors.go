package usecase

import crerr "github.com/cockroachdb/errors"

// Sentinel errors shared across services and mapped to transport
// status codes at the API layer.
var (
	// ErrInvalidInput marks validation failures on caller-supplied data.
	ErrInvalidInput = crerr.New("invalid input")
	// ErrNotFound marks a player or stored document that does not exist.
	ErrNotFound = crerr.New("not found")
	// ErrUnauthorized marks an upstream credential rejection.
	ErrUnauthorized = crerr.New("unauthorized")
	// ErrRateLimited marks an upstream rate limit that survived retries.
	ErrRateLimited = crerr.New("rate limited")
	// ErrUpstream marks any other upstream API failure.
	ErrUpstream = crerr.New("upstream failure")
	// ErrStorage marks blob or database storage failures.
	ErrStorage = crerr.New("storage failure")
	// ErrTimeout marks a collector that ran past its deadline.
	ErrTimeout = crerr.New("collection timed out")
	// ErrDependencyUnavailable marks a dependency shed by the circuit
	// breaker or otherwise known to be down.
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
)
