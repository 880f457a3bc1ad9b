package resilience

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting the underlying operation.
var ErrCircuitOpen = errors.New("resilience: circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig tunes a CircuitBreaker. Zero values fall back to
// the defaults applied in NewCircuitBreaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open.
	FailureThreshold int
	// OpenTimeout is how long the breaker stays open before allowing a
	// single probe call.
	OpenTimeout time.Duration
	// HalfOpenSuccesses is the number of consecutive probe successes
	// required to close the breaker again.
	HalfOpenSuccesses int
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = 1
	}
	return c
}

// CircuitBreaker sheds load from a failing upstream. Only errors the
// caller classifies as tripping (via the shouldTrip callback in Do)
// count toward opening the circuit.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     breakerState
	failures  int
	successes int
	openedAt  time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg: cfg.withDefaults(),
		now: time.Now,
	}
}

// Do runs fn unless the circuit is open. shouldTrip decides whether an
// error from fn counts against the breaker; a nil shouldTrip counts
// every error.
func (b *CircuitBreaker) Do(fn func() error, shouldTrip func(error) bool) error {
	if !b.allow() {
		return ErrCircuitOpen
	}

	err := fn()
	if err == nil {
		b.recordSuccess()
		return nil
	}

	if shouldTrip == nil || shouldTrip(err) {
		b.recordFailure()
	}
	return err
}

// State reports the current state name for logging.
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked().String()
}

func (b *CircuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentLocked() {
	case stateOpen:
		return false
	case stateHalfOpen:
		// A single probe at a time keeps the upstream from being
		// hammered while it recovers.
		if b.state != stateHalfOpen {
			b.state = stateHalfOpen
			b.successes = 0
		}
		return true
	default:
		return true
	}
}

// currentLocked resolves the effective state, promoting open to
// half-open once the open timeout has elapsed.
func (b *CircuitBreaker) currentLocked() breakerState {
	if b.state == stateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return stateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentLocked() {
	case stateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenSuccesses {
			b.state = stateClosed
			b.failures = 0
			b.successes = 0
		} else {
			b.state = stateHalfOpen
		}
	default:
		b.failures = 0
	}
}

func (b *CircuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentLocked() {
	case stateHalfOpen:
		// Probe failed, reopen immediately.
		b.trip()
	default:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.trip()
		}
	}
}

func (b *CircuitBreaker) trip() {
	b.state = stateOpen
	b.openedAt = b.now()
	b.failures = 0
	b.successes = 0
}
