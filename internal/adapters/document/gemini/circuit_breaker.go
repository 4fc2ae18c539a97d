package gemini

import (
	"context"
	"errors"
	"sync"
	"time"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

// CircuitState represents the state of the circuit breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation
	CircuitOpen                         // Requests fail fast
	CircuitHalfOpen                     // Single probe decides the next state
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker fast-fails calls to the document service after repeated
// failures, so a degraded dependency is not hammered by retries. One
// instance is shared process-wide across concurrent extraction requests:
// it reflects the aggregate health of a single external dependency.
type CircuitBreaker struct {
	threshold int           // Consecutive failures before opening
	cooldown  time.Duration // Time to wait before attempting half-open
	now       func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a circuit breaker. Non-positive arguments
// fall back to the defaults (5 failures, 60s cooldown).
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		state:     CircuitClosed,
	}
}

// Execute runs fn under circuit breaker protection. While the circuit is
// open, calls fail immediately with CIRCUIT_OPEN without touching the
// network. The first call after the cooldown runs as a half-open probe;
// its outcome alone decides whether the circuit closes or reopens.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return expense.NewTerminal(expense.CodeCircuitOpen, "circuit breaker is open", nil)
		}
		cb.state = CircuitHalfOpen
		cb.probing = true
		return nil
	case CircuitHalfOpen:
		if cb.probing {
			// Only one probe at a time; everyone else keeps failing fast.
			return expense.NewTerminal(expense.CodeCircuitOpen, "circuit breaker is open", nil)
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.probing = false
	}

	// Caller cancellation says nothing about dependency health.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	if err != nil {
		cb.failures++
		if cb.state == CircuitHalfOpen || cb.failures >= cb.threshold {
			cb.state = CircuitOpen
			cb.openedAt = cb.now()
			cb.failures = 0
		}
		return
	}

	cb.failures = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
