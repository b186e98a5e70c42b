package apperrors

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

// CircuitState represents the current state of a circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	Name string
	// MaxFailures consecutive failures open the circuit. Defaults to 5.
	MaxFailures int
	// ResetTimeout is how long an open circuit rejects calls before probing.
	ResetTimeout time.Duration
	// ProbeCalls successful probes close a half-open circuit. Defaults to 1.
	ProbeCalls int
	// Counts decides whether err counts as a failure of the remote side.
	// Defaults to CountsAsFailure.
	Counts func(err error) bool
}

// CountsAsFailure ignores cancelled calls and errors classified as
// VALIDATION or NOTFOUND, which are answers of a healthy remote.
func CountsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch GetClass(err) {
	case ErrClassValidation, ErrClassNotFound:
		return false
	}
	return true
}

// CircuitBreaker fails calls to a remote collaborator fast once it keeps
// failing. Closed opens after MaxFailures; open turns half-open after
// ResetTimeout; half-open closes after ProbeCalls successes and reopens on
// the first failure.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	probes      int
	lastFailure time.Time
}

// NewCircuitBreaker creates a breaker with the default failure rules.
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return NewCircuitBreakerWithConfig(BreakerConfig{Name: name, MaxFailures: maxFailures, ResetTimeout: resetTimeout})
}

func NewCircuitBreakerWithConfig(cfg BreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ProbeCalls <= 0 {
		cfg.ProbeCalls = 1
	}
	if cfg.Counts == nil {
		cfg.Counts = CountsAsFailure
	}
	return &CircuitBreaker{cfg: cfg}
}

// Execute runs operation unless the circuit is open, in which case a
// NETWORK error is returned without calling it.
func (cb *CircuitBreaker) Execute(operation func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := operation()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if time.Since(cb.lastFailure) > cb.cfg.ResetTimeout {
		cb.setLocked(StateHalfOpen)
		return nil
	}
	return New(ErrClassNetwork, "circuit_breaker", "circuit is open").WithContext("circuit", cb.cfg.Name)
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.cfg.Counts(err) {
		if cb.state == StateHalfOpen {
			cb.probes++
			if cb.probes >= cb.cfg.ProbeCalls {
				cb.setLocked(StateClosed)
			}
		} else {
			cb.failures = 0
		}
		return
	}

	cb.failures++
	cb.lastFailure = time.Now()
	if cb.state == StateHalfOpen || cb.failures >= cb.cfg.MaxFailures {
		cb.setLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) setLocked(state CircuitState) {
	if cb.state != state {
		level := logger.StrInfo
		if state == StateOpen {
			level = logger.StrWarn
		}
		logger.Logtype(level, 0).
			Str("circuit", cb.cfg.Name).
			Str("from_state", cb.state.String()).
			Str("to_state", state.String()).
			Int("failures", cb.failures).
			Msg("circuit breaker state changed")
	}
	cb.state = state
	cb.probes = 0
	if state != StateOpen {
		cb.failures = 0
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.setLocked(StateClosed)
	cb.mu.Unlock()
}
