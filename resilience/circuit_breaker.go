package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/attendant/logger"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows probe requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
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

// ErrCircuitOpen matches any CircuitOpenError via errors.Is.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError is returned when a circuit breaker rejects a call.
// It names the breaker so callers can tell a fast-fail rejection apart
// from a genuine dependency failure.
type CircuitOpenError struct {
	// Name is the breaker that rejected the call.
	Name string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for service '%s': service is temporarily unavailable", e.Name)
}

// Is reports whether target is ErrCircuitOpen.
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// IsRetryable reports false: an open circuit rejects calls until its
// cooldown elapses, so retrying inside the backoff window cannot succeed.
func (e *CircuitOpenError) IsRetryable() bool {
	return false
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// MaxFailures is the number of failures before opening the circuit.
	// Any success resets the count, so failures do not accumulate across
	// a healthy period.
	MaxFailures int
	// SuccessThreshold is the number of successful probes in half-open
	// required to close the circuit.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration
	// OnStateChange is called when state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns the general-purpose profile.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// SensitiveCircuitBreakerConfig trips early and probes again quickly.
// Suited to dependencies with a fallback, where failing over fast matters
// more than riding out noise.
func SensitiveCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      3,
		SuccessThreshold: 1,
		Timeout:          10 * time.Second,
	}
}

// ResilientCircuitBreakerConfig tolerates sustained errors before tripping
// and demands more proof of recovery before closing.
func ResilientCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      10,
		SuccessThreshold: 3,
		Timeout:          60 * time.Second,
	}
}

// CircuitBreaker implements the circuit breaker pattern.
// It prevents cascading failures by failing fast when a service is unhealthy.
//
// States:
//   - Closed: Normal operation, requests pass through
//   - Open: Service is unhealthy, requests fail immediately
//   - Half-Open: Testing if service recovered, probe requests allowed
//
// The open-to-half-open transition is evaluated lazily on the next state
// read after Timeout elapses. No background goroutine is involved.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	lastFailureTime time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs the given function through the circuit breaker.
// Returns a CircuitOpenError, without invoking the function, if the
// circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		logger.Warn("Circuit breaker preventing call", map[string]interface{}{
			"circuit": cb.config.Name,
		})
		return &CircuitOpenError{Name: cb.config.Name}
	}

	err := fn()
	cb.recordResult(err)
	return err
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failures = 0
	cb.successes = 0
}

// Failures returns the current failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// allowRequest checks if a request should be allowed.
func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateClosed, StateHalfOpen:
		return true
	default:
		return false
	}
}

// recordResult records the result of a request.
func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

// onSuccess handles a successful request. A success in any state clears
// the failure count.
func (cb *CircuitBreaker) onSuccess() {
	cb.failures = 0

	if cb.currentState() == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.toState(StateClosed)
		}
	}
}

// onFailure handles a failed request.
func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = time.Now()

	switch cb.currentState() {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.toState(StateOpen)
		}
	case StateHalfOpen:
		cb.toState(StateOpen)
	}
}

// currentState returns the current state, handling timeout transitions.
// Callers must hold the lock.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) >= cb.config.Timeout {
			cb.toState(StateHalfOpen)
		}
	}
	return cb.state
}

// toState transitions to a new state.
func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to
	cb.successes = 0
	if to == StateClosed {
		cb.failures = 0
	}

	cb.logTransition(from, to)

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// logTransition logs a state change. Opening edges log at warn level.
func (cb *CircuitBreaker) logTransition(from, to State) {
	fields := map[string]interface{}{
		"circuit": cb.config.Name,
		"from":    from.String(),
		"to":      to.String(),
	}

	switch {
	case from == StateOpen && to == StateHalfOpen:
		logger.Debug("Circuit transitioning from open to half-open", fields)
	case from == StateHalfOpen && to == StateClosed:
		logger.Info("Circuit transitioning from half-open to closed", fields)
	case from == StateHalfOpen && to == StateOpen:
		logger.Warn("Circuit transitioning from half-open to open after failure", fields)
	case to == StateOpen:
		fields["failures"] = cb.failures
		logger.Warn("Circuit transitioning from closed to open", fields)
	default:
		logger.Info("Circuit state changed", fields)
	}
}
