package chaos

import (
	"fmt"
	"time"
)

// FaultKind names a category of injected fault.
type FaultKind string

const (
	// FaultError returns a synthetic error with a configured message.
	FaultError FaultKind = "error"
	// FaultLatency delays the operation, then lets it proceed.
	FaultLatency FaultKind = "latency"
	// FaultLatencyThenError delays the operation, then fails it.
	FaultLatencyThenError FaultKind = "latency_then_error"
	// FaultTimeout waits for the configured duration, then fails with a
	// timeout error.
	FaultTimeout FaultKind = "timeout"
	// FaultCorruptedResponse marks the response as corrupted.
	FaultCorruptedResponse FaultKind = "corrupted_response"
	// FaultConnectionRefused simulates a refused connection.
	FaultConnectionRefused FaultKind = "connection_refused"
	// FaultConnectionReset simulates a reset connection.
	FaultConnectionReset FaultKind = "connection_reset"
	// FaultResourceExhausted simulates resource exhaustion.
	FaultResourceExhausted FaultKind = "resource_exhausted"
	// FaultRateLimited simulates an upstream rate limit.
	FaultRateLimited FaultKind = "rate_limited"
	// FaultCustom is a named fault for tracking bespoke scenarios.
	FaultCustom FaultKind = "custom"
)

// FaultType describes a fault to inject. Kind selects the behavior; the
// remaining fields carry the parameters the kind needs.
type FaultType struct {
	Kind FaultKind `json:"type" yaml:"type" mapstructure:"type"`
	// Message is the synthetic error text for error-like kinds, or the
	// name of a custom fault.
	Message string `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
	// Latency is the delay distribution for latency-bearing kinds.
	Latency LatencyDistribution `json:"latency,omitempty" yaml:"latency,omitempty" mapstructure:"latency"`
	// Timeout is the simulated timeout duration.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	// CorruptionRate is the probability (0.0 to 1.0) that a response is
	// corrupted.
	CorruptionRate float64 `json:"corruption_rate,omitempty" yaml:"corruption_rate,omitempty" mapstructure:"corruption_rate"`
}

// DefaultFaultType returns a generic error fault.
func DefaultFaultType() FaultType {
	return ErrorFault("Injected fault")
}

// ErrorFault returns a fault that fails with the given message.
func ErrorFault(message string) FaultType {
	return FaultType{Kind: FaultError, Message: message}
}

// LatencyFault returns a fault that delays the operation.
func LatencyFault(dist LatencyDistribution) FaultType {
	return FaultType{Kind: FaultLatency, Latency: dist}
}

// LatencyThenErrorFault returns a fault that delays, then fails.
func LatencyThenErrorFault(dist LatencyDistribution, message string) FaultType {
	return FaultType{Kind: FaultLatencyThenError, Latency: dist, Message: message}
}

// TimeoutFault returns a fault that waits d, then fails with a timeout.
func TimeoutFault(d time.Duration) FaultType {
	return FaultType{Kind: FaultTimeout, Timeout: d}
}

// ConnectionRefusedFault simulates a refused connection.
func ConnectionRefusedFault() FaultType {
	return FaultType{Kind: FaultConnectionRefused}
}

// ConnectionResetFault simulates a reset connection.
func ConnectionResetFault() FaultType {
	return FaultType{Kind: FaultConnectionReset}
}

// ResourceExhaustedFault simulates exhaustion of the named resource.
func ResourceExhaustedFault(resource string) FaultType {
	return FaultType{Kind: FaultResourceExhausted, Message: resource}
}

// RateLimitedFault simulates an upstream rate limit.
func RateLimitedFault() FaultType {
	return FaultType{Kind: FaultRateLimited}
}

// CorruptedResponseFault marks responses as corrupted with the given
// probability.
func CorruptedResponseFault(rate float64) FaultType {
	return FaultType{Kind: FaultCorruptedResponse, CorruptionRate: rate}
}

// CustomFault returns a named fault for bespoke scenarios.
func CustomFault(name string) FaultType {
	return FaultType{Kind: FaultCustom, Message: name}
}

// Err builds the InjectedError this fault produces. Latency-only faults
// have no error form and yield a generic error if forced.
func (f FaultType) Err() error {
	switch f.Kind {
	case FaultTimeout:
		return &InjectedError{Kind: FaultTimeout, Timeout: f.Timeout}
	case FaultConnectionRefused, FaultConnectionReset, FaultRateLimited:
		return &InjectedError{Kind: f.Kind}
	case FaultResourceExhausted:
		return &InjectedError{Kind: f.Kind, Message: f.Message}
	case FaultCorruptedResponse:
		return &InjectedError{Kind: f.Kind, Message: "corrupted response"}
	case FaultCustom:
		return &InjectedError{Kind: f.Kind, Message: fmt.Sprintf("custom fault: %s", f.Message)}
	case FaultLatency:
		return &InjectedError{Kind: FaultError, Message: "unexpected latency fault"}
	default:
		return &InjectedError{Kind: FaultError, Message: f.Message}
	}
}

// InjectedError is a synthetic failure produced by the injector. Callers
// that need to tell injected failures from real ones can errors.As for it.
type InjectedError struct {
	// Kind is the fault category that produced this error.
	Kind FaultKind
	// Message is the configured error text, if any.
	Message string
	// Timeout is the simulated timeout duration for timeout faults.
	Timeout time.Duration
}

func (e *InjectedError) Error() string {
	switch e.Kind {
	case FaultTimeout:
		return fmt.Sprintf("injected timeout after %s", e.Timeout)
	case FaultConnectionRefused:
		return "injected connection refused"
	case FaultConnectionReset:
		return "injected connection reset"
	case FaultResourceExhausted:
		return fmt.Sprintf("injected resource exhaustion: %s", e.Message)
	case FaultRateLimited:
		return "injected rate limit"
	default:
		return fmt.Sprintf("injected error: %s", e.Message)
	}
}
