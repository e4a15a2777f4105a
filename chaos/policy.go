package chaos

import (
	"math/rand"
	"time"
)

// FaultPolicy decides whether, where, and what to inject.
type FaultPolicy struct {
	// FaultRate is the probability of injecting a fault (0.0 to 1.0).
	FaultRate float64 `json:"fault_rate" yaml:"fault_rate" mapstructure:"fault_rate"`
	// Fault is the fault to inject.
	Fault FaultType `json:"fault" yaml:"fault" mapstructure:"fault"`
	// Enabled gates the whole policy. Faults are off unless an
	// environment explicitly asks for them.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// TargetOperations limits injection to the named operations.
	// Empty targets every operation.
	TargetOperations []string `json:"target_operations,omitempty" yaml:"target_operations,omitempty" mapstructure:"target_operations"`
	// ExcludeOperations exempts the named operations. Exclusion wins
	// over targeting.
	ExcludeOperations []string `json:"exclude_operations,omitempty" yaml:"exclude_operations,omitempty" mapstructure:"exclude_operations"`
	// MaxFaults caps the total number of injections. 0 means unlimited.
	MaxFaults int `json:"max_faults,omitempty" yaml:"max_faults,omitempty" mapstructure:"max_faults"`
	// Cooldown is the minimum time between injections. 0 disables the
	// gate. A cooldown keeps a high fault rate from turning into a
	// fault storm.
	Cooldown time.Duration `json:"cooldown,omitempty" yaml:"cooldown,omitempty" mapstructure:"cooldown"`

	// rand is replaceable in tests. Returns a value in [0, 1).
	rand func() float64
}

// DefaultFaultPolicy returns a disabled policy with a 10% rate and a
// generic error fault.
func DefaultFaultPolicy() FaultPolicy {
	return FaultPolicy{
		FaultRate: 0.1,
		Fault:     DefaultFaultType(),
		Enabled:   false,
	}
}

// NeverPolicy returns a policy that never injects faults.
func NeverPolicy() FaultPolicy {
	p := DefaultFaultPolicy()
	p.FaultRate = 0
	p.Enabled = false
	return p
}

// AlwaysPolicy returns an enabled policy that injects the given fault on
// every call.
func AlwaysPolicy(fault FaultType) FaultPolicy {
	p := DefaultFaultPolicy()
	p.FaultRate = 1.0
	p.Fault = fault
	p.Enabled = true
	return p
}

// PolicyWithRate returns an enabled policy with the given fault rate.
func PolicyWithRate(rate float64) FaultPolicy {
	p := DefaultFaultPolicy()
	p.FaultRate = rate
	p.Enabled = true
	return p
}

// ErrorPolicy returns an enabled error-injection policy.
func ErrorPolicy(rate float64, message string) FaultPolicy {
	p := PolicyWithRate(rate)
	p.Fault = ErrorFault(message)
	return p
}

// LatencyPolicy returns an enabled latency-injection policy.
func LatencyPolicy(rate float64, dist LatencyDistribution) FaultPolicy {
	p := PolicyWithRate(rate)
	p.Fault = LatencyFault(dist)
	return p
}

// TimeoutPolicy returns an enabled timeout-injection policy.
func TimeoutPolicy(rate float64, timeout time.Duration) FaultPolicy {
	p := PolicyWithRate(rate)
	p.Fault = TimeoutFault(timeout)
	return p
}

// WithFault sets the fault to inject.
func (p FaultPolicy) WithFault(fault FaultType) FaultPolicy {
	p.Fault = fault
	return p
}

// WithEnabled enables or disables the policy.
func (p FaultPolicy) WithEnabled(enabled bool) FaultPolicy {
	p.Enabled = enabled
	return p
}

// WithTargets sets the targeted operations.
func (p FaultPolicy) WithTargets(operations ...string) FaultPolicy {
	p.TargetOperations = operations
	return p
}

// WithExclusions sets the excluded operations.
func (p FaultPolicy) WithExclusions(operations ...string) FaultPolicy {
	p.ExcludeOperations = operations
	return p
}

// WithMaxFaults caps the total number of injections.
func (p FaultPolicy) WithMaxFaults(n int) FaultPolicy {
	p.MaxFaults = n
	return p
}

// WithCooldown sets the minimum time between injections.
func (p FaultPolicy) WithCooldown(cooldown time.Duration) FaultPolicy {
	p.Cooldown = cooldown
	return p
}

// ShouldTarget reports whether the operation is eligible for injection.
func (p FaultPolicy) ShouldTarget(operation string) bool {
	for _, op := range p.ExcludeOperations {
		if op == operation {
			return false
		}
	}

	if len(p.TargetOperations) == 0 {
		return true
	}
	for _, op := range p.TargetOperations {
		if op == operation {
			return true
		}
	}
	return false
}

// ShouldInject draws against the fault rate. Rates at or below 0 never
// inject and rates at or above 1 always do, without consuming randomness.
func (p FaultPolicy) ShouldInject() bool {
	if !p.Enabled {
		return false
	}
	if p.FaultRate <= 0 {
		return false
	}
	if p.FaultRate >= 1 {
		return true
	}
	if p.rand != nil {
		return p.rand() < p.FaultRate
	}
	return rand.Float64() < p.FaultRate
}

// SelectFault returns the fault to inject, or nil when the policy is
// disabled.
func (p FaultPolicy) SelectFault() *FaultType {
	if !p.Enabled {
		return nil
	}
	f := p.Fault
	return &f
}
