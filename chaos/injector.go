package chaos

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/attendant/logger"
)

// InjectionResult describes what the injector decided for one call.
type InjectionResult int

const (
	// NoInjection means the probability draw passed; the operation
	// proceeds normally.
	NoInjection InjectionResult = iota
	// Injected means a fault was injected.
	Injected
	// Skipped means injection was not considered (disabled, excluded
	// operation, or cooldown).
	Skipped
	// LimitReached means the fault budget is spent.
	LimitReached
)

// String returns the result name.
func (r InjectionResult) String() string {
	switch r {
	case NoInjection:
		return "no-injection"
	case Injected:
		return "injected"
	case Skipped:
		return "skipped"
	case LimitReached:
		return "limit-reached"
	default:
		return "unknown"
	}
}

// Stats reports what an injector has done so far.
type Stats struct {
	// TotalCalls is the number of calls processed.
	TotalCalls uint64 `json:"total_calls"`
	// FaultsInjected is the number of faults injected.
	FaultsInjected uint64 `json:"faults_injected"`
	// CallsSkipped is the number of calls that proceeded unharmed.
	CallsSkipped uint64 `json:"calls_skipped"`
	// ErrorsInjected counts error-style faults.
	ErrorsInjected uint64 `json:"errors_injected"`
	// LatencyInjected counts latency faults.
	LatencyInjected uint64 `json:"latency_injected"`
	// TimeoutsInjected counts timeout faults.
	TimeoutsInjected uint64 `json:"timeouts_injected"`
	// TotalLatencyAddedMS is the sum of injected delays in milliseconds.
	TotalLatencyAddedMS uint64 `json:"total_latency_added_ms"`
}

// ActualFaultRate returns the observed injection rate.
func (s Stats) ActualFaultRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.FaultsInjected) / float64(s.TotalCalls)
}

// Injector applies a FaultPolicy to calls, tracking a fault budget,
// cooldown, and statistics. Safe for concurrent use.
type Injector struct {
	policy FaultPolicy

	mu            sync.Mutex
	stats         Stats
	lastInjection time.Time
	remaining     int // -1 means unlimited

	now func() time.Time
}

// NewInjector creates an injector for the given policy.
func NewInjector(policy FaultPolicy) *Injector {
	remaining := -1
	if policy.MaxFaults > 0 {
		remaining = policy.MaxFaults
	}

	return &Injector{
		policy:    policy,
		remaining: remaining,
		now:       time.Now,
	}
}

// NewDisabledInjector creates an injector that never injects.
func NewDisabledInjector() *Injector {
	return NewInjector(NeverPolicy())
}

// Policy returns the injector's policy.
func (in *Injector) Policy() FaultPolicy {
	return in.policy
}

// MaybeInject evaluates the policy for one call to the named operation.
// Returns the fault to apply when the result is Injected, nil otherwise.
func (in *Injector) MaybeInject(operation string) (*FaultType, InjectionResult) {
	fault, _, result := in.evaluate(operation)
	return fault, result
}

// evaluate runs the decision chain and records stats. For latency-bearing
// faults the injected delay is sampled here so the stats match what Wrap
// actually sleeps.
func (in *Injector) evaluate(operation string) (*FaultType, time.Duration, InjectionResult) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.stats.TotalCalls++

	result := in.decide(operation)
	if result != Injected {
		in.stats.CallsSkipped++
		return nil, 0, result
	}

	fault := in.policy.SelectFault()
	if fault == nil {
		in.stats.CallsSkipped++
		return nil, 0, NoInjection
	}

	in.stats.FaultsInjected++
	in.lastInjection = in.now()
	if in.remaining > 0 {
		in.remaining--
	}

	var delay time.Duration
	switch fault.Kind {
	case FaultLatency:
		delay = fault.Latency.Sample()
		in.stats.LatencyInjected++
		in.stats.TotalLatencyAddedMS += uint64(delay.Milliseconds())
	case FaultLatencyThenError:
		delay = fault.Latency.Sample()
		in.stats.LatencyInjected++
		in.stats.TotalLatencyAddedMS += uint64(delay.Milliseconds())
		in.stats.ErrorsInjected++
	case FaultTimeout:
		delay = fault.Timeout
		in.stats.TimeoutsInjected++
	default:
		in.stats.ErrorsInjected++
	}

	logger.Debug("Injecting fault", map[string]interface{}{
		"operation": operation,
		"fault":     string(fault.Kind),
	})

	return fault, delay, Injected
}

// decide runs the gate chain. Callers must hold the lock.
func (in *Injector) decide(operation string) InjectionResult {
	if !in.policy.Enabled {
		return Skipped
	}
	if !in.policy.ShouldTarget(operation) {
		return Skipped
	}
	if in.remaining == 0 {
		return LimitReached
	}
	if in.policy.Cooldown > 0 && !in.lastInjection.IsZero() {
		if in.now().Sub(in.lastInjection) < in.policy.Cooldown {
			return Skipped
		}
	}

	if in.policy.ShouldInject() {
		return Injected
	}
	return NoInjection
}

// Wrap runs the operation with potential fault injection. Latency faults
// delay the call before it runs; error faults replace it entirely.
func (in *Injector) Wrap(ctx context.Context, operation string, fn func() error) error {
	fault, delay, result := in.evaluate(operation)
	if result != Injected {
		return fn()
	}

	switch fault.Kind {
	case FaultLatency:
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		return fn()
	case FaultLatencyThenError, FaultTimeout:
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		return fault.Err()
	default:
		return fault.Err()
	}
}

// WrapErrorsOnly is Wrap without the delays: latency faults are ignored
// and the operation runs normally; error faults still replace it.
func (in *Injector) WrapErrorsOnly(ctx context.Context, operation string, fn func() error) error {
	fault, _, result := in.evaluate(operation)
	if result != Injected {
		return fn()
	}

	if fault.Kind == FaultLatency {
		return fn()
	}
	return fault.Err()
}

// WrapWithResult runs a function that returns a value.
func WrapWithResult[T any](in *Injector, ctx context.Context, operation string, fn func() (T, error)) (T, error) {
	var result T
	err := in.Wrap(ctx, operation, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// Stats returns a snapshot of the injector's counters.
func (in *Injector) Stats() Stats {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.stats
}

// RemainingFaults returns how many injections are left in the budget.
// Returns -1 when the budget is unlimited.
func (in *Injector) RemainingFaults() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.remaining
}

// Reset clears the statistics, the cooldown clock, and restores the fault
// budget.
func (in *Injector) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.stats = Stats{}
	in.lastInjection = time.Time{}
	if in.policy.MaxFaults > 0 {
		in.remaining = in.policy.MaxFaults
	}
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
