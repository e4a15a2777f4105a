// Package chaos provides controlled fault injection for resilience testing.
//
// This package includes:
//   - FaultType: The faults that can be injected (errors, latency, timeouts)
//   - FaultPolicy: When and how often to inject, with targeting rules
//   - Injector: Applies a policy to calls and tracks statistics
//
// An injector wraps operations and decides per call whether to inject:
//
//	// Example: inject errors into 10% of inference calls
//	policy := chaos.PolicyWithRate(0.1).
//	    WithFault(chaos.ErrorFault("backend unavailable")).
//	    WithTargets("inference")
//	injector := chaos.NewInjector(policy)
//
//	err := injector.Wrap(ctx, "inference", func() error {
//	    return callDependency(ctx)
//	})
//
// Injection is disabled by default. Policies must be explicitly enabled,
// and production deployments should never ship with an enabled policy.
package chaos
