// Package resilience provides patterns for building fault-tolerant systems.
//
// This package includes:
//   - CircuitBreaker: Prevents cascading failures by failing fast
//   - Retry: Retries failed operations with exponential backoff
//   - Bulkhead: Limits concurrent access to isolate failures
//   - RateLimiter: Paces outbound calls with a shared token bucket
//   - ClientLimiter: Admission control with one token bucket per client
//
// These patterns can be combined for comprehensive resilience:
//
//	// Example: dependency call with all patterns
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("inference"))
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 10})
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 100, Burst: 20})
//
//	err := cb.Execute(func() error {
//	    return bh.Execute(ctx, func() error {
//	        return rl.ExecuteWait(ctx, func() error {
//	            return callDependency(ctx)
//	        })
//	    })
//	})
package resilience
