// Package provider runs outbound dependency calls through a protected
// execution chain built from the resilience primitives.
//
// A dependency adapter implements RequestResponse[I, O]; a ResilienceConfig
// names which protections apply. The chain orders them rate limiter wait,
// bulkhead, circuit breaker, retry, call, and maps sentinel refusals onto
// user-facing AppErrors:
//
//	weather := provider.Chain(
//	    provider.WithLogging[Query, Report](log),
//	    provider.WithResilience[Query, Report](provider.ResilienceConfig{
//	        Bulkhead:       &bulkheadCfg,
//	        CircuitBreaker: &breakerCfg,
//	        Retry:          &retryCfg,
//	    }),
//	)(rawWeather)
//
// Dependencies reached through several provider shapes share one Bundle via
// WithBundle, so a single breaker and slot pool governs them all. The bare
// Execute function applies a bundle to any call without the interface:
//
//	result, err := provider.Execute(ctx, bundle, func() (Report, error) {
//	    return fetchReport(ctx, query)
//	})
package provider
