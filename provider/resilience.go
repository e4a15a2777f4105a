package provider

import (
	"github.com/kbukum/attendant/resilience"
)

// ResilienceConfig bundles the optional protective policies for one
// outbound dependency. Nil sections are skipped entirely, so an empty
// config is pure passthrough.
type ResilienceConfig struct {
	// RateLimiter paces calls to the dependency with a shared token bucket.
	RateLimiter *resilience.RateLimiterConfig
	// Bulkhead caps how many calls may be in flight at once.
	Bulkhead *resilience.BulkheadConfig
	// CircuitBreaker stops calling the dependency after repeated failures.
	CircuitBreaker *resilience.CircuitBreakerConfig
	// Retry re-invokes failed calls with exponential backoff.
	Retry *resilience.RetryConfig
}

// IsEmpty reports whether no policy is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.RateLimiter == nil && c.Bulkhead == nil && c.CircuitBreaker == nil && c.Retry == nil
}

// Bundle holds the initialized primitives for one dependency. It is built
// once and shared by reference across every call to that dependency, so
// breaker state and bulkhead slots are process-wide.
type Bundle struct {
	name     string
	rl       *resilience.RateLimiter
	bh       *resilience.Bulkhead
	cb       *resilience.CircuitBreaker
	retryCfg *resilience.RetryConfig
}

// NewBundle initializes the configured primitives under the given
// dependency name. Sections without a name of their own inherit it.
// An empty config yields nil, which Execute treats as passthrough.
func NewBundle(name string, cfg ResilienceConfig) *Bundle {
	if cfg.IsEmpty() {
		return nil
	}
	b := &Bundle{name: name, retryCfg: cfg.Retry}
	if cfg.RateLimiter != nil {
		rlCfg := *cfg.RateLimiter
		if rlCfg.Name == "" {
			rlCfg.Name = name
		}
		b.rl = resilience.NewRateLimiter(rlCfg)
	}
	if cfg.Bulkhead != nil {
		bhCfg := *cfg.Bulkhead
		if bhCfg.Name == "" {
			bhCfg.Name = name
		}
		b.bh = resilience.NewBulkhead(bhCfg)
	}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.Name == "" {
			cbCfg.Name = name
		}
		b.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	return b
}

// Name returns the dependency name the bundle was built for.
func (b *Bundle) Name() string { return b.name }

// Breaker returns the bundle's circuit breaker, or nil when none is
// configured. Adapters use it to fail fast before building a request.
func (b *Bundle) Breaker() *resilience.CircuitBreaker { return b.cb }
