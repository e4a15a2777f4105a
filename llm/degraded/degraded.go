// Package degraded wraps an llm.Provider and substitutes a configured safe
// response once the provider is judged unhealthy.
//
// The controller scores every call: consecutive failures past a threshold
// enter degraded mode, consecutive successes past another leave it. While
// degraded, the wrapped provider is left alone for a cooldown after each
// failure; calls inside the cooldown are answered with the fallback
// immediately. The complement of a circuit breaker: the breaker fails fast
// with an error, this controller absorbs the failure and keeps answering.
package degraded

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/kbukum/attendant/errors"
	"github.com/kbukum/attendant/llm"
	"github.com/kbukum/attendant/logger"
)

// FallbackModel marks responses substituted by the controller. Callers can
// check it to tell a fallback from a real completion.
const FallbackModel = "fallback"

// Status describes the controller's view of the wrapped provider.
type Status string

const (
	// StatusHealthy means calls pass through unmodified.
	StatusHealthy Status = "healthy"
	// StatusDegraded means the provider is unhealthy but past cooldown,
	// so the next call probes it.
	StatusDegraded Status = "degraded"
	// StatusUnavailable means the provider is unhealthy and cooling
	// down; calls are answered with the fallback only.
	StatusUnavailable Status = "unavailable"
)

// Stats is a snapshot of the controller's counters.
type Stats struct {
	// TotalRequests counts calls that reached the wrapped provider.
	TotalRequests uint64 `json:"total_requests"`
	// DegradedRequests counts calls that failed.
	DegradedRequests uint64 `json:"degraded_requests"`
	// FallbackResponses counts substituted responses.
	FallbackResponses uint64 `json:"fallback_responses"`
	// Status is the current controller status.
	Status Status `json:"status"`
}

// Controller implements llm.Provider around another provider, tracking its
// health and substituting fallbacks per the configured policy.
type Controller struct {
	inner llm.Provider
	cfg   Config

	// now is replaceable in tests.
	now func() time.Time

	mu                   sync.Mutex
	degraded             bool
	consecutiveFailures  int
	consecutiveSuccesses int
	lastFailure          time.Time
	totalRequests        uint64
	degradedRequests     uint64
	fallbackResponses    uint64
}

var _ llm.Provider = (*Controller)(nil)

// New wraps a provider with degraded-mode handling.
func New(inner llm.Provider, cfg Config) *Controller {
	cfg.ApplyDefaults()
	return &Controller{
		inner: inner,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Name returns the wrapped provider's name.
func (c *Controller) Name() string { return c.inner.Name() }

// IsDegraded reports whether the controller is in degraded mode.
func (c *Controller) IsDegraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Status returns the current controller status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Stats returns a snapshot of the controller's counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		TotalRequests:     c.totalRequests,
		DegradedRequests:  c.degradedRequests,
		FallbackResponses: c.fallbackResponses,
		Status:            c.statusLocked(),
	}
}

// Complete passes the request through, substituting the fallback while the
// provider is unhealthy.
func (c *Controller) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if c.substituting() {
		logger.Debug("Serving fallback during cooldown", map[string]interface{}{
			"provider": c.inner.Name(),
		})
		return c.fallbackResponse(), nil
	}

	resp, err := c.inner.Complete(ctx, req)
	return handleResult(c, resp, err, c.fallbackResponse)
}

// CompleteStructured behaves like Complete. A substituted response carries
// the plain fallback message; callers must check the model marker before
// parsing.
func (c *Controller) CompleteStructured(ctx context.Context, req llm.CompletionRequest, schema any) (*llm.CompletionResponse, error) {
	if c.substituting() {
		return c.fallbackResponse(), nil
	}

	resp, err := c.inner.CompleteStructured(ctx, req, schema)
	return handleResult(c, resp, err, c.fallbackResponse)
}

// Stream passes the request through; while the provider is unhealthy the
// returned channel carries a single terminal fallback chunk.
func (c *Controller) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	if c.substituting() {
		return c.fallbackStream(), nil
	}

	ch, err := c.inner.Stream(ctx, req)
	return handleResult(c, ch, err, c.fallbackStream)
}

// IsAvailable reports the provider's health. While degraded and past
// cooldown it probes the wrapped provider and records the outcome; inside
// the cooldown it reports false without probing.
func (c *Controller) IsAvailable(ctx context.Context) bool {
	if c.IsDegraded() {
		if c.shouldCallPrimary() {
			healthy := c.inner.IsAvailable(ctx)
			if healthy {
				c.recordSuccess()
			} else {
				c.recordFailure()
			}
			return healthy
		}
		return false
	}

	return c.inner.IsAvailable(ctx)
}

// CurrentModel returns the wrapped provider's model, or the fallback
// marker while substitution is active.
func (c *Controller) CurrentModel() string {
	if c.cfg.IsEnabled() && c.IsDegraded() {
		return FallbackModel + " (degraded)"
	}
	return c.inner.CurrentModel()
}

// ListModels returns the provider's models, or just the fallback marker
// while the provider is unhealthy.
func (c *Controller) ListModels(ctx context.Context) ([]string, error) {
	if c.substituting() {
		return []string{FallbackModel}, nil
	}

	models, err := c.inner.ListModels(ctx)
	return handleResult(c, models, err, func() []string {
		return []string{FallbackModel}
	})
}

// SwitchModel forwards the switch. There is no meaningful fallback for a
// model switch, so inside the cooldown it returns an error instead.
func (c *Controller) SwitchModel(ctx context.Context, model string) error {
	if c.substituting() {
		return apperrors.ServiceUnavailable("inference service")
	}

	if err := c.inner.SwitchModel(ctx, model); err != nil {
		c.recordFailure()
		return err
	}
	c.recordSuccess()
	return nil
}

// substituting reports whether the current call should be answered with a
// fallback without touching the wrapped provider.
func (c *Controller) substituting() bool {
	return c.cfg.IsEnabled() && !c.shouldCallPrimary()
}

// shouldCallPrimary reports whether the wrapped provider may be called:
// always while healthy, and only past the cooldown while degraded.
func (c *Controller) shouldCallPrimary() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldCallPrimaryLocked()
}

func (c *Controller) shouldCallPrimaryLocked() bool {
	if !c.degraded {
		return true
	}
	if c.lastFailure.IsZero() {
		return true
	}
	return c.now().Sub(c.lastFailure) >= c.cfg.RetryCooldown
}

func (c *Controller) statusLocked() Status {
	switch {
	case !c.degraded:
		return StatusHealthy
	case c.shouldCallPrimaryLocked():
		return StatusDegraded
	default:
		return StatusUnavailable
	}
}

// handleResult applies the shared bookkeeping to a primary-call outcome.
// A failure is recorded before the substitution check, so the call that
// crosses the failure threshold is itself answered with the fallback.
func handleResult[T any](c *Controller, v T, err error, fallback func() T) (T, error) {
	if err == nil {
		c.recordSuccess()
		return v, nil
	}

	c.recordFailure()
	if c.cfg.IsEnabled() && c.IsDegraded() {
		logger.Debug("Serving fallback in degraded mode", map[string]interface{}{
			"provider": c.inner.Name(),
		})
		return fallback(), nil
	}

	var zero T
	return zero, err
}

func (c *Controller) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
	c.consecutiveSuccesses++

	if c.degraded && c.consecutiveSuccesses >= c.cfg.SuccessThreshold {
		logger.Info("Exiting degraded mode", map[string]interface{}{
			"provider":              c.inner.Name(),
			"consecutive_successes": c.consecutiveSuccesses,
		})
		c.degraded = false
		c.consecutiveSuccesses = 0
	}

	c.totalRequests++
}

func (c *Controller) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveSuccesses = 0
	c.consecutiveFailures++
	c.lastFailure = c.now()

	if !c.degraded && c.consecutiveFailures >= c.cfg.FailureThreshold {
		logger.Warn("Entering degraded mode", map[string]interface{}{
			"provider":             c.inner.Name(),
			"consecutive_failures": c.consecutiveFailures,
		})
		c.degraded = true
	}

	c.totalRequests++
	c.degradedRequests++
}

// fallbackResponse builds the substituted completion and counts it.
func (c *Controller) fallbackResponse() *llm.CompletionResponse {
	c.countFallback()
	return &llm.CompletionResponse{
		Content: c.cfg.UnavailableMessage,
		Model:   FallbackModel,
	}
}

// fallbackStream builds a closed single-chunk stream and counts it.
func (c *Controller) fallbackStream() <-chan llm.StreamChunk {
	c.countFallback()
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{
		Content: c.cfg.UnavailableMessage,
		Done:    true,
		Model:   FallbackModel,
	}
	close(ch)
	return ch
}

func (c *Controller) countFallback() {
	c.mu.Lock()
	c.fallbackResponses++
	c.mu.Unlock()
}
