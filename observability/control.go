package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ControlMetrics holds instruments for the gateway's protection layer:
// admission decisions, circuit breaker transitions, retry attempts, and
// fallback responses. It takes plain string and bool parameters so callers
// do not need to depend on the packages that produce the events.
type ControlMetrics struct {
	admissionTotal  metric.Int64Counter
	breakerTotal    metric.Int64Counter
	retryTotal      metric.Int64Counter
	fallbackTotal   metric.Int64Counter
	degradedActive  metric.Int64UpDownCounter
	chaosInjections metric.Int64Counter
}

// NewControlMetrics creates the protection-layer instruments on the given meter.
func NewControlMetrics(meter metric.Meter) (*ControlMetrics, error) {
	admissionTotal, err := meter.Int64Counter("admission.total",
		metric.WithDescription("Admission decisions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating admission.total counter: %w", err)
	}

	breakerTotal, err := meter.Int64Counter("breaker.transition.total",
		metric.WithDescription("Circuit breaker state transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating breaker.transition.total counter: %w", err)
	}

	retryTotal, err := meter.Int64Counter("retry.attempt.total",
		metric.WithDescription("Retry attempts beyond the first try"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating retry.attempt.total counter: %w", err)
	}

	fallbackTotal, err := meter.Int64Counter("fallback.total",
		metric.WithDescription("Fallback responses served while a provider is degraded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fallback.total counter: %w", err)
	}

	degradedActive, err := meter.Int64UpDownCounter("degraded.active",
		metric.WithDescription("Providers currently in degraded mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating degraded.active gauge: %w", err)
	}

	chaosInjections, err := meter.Int64Counter("chaos.injection.total",
		metric.WithDescription("Faults injected by the chaos layer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chaos.injection.total counter: %w", err)
	}

	return &ControlMetrics{
		admissionTotal:  admissionTotal,
		breakerTotal:    breakerTotal,
		retryTotal:      retryTotal,
		fallbackTotal:   fallbackTotal,
		degradedActive:  degradedActive,
		chaosInjections: chaosInjections,
	}, nil
}

// RecordAdmission records one admission decision.
func (m *ControlMetrics) RecordAdmission(ctx context.Context, allowed bool) {
	m.admissionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("allowed", allowed),
	))
}

// RecordBreakerTransition records a circuit breaker state change.
func (m *ControlMetrics) RecordBreakerTransition(ctx context.Context, circuit, from, to string) {
	m.breakerTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("circuit", circuit),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordRetryAttempt records one retry of the named operation. The attempt
// number starts at 2 since the first try is not a retry.
func (m *ControlMetrics) RecordRetryAttempt(ctx context.Context, operation string, attempt int) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Int("attempt", attempt),
	))
}

// RecordFallback records a fallback response served in place of the named provider.
func (m *ControlMetrics) RecordFallback(ctx context.Context, provider string) {
	m.fallbackTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordDegradedChange adjusts the count of providers in degraded mode.
// Pass true when a provider enters degraded mode, false when it recovers.
func (m *ControlMetrics) RecordDegradedChange(ctx context.Context, provider string, entered bool) {
	var delta int64 = 1
	if !entered {
		delta = -1
	}
	m.degradedActive.Add(ctx, delta, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordChaosInjection records one injected fault.
func (m *ControlMetrics) RecordChaosInjection(ctx context.Context, target, fault string) {
	m.chaosInjections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("fault", fault),
	))
}
