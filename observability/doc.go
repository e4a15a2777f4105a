// Package observability provides OpenTelemetry tracing and metrics integration
// for the gateway, plus the health types served by its health endpoints.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("attendant")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanInference)
//	defer span.End()
//
// Metrics:
//
//	cfg := observability.DefaultMeterConfig("attendant")
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("attendant"))
//	metrics.RecordOperation(ctx, "attendant", "complete", "ok", duration)
//
// Protection-layer instruments live on ControlMetrics. Resilience callbacks
// feed them: a circuit breaker's OnStateChange hook can call
// RecordBreakerTransition, a retry config's OnRetry hook RecordRetryAttempt,
// the admission middleware RecordAdmission.
//
//	control, err := observability.NewControlMetrics(observability.Meter("attendant"))
//	control.RecordAdmission(ctx, false)
//
// Health:
//
//	health := observability.NewServiceHealth("attendant", version.Version)
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
