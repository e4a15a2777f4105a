// Package logger provides structured logging for the attendant gateway
// using zerolog.
//
// It supports JSON and console output, env-driven level configuration,
// and component-scoped loggers with structured fields. Every layer of
// the resilience control plane logs through this package so breaker
// transitions, retry attempts, admission refusals, and degraded-mode
// flips share one format.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("circuit-breaker")
//	log.Warn("circuit opened", logger.Fields(
//		logger.FieldDependency, "ollama-inference",
//		"failures", 5,
//	))
package logger
