// Package server provides the gateway HTTP server, built on Gin with HTTP/2
// cleartext (h2c) support so channel adapters on the same host can multiplex
// without TLS.
//
// The server owns the per-client admission limiter: when rate limiting is
// enabled in the config, New builds the limiter, ApplyMiddleware installs the
// admission check, and Start/Stop run the idle-bucket sweep loop alongside
// the listener.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - RateLimit: per-client admission control with proxy-aware IP resolution
//   - RequestLogger: request/response logging with duration tracking
//   - CORS: cross-origin resource sharing configuration
//   - BodySizeLimit: request body size limits
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /ready: Kubernetes readiness probe
//   - /alive: Kubernetes liveness probe
//   - /info: service build information and uptime
//   - /version: build version information
//   - /metrics: runtime memory and goroutine snapshot
package server
