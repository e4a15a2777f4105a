// Package httpclient provides the outbound HTTP transport for external
// integrations: a configurable client with TLS, resilience (retry, circuit
// breaker, rate limiting), streaming support, and HTTP status classification
// into the shared retryable error taxonomy.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:11434",
//	    Timeout: 60 * time.Second,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/api/tags",
//	})
//
// # With Resilience
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "http://localhost:11434",
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("ollama"),
//	})
//
// Responses with non-2xx status codes come back as a typed *Error carrying
// the classification (timeout, connection, auth, not_found, rate_limit,
// validation, server) and whether the call is worth retrying. Timeouts,
// connection failures, 429s, and 5xx responses are retryable; 4xx client
// errors are not.
package httpclient
