// Package errors provides unified error handling for the attendant gateway.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection following RFC 7807 and Google AIP-193.
//
// The Retryable capability defined here is the contract shared by the
// resilience control plane: the retry executor asks errors whether they are
// transient, and transport or dependency errors answer by implementing
// IsRetryable.
package errors
