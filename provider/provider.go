package provider

import "context"

// Provider is the minimal contract for an outbound dependency adapter.
type Provider interface {
	// Name identifies the dependency in logs, metrics, and errors.
	Name() string
	// IsAvailable reports whether the dependency can take requests.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse is a provider invoked with one input for one output.
// This covers the gateway's outbound calls: inference requests, DAV
// queries, weather and search lookups.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}
