package llm

import "context"

// Provider is the interface that inference backends must implement.
//
// A Provider is safe for concurrent use. Wrappers such as the degraded
// controller implement Provider themselves, so protective layers compose
// transparently around any backend.
type Provider interface {
	// Name returns the provider name, e.g. "ollama".
	Name() string

	// IsAvailable reports whether the backend is reachable and serving.
	IsAvailable(ctx context.Context) bool

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CompleteStructured sends a completion request expecting structured
	// JSON output. A nil schema requests free-form JSON; a non-nil schema
	// constrains the output shape where the backend supports it.
	CompleteStructured(ctx context.Context, req CompletionRequest, schema any) (*CompletionResponse, error)

	// Stream sends a completion request and returns a channel of streamed
	// chunks. The channel is closed after the final chunk or on error; a
	// chunk with Err set terminates the stream.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// ListModels returns the names of the models the backend serves.
	ListModels(ctx context.Context) ([]string, error)

	// CurrentModel returns the model used when a request does not name one.
	CurrentModel() string

	// SwitchModel changes the default model. The model must be one the
	// backend reports via ListModels.
	SwitchModel(ctx context.Context, model string) error
}
