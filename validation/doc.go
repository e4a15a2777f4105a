// Package validation provides input validation for request handlers.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for request payloads; both paths produce a Validation
// AppError carrying per-field details.
//
// # Struct Tag Validation
//
//	type CompletionRequest struct {
//	    Prompt string `json:"prompt" validate:"required,max=32768"`
//	    Model  string `json:"model" validate:"omitempty,model"`
//	}
//	err := validation.Validate(req)
//
// The custom "model" tag accepts Ollama-style references such as
// "qwen2.5-1.5b-instruct" or "llama3:8b".
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("prompt", req.Prompt).
//	    RangeFloat("temperature", req.Temperature, 0, 2)
//	if appErr := v.Validate(); appErr != nil {
//	    return appErr
//	}
package validation
