// Package llm defines the universal completion types and the Provider
// contract for inference backends.
//
// The package itself carries no transport: backends live in subpackages
// (llm/ollama talks to Ollama-compatible servers) and protective layers wrap
// any Provider (llm/degraded substitutes a safe response when the backend is
// judged unhealthy). Because every layer implements [Provider], callers hold
// one interface value regardless of how deep the composition goes.
//
// # Usage
//
//	p, err := ollama.New(ollama.Config{Model: "qwen2.5-1.5b-instruct"})
//	if err != nil {
//	    return err
//	}
//
//	resp, err := p.Complete(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{{Role: "user", Content: "Hello!"}},
//	})
//
// Or with the one-shot helpers:
//
//	answer, err := llm.Complete(ctx, p, "You are helpful.", "What is Go?")
//
//	var out struct {
//	    Sentiment string `json:"sentiment"`
//	}
//	err = llm.CompleteStructured(ctx, p, "Classify sentiment.", text, &out)
package llm
