package llm

import "testing"

func TestCompletionRequest_Defaults(t *testing.T) {
	req := CompletionRequest{
		Messages: []Message{{Role: "user", Content: "Hello"}},
	}

	if req.Model != "" {
		t.Errorf("Model should be empty by default, got %q", req.Model)
	}
	if req.Temperature != 0 {
		t.Errorf("Temperature should be 0 by default, got %v", req.Temperature)
	}
	if req.MaxTokens != 0 {
		t.Errorf("MaxTokens should be 0 by default, got %d", req.MaxTokens)
	}
}

func TestStreamChunk_FinalChunkCarriesModel(t *testing.T) {
	mid := StreamChunk{Content: "Hel", Done: false}
	final := StreamChunk{Content: "lo", Done: true, Model: "qwen2.5-1.5b-instruct"}

	if mid.Model != "" {
		t.Errorf("non-final chunk should not carry a model, got %q", mid.Model)
	}
	if final.Model != "qwen2.5-1.5b-instruct" {
		t.Errorf("final chunk model = %q, want %q", final.Model, "qwen2.5-1.5b-instruct")
	}
}

func TestUsage_Fields(t *testing.T) {
	u := Usage{
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
	}
	if u.PromptTokens+u.CompletionTokens != u.TotalTokens {
		t.Errorf("token math: %d + %d != %d", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
	}
}
