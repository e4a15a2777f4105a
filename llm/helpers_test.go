package llm

import (
	"context"
	"strings"
	"testing"
)

// stubProvider returns canned responses and records the last request.
type stubProvider struct {
	content string
	err     error
	lastReq CompletionRequest
}

var _ Provider = (*stubProvider)(nil)

func (s *stubProvider) Name() string                        { return "stub" }
func (s *stubProvider) IsAvailable(_ context.Context) bool  { return s.err == nil }
func (s *stubProvider) CurrentModel() string                { return "stub-model" }
func (s *stubProvider) ListModels(_ context.Context) ([]string, error) {
	return []string{"stub-model"}, s.err
}
func (s *stubProvider) SwitchModel(_ context.Context, _ string) error { return s.err }

func (s *stubProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &CompletionResponse{Content: s.content, Model: "stub-model"}, nil
}

func (s *stubProvider) CompleteStructured(ctx context.Context, req CompletionRequest, _ any) (*CompletionResponse, error) {
	return s.Complete(ctx, req)
}

func (s *stubProvider) Stream(_ context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Content: s.content, Done: true, Model: "stub-model"}
	close(ch)
	return ch, nil
}

func TestComplete(t *testing.T) {
	p := &stubProvider{content: "The answer is 42."}

	result, err := Complete(context.Background(), p, "You are helpful.", "What is the answer?")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if result != "The answer is 42." {
		t.Errorf("result = %q, want %q", result, "The answer is 42.")
	}
	if p.lastReq.SystemPrompt != "You are helpful." {
		t.Errorf("system prompt = %q, want %q", p.lastReq.SystemPrompt, "You are helpful.")
	}
	if len(p.lastReq.Messages) != 1 || p.lastReq.Messages[0].Content != "What is the answer?" {
		t.Errorf("messages = %+v, want single user message", p.lastReq.Messages)
	}
}

func TestCompleteStructured(t *testing.T) {
	p := &stubProvider{content: `{"name": "Alice", "age": 30}`}

	var result struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	err := CompleteStructured(context.Background(), p, "Extract info.", "Alice is 30.", &result)
	if err != nil {
		t.Fatalf("CompleteStructured() error: %v", err)
	}
	if result.Name != "Alice" || result.Age != 30 {
		t.Errorf("result = %+v, want {Alice 30}", result)
	}
	if !strings.Contains(p.lastReq.SystemPrompt, "ONLY the JSON object") {
		t.Error("system prompt should carry the JSON formatting instructions")
	}
}

func TestCompleteStructured_WithMarkdownFence(t *testing.T) {
	p := &stubProvider{content: "```json\n{\"name\": \"Bob\"}\n```"}

	var result struct {
		Name string `json:"name"`
	}
	err := CompleteStructured(context.Background(), p, "Extract.", "Bob", &result)
	if err != nil {
		t.Fatalf("CompleteStructured() error: %v", err)
	}
	if result.Name != "Bob" {
		t.Errorf("Name = %q, want %q", result.Name, "Bob")
	}
}

func TestCompleteStructured_InvalidJSON(t *testing.T) {
	p := &stubProvider{content: "I cannot answer that."}

	var result struct{}
	err := CompleteStructured(context.Background(), p, "Extract.", "?", &result)
	if err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"key": "value"}`, `{"key": "value"}`},
		{"with whitespace", `  {"key": "value"}  `, `{"key": "value"}`},
		{"markdown fence", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"with prefix text", `Here is the result: {"key": "value"}`, `{"key": "value"}`},
		{"no json", "just text", "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.input)
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
