package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/attendant/errors"
	"github.com/kbukum/attendant/llm"
	"github.com/kbukum/attendant/resilience"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
	if cfg.Model != "qwen2.5-1.5b-instruct" {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.TopP != 0.9 {
		t.Errorf("TopP = %v, want 0.9", cfg.TopP)
	}
	if cfg.MaxTokens != 2048 {
		t.Errorf("MaxTokens = %d, want 2048", cfg.MaxTokens)
	}
}

func TestConfig_ApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := Config{
		BaseURL:     "http://ollama.internal:11434",
		Model:       "llama3.2-1b-instruct",
		Timeout:     10 * time.Second,
		Temperature: 0.1,
	}
	cfg.ApplyDefaults()

	if cfg.BaseURL != "http://ollama.internal:11434" {
		t.Errorf("BaseURL = %q, should be preserved", cfg.BaseURL)
	}
	if cfg.Model != "llama3.2-1b-instruct" {
		t.Errorf("Model = %q, should be preserved", cfg.Model)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, should be preserved", cfg.Timeout)
	}
	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %v, should be preserved", cfg.Temperature)
	}
}

func TestProvider_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":             "test-model",
			"message":           map[string]string{"role": "assistant", "content": "Hello there"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        8,
		})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are terse.",
		Messages:     []llm.Message{{Role: "user", Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if resp.Content != "Hello there" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello there")
	}
	if resp.Model != "test-model" {
		t.Errorf("Model = %q, want %q", resp.Model, "test-model")
	}
	if resp.Usage.TotalTokens != 20 {
		t.Errorf("TotalTokens = %d, want 20", resp.Usage.TotalTokens)
	}

	if got.Model != "test-model" {
		t.Errorf("request model = %q, want %q", got.Model, "test-model")
	}
	if got.Stream {
		t.Error("request should not be streaming")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Hi" {
		t.Errorf("messages = %+v, want system prompt then user message", got.Messages)
	}
	if got.Options == nil {
		t.Fatal("options should always be sent")
	}
	if got.Options.Temperature != 0.7 {
		t.Errorf("options.temperature = %v, want 0.7", got.Options.Temperature)
	}
	if got.Options.NumPredict != 2048 {
		t.Errorf("options.num_predict = %d, want 2048", got.Options.NumPredict)
	}
	if got.Options.TopP != 0.9 {
		t.Errorf("options.top_p = %v, want 0.9", got.Options.TopP)
	}
}

func TestProvider_Complete_RequestOverrides(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "other-model",
			"message": map[string]string{"role": "assistant", "content": "ok"},
			"done":    true,
		})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Model: "default-model", SystemPrompt: "default system"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = p.Complete(context.Background(), llm.CompletionRequest{
		Model:        "other-model",
		SystemPrompt: "override system",
		Temperature:  0.2,
		MaxTokens:    64,
		Messages:     []llm.Message{{Role: "user", Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if got.Model != "other-model" {
		t.Errorf("request model = %q, want override", got.Model)
	}
	if got.Messages[0].Content != "override system" {
		t.Errorf("system message = %q, want override", got.Messages[0].Content)
	}
	if got.Options.Temperature != 0.2 {
		t.Errorf("options.temperature = %v, want 0.2", got.Options.Temperature)
	}
	if got.Options.NumPredict != 64 {
		t.Errorf("options.num_predict = %d, want 64", got.Options.NumPredict)
	}
}

func TestProvider_CompleteStructured(t *testing.T) {
	var rawFormat json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Format json.RawMessage `json:"format"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		rawFormat = body.Format
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "test-model",
			"message": map[string]string{"role": "assistant", "content": `{"ok":true}`},
			"done":    true,
		})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	resp, err := p.CompleteStructured(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "emit json"}},
	}, nil)
	if err != nil {
		t.Fatalf("CompleteStructured() error: %v", err)
	}
	if string(rawFormat) != `"json"` {
		t.Errorf("format = %s, want \"json\"", rawFormat)
	}
	if resp.Content != `{"ok":true}` {
		t.Errorf("Content = %q", resp.Content)
	}

	schema := map[string]any{"type": "object"}
	if _, err := p.CompleteStructured(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "emit json"}},
	}, schema); err != nil {
		t.Fatalf("CompleteStructured(schema) error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(rawFormat, &decoded); err != nil {
		t.Fatalf("schema format should be an object, got %s", rawFormat)
	}
	if decoded["type"] != "object" {
		t.Errorf("format = %v, want forwarded schema", decoded)
	}
}

func TestProvider_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got chatRequest
		json.NewDecoder(r.Body).Decode(&got)
		if !got.Stream {
			t.Error("request should be streaming")
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":"Hel"},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":"lo"},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ch, err := p.Stream(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}

	var chunks []llm.StreamChunk
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("chunk error: %v", chunk.Err)
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if text := chunks[0].Content + chunks[1].Content; text != "Hello" {
		t.Errorf("assembled text = %q, want %q", text, "Hello")
	}
	if chunks[0].Model != "" {
		t.Errorf("non-final chunk should not carry a model, got %q", chunks[0].Model)
	}
	final := chunks[2]
	if !final.Done {
		t.Error("last chunk should be done")
	}
	if final.Model != "test-model" {
		t.Errorf("final chunk model = %q, want %q", final.Model, "test-model")
	}
}

func TestProvider_Stream_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model failed to load"}`))
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Model: "test-model"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := p.Stream(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "Hi"}},
	}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestProvider_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "qwen2.5-1.5b-instruct", "size": 986000000},
				{"name": "llama3.2-1b-instruct", "size": 1300000000},
			},
		})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error: %v", err)
	}
	if len(models) != 2 || models[0] != "qwen2.5-1.5b-instruct" || models[1] != "llama3.2-1b-instruct" {
		t.Errorf("models = %v", models)
	}
}

func TestProvider_SwitchModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "qwen2.5-1.5b-instruct"},
				{"name": "llama3.2-1b-instruct"},
			},
		})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Model: "qwen2.5-1.5b-instruct"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := p.CurrentModel(); got != "qwen2.5-1.5b-instruct" {
		t.Errorf("CurrentModel() = %q", got)
	}

	if err := p.SwitchModel(context.Background(), "llama3.2-1b-instruct"); err != nil {
		t.Fatalf("SwitchModel() error: %v", err)
	}
	if got := p.CurrentModel(); got != "llama3.2-1b-instruct" {
		t.Errorf("CurrentModel() after switch = %q", got)
	}
}

func TestProvider_SwitchModel_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{{"name": "qwen2.5-1.5b-instruct"}},
		})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	err = p.SwitchModel(context.Background(), "no-such-model")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error should be an AppError, got %T", err)
	}
	if appErr.Code != apperrors.ErrCodeNotFound {
		t.Errorf("code = %v, want not found", appErr.Code)
	}
	if appErr.Details["available"] != "qwen2.5-1.5b-instruct" {
		t.Errorf("details.available = %v", appErr.Details["available"])
	}

	// The default model is untouched after a failed switch.
	if got := p.CurrentModel(); got != "qwen2.5-1.5b-instruct" {
		t.Errorf("CurrentModel() = %q, should be unchanged", got)
	}
}

func TestProvider_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"models": []map[string]any{}})
	}))

	p, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if !p.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false, want true while server is up")
	}

	srv.Close()
	if p.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true, want false after server shutdown")
	}
}

func TestProvider_CircuitBreaker_FastFail(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cbCfg := resilience.CircuitBreakerConfig{Name: "ollama", MaxFailures: 1, Timeout: time.Minute}
	p, err := New(Config{BaseURL: srv.URL, Model: "test-model", CircuitBreaker: &cbCfg})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	req := llm.CompletionRequest{Messages: []llm.Message{{Role: "user", Content: "Hi"}}}

	// First call reaches the server, fails, and trips the breaker.
	if _, err := p.Complete(context.Background(), req); err == nil {
		t.Fatal("expected error from failing server")
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("server saw %d requests, want 1", got)
	}

	// Second call is rejected before any request is built.
	_, err = p.Complete(context.Background(), req)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want circuit open", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want still 1", got)
	}

	if p.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true, want false while circuit is open")
	}
}
