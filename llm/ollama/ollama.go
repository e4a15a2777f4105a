// Package ollama implements llm.Provider against Ollama-compatible servers,
// including standard Ollama and NPU-backed variants exposing the same API.
package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/kbukum/attendant/errors"
	"github.com/kbukum/attendant/httpclient"
	"github.com/kbukum/attendant/llm"
	"github.com/kbukum/attendant/logger"
	"github.com/kbukum/attendant/resilience"
)

// ProviderName is the name reported by this provider.
const ProviderName = "ollama"

// Provider implements llm.Provider using Ollama's HTTP chat API.
type Provider struct {
	client *httpclient.Client
	cfg    Config

	mu    sync.RWMutex
	model string
}

var _ llm.Provider = (*Provider)(nil)

// New creates an Ollama provider. The underlying HTTP client carries the
// configured TLS, retry, and circuit breaker settings, so every request
// made through the provider passes through them.
func New(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()

	client, err := httpclient.New(httpclient.Config{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		TLS:            cfg.TLS,
		Retry:          cfg.Retry,
		CircuitBreaker: cfg.CircuitBreaker,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	logger.Info("Initialized Ollama provider", map[string]interface{}{
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	})

	return &Provider{
		client: client,
		cfg:    cfg,
		model:  cfg.Model,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the server is reachable and serving. The probe is
// bounded to a few seconds regardless of the request timeout.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	if cb := p.client.Breaker(); cb != nil && cb.State() == resilience.StateOpen {
		logger.Debug("Ollama unavailable: circuit breaker open", map[string]interface{}{
			"circuit": cb.Name(),
		})
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	_, err := p.listTags(ctx)
	return err == nil
}

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return p.complete(ctx, req, nil)
}

// CompleteStructured sends a completion request in JSON output mode. A nil
// schema requests free-form JSON; a non-nil schema is forwarded as the
// format constraint.
func (p *Provider) CompleteStructured(ctx context.Context, req llm.CompletionRequest, schema any) (*llm.CompletionResponse, error) {
	var format any = "json"
	if schema != nil {
		format = schema
	}
	return p.complete(ctx, req, format)
}

// Stream sends a completion request and returns a channel of streamed
// chunks. Ollama streams line-delimited JSON; each line becomes one chunk,
// and the final chunk carries the model name.
func (p *Provider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	if err := p.checkCircuit(); err != nil {
		return nil, err
	}

	stream, err := p.client.DoStream(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/chat",
		Body:   p.buildChatRequest(req, true, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama stream: %w", err)
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		defer func() { _ = stream.Close() }()

		scanner := bufio.NewScanner(stream.Body)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var resp chatResponse
			if err := json.Unmarshal(line, &resp); err != nil {
				ch <- llm.StreamChunk{Err: fmt.Errorf("ollama stream: decode chunk: %w", err)}
				return
			}

			chunk := llm.StreamChunk{Content: resp.Message.Content, Done: resp.Done}
			if resp.Done {
				chunk.Model = resp.Model
			}

			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}

			if resp.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			ch <- llm.StreamChunk{Err: fmt.Errorf("ollama stream: read response: %w", err)}
		}
	}()

	return ch, nil
}

// ListModels returns the names of the models the server has pulled.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	if err := p.checkCircuit(); err != nil {
		return nil, err
	}
	return p.listTags(ctx)
}

// CurrentModel returns the model used when a request does not name one.
func (p *Provider) CurrentModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// SwitchModel changes the default model after verifying the server has it.
func (p *Provider) SwitchModel(ctx context.Context, model string) error {
	if err := p.checkCircuit(); err != nil {
		return err
	}

	available, err := p.listTags(ctx)
	if err != nil {
		return err
	}

	found := false
	for _, name := range available {
		if name == model {
			found = true
			break
		}
	}
	if !found {
		return apperrors.NotFound("model", model).
			WithDetail("available", strings.Join(available, ", "))
	}

	p.mu.Lock()
	p.model = model
	p.mu.Unlock()

	logger.Info("Switched to model", map[string]interface{}{"model": model})
	return nil
}

// --- wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   any           `json:"format,omitempty"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// complete runs a non-streaming chat request.
func (p *Provider) complete(ctx context.Context, req llm.CompletionRequest, format any) (*llm.CompletionResponse, error) {
	if err := p.checkCircuit(); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/chat",
		Body:   p.buildChatRequest(req, false, format),
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	var chat chatResponse
	if err := json.Unmarshal(resp.Body, &chat); err != nil {
		return nil, fmt.Errorf("ollama chat: decode response: %w", err)
	}

	out := &llm.CompletionResponse{
		Content: chat.Message.Content,
		Model:   chat.Model,
		Usage: llm.Usage{
			PromptTokens:     chat.PromptEvalCount,
			CompletionTokens: chat.EvalCount,
			TotalTokens:      chat.PromptEvalCount + chat.EvalCount,
		},
	}

	logger.Debug("Inference completed", map[string]interface{}{
		"model":      out.Model,
		"tokens":     out.Usage.TotalTokens,
		"latency_ms": time.Since(start).Milliseconds(),
		"circuit":    p.circuitState(),
	})

	return out, nil
}

// buildChatRequest maps a universal request onto the Ollama wire format.
// Request-level fields override config-level defaults.
func (p *Provider) buildChatRequest(req llm.CompletionRequest, stream bool, format any) chatRequest {
	model := p.CurrentModel()
	if req.Model != "" {
		model = req.Model
	}

	temperature := p.cfg.Temperature
	if req.Temperature != 0 {
		temperature = req.Temperature
	}

	maxTokens := p.cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	system := p.cfg.SystemPrompt
	if req.SystemPrompt != "" {
		system = req.SystemPrompt
	}

	msgs := make([]chatMessage, 0, len(req.Messages)+1)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}

	return chatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   stream,
		Format:   format,
		Options: &chatOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
			TopP:        p.cfg.TopP,
		},
	}
}

// listTags fetches the model list from /api/tags.
func (p *Provider) listTags(ctx context.Context) ([]string, error) {
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/api/tags",
	})
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}

	var tags tagsResponse
	if err := json.Unmarshal(resp.Body, &tags); err != nil {
		return nil, fmt.Errorf("ollama list models: decode response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// checkCircuit fails fast before any request work when the breaker is open.
func (p *Provider) checkCircuit() error {
	cb := p.client.Breaker()
	if cb == nil || cb.State() != resilience.StateOpen {
		return nil
	}
	logger.Warn("Ollama circuit breaker is open, failing fast", map[string]interface{}{
		"circuit": cb.Name(),
	})
	return &resilience.CircuitOpenError{Name: cb.Name()}
}

// circuitState describes the breaker state for log fields.
func (p *Provider) circuitState() string {
	cb := p.client.Breaker()
	if cb == nil {
		return "disabled"
	}
	return cb.State().String()
}
