package ollama

import (
	"time"

	"github.com/kbukum/attendant/httpclient"
	"github.com/kbukum/attendant/resilience"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultModel       = "qwen2.5-1.5b-instruct"
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.7
	defaultTopP        = 0.9
	defaultMaxTokens   = 2048

	// healthTimeout bounds the availability probe independently of the
	// request timeout, which must accommodate slow generations.
	healthTimeout = 5 * time.Second
)

// Config holds configuration for the Ollama provider.
//
// The zero value is usable: it targets a local Ollama server with the
// default model and sampling parameters.
type Config struct {
	// BaseURL is the address of the Ollama-compatible server.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Model is used when a request does not name one. Changeable at
	// runtime via SwitchModel.
	Model string `yaml:"model" mapstructure:"model"`
	// SystemPrompt is prepended when a request carries none.
	SystemPrompt string `yaml:"system_prompt" mapstructure:"system_prompt"`
	// Temperature is the default sampling temperature (0.0 - 2.0).
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// TopP is the default nucleus sampling parameter.
	TopP float64 `yaml:"top_p" mapstructure:"top_p"`
	// MaxTokens caps generation length per request.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
	// Timeout bounds non-streaming requests. Streaming requests are
	// bounded by their context instead.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures transport security toward the server.
	TLS *httpclient.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Retry is the retry policy for requests. Nil disables retries.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
	// CircuitBreaker protects the server with a breaker. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.TopP == 0 {
		c.TopP = defaultTopP
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
}
