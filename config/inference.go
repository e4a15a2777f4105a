package config

import (
	"fmt"
	"time"

	"github.com/kbukum/attendant/llm/degraded"
	"github.com/kbukum/attendant/llm/ollama"
	"github.com/kbukum/attendant/resilience"
)

// InferenceConfig configures the Ollama backend and the protective layers
// wrapped around it.
type InferenceConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Model        string  `yaml:"model" mapstructure:"model"`
	TimeoutMS    int     `yaml:"timeout_ms" mapstructure:"timeout_ms"` // milliseconds
	MaxTokens    int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP         float64 `yaml:"top_p" mapstructure:"top_p"`
	SystemPrompt string  `yaml:"system_prompt" mapstructure:"system_prompt"`

	Breaker  BreakerConfig  `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Bulkhead BulkheadConfig `yaml:"bulkhead" mapstructure:"bulkhead"`
	Degraded DegradedConfig `yaml:"degraded" mapstructure:"degraded"`
}

// BreakerConfig is the serializable circuit breaker section.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	SuccessThreshold int `yaml:"success_threshold" mapstructure:"success_threshold"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"` // seconds
}

// RetryConfig is the serializable retry section.
type RetryConfig struct {
	InitialDelayMS int     `yaml:"initial_delay_ms" mapstructure:"initial_delay_ms"` // milliseconds
	MaxDelayMS     int     `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`         // milliseconds
	Multiplier     float64 `yaml:"multiplier" mapstructure:"multiplier"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	JitterEnabled  *bool   `yaml:"jitter_enabled" mapstructure:"jitter_enabled"`
	JitterFactor   float64 `yaml:"jitter_factor" mapstructure:"jitter_factor"`
}

// BulkheadConfig is the serializable concurrency cap section.
type BulkheadConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxWaitMS     int `yaml:"max_wait_ms" mapstructure:"max_wait_ms"` // milliseconds, 0 fails immediately
}

// DegradedConfig is the serializable degraded-mode section.
type DegradedConfig struct {
	Enabled            *bool  `yaml:"enabled" mapstructure:"enabled"`
	UnavailableMessage string `yaml:"unavailable_message" mapstructure:"unavailable_message"`
	RetryCooldownSecs  int    `yaml:"retry_cooldown_secs" mapstructure:"retry_cooldown_secs"` // seconds
	FailureThreshold   int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	SuccessThreshold   int    `yaml:"success_threshold" mapstructure:"success_threshold"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *InferenceConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "qwen2.5-1.5b-instruct"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 60000
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.TopP == 0 {
		c.TopP = 0.9
	}
	c.Breaker.ApplyDefaults()
	c.Retry.ApplyDefaults()
	c.Bulkhead.ApplyDefaults()
	c.Degraded.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *InferenceConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("inference.base_url is required")
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("inference.timeout_ms must be non-negative (got: %d)", c.TimeoutMS)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("inference.max_tokens must be positive (got: %d)", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("inference.temperature must be between 0 and 2 (got: %g)", c.Temperature)
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("inference.top_p must be in (0, 1] (got: %g)", c.TopP)
	}
	if err := c.Breaker.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.Bulkhead.Validate(); err != nil {
		return err
	}
	if err := c.Degraded.Validate(); err != nil {
		return err
	}
	return nil
}

// Timeout returns the request timeout as a Duration.
func (c *InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ToOllama assembles the provider config. The breaker and retry sections
// ride along so the provider's HTTP client composes them around each
// request. TLS is threaded in separately from the security section.
func (c *InferenceConfig) ToOllama() ollama.Config {
	breaker := c.Breaker.ToBreaker("ollama")
	retry := c.Retry.ToRetry()
	return ollama.Config{
		BaseURL:        c.BaseURL,
		Model:          c.Model,
		SystemPrompt:   c.SystemPrompt,
		Temperature:    c.Temperature,
		TopP:           c.TopP,
		MaxTokens:      c.MaxTokens,
		Timeout:        c.Timeout(),
		Retry:          &retry,
		CircuitBreaker: &breaker,
	}
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *BreakerConfig) ApplyDefaults() {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 2
	}
	if c.CooldownSecs == 0 {
		c.CooldownSecs = 30
	}
}

// Validate checks the configuration for invalid values.
func (c *BreakerConfig) Validate() error {
	if c.FailureThreshold < 1 {
		return fmt.Errorf("inference.circuit_breaker.failure_threshold must be positive (got: %d)", c.FailureThreshold)
	}
	if c.SuccessThreshold < 1 {
		return fmt.Errorf("inference.circuit_breaker.success_threshold must be positive (got: %d)", c.SuccessThreshold)
	}
	if c.CooldownSecs < 0 {
		return fmt.Errorf("inference.circuit_breaker.cooldown_secs must be non-negative (got: %d)", c.CooldownSecs)
	}
	return nil
}

// ToBreaker converts the section into a runtime circuit breaker config.
func (c BreakerConfig) ToBreaker(name string) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		Timeout:          time.Duration(c.CooldownSecs) * time.Second,
	}
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.InitialDelayMS == 0 {
		c.InitialDelayMS = 100
	}
	if c.MaxDelayMS == 0 {
		c.MaxDelayMS = 10000
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.JitterEnabled == nil {
		enabled := true
		c.JitterEnabled = &enabled
	}
	if c.JitterFactor == 0 {
		c.JitterFactor = 0.1
	}
}

// Validate checks the configuration for invalid values.
func (c *RetryConfig) Validate() error {
	if c.InitialDelayMS < 0 {
		return fmt.Errorf("inference.retry.initial_delay_ms must be non-negative (got: %d)", c.InitialDelayMS)
	}
	if c.MaxDelayMS < c.InitialDelayMS {
		return fmt.Errorf("inference.retry.max_delay_ms must be at least initial_delay_ms (got: %d)", c.MaxDelayMS)
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("inference.retry.multiplier must be at least 1 (got: %g)", c.Multiplier)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("inference.retry.max_retries must be non-negative (got: %d)", c.MaxRetries)
	}
	if c.JitterFactor < 0 || c.JitterFactor > 1 {
		return fmt.Errorf("inference.retry.jitter_factor must be between 0 and 1 (got: %g)", c.JitterFactor)
	}
	return nil
}

// ToRetry converts the section into a runtime retry config. MaxRetries
// counts retries after the first attempt, so the attempt budget is one more.
func (c RetryConfig) ToRetry() resilience.RetryConfig {
	jitter := 0.0
	if c.JitterEnabled == nil || *c.JitterEnabled {
		jitter = c.JitterFactor
	}
	return resilience.RetryConfig{
		MaxAttempts:    c.MaxRetries + 1,
		InitialBackoff: time.Duration(c.InitialDelayMS) * time.Millisecond,
		MaxBackoff:     time.Duration(c.MaxDelayMS) * time.Millisecond,
		BackoffFactor:  c.Multiplier,
		Jitter:         jitter,
		RetryIf:        resilience.DefaultRetryIf,
	}
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *BulkheadConfig) ApplyDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 10
	}
}

// Validate checks the configuration for invalid values.
func (c *BulkheadConfig) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("inference.bulkhead.max_concurrent must be positive (got: %d)", c.MaxConcurrent)
	}
	if c.MaxWaitMS < 0 {
		return fmt.Errorf("inference.bulkhead.max_wait_ms must be non-negative (got: %d)", c.MaxWaitMS)
	}
	return nil
}

// ToBulkhead converts the section into a runtime bulkhead config.
func (c BulkheadConfig) ToBulkhead(name string) resilience.BulkheadConfig {
	return resilience.BulkheadConfig{
		Name:          name,
		MaxConcurrent: c.MaxConcurrent,
		MaxWait:       time.Duration(c.MaxWaitMS) * time.Millisecond,
	}
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *DegradedConfig) ApplyDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.UnavailableMessage == "" {
		c.UnavailableMessage = degraded.DefaultUnavailableMessage
	}
	if c.RetryCooldownSecs == 0 {
		c.RetryCooldownSecs = 30
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 3
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 2
	}
}

// Validate checks the configuration for invalid values.
func (c *DegradedConfig) Validate() error {
	if c.UnavailableMessage == "" {
		return fmt.Errorf("inference.degraded.unavailable_message is required")
	}
	if c.RetryCooldownSecs < 0 {
		return fmt.Errorf("inference.degraded.retry_cooldown_secs must be non-negative (got: %d)", c.RetryCooldownSecs)
	}
	if c.FailureThreshold < 1 {
		return fmt.Errorf("inference.degraded.failure_threshold must be positive (got: %d)", c.FailureThreshold)
	}
	if c.SuccessThreshold < 1 {
		return fmt.Errorf("inference.degraded.success_threshold must be positive (got: %d)", c.SuccessThreshold)
	}
	return nil
}

// IsEnabled reports whether degraded-mode fallback is on. Unset means on.
func (c *DegradedConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// RetryCooldown returns the cooldown before reprobing the backend.
func (c *DegradedConfig) RetryCooldown() time.Duration {
	return time.Duration(c.RetryCooldownSecs) * time.Second
}

// ToDegraded converts the section into the degraded controller config.
func (c DegradedConfig) ToDegraded() degraded.Config {
	return degraded.Config{
		Enabled:            c.Enabled,
		UnavailableMessage: c.UnavailableMessage,
		RetryCooldown:      c.RetryCooldown(),
		FailureThreshold:   c.FailureThreshold,
		SuccessThreshold:   c.SuccessThreshold,
	}
}
