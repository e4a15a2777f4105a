package degraded

import "time"

// DefaultUnavailableMessage is substituted for failures when no message is
// configured.
const DefaultUnavailableMessage = "I'm currently experiencing technical difficulties. Please try again in a moment."

// Config holds configuration for the degraded-mode controller.
type Config struct {
	// Enabled turns fallback substitution on. Unset means enabled. When
	// disabled the controller still tracks failures and transitions, but
	// errors pass through to the caller.
	Enabled *bool `yaml:"enabled" mapstructure:"enabled"`
	// UnavailableMessage is the safe response substituted while the
	// wrapped provider is unhealthy.
	UnavailableMessage string `yaml:"unavailable_message" mapstructure:"unavailable_message"`
	// RetryCooldown is how long after a failure the wrapped provider is
	// left alone. While degraded and inside the cooldown, calls are
	// answered with the fallback without touching the provider.
	RetryCooldown time.Duration `yaml:"retry_cooldown" mapstructure:"retry_cooldown"`
	// FailureThreshold is the number of consecutive failures that enter
	// degraded mode.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	// SuccessThreshold is the number of consecutive successes that exit
	// degraded mode.
	SuccessThreshold int `yaml:"success_threshold" mapstructure:"success_threshold"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.UnavailableMessage == "" {
		c.UnavailableMessage = DefaultUnavailableMessage
	}
	if c.RetryCooldown <= 0 {
		c.RetryCooldown = 30 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
}

// IsEnabled reports whether fallback substitution is on.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
