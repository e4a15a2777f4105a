package config

import (
	"fmt"

	"github.com/kbukum/attendant/llm/ollama"
	"github.com/kbukum/attendant/server"
)

// ServiceName is the default service identity used for config discovery
// and env prefixes.
const ServiceName = "attendant"

// GatewayConfig is the full configuration for the assistant gateway.
type GatewayConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config   `yaml:"server" mapstructure:"server"`
	Security  SecurityConfig  `yaml:"security" mapstructure:"security"`
	Inference InferenceConfig `yaml:"inference" mapstructure:"inference"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Chaos     ChaosConfig     `yaml:"chaos" mapstructure:"chaos"`
}

// ApplyDefaults applies defaults to every section. The security section's
// trusted proxies are copied into the rate limit middleware config, which
// deliberately has no serialized field of its own for them.
func (c *GatewayConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Security.ApplyDefaults()
	c.Inference.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Chaos.ApplyDefaults()

	c.Server.RateLimit.TrustedProxies = c.Security.TrustedProxies
}

// Validate validates every section.
func (c *GatewayConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if err := c.Inference.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Chaos.Validate(); err != nil {
		return err
	}
	return nil
}

// OllamaConfig assembles the inference provider config with the security
// section's outbound TLS settings threaded in.
func (c *GatewayConfig) OllamaConfig() ollama.Config {
	oc := c.Inference.ToOllama()
	oc.TLS = c.Security.ToTLS()
	return oc
}

// LoadGatewayConfig loads, defaults, and validates the gateway config,
// then runs the security checks. Critical findings in production abort
// the load unless security.allow_insecure is set.
func LoadGatewayConfig(opts ...LoaderOption) (*GatewayConfig, error) {
	var cfg GatewayConfig
	if err := LoadConfig(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	warnings := cfg.SecurityWarnings()
	LogSecurityWarnings(warnings)
	if cfg.ShouldBlockStartup(warnings) {
		return nil, fmt.Errorf("refusing to start with critical security issues in production (set security.allow_insecure to override)")
	}

	return &cfg, nil
}
