package config

import (
	"fmt"
	"time"

	"github.com/kbukum/attendant/observability"
)

// TelemetryConfig configures OTLP metric and trace export. Export is off
// unless explicitly enabled.
type TelemetryConfig struct {
	Enabled            bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint           string  `yaml:"endpoint" mapstructure:"endpoint"`
	Metrics            *bool   `yaml:"metrics" mapstructure:"metrics"`
	Traces             *bool   `yaml:"traces" mapstructure:"traces"`
	ExportIntervalSecs int     `yaml:"export_interval_secs" mapstructure:"export_interval_secs"` // seconds
	SampleRatio        float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
	Insecure           *bool   `yaml:"insecure" mapstructure:"insecure"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Metrics == nil {
		on := true
		c.Metrics = &on
	}
	if c.Traces == nil {
		on := true
		c.Traces = &on
	}
	if c.ExportIntervalSecs == 0 {
		c.ExportIntervalSecs = 15
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = 1.0
	}
	if c.Insecure == nil {
		insecure := true
		c.Insecure = &insecure
	}
}

// Validate checks the configuration for invalid values.
func (c *TelemetryConfig) Validate() error {
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	if c.ExportIntervalSecs < 0 {
		return fmt.Errorf("telemetry.export_interval_secs must be non-negative (got: %d)", c.ExportIntervalSecs)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be between 0 and 1 (got: %g)", c.SampleRatio)
	}
	return nil
}

// MetricsEnabled reports whether metric export is on.
func (c *TelemetryConfig) MetricsEnabled() bool {
	return c.Enabled && (c.Metrics == nil || *c.Metrics)
}

// TracesEnabled reports whether trace export is on.
func (c *TelemetryConfig) TracesEnabled() bool {
	return c.Enabled && (c.Traces == nil || *c.Traces)
}

// ToMeterConfig builds the runtime meter config with service identity
// filled in from the base section.
func (c *TelemetryConfig) ToMeterConfig(svc *ServiceConfig) observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    svc.Name,
		ServiceVersion: svc.Version,
		Environment:    svc.Environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure == nil || *c.Insecure,
		Interval:       time.Duration(c.ExportIntervalSecs) * time.Second,
	}
}

// ToTracerConfig builds the runtime tracer config with service identity
// filled in from the base section.
func (c *TelemetryConfig) ToTracerConfig(svc *ServiceConfig) observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    svc.Name,
		ServiceVersion: svc.Version,
		Environment:    svc.Environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure == nil || *c.Insecure,
		SampleRate:     c.SampleRatio,
	}
}
