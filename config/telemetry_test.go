package config

import (
	"testing"
	"time"
)

func TestTelemetryConfigApplyDefaults(t *testing.T) {
	var cfg TelemetryConfig
	cfg.ApplyDefaults()

	if cfg.Enabled {
		t.Error("expected telemetry off by default")
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected default OTLP endpoint, got %q", cfg.Endpoint)
	}
	if cfg.ExportIntervalSecs != 15 {
		t.Errorf("expected 15s export interval, got %d", cfg.ExportIntervalSecs)
	}
	if cfg.SampleRatio != 1.0 {
		t.Errorf("expected sample ratio 1.0, got %g", cfg.SampleRatio)
	}
}

func TestTelemetryEnableFlags(t *testing.T) {
	var cfg TelemetryConfig
	cfg.ApplyDefaults()

	// Disabled overall: sub-flags do not matter.
	if cfg.MetricsEnabled() || cfg.TracesEnabled() {
		t.Error("expected no export while telemetry is off")
	}

	cfg.Enabled = true
	if !cfg.MetricsEnabled() || !cfg.TracesEnabled() {
		t.Error("expected metrics and traces on once telemetry is enabled")
	}

	off := false
	cfg.Traces = &off
	if cfg.TracesEnabled() {
		t.Error("expected traces off when explicitly disabled")
	}
	if !cfg.MetricsEnabled() {
		t.Error("expected metrics unaffected by the traces flag")
	}
}

func TestTelemetryConfigValidate(t *testing.T) {
	var cfg TelemetryConfig
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.SampleRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample ratio above 1")
	}
}

func TestToMeterConfig(t *testing.T) {
	svc := &ServiceConfig{Name: "attendant", Version: "1.2.3", Environment: "staging"}
	var cfg TelemetryConfig
	cfg.ApplyDefaults()
	cfg.Endpoint = "collector:4318"

	mc := cfg.ToMeterConfig(svc)
	if mc.ServiceName != "attendant" || mc.ServiceVersion != "1.2.3" || mc.Environment != "staging" {
		t.Errorf("service identity not carried over: %+v", mc)
	}
	if mc.Endpoint != "collector:4318" {
		t.Errorf("expected endpoint 'collector:4318', got %q", mc.Endpoint)
	}
	if mc.Interval != 15*time.Second {
		t.Errorf("expected 15s interval, got %v", mc.Interval)
	}
	if !mc.Insecure {
		t.Error("expected insecure default for local collector")
	}
}

func TestToTracerConfig(t *testing.T) {
	svc := &ServiceConfig{Name: "attendant", Version: "1.2.3", Environment: "production"}
	var cfg TelemetryConfig
	cfg.ApplyDefaults()
	cfg.SampleRatio = 0.25

	tc := cfg.ToTracerConfig(svc)
	if tc.ServiceName != "attendant" || tc.Environment != "production" {
		t.Errorf("service identity not carried over: %+v", tc)
	}
	if tc.SampleRate != 0.25 {
		t.Errorf("expected sample rate 0.25, got %g", tc.SampleRate)
	}
}
