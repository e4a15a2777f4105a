package config

import (
	"crypto/tls"
	"strings"
	"testing"
	"time"
)

func TestSecurityConfigApplyDefaults(t *testing.T) {
	var cfg SecurityConfig
	cfg.ApplyDefaults()

	if !cfg.VerifyCerts() {
		t.Error("expected certificate verification on by default")
	}
	if cfg.MinTLSVersion != "1.2" {
		t.Errorf("expected min TLS version 1.2, got %q", cfg.MinTLSVersion)
	}
	if cfg.ConnectionTimeout() != 30*time.Second {
		t.Errorf("expected connection timeout 30s, got %v", cfg.ConnectionTimeout())
	}
	if cfg.AllowInsecure {
		t.Error("expected allow_insecure off by default")
	}
}

func TestSecurityConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		proxies []string
		wantErr bool
	}{
		{"empty", nil, false},
		{"plain ip", []string{"10.0.0.1"}, false},
		{"ipv6", []string{"::1"}, false},
		{"cidr", []string{"10.0.0.0/8"}, false},
		{"mixed", []string{"127.0.0.1", "192.168.0.0/16"}, false},
		{"garbage", []string{"not-an-ip"}, true},
		{"bad cidr", []string{"10.0.0.0/99"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := SecurityConfig{TrustedProxies: tc.proxies}
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "security.trusted_proxies") {
					t.Errorf("expected trusted_proxies error, got %q", err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSecurityConfigValidateMinTLSVersion(t *testing.T) {
	cfg := SecurityConfig{MinTLSVersion: "1.5"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown TLS version")
	}
}

func TestTLSMinVersion(t *testing.T) {
	tests := []struct {
		version string
		want    uint16
	}{
		{"1.0", tls.VersionTLS10},
		{"1.1", tls.VersionTLS11},
		{"1.2", tls.VersionTLS12},
		{"1.3", tls.VersionTLS13},
		{"", tls.VersionTLS12},
	}

	for _, tc := range tests {
		cfg := SecurityConfig{MinTLSVersion: tc.version}
		if got := cfg.TLSMinVersion(); got != tc.want {
			t.Errorf("TLSMinVersion(%q): expected %d, got %d", tc.version, tc.want, got)
		}
	}
}

func testGatewayConfig(environment string) *GatewayConfig {
	cfg := &GatewayConfig{}
	cfg.Environment = environment
	cfg.ApplyDefaults()
	return cfg
}

func findWarning(warnings []SecurityWarning, code string) *SecurityWarning {
	for i := range warnings {
		if warnings[i].Code == code {
			return &warnings[i]
		}
	}
	return nil
}

func TestSecurityWarningsTLSDisabled(t *testing.T) {
	cfg := testGatewayConfig("development")
	off := false
	cfg.Security.TLSVerifyCerts = &off

	w := findWarning(cfg.SecurityWarnings(), "SEC001")
	if w == nil {
		t.Fatal("expected SEC001 warning")
	}
	if w.Severity != SeverityWarning {
		t.Errorf("expected WARNING severity in development, got %v", w.Severity)
	}
}

func TestSecurityWarningsTLSDisabledInProduction(t *testing.T) {
	cfg := testGatewayConfig("production")
	off := false
	cfg.Security.TLSVerifyCerts = &off

	w := findWarning(cfg.SecurityWarnings(), "SEC001")
	if w == nil {
		t.Fatal("expected SEC001 warning")
	}
	if !w.IsCritical() {
		t.Error("expected SEC001 critical in production")
	}
}

func TestSecurityWarningsCORSWildcard(t *testing.T) {
	// Defaults allow any origin.
	cfg := testGatewayConfig("production")

	w := findWarning(cfg.SecurityWarnings(), "SEC002")
	if w == nil {
		t.Fatal("expected SEC002 warning for wildcard CORS")
	}
	if !w.IsCritical() {
		t.Error("expected SEC002 critical in production")
	}

	cfg.Server.CORS.AllowedOrigins = []string{"https://example.com"}
	if findWarning(cfg.SecurityWarnings(), "SEC002") != nil {
		t.Error("expected no SEC002 with restricted origins")
	}
}

func TestSecurityWarningsRateLimitDisabled(t *testing.T) {
	cfg := testGatewayConfig("production")
	off := false
	cfg.Server.RateLimit.Enabled = &off

	if findWarning(cfg.SecurityWarnings(), "SEC008") == nil {
		t.Error("expected SEC008 warning for disabled rate limit in production")
	}

	dev := testGatewayConfig("development")
	dev.Server.RateLimit.Enabled = &off
	if findWarning(dev.SecurityWarnings(), "SEC008") != nil {
		t.Error("expected no SEC008 outside production")
	}
}

func TestSecurityWarningsSortedCriticalFirst(t *testing.T) {
	cfg := testGatewayConfig("production")
	off := false
	cfg.Security.TLSVerifyCerts = &off
	cfg.Server.RateLimit.Enabled = &off

	warnings := cfg.SecurityWarnings()
	if len(warnings) < 2 {
		t.Fatalf("expected multiple warnings, got %d", len(warnings))
	}
	for i := 1; i < len(warnings); i++ {
		if warnings[i].Severity > warnings[i-1].Severity {
			t.Errorf("warnings not sorted by severity: %v before %v", warnings[i-1].Severity, warnings[i].Severity)
		}
	}
	if !warnings[0].IsCritical() {
		t.Error("expected a critical warning first")
	}
}

func TestShouldBlockStartup(t *testing.T) {
	critical := []SecurityWarning{{Severity: SeverityCritical, Code: "SEC001"}}
	warning := []SecurityWarning{{Severity: SeverityWarning, Code: "SEC008"}}

	t.Run("production with critical blocks", func(t *testing.T) {
		cfg := testGatewayConfig("production")
		if !cfg.ShouldBlockStartup(critical) {
			t.Error("expected startup blocked")
		}
	})

	t.Run("development never blocks", func(t *testing.T) {
		cfg := testGatewayConfig("development")
		if cfg.ShouldBlockStartup(critical) {
			t.Error("expected startup allowed in development")
		}
	})

	t.Run("allow_insecure overrides", func(t *testing.T) {
		cfg := testGatewayConfig("production")
		cfg.Security.AllowInsecure = true
		if cfg.ShouldBlockStartup(critical) {
			t.Error("expected allow_insecure to override the guard")
		}
	})

	t.Run("non-critical never blocks", func(t *testing.T) {
		cfg := testGatewayConfig("production")
		if cfg.ShouldBlockStartup(warning) {
			t.Error("expected warnings alone not to block")
		}
	})
}

func TestSecurityWarningString(t *testing.T) {
	w := SecurityWarning{
		Severity:       SeverityCritical,
		Code:           "SEC001",
		Message:        "TLS certificate verification is disabled",
		Recommendation: "Enable security.tls_verify_certs",
	}
	s := w.String()
	for _, part := range []string{"CRITICAL", "SEC001", "verification is disabled", "Enable security.tls_verify_certs"} {
		if !strings.Contains(s, part) {
			t.Errorf("expected %q in warning string %q", part, s)
		}
	}
}
