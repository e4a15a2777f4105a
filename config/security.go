package config

import (
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/kbukum/attendant/httpclient"
	"github.com/kbukum/attendant/logger"
)

// SecurityConfig holds proxy-trust and outbound TLS settings.
type SecurityConfig struct {
	// TrustedProxies lists peers (IP addresses or CIDR blocks) whose
	// X-Forwarded-For headers are honored when resolving client IPs.
	TrustedProxies []string `yaml:"trusted_proxies" mapstructure:"trusted_proxies"`
	// AllowInsecure suppresses the production startup guard for critical
	// security findings. Only honored outside normal operation.
	AllowInsecure         bool   `yaml:"allow_insecure" mapstructure:"allow_insecure"`
	TLSVerifyCerts        *bool  `yaml:"tls_verify_certs" mapstructure:"tls_verify_certs"`
	MinTLSVersion         string `yaml:"min_tls_version" mapstructure:"min_tls_version"`
	ConnectionTimeoutSecs int    `yaml:"connection_timeout" mapstructure:"connection_timeout"` // seconds
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *SecurityConfig) ApplyDefaults() {
	if c.TLSVerifyCerts == nil {
		verify := true
		c.TLSVerifyCerts = &verify
	}
	if c.MinTLSVersion == "" {
		c.MinTLSVersion = "1.2"
	}
	if c.ConnectionTimeoutSecs == 0 {
		c.ConnectionTimeoutSecs = 30
	}
}

// Validate checks the configuration for invalid values.
func (c *SecurityConfig) Validate() error {
	for _, entry := range c.TrustedProxies {
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("security.trusted_proxies entry must be a valid IP or CIDR (got: %s)", entry)
			}
		} else if net.ParseIP(entry) == nil {
			return fmt.Errorf("security.trusted_proxies entry must be a valid IP or CIDR (got: %s)", entry)
		}
	}
	switch c.MinTLSVersion {
	case "1.0", "1.1", "1.2", "1.3":
	default:
		return fmt.Errorf("security.min_tls_version must be one of [1.0, 1.1, 1.2, 1.3] (got: %s)", c.MinTLSVersion)
	}
	if c.ConnectionTimeoutSecs < 0 {
		return fmt.Errorf("security.connection_timeout must be non-negative (got: %d)", c.ConnectionTimeoutSecs)
	}
	return nil
}

// VerifyCerts reports whether outbound TLS certificate verification is on.
// Unset means verify.
func (c *SecurityConfig) VerifyCerts() bool {
	return c.TLSVerifyCerts == nil || *c.TLSVerifyCerts
}

// ConnectionTimeout returns the outbound connection timeout as a Duration.
func (c *SecurityConfig) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSecs) * time.Second
}

// TLSMinVersion maps the configured version string onto a crypto/tls constant.
func (c *SecurityConfig) TLSMinVersion() uint16 {
	switch c.MinTLSVersion {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

// ToTLS converts the outbound TLS knobs into the HTTP client's TLS config.
func (c *SecurityConfig) ToTLS() *httpclient.TLSConfig {
	return &httpclient.TLSConfig{
		SkipVerify: !c.VerifyCerts(),
		MinVersion: c.TLSMinVersion(),
	}
}

// WarningSeverity ranks security findings. Higher values are more severe.
type WarningSeverity int

const (
	SeverityInfo WarningSeverity = iota
	SeverityWarning
	SeverityCritical
)

func (s WarningSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// SecurityWarning describes a configuration weakness found at startup.
type SecurityWarning struct {
	Severity       WarningSeverity
	Code           string
	Message        string
	Recommendation string
}

// IsCritical reports whether this warning must be addressed in production.
func (w SecurityWarning) IsCritical() bool {
	return w.Severity == SeverityCritical
}

func (w SecurityWarning) String() string {
	return fmt.Sprintf("[%s] %s: %s - %s", w.Severity, w.Code, w.Message, w.Recommendation)
}

// SecurityWarnings inspects the loaded configuration for weaknesses and
// returns findings sorted most severe first.
func (c *GatewayConfig) SecurityWarnings() []SecurityWarning {
	var warnings []SecurityWarning
	isProduction := c.IsProduction()

	if !c.Security.VerifyCerts() {
		severity := SeverityWarning
		if isProduction {
			severity = SeverityCritical
		}
		warnings = append(warnings, SecurityWarning{
			Severity:       severity,
			Code:           "SEC001",
			Message:        "TLS certificate verification is disabled",
			Recommendation: "Enable security.tls_verify_certs in production to prevent MITM attacks",
		})
	}

	if corsAllowsAnyOrigin(c.Server.CORS.AllowedOrigins) {
		severity := SeverityInfo
		if isProduction {
			severity = SeverityCritical
		}
		warnings = append(warnings, SecurityWarning{
			Severity:       severity,
			Code:           "SEC002",
			Message:        "CORS allows requests from any origin",
			Recommendation: "Restrict server.cors.allowed_origins in production",
		})
	}

	if !c.Server.RateLimit.IsEnabled() && isProduction {
		warnings = append(warnings, SecurityWarning{
			Severity:       SeverityWarning,
			Code:           "SEC008",
			Message:        "Rate limiting is disabled in production",
			Recommendation: "Enable server.rate_limit to protect against abuse",
		})
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].Severity > warnings[j].Severity
	})
	return warnings
}

// ShouldBlockStartup reports whether the gateway must refuse to start.
// Only critical findings in production block, and security.allow_insecure
// overrides even those.
func (c *GatewayConfig) ShouldBlockStartup(warnings []SecurityWarning) bool {
	if !c.IsProduction() || c.Security.AllowInsecure {
		return false
	}
	for _, w := range warnings {
		if w.IsCritical() {
			return true
		}
	}
	return false
}

// LogSecurityWarnings writes each finding at a level matching its severity.
func LogSecurityWarnings(warnings []SecurityWarning) {
	for _, w := range warnings {
		fields := map[string]interface{}{
			"code":           w.Code,
			"recommendation": w.Recommendation,
		}
		switch w.Severity {
		case SeverityCritical:
			logger.Error(w.Message, fields)
		case SeverityWarning:
			logger.Warn(w.Message, fields)
		default:
			logger.Info(w.Message, fields)
		}
	}
}

func corsAllowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
