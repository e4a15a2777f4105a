package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/attendant/errors"
	"github.com/kbukum/attendant/resilience"
)

// RateLimitConfig configures per-client admission control.
type RateLimitConfig struct {
	// Enabled turns the admission check on. Unset means enabled.
	Enabled *bool `yaml:"enabled" mapstructure:"enabled"`
	// RequestsPerMinute is the per-client budget; it is also the burst
	// capacity of each client's bucket.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	// CleanupIntervalSecs is how often idle client buckets are swept.
	CleanupIntervalSecs int `yaml:"cleanup_interval_secs" mapstructure:"cleanup_interval_secs"` // seconds
	// MaxIdleSecs is how long a client bucket may sit idle before a sweep
	// removes it.
	MaxIdleSecs int `yaml:"max_idle_secs" mapstructure:"max_idle_secs"` // seconds
	// ExcludedPaths bypass the admission check entirely, matched by prefix.
	ExcludedPaths []string `yaml:"excluded_paths" mapstructure:"excluded_paths"`
	// TrustedProxies are peers allowed to set X-Forwarded-For. Populated
	// from the security config section rather than from this one.
	TrustedProxies []string `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.RequestsPerMinute == 0 {
		c.RequestsPerMinute = 60
	}
	if c.CleanupIntervalSecs == 0 {
		c.CleanupIntervalSecs = 300
	}
	if c.MaxIdleSecs == 0 {
		c.MaxIdleSecs = 600
	}
	if c.ExcludedPaths == nil {
		c.ExcludedPaths = []string{"/health", "/ready", "/alive"}
	}
}

// Validate checks the configuration for invalid values.
func (c *RateLimitConfig) Validate() error {
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be non-negative (got: %d)", c.RequestsPerMinute)
	}
	if c.CleanupIntervalSecs < 0 {
		return fmt.Errorf("rate_limit.cleanup_interval_secs must be non-negative (got: %d)", c.CleanupIntervalSecs)
	}
	if c.MaxIdleSecs < 0 {
		return fmt.Errorf("rate_limit.max_idle_secs must be non-negative (got: %d)", c.MaxIdleSecs)
	}
	return nil
}

// IsEnabled reports whether the admission check is on.
func (c *RateLimitConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// CleanupInterval returns the sweep interval as a duration.
func (c *RateLimitConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSecs) * time.Second
}

// MaxIdle returns the bucket idle age as a duration.
func (c *RateLimitConfig) MaxIdle() time.Duration {
	return time.Duration(c.MaxIdleSecs) * time.Second
}

// NewClientLimiter builds the per-client limiter this configuration
// describes. The caller owns the limiter's sweep loop; start it with
// limiter.Run(ctx, cfg.CleanupInterval(), cfg.MaxIdle()).
func (c *RateLimitConfig) NewClientLimiter(name string) *resilience.ClientLimiter {
	return resilience.NewClientLimiter(resilience.ClientLimiterConfig{
		Name:              name,
		RequestsPerMinute: c.RequestsPerMinute,
	})
}

// RateLimit returns admission middleware backed by the given per-client
// limiter. The client IP is resolved and recorded into the request context on
// every request, including excluded paths and when the check is disabled, so
// downstream handlers always see the caller's identity.
func RateLimit(cfg RateLimitConfig, limiter *resilience.ClientLimiter) gin.HandlerFunc {
	cfg.ApplyDefaults()

	return func(c *gin.Context) {
		clientIP := ResolveClientIP(c, cfg.TrustedProxies)
		c.Set(ClientIPKey, clientIP)

		if !cfg.IsEnabled() || isExcludedPath(c.Request.URL.Path, cfg.ExcludedPaths) {
			c.Next()
			return
		}

		if !limiter.Allow(clientIP) {
			appErr := apperrors.RateLimited()
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}

func isExcludedPath(path string, excluded []string) bool {
	for _, prefix := range excluded {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
