package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/attendant/logger"
)

// ClientLimiterConfig configures a per-client rate limiter.
type ClientLimiterConfig struct {
	// Name identifies this limiter for metrics/logging.
	Name string
	// RequestsPerMinute is the sustained allowance per client. It is also
	// the bucket capacity, so a fresh client can burst a full minute's
	// allowance at once.
	RequestsPerMinute int
	// OnLimit is called when a client is denied.
	OnLimit func(name, clientIP string)
}

// DefaultClientLimiterConfig returns sensible defaults.
func DefaultClientLimiterConfig(name string) ClientLimiterConfig {
	return ClientLimiterConfig{
		Name:              name,
		RequestsPerMinute: 60,
	}
}

// ClientLimiter rate limits callers individually, keyed by client IP.
// Each client draws from its own token bucket, so one noisy client cannot
// starve the others. Buckets for clients that go quiet are dropped by
// Cleanup, typically driven by the Run sweeper.
type ClientLimiter struct {
	config ClientLimiterConfig
	rate   float64 // tokens per second
	burst  float64 // bucket capacity

	mu      sync.Mutex
	buckets map[string]*clientBucket

	now func() time.Time
}

// clientBucket tracks one client's remaining allowance.
type clientBucket struct {
	tokenBucket
	lastSeen time.Time
}

// NewClientLimiter creates a per-client rate limiter.
func NewClientLimiter(config ClientLimiterConfig) *ClientLimiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 60
	}

	return &ClientLimiter{
		config:  config,
		rate:    float64(config.RequestsPerMinute) / 60.0,
		burst:   float64(config.RequestsPerMinute),
		buckets: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

// Allow consumes one token from the client's bucket, creating a full
// bucket on first sight. Returns false if the client is over its limit.
func (cl *ClientLimiter) Allow(clientIP string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()

	b, ok := cl.buckets[clientIP]
	if !ok {
		b = &clientBucket{tokenBucket: tokenBucket{tokens: cl.burst, lastRefill: now}}
		cl.buckets[clientIP] = b
	}

	b.lastSeen = now
	b.refill(cl.rate, cl.burst, now)

	if b.tryConsume(1) {
		return true
	}

	if cl.config.OnLimit != nil {
		cl.config.OnLimit(cl.config.Name, clientIP)
	}

	return false
}

// Tokens returns the client's current token count. Clients without a
// bucket report the full burst.
func (cl *ClientLimiter) Tokens(clientIP string) float64 {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	b, ok := cl.buckets[clientIP]
	if !ok {
		return cl.burst
	}

	b.refill(cl.rate, cl.burst, cl.now())
	return b.tokens
}

// Len returns the number of tracked clients.
func (cl *ClientLimiter) Len() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.buckets)
}

// Cleanup removes buckets whose clients have been idle for longer than
// maxIdle. Returns the number of buckets removed.
func (cl *ClientLimiter) Cleanup(maxIdle time.Duration) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cutoff := cl.now().Add(-maxIdle)
	removed := 0

	for ip, b := range cl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(cl.buckets, ip)
			removed++
		}
	}

	return removed
}

// Run sweeps idle buckets every interval until the context is cancelled.
// Start it once, as a goroutine, from whoever owns the limiter.
func (cl *ClientLimiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxIdle <= 0 {
		maxIdle = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := cl.Cleanup(maxIdle); removed > 0 {
				logger.Debug("Cleaned up idle rate limit buckets", map[string]interface{}{
					"limiter": cl.config.Name,
					"removed": removed,
					"tracked": cl.Len(),
				})
			}
		}
	}
}
