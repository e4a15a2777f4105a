package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	apperrors "github.com/kbukum/attendant/errors"
	"github.com/kbukum/attendant/logger"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialBackoff is the initial delay between retries.
	InitialBackoff time.Duration
	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64
	// Jitter adds randomness to backoff (0.0 to 1.0).
	Jitter float64
	// RetryIf determines if an error should be retried.
	// Defaults to DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, backoff time.Duration)

	// rand drives jitter sampling. Replaceable in tests; returns a
	// value in [0, 1).
	rand func() float64
}

// DefaultRetryConfig returns sensible defaults: three retries after the
// initial call.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// FastRetryConfig suits quick local operations where giving up early is
// better than waiting.
func FastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// SlowRetryConfig suits dependencies that need room to recover under load.
func SlowRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    6,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.2,
		RetryIf:        DefaultRetryIf,
	}
}

// CriticalRetryConfig keeps trying for a long time. Suited to operations
// that must eventually land, such as flushing state on shutdown.
func CriticalRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    11,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     60 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.15,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf consults the error's retryable capability. Context
// cancellation and deadline errors are never retried; errors that do not
// declare themselves are.
func DefaultRetryIf(err error) bool {
	return apperrors.IsRetryable(err)
}

// RetryResult carries the outcome of a retried operation along with how
// much work it took.
type RetryResult[T any] struct {
	// Value is the value returned by the successful attempt.
	Value T
	// Attempts is the number of times the function ran, including the first.
	Attempts int
	// TotalDuration is the wall time spent across all attempts and waits.
	TotalDuration time.Duration
}

// Retry executes a function with retry logic.
// Returns the result of the function or the last error if all retries fail.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	res, err := RetryWithResult(ctx, cfg, fn)
	return res.Value, err
}

// RetryWithResult is Retry with attempt and timing information attached.
// Attempts and TotalDuration are valid even when err is non-nil.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (RetryResult[T], error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2.0
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}

	var res RetryResult[T]
	var lastErr error
	start := time.Now()

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		// Check context before each attempt
		select {
		case <-ctx.Done():
			res.TotalDuration = time.Since(start)
			return res, ctx.Err()
		default:
		}

		res.Attempts = attempt
		value, err := fn()
		if err == nil {
			res.Value = value
			res.TotalDuration = time.Since(start)
			return res, nil
		}

		lastErr = err

		if !cfg.RetryIf(err) {
			logger.Debug("Attempt failed with non-retryable error", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			res.TotalDuration = time.Since(start)
			return res, err
		}

		// Don't sleep after the last attempt
		if attempt == cfg.MaxAttempts {
			break
		}

		backoff := calculateBackoff(attempt, cfg)

		logger.Warn("Attempt failed, retrying", map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": backoff.Milliseconds(),
			"error":    err.Error(),
		})

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, backoff)
		}

		// Wait with context awareness
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.TotalDuration = time.Since(start)
			return res, ctx.Err()
		case <-timer.C:
		}
	}

	logger.Warn("All retry attempts exhausted", map[string]interface{}{
		"attempts": cfg.MaxAttempts,
		"error":    lastErr.Error(),
	})
	res.TotalDuration = time.Since(start)
	return res, lastErr
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DelayForAttempt returns the backoff that would precede the given retry,
// with attempt 1 being the first retry. Callers can use it to preview a
// policy's delay curve without executing anything.
func (c RetryConfig) DelayForAttempt(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return calculateBackoff(attempt, c)
}

// calculateBackoff calculates the backoff duration for an attempt.
// The exponential curve is capped at MaxBackoff before jitter is applied,
// so the longest possible wait is MaxBackoff*(1+Jitter).
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	// Exponential backoff: initial * factor^(attempt-1)
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))

	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}

	if cfg.Jitter > 0 {
		f := rand.Float64
		if cfg.rand != nil {
			f = cfg.rand
		}
		jitter := (f()*2 - 1) * backoff * cfg.Jitter
		backoff += jitter
	}

	if backoff < 0 {
		backoff = 0
	}

	return time.Duration(backoff)
}

// RetryWithBackoff is a convenience function for simple retry with exponential backoff.
func RetryWithBackoff[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	return Retry(ctx, RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
	}, fn)
}
