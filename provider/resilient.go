package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/attendant/errors"
	"github.com/kbukum/attendant/resilience"
)

// WithResilience returns a Middleware that runs every call through the
// protected execution chain. The bundle is built when the middleware is
// applied and named after the wrapped provider; an empty config leaves
// the provider untouched.
func WithResilience[I, O any](cfg ResilienceConfig) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		b := NewBundle(inner.Name(), cfg)
		if b == nil {
			return inner
		}
		return &resilientRR[I, O]{inner: inner, bundle: b}
	}
}

// WithBundle returns a Middleware that runs calls through an existing
// bundle. Use it when one dependency is reached through several provider
// shapes that must share a single breaker and slot pool.
func WithBundle[I, O any](b *Bundle) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		if b == nil {
			return inner
		}
		return &resilientRR[I, O]{inner: inner, bundle: b}
	}
}

type resilientRR[I, O any] struct {
	inner  RequestResponse[I, O]
	bundle *Bundle
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return Execute(ctx, r.bundle, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

// Execute runs fn through the protected chain: rate limiter wait, then
// bulkhead, then circuit breaker, then retry, then the call itself. A nil
// bundle is passthrough. Sentinel refusals surface as AppErrors so
// handlers can map them straight onto responses.
//
// The breaker sits outside the retry loop: one rejection-or-verdict per
// protected call, with the retry attempts counting as a single breaker
// outcome. Adapters that want per-attempt breaker accounting compose the
// primitives themselves the way httpclient does.
func Execute[T any](ctx context.Context, b *Bundle, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}

	if b.rl != nil {
		if err := b.rl.Wait(ctx); err != nil {
			var zero T
			return zero, wrapSentinel(b.name, err)
		}
	}

	call := fn
	if b.retryCfg != nil {
		retryCfg := *b.retryCfg
		call = func() (T, error) {
			return resilience.Retry(ctx, retryCfg, fn)
		}
	}

	if b.cb != nil {
		cbCall := call
		call = func() (T, error) {
			var result T
			var callErr error
			cbErr := b.cb.Execute(func() error {
				result, callErr = cbCall()
				return callErr
			})
			if cbErr != nil && callErr == nil {
				// Rejected without running the call.
				return result, wrapSentinel(b.name, cbErr)
			}
			return result, callErr
		}
	}

	if b.bh != nil {
		result, err := resilience.ExecuteWithResult(b.bh, ctx, func() (T, error) {
			return call()
		})
		if err != nil {
			return result, wrapSentinel(b.name, err)
		}
		return result, nil
	}

	return call()
}

// wrapSentinel converts resilience refusals into user-facing AppErrors.
// Errors that already carry an AppError, and dependency errors the chain
// merely relayed, pass through untouched.
func wrapSentinel(name string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable(name).WithCause(err)
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited().WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable(name).
			WithCause(err).
			WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout(name + " call canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout(name + " call").WithCause(err)
	default:
		return err
	}
}
