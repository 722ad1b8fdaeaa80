// Package retry runs operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is wrapped into the error returned when every attempt failed
// with a transient error.
var ErrExhausted = errors.New("retries exhausted")

// Policy bounds a retry loop.
type Policy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy is used by the store adapters.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, InitialInterval: 100 * time.Millisecond, MaxInterval: 2 * time.Second}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Do calls op until it succeeds, returns an error transient rejects, or the
// policy runs out. onRetry, if set, sees every error that will be retried.
// When the last attempt fails transiently the error wraps ErrExhausted and
// the last failure.
func Do(ctx context.Context, p Policy, transient func(error) bool, onRetry func(err error, wait time.Duration), op func(ctx context.Context) error) error {
	var lastTransient bool
	err := backoff.RetryNotify(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !transient(err) {
			lastTransient = false
			return backoff.Permanent(err)
		}
		lastTransient = true
		return err
	}, p.backOff(ctx), func(err error, wait time.Duration) {
		if onRetry != nil {
			onRetry(err, wait)
		}
	})

	if err != nil && lastTransient && ctx.Err() == nil {
		return errors.Join(ErrExhausted, err)
	}
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, transient func(error) bool, onRetry func(err error, wait time.Duration), op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, p, transient, onRetry, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
