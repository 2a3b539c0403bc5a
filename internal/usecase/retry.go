package usecase

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

// retryUnavailable runs fn again while it fails with entity.ErrStoreUnavailable,
// at most maxRetries extra times. Any other error is returned immediately.
func retryUnavailable[T any](ctx context.Context, newBackOff func() backoff.BackOff, maxRetries int, fn func() (T, error)) (T, error) {
	return retryWhile(ctx, newBackOff, maxRetries, entity.ErrStoreUnavailable, fn)
}

// retryUnreachable is retryUnavailable restricted to failures that never
// reached the store. Writes use it so a landed statement is never repeated.
func retryUnreachable[T any](ctx context.Context, newBackOff func() backoff.BackOff, maxRetries int, fn func() (T, error)) (T, error) {
	return retryWhile(ctx, newBackOff, maxRetries, entity.ErrStoreUnreachable, fn)
}

// retryWhile repeats fn while its error matches target. When ctx ends between
// attempts the last store error is joined to the context error, so callers
// still see the error kind.
func retryWhile[T any](ctx context.Context, newBackOff func() backoff.BackOff, maxRetries int, target error, fn func() (T, error)) (T, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), uint64(maxRetries)), ctx)

	var lastErr error

	v, err := backoff.RetryWithData(func() (T, error) {
		v, err := fn()
		if err != nil && !errors.Is(err, target) {
			lastErr = nil
			return v, backoff.Permanent(err)
		}
		lastErr = err
		return v, err
	}, b)

	if err != nil && lastErr != nil && !errors.Is(err, target) {
		err = errors.Join(err, lastErr)
	}

	return v, err
}

func defaultBackOff() backoff.BackOff {
	return backoff.NewExponentialBackOff()
}
