package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"matchroom/internal/repository"
)

// Conditional writes that lose their race are retried against re-read state
// at most this many times before giving up.
const casRetryLimit = 3

// retryStore runs op, retrying only transient store failures
// (repository.ErrUnavailable) with bounded exponential backoff. Any other
// error is permanent and returned as-is.
func retryStore(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond

	err := backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.Is(err, repository.ErrUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))

	return err
}

// mapStoreError translates a repository error that survived retries into the
// business taxonomy. notFound names the business error an ErrNotFound means
// in the caller's context.
func mapStoreError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrUnavailable):
		return ErrServiceUnavailable
	case errors.Is(err, repository.ErrConflict):
		// A guard that kept failing through every retry: contention, not a
		// bug. The caller should simply try again.
		return ErrServiceUnavailable
	default:
		return ErrInternalServer
	}
}
