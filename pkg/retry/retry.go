package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Classifier is implemented by errors that know whether they can be retried.
type Classifier interface {
	error
	IsRetryable() bool
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks err so Do stops immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  30 * time.Second,
	}
}

// Do runs fn until it succeeds, the policy is exhausted, or the error is not
// retryable. Errors implementing Classifier decide for themselves; anything
// else is retried. onRetry may be nil.
func Do(ctx context.Context, policy Policy, fn func() error, onRetry func(attempt int, err error, nextDelay time.Duration)) error {
	policy = policy.withDefaults()
	b := policy.backOff(ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return backoff.Permanent(perm.err)
		}

		var classified Classifier
		if errors.As(err, &classified) && !classified.IsRetryable() {
			return backoff.Permanent(err)
		}

		if onRetry != nil && attempt < policy.MaxAttempts {
			onRetry(attempt, err, policy.Delay(attempt))
		}
		return err
	}

	return backoff.Retry(operation, b)
}
