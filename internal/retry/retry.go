// Package retry provides a bounded retry helper with exponential backoff
// and jitter, used by the relay adapters for outbound delivery.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// maxDelay caps the backoff between attempts.
const maxDelay = 30 * time.Second

// PermanentError wraps an error that should not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that Do will not retry it.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// Do calls fn up to maxAttempts times with exponential backoff and jitter.
// It stops early when fn succeeds, when fn returns a *PermanentError, or
// when ctx is cancelled. baseDelay doubles on each retry with ±25% jitter.
//
// onRetry, when non-nil, is invoked before each re-attempt with the attempt
// number (1-based) and the previous error.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error, onRetry func(attempt int, err error)) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var err error
	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var pe *PermanentError
		if errors.As(err, &pe) {
			return pe.Err
		}

		if attempt == maxAttempts {
			break
		}

		if onRetry != nil {
			onRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(delay)):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	return err
}

// jitter spreads a delay by ±25% so concurrent retries don't align.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	spread := int64(d) / 2 // total jitter window: ±25%
	return time.Duration(int64(d) - spread/2 + rand.Int64N(spread+1))
}
