// Package retry provides the bounded retry-with-backoff policy applied
// around warehouse calls and connected-time writes.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried: attempt bound, backoff
// schedule and a predicate deciding which errors are worth retrying.
// A nil Retryable retries every error.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Retryable      func(error) bool
}

// Do runs fn until it succeeds, returns a non-retryable error, the
// context is cancelled, or MaxAttempts is reached. It reports the number
// of attempts made and the last error.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return attempt, lastErr
		}
		if attempt == attempts {
			return attempt, lastErr
		}

		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
	return attempts, lastErr
}
