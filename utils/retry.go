package utils

import (
	"context"
	"time"
)

// RetryPolicy runs an operation up to MaxAttempts times, sleeping
// BaseDelay * 2^attempt between tries. Retryable decides whether a failure
// is worth another attempt; a nil predicate retries everything.
//
// One shared policy replaces the near-duplicate retry loops the submission
// flow used to carry at each call site.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

// Do invokes op until it succeeds, a terminal error is returned, attempts
// run out, or ctx is done. The last error is returned once exhausted.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}

		delay := p.BaseDelay << uint(i)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}
