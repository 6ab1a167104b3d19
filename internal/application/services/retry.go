// Package services provides application-level orchestration services
package services

import (
	"context"
	"time"

	"github.com/rollcallhq/rollcall-go/pkg/config"
)

// RetryPolicy controls how many times a fallible fetch is attempted and
// how long to wait between attempts. The zero value means a single attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy builds the policy used for profile lookups: linear
// backoff, attempt N waits N*interval before running.
func DefaultRetryPolicy() RetryPolicy {
	interval := config.ProfileBackoff
	return RetryPolicy{
		MaxAttempts: config.ProfileAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * interval
		},
	}
}

// NoDelayRetryPolicy retries immediately. Intended for tests.
func NoDelayRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		Backoff:     func(int) time.Duration { return 0 },
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, or the context
// is cancelled. The last error is returned when all attempts fail.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && p.Backoff != nil {
			delay := p.Backoff(attempt - 1)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
