package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	policy := NoDelayRetryPolicy(3)

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	policy := NoDelayRetryPolicy(3)

	wantErr := errors.New("permanent")
	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestRetryPolicyZeroValueRunsOnce(t *testing.T) {
	var policy RetryPolicy

	calls := 0
	_ = policy.Do(context.Background(), func() error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 {
		t.Fatalf("zero-value policy should run exactly once, got %d", calls)
	}
}

func TestRetryPolicyStopsOnCancelledContext(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		Backoff:     func(int) time.Duration { return time.Hour },
	}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		// Cancel while Do is sleeping between attempts.
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one attempt before the backoff wait, got %d", calls)
	}
}

func TestDefaultRetryPolicyBackoffIsLinear(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.MaxAttempts < 1 {
		t.Fatalf("default policy must attempt at least once")
	}
	if policy.Backoff(2) != 2*policy.Backoff(1) {
		t.Fatalf("expected linear backoff, got %v then %v", policy.Backoff(1), policy.Backoff(2))
	}
}
