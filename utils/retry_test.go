package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"drip-rating-server/types"
)

func TestRetryPolicySucceedsFirstTry(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: types.IsRetryable}

	calls := 0
	failure := types.NewError(types.KindTransient, "endpoint down", nil)
	err := p.Do(context.Background(), func() error {
		calls++
		return failure
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, failure) {
		t.Errorf("expected last error to surface, got %v", err)
	}
}

func TestRetryPolicyRecoversMidway(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: types.IsRetryable}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return types.NewError(types.KindTransient, "endpoint down", nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicyStopsOnTerminalError(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: types.IsRetryable}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return types.NewError(types.KindUnauthorized, "credential rejected", nil)
	})
	if calls != 1 {
		t.Errorf("terminal error should stop retries, got %d calls", calls)
	}
	if types.KindOf(err) != types.KindUnauthorized {
		t.Errorf("expected unauthorized kind, got %v", types.KindOf(err))
	}
}

func TestRetryPolicyNilPredicateRetriesEverything(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	calls := 0
	p.Do(context.Background(), func() error {
		calls++
		return errors.New("plain failure")
	})
	if calls != 2 {
		t.Errorf("expected 2 calls with nil predicate, got %d", calls)
	}
}

func TestRetryPolicyHonorsContextCancel(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, Retryable: types.IsRetryable}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func() error {
			calls++
			return types.NewError(types.KindTransient, "endpoint down", nil)
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error after cancel")
		}
		if calls != 1 {
			t.Errorf("expected 1 call before cancel, got %d", calls)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancel")
	}
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	p := RetryPolicy{}

	calls := 0
	p.Do(context.Background(), func() error {
		calls++
		return errors.New("failure")
	})
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}
