package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func init() {
	backoffStart = time.Millisecond
	backoffCap = 5 * time.Millisecond
}

func TestRetryableStatus(t *testing.T) {
	for _, s := range []int{429, 500, 502, 503, 504} {
		if !RetryableStatus(s) {
			t.Errorf("RetryableStatus(%d) = false, want true", s)
		}
	}
	for _, s := range []int{200, 301, 400, 404} {
		if RetryableStatus(s) {
			t.Errorf("RetryableStatus(%d) = true, want false", s)
		}
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(n int) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	err := Do(context.Background(), func(n int) (bool, error) {
		calls++
		return false, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Do error = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-retryable should not retry)", calls)
	}
}

func TestDoRetriesUpToMaxAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("transient")
	err := Do(context.Background(), func(n int) (bool, error) {
		calls++
		return true, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Do error = %v, want sentinel", err)
	}
	if calls != maxAttempts {
		t.Errorf("calls = %d, want %d", calls, maxAttempts)
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(n int) (bool, error) {
		calls++
		if calls < 2 {
			return true, errors.New("transient")
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
