package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func fastPolicy(retries int) Policy {
	return Policy{MaxRetries: retries, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	retried := 0
	err := Do(context.Background(), fastPolicy(3), isFlaky, func(error, time.Duration) { retried++ }, func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 || retried != 2 {
		t.Errorf("calls = %d, retried = %d; want 3, 2", calls, retried)
	}
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(2), isFlaky, nil, func(context.Context) error {
		calls++
		return errFlaky
	})
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, errFlaky) {
		t.Fatalf("Do() error = %v, want ErrExhausted wrapping errFlaky", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_PermanentNotRetried(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), fastPolicy(5), isFlaky, nil, func(context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || errors.Is(err, ErrExhausted) {
		t.Fatalf("Do() error = %v, want permanent error only", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, fastPolicy(5), isFlaky, nil, func(context.Context) error {
		t.Fatal("op should not run on a canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
}

func TestValue(t *testing.T) {
	calls := 0
	got, err := Value(context.Background(), fastPolicy(1), isFlaky, nil, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errFlaky
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("Value() = %d, %v; want 42, nil", got, err)
	}
}
