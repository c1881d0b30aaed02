package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}

	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("expected 1 attempt/call, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	p := Policy{MaxAttempts: 4, InitialBackoff: time.Millisecond}

	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("timeout")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("malformed query")
	p := Policy{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		Retryable:      func(err error) bool { return !errors.Is(err, fatal) },
	}

	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("expected single attempt, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	transient := errors.New("rate limited")
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}

	calls := 0
	attempts, err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected last error after exhaustion, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 10, InitialBackoff: time.Minute}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Do(ctx, func(context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDoBackoffGrowsAndCaps(t *testing.T) {
	p := Policy{MaxAttempts: 4, InitialBackoff: 5 * time.Millisecond, MaxBackoff: 10 * time.Millisecond}

	start := time.Now()
	_, err := p.Do(context.Background(), func(context.Context) error {
		return errors.New("transient")
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error")
	}
	// Waits are 5ms, 10ms (capped), 10ms (capped) = 25ms minimum.
	if elapsed < 25*time.Millisecond {
		t.Errorf("expected at least 25ms of backoff, got %v", elapsed)
	}
}
