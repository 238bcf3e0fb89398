package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := Do(context.Background(), operation)

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := Do(context.Background(), operation, WithInitialDelay(10*time.Millisecond))

	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestDo_AttemptBudgetExhausted(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("persistent error")
	}

	err := Do(context.Background(), operation,
		WithMaxAttempts(3),
		WithInitialDelay(10*time.Millisecond))

	if err == nil {
		t.Fatal("Expected error after exhausting attempts, got nil")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
	want := "operation failed after 3 attempts"
	if got := err.Error(); len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("Expected error starting with %q, got %q", want, got)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, operation, WithInitialDelay(10*time.Millisecond))

	if err == nil {
		t.Fatal("Expected error due to context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before the context check, got: %d", attempts)
	}
}

func TestDo_ContextTimeoutDuringWait(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return errors.New("error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Do(ctx, operation,
		WithInitialDelay(100*time.Millisecond),
		WithMaxAttempts(10))

	if err == nil {
		t.Fatal("Expected error due to context timeout, got nil")
	}
	if attempts > 2 {
		t.Errorf("Expected at most 2 attempts before timeout, got: %d", attempts)
	}
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	t.Parallel()
	attempts := 0
	operation := func() error {
		attempts++
		return Fatal(errors.New("bad credentials"))
	}

	err := Do(context.Background(), operation, WithInitialDelay(10*time.Millisecond))

	if err == nil {
		t.Fatal("Expected fatal error, got nil")
	}
	if !IsFatal(err) {
		t.Errorf("Expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for a fatal error, got: %d", attempts)
	}
}

func TestDo_FixedBackoff(t *testing.T) {
	t.Parallel()
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	operation := func() error {
		attempts++
		now := time.Now()
		if attempts > 1 {
			delays = append(delays, now.Sub(lastTime))
		}
		lastTime = now
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}

	err := Do(context.Background(), operation,
		WithInitialDelay(50*time.Millisecond),
		WithFixedBackoff())

	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if len(delays) != 3 {
		t.Fatalf("Expected 3 delays, got: %d", len(delays))
	}

	tolerance := 25 * time.Millisecond
	for i, delay := range delays {
		if delay < 50*time.Millisecond-tolerance || delay > 50*time.Millisecond+tolerance {
			t.Errorf("Delay %d: expected ~50ms, got %v", i+1, delay)
		}
	}
}

func TestDo_ExponentialBackoffTiming(t *testing.T) {
	t.Parallel()
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	operation := func() error {
		attempts++
		now := time.Now()
		if attempts > 1 {
			delays = append(delays, now.Sub(lastTime))
		}
		lastTime = now
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}

	err := Do(context.Background(), operation,
		WithInitialDelay(50*time.Millisecond),
		WithMaxDelay(200*time.Millisecond))

	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if len(delays) != 3 {
		t.Fatalf("Expected 3 delays, got: %d", len(delays))
	}

	// Delays double: 50ms, 100ms, 200ms. Allow timing slack.
	tolerance := 25 * time.Millisecond
	expected := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}
	for i, delay := range delays {
		if delay < expected[i]-tolerance || delay > expected[i]+tolerance {
			t.Errorf("Delay %d: expected ~%v, got %v", i+1, expected[i], delay)
		}
	}
}

func TestFatal(t *testing.T) {
	t.Parallel()
	t.Run("Nil error", func(t *testing.T) {
		t.Parallel()
		if err := Fatal(nil); err != nil {
			t.Errorf("Expected nil, got: %v", err)
		}
	})

	t.Run("Non-nil error", func(t *testing.T) {
		t.Parallel()
		originalErr := errors.New("test error")
		err := Fatal(originalErr)

		if err == nil {
			t.Fatal("Expected non-nil error")
		}
		if !IsFatal(err) {
			t.Error("Expected error to be fatal")
		}
		if err.Error() != originalErr.Error() {
			t.Errorf("Expected error message %q, got %q", originalErr.Error(), err.Error())
		}
	})
}

func TestIsFatal(t *testing.T) {
	t.Parallel()
	t.Run("Plain error", func(t *testing.T) {
		t.Parallel()
		if IsFatal(errors.New("regular error")) {
			t.Error("Expected non-fatal error")
		}
	})

	t.Run("Wrapped fatal error", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("context: %w", Fatal(errors.New("base error")))
		if !IsFatal(err) {
			t.Error("Expected wrapped fatal error to be detected")
		}
	})

	t.Run("Unwrap chain reaches the original", func(t *testing.T) {
		t.Parallel()
		sentinel := errors.New("sentinel error")
		if !errors.Is(Fatal(sentinel), sentinel) {
			t.Error("errors.Is should find the sentinel through FatalError.Unwrap()")
		}
	})
}
