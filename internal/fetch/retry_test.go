package fetch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy RetryPolicy
		want   error
	}{
		{
			name:   "default policy is valid",
			policy: DefaultRetryPolicy(),
			want:   nil,
		},
		{
			name:   "zero attempts",
			policy: RetryPolicy{MaxAttempts: 0, BaseDelay: time.Millisecond, Multiplier: 2},
			want:   ErrInvalidMaxAttempts,
		},
		{
			name:   "negative base delay",
			policy: RetryPolicy{MaxAttempts: 3, BaseDelay: -time.Millisecond, Multiplier: 2},
			want:   ErrInvalidBaseDelay,
		},
		{
			name:   "multiplier of exactly one",
			policy: RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 1},
			want:   ErrInvalidMultiplier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.policy.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	t.Parallel()

	t.Run("grows geometrically", func(t *testing.T) {
		t.Parallel()

		p := RetryPolicy{MaxAttempts: 12, BaseDelay: 10 * time.Millisecond, Multiplier: 2}
		want := []time.Duration{
			10 * time.Millisecond,
			20 * time.Millisecond,
			40 * time.Millisecond,
			80 * time.Millisecond,
			160 * time.Millisecond,
		}
		for k, w := range want {
			if got := p.Delay(k); got != w {
				t.Errorf("Delay(%d) = %v, want %v", k, got, w)
			}
		}
	})

	t.Run("caps at MaxDelay", func(t *testing.T) {
		t.Parallel()

		p := RetryPolicy{MaxAttempts: 12, BaseDelay: 10 * time.Millisecond, Multiplier: 2, MaxDelay: 50 * time.Millisecond}
		if got := p.Delay(2); got != 40*time.Millisecond {
			t.Errorf("Delay(2) = %v, want 40ms", got)
		}
		for k := 3; k < 20; k++ {
			if got := p.Delay(k); got != 50*time.Millisecond {
				t.Errorf("Delay(%d) = %v, want the 50ms cap", k, got)
			}
		}
	})

	t.Run("survives very large attempt counts", func(t *testing.T) {
		t.Parallel()

		p := RetryPolicy{MaxAttempts: 1000, BaseDelay: time.Second, Multiplier: 2}
		if got := p.Delay(500); got <= 0 {
			t.Errorf("Delay(500) = %v, want a positive duration", got)
		}
	})
}

func TestRetryPolicyDo(t *testing.T) {
	t.Parallel()

	// fast is small enough that exhausting it takes a few milliseconds.
	fast := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2}

	t.Run("returns nil on first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := fast.Do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("Do() = %v, want nil", err)
		}
		if calls != 1 {
			t.Errorf("op called %d times, want 1", calls)
		}
	})

	t.Run("retries transient failures until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := fast.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do() = %v, want nil", err)
		}
		if calls != 3 {
			t.Errorf("op called %d times, want 3", calls)
		}
	})

	t.Run("reports exhaustion with the last error", func(t *testing.T) {
		t.Parallel()

		last := errors.New("still down")
		calls := 0
		err := fast.Do(context.Background(), func(context.Context) error {
			calls++
			return last
		})
		if calls != fast.MaxAttempts {
			t.Errorf("op called %d times, want %d", calls, fast.MaxAttempts)
		}
		var m *MaxAttemptsError
		if !errors.As(err, &m) {
			t.Fatalf("Do() = %v, want *MaxAttemptsError", err)
		}
		if m.Attempts != fast.MaxAttempts {
			t.Errorf("Attempts = %d, want %d", m.Attempts, fast.MaxAttempts)
		}
		if !errors.Is(err, last) {
			t.Errorf("exhaustion error should wrap the last attempt error, got %v", err)
		}
	})

	t.Run("stops immediately on permanent errors", func(t *testing.T) {
		t.Parallel()

		fatal := errors.New("not found")
		calls := 0
		err := fast.Do(context.Background(), func(context.Context) error {
			calls++
			return Permanent(fatal)
		})
		if calls != 1 {
			t.Errorf("op called %d times, want 1", calls)
		}
		if !errors.Is(err, fatal) {
			t.Errorf("Do() = %v, want %v", err, fatal)
		}
		var m *MaxAttemptsError
		if errors.As(err, &m) {
			t.Error("permanent failure should not be reported as exhaustion")
		}
	})

	t.Run("honors cancellation between attempts", func(t *testing.T) {
		t.Parallel()

		slow := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Minute, Multiplier: 2}
		ctx, cancel := context.WithCancel(context.Background())

		calls := 0
		errCh := make(chan error, 1)
		go func() {
			errCh <- slow.Do(ctx, func(context.Context) error {
				calls++
				return errors.New("flaky")
			})
		}()

		// Let the first attempt fail, then cancel during the minute-long
		// backoff window.
		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Do() = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Do did not return after cancellation")
		}
		if calls != 1 {
			t.Errorf("op called %d times, want 1", calls)
		}
	})

	t.Run("reports cancellation observed by the operation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		err := fast.Do(ctx, func(ctx context.Context) error {
			cancel()
			return ctx.Err()
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() = %v, want context.Canceled", err)
		}
	})

	t.Run("waits out the backoff schedule", func(t *testing.T) {
		t.Parallel()

		p := RetryPolicy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond, Multiplier: 2}
		start := time.Now()
		_ = p.Do(context.Background(), func(context.Context) error {
			return errors.New("flaky")
		})
		// Two backoff windows: 50ms + 100ms.
		if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
			t.Errorf("exhaustion took %v, want at least 150ms of backoff", elapsed)
		}
	})

	t.Run("rejects an invalid policy before attempting", func(t *testing.T) {
		t.Parallel()

		p := RetryPolicy{}
		calls := 0
		err := p.Do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})
		if !errors.Is(err, ErrInvalidMaxAttempts) {
			t.Errorf("Do() = %v, want %v", err, ErrInvalidMaxAttempts)
		}
		if calls != 0 {
			t.Errorf("op called %d times, want 0", calls)
		}
	})
}
