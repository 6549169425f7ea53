package fetch

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Default retry policy values. The aggressive schedule (12 attempts starting
// from a 10ms window) recovers quickly from transient rate limiting while
// still backing off far enough to ride out short outages.
const (
	// DefaultMaxAttempts is the total number of attempts per fetch.
	DefaultMaxAttempts = 12

	// DefaultBaseDelay is the backoff window before the first retry.
	DefaultBaseDelay = 10 * time.Millisecond

	// DefaultMultiplier is the factor the backoff window grows by per retry.
	DefaultMultiplier = 2.0

	// DefaultMaxDelay caps the backoff window regardless of attempt count.
	DefaultMaxDelay = time.Minute
)

// RetryPolicy bounds how often and how patiently an operation is retried.
//
// The wait before retry k (counting from zero) is drawn from the window
// [0, BaseDelay * Multiplier^k] when Jitter is set, or is exactly the
// window's upper edge when it is not. Windows are capped at MaxDelay when
// MaxDelay is positive.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the initial backoff window.
	BaseDelay time.Duration

	// Multiplier grows the window between consecutive retries. Must be
	// greater than 1.
	Multiplier float64

	// MaxDelay caps the window. Zero means no cap.
	MaxDelay time.Duration

	// Jitter draws the actual wait uniformly from the window, decorrelating
	// concurrent fetches that fail at the same moment.
	Jitter bool
}

// DefaultRetryPolicy returns the policy used when the caller does not
// provide one.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		MaxDelay:    DefaultMaxDelay,
		Jitter:      true,
	}
}

// Validate checks that the policy can make progress.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if p.BaseDelay <= 0 {
		return ErrInvalidBaseDelay
	}
	if p.Multiplier <= 1 {
		return ErrInvalidMultiplier
	}
	return nil
}

// Delay returns the backoff window preceding retry k, counting from zero.
// The window grows geometrically from BaseDelay and is capped at MaxDelay.
// Jitter is not applied here so the bound is exact and testable.
func (p RetryPolicy) Delay(k int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < k; i++ {
		next := time.Duration(float64(d) * p.Multiplier)
		if next < d {
			// Overflow for very large k: pin to the largest representable
			// duration, or the cap if one is set.
			next = math.MaxInt64
		}
		d = next
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs op, retrying transient failures until op succeeds, the policy is
// exhausted, or ctx ends.
//
// Every error is treated as transient unless it was wrapped with Permanent,
// in which case Do unwraps and returns it immediately. When the final
// attempt fails Do returns a *MaxAttemptsError wrapping that failure.
// Context cancellation is checked both between attempts and after each
// failed attempt so a canceled caller never waits out a backoff window.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := p.Delay(attempt - 1)
			if p.Jitter && wait < math.MaxInt64 {
				wait = time.Duration(rand.Int64N(int64(wait) + 1))
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}
		if ctx.Err() != nil {
			// The attempt failed because the caller gave up, not because of
			// the network. Report the cancellation, not an attempt error.
			return ctx.Err()
		}
		lastErr = err
	}
	return &MaxAttemptsError{Attempts: p.MaxAttempts, Err: lastErr}
}
