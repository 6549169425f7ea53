package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkExhausted is reported on a result when every retry attempt
	// for a request has been consumed without success. It usually means the
	// network is down or the remote host is unreachable.
	ErrNetworkExhausted = errors.New("maximum fetch attempts exhausted: check network connection")

	// ErrNoURLs is returned when a source contains no URLs at all.
	ErrNoURLs = errors.New("no URLs provided")

	// ErrParamsMismatch is returned when a batched source pairs N URLs with
	// a parameter list of a different length.
	ErrParamsMismatch = errors.New("parameter list length does not match URL list length")

	// ErrLengthMismatch is returned by Pool.Dispatch when the fetcher and
	// request slices differ in length.
	ErrLengthMismatch = errors.New("fetchers and requests must have equal length")

	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("retry policy needs at least one attempt")

	// ErrInvalidBaseDelay is returned when a retry policy has a non-positive
	// base delay.
	ErrInvalidBaseDelay = errors.New("retry base delay must be positive")

	// ErrInvalidMultiplier is returned when a retry policy would not grow its
	// delay between attempts.
	ErrInvalidMultiplier = errors.New("retry multiplier must be greater than 1")
)

// MaxAttemptsError reports that a fetch consumed every attempt its retry
// policy allowed. It wraps the error from the final attempt.
//
// This is the fetch-level exhaustion signal. The Engine translates it into
// the caller-facing ErrNetworkExhausted when it surfaces on a result, so
// most callers match with errors.Is(err, ErrNetworkExhausted) instead of
// unwrapping this type directly.
type MaxAttemptsError struct {
	// Attempts is the number of attempts performed.
	Attempts int
	// Err is the failure observed on the final attempt.
	Err error
}

// Error returns a human-readable description of the exhausted fetch.
func (e *MaxAttemptsError) Error() string {
	return fmt.Sprintf("no attempts left after %d tries: %v", e.Attempts, e.Err)
}

// Unwrap exposes the final attempt's error for errors.Is and errors.As.
func (e *MaxAttemptsError) Unwrap() error { return e.Err }

// StatusError reports a non-success HTTP status.
type StatusError struct {
	// URL is the fetched URL, including merged query parameters.
	URL string
	// StatusCode is the HTTP status returned by the server.
	StatusCode int
}

// Error returns a human-readable description of the failed response.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Permanent marks err as not worth retrying. RetryPolicy.Do stops
// immediately when an attempt returns a permanent error and reports the
// wrapped error to the caller unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }
