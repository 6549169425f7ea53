package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrInvalidTimeout is returned when the per-attempt timeout is not
	// positive. A zero or negative timeout would fail every request
	// immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidAttempts is returned when the retry budget allows no
	// attempts at all.
	ErrInvalidAttempts = errors.New("invalid retries: must allow at least one attempt")

	// ErrInvalidBaseDelay is returned when the initial backoff window is not
	// positive.
	ErrInvalidBaseDelay = errors.New("invalid base delay: must be positive")

	// ErrInvalidMultiplier is returned when the backoff multiplier would not
	// grow the delay between attempts.
	ErrInvalidMultiplier = errors.New("invalid multiplier: must be greater than 1")

	// ErrInvalidPoolSize is returned when the concurrent fetch pool has no
	// slots. A pool of zero would mean no fetching at all.
	ErrInvalidPoolSize = errors.New("invalid pool size: must be positive")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	// Use 0 to fetch every page the result total calls for.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxyModes is returned when both an external SOCKS5
	// address and the embedded Tor daemon are requested. The embedded daemon
	// chooses its own proxy address.
	ErrConflictingProxyModes = errors.New("conflicting proxy modes: --socks5 and --tor cannot be used together")
)
