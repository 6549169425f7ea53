package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/clfetch/internal/fetch"
)

// Default configuration values. The fetch defaults themselves live in the
// fetch package next to the code that applies them; what is defined here is
// specific to the CLI surface.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "clfetch"

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap when --tor is used. 3 minutes covers most
	// network conditions.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultMaxPages caps how many result pages one search fetches.
	// 0 means every page the result total calls for; Craigslist tops out at
	// 3000 listings (25 pages), so an uncapped search stays bounded anyway.
	DefaultMaxPages = 0

	// DefaultSite is the Craigslist site searched when none is given.
	DefaultSite = "sfbay"

	// DefaultCategory is the category searched when none is given.
	// "sss" is the site's catch-all for-sale category.
	DefaultCategory = "sss"
)

// Config holds all configuration options for clfetch.
// This struct is designed to be populated from CLI flags and the
// configuration file and passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// SOCKS5Address routes all fetches through an external SOCKS5 proxy in
	// "host:port" format. Empty means dial directly.
	SOCKS5Address string

	// UseEmbeddedTor starts an embedded Tor daemon and routes fetches
	// through it. Mutually exclusive with SOCKS5Address.
	//
	// Note: the embedded daemon takes 1-3 minutes to bootstrap on first
	// start.
	UseEmbeddedTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon to bootstrap. Only used when UseEmbeddedTor is true.
	TorStartupTimeout time.Duration

	// AttemptTimeout bounds each fetch attempt, not the whole retry
	// sequence.
	AttemptTimeout time.Duration

	// MaxAttempts is the total number of attempts per fetch, first included.
	MaxAttempts int

	// BaseDelay is the backoff window before the first retry.
	BaseDelay time.Duration

	// Multiplier grows the backoff window between consecutive retries.
	Multiplier float64

	// PoolSize is the number of concurrent fetches in a batch. Craigslist
	// rate limits aggressively; values much above the default trade speed
	// for 429 responses that then burn the retry budget.
	PoolSize int

	// MaxPages caps how many result pages one search fetches, first page
	// included. 0 means no cap.
	MaxPages int

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. 0 means the default.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .clfetch in the current directory,
	// the user's home directory, and the XDG config directory.
	ConfigFilePath string

	// Presets holds the named searches loaded from the config file.
	Presets *File

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite history database.
	// When empty, the XDG data directory is used.
	DBDir string

	// SaveToDB indicates whether to save search results to the history
	// database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, retry
// budget). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		TorStartupTimeout: DefaultTorStartupTimeout,
		AttemptTimeout:    fetch.DefaultAttemptTimeout,
		MaxAttempts:       fetch.DefaultMaxAttempts,
		BaseDelay:         fetch.DefaultBaseDelay,
		Multiplier:        fetch.DefaultMultiplier,
		PoolSize:          fetch.DefaultPoolSize,
		MaxPages:          DefaultMaxPages,
		UserAgent:         fetch.DefaultUserAgent,
		MaxBodySize:       fetch.DefaultMaxBodySize,
	}
}

// RetryPolicy assembles the fetch retry policy from the configured values.
func (c *Config) RetryPolicy() fetch.RetryPolicy {
	return fetch.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		Multiplier:  c.Multiplier,
		MaxDelay:    fetch.DefaultMaxDelay,
		Jitter:      true,
	}
}

// XDGDataDir returns the XDG data directory for clfetch.
// On Linux: ~/.local/share/clfetch
// On macOS: ~/Library/Application Support/clfetch
// On Windows: %LOCALAPPDATA%\clfetch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for clfetch.
// On Linux: ~/.config/clfetch
// On macOS: ~/Library/Application Support/clfetch
// On Windows: %APPDATA%\clfetch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any fetching begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.AttemptTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	if c.BaseDelay <= 0 {
		return ErrInvalidBaseDelay
	}
	if c.Multiplier <= 1 {
		return ErrInvalidMultiplier
	}
	if c.PoolSize <= 0 {
		return ErrInvalidPoolSize
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseEmbeddedTor && c.SOCKS5Address != "" {
		return ErrConflictingProxyModes
	}
	return nil
}
