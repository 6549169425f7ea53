package proxy

import "errors"

// Proxy connectivity errors.
// These errors are returned when there are problems connecting to or through
// the configured SOCKS5 proxy.
//
// Design decision: We define specific error types rather than wrapping all errors
// generically. This allows callers to handle different failure modes appropriately
// (e.g., retry on timeout, but fail fast on wrong proxy type).
var (
	// ErrProxyNotSOCKS5 is returned when the configured proxy address responds
	// but is not a SOCKS5 proxy. This typically happens when connecting
	// to an HTTP proxy or a different service on the expected port.
	ErrProxyNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when we cannot establish a TCP connection
	// to the proxy address. This usually means the proxy is not running or the
	// address is incorrect.
	ErrProxyCannotConnect = errors.New("cannot connect to SOCKS5 proxy")

	// ErrProxyTimeout is returned when the connection to the proxy times out.
	// This may indicate network issues or an overloaded proxy.
	ErrProxyTimeout = errors.New("timeout connecting to SOCKS5 proxy")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Status represents the result of checking the SOCKS5 proxy connection.
// This enum allows for easy status reporting and programmatic handling
// of different proxy states.
type Status int

const (
	// StatusOK indicates the proxy is a working SOCKS5 proxy.
	StatusOK Status = iota

	// StatusWrongType indicates the proxy is not a SOCKS5 proxy.
	// The connection succeeded but the response indicates a different type of service.
	StatusWrongType

	// StatusCannotConnect indicates we could not establish a connection.
	// The proxy may not be running or the address may be wrong.
	StatusCannotConnect

	// StatusTimeout indicates the connection attempt timed out.
	// This may be a temporary network issue or an overloaded proxy.
	StatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWrongType:
		return "wrong type (not SOCKS5)"
	case StatusCannotConnect:
		return "cannot connect"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the appropriate error for this status, or nil if OK.
func (s Status) Error() error {
	switch s {
	case StatusOK:
		return nil
	case StatusWrongType:
		return ErrProxyNotSOCKS5
	case StatusCannotConnect:
		return ErrProxyCannotConnect
	case StatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}
