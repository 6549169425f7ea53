// Package proxy provides optional SOCKS5 routing for clfetch.
//
// Craigslist rate limits aggressively by source IP. When a caller's address
// is already throttled, fetches can be routed through an external SOCKS5
// proxy or through an embedded Tor daemon managed by this package.
//
// The package deliberately stops at the dialer boundary: Client validates
// the proxy address, verifies the proxy actually speaks SOCKS5, and hands
// out a proxy.Dialer. Building the HTTP transport on top of that dialer is
// the fetch package's job, so TLS verification and connection pool settings
// live in exactly one place.
//
// The package is designed to be used with dependency injection - create a
// Client and pass its Dialer to the fetch client rather than using global
// state.
package proxy
