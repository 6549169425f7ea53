package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/proxy"
)

// Transport tuning for the connection context. Craigslist serves every page
// of a search from the same host, so a small per-host idle pool is enough to
// keep the batch on warm connections.
const (
	maxIdleConns        = 10
	maxIdleConnsPerHost = 5
	idleConnTimeout     = 30 * time.Second
	maxRedirects        = 10
)

// Client is the connection context shared by the fetches of one run: a
// configured HTTP client holding pooled connections and a cookie jar.
//
// A single Client is safe for concurrent use and is deliberately shared
// across all fetches of a batch so they reuse connections and present one
// consistent cookie state to the server.
type Client struct {
	hc *http.Client
}

// ClientOption customizes the connection context built by NewClient.
type ClientOption func(*clientConfig)

type clientConfig struct {
	dialer    proxy.Dialer
	transport http.RoundTripper
}

// WithDialer routes all connections through d, typically a SOCKS5 dialer.
func WithDialer(d proxy.Dialer) ClientOption {
	return func(c *clientConfig) {
		c.dialer = d
	}
}

// WithTransport replaces the transport entirely. It overrides WithDialer.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

// NewClient builds a connection context. Without options it dials directly
// with keep-alives, an idle connection pool, and an in-memory cookie jar.
//
// Design decision: the client carries no overall timeout because:
//  1. Each fetch attempt already runs under its own deadline
//  2. A client-level timeout would also bound retries that the policy
//     intends to allow
//  3. Redirect chains are bounded separately by maxRedirects
func NewClient(opts ...ClientOption) *Client {
	var cfg clientConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	transport := cfg.transport
	if transport == nil {
		t := &http.Transport{
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     idleConnTimeout,
		}
		if cfg.dialer != nil {
			t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := cfg.dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return cfg.dialer.Dial(network, addr)
			}
		}
		transport = t
	}

	// Cookie jar construction cannot fail with a nil options struct.
	jar, _ := cookiejar.New(nil)

	return &Client{
		hc: &http.Client{
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Do sends an HTTP request through the connection context.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.hc.Do(req)
}

// CloseIdleConnections releases pooled connections. The Engine calls this
// once a run it created the Client for has fully completed.
func (c *Client) CloseIdleConnections() {
	c.hc.CloseIdleConnections()
}
