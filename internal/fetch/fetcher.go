package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultUserAgent is sent with every request unless the caller
	// suppresses or overrides the default header set.
	DefaultUserAgent = "Mozilla/5.0"

	// DefaultAttemptTimeout bounds a single fetch attempt, not the whole
	// retry sequence.
	DefaultAttemptTimeout = 5 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read. Craigslist
	// result pages are well under 1MB; anything larger is not a page we want.
	DefaultMaxBodySize = 5 << 20
)

// Request describes one page to fetch.
type Request struct {
	// URL is the absolute http or https URL of the page.
	URL string

	// Params are merged into the URL's query string.
	//
	// The value is tri-state: nil means no parameters and the default header
	// set applies; a non-nil empty map means no parameters and the default
	// header set is suppressed; a populated map is merged into the query with
	// the default header set still applied.
	Params url.Values

	// Headers are additional headers set on every attempt. They override the
	// default header set on key collision.
	Headers map[string]string
}

// Response is a completed fetch: the final status, response headers, and the
// body decoded to UTF-8.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetcher performs single GETs with bounded retry. Construct with NewFetcher
// and share freely; a Fetcher is stateless between calls and safe for
// concurrent use as long as its Client is.
type Fetcher struct {
	client         *Client
	policy         RetryPolicy
	userAgent      string
	attemptTimeout time.Duration
	maxBodySize    int64
	retryStatus    func(int) bool
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchPolicy replaces the retry policy.
func WithFetchPolicy(p RetryPolicy) FetcherOption {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithFetchUserAgent replaces the default User-Agent value.
func WithFetchUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithFetchAttemptTimeout replaces the per-attempt deadline.
func WithFetchAttemptTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.attemptTimeout = d
		}
	}
}

// WithFetchMaxBodySize replaces the response body cap.
func WithFetchMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithFetchRetryStatus replaces the predicate deciding which HTTP statuses
// are transient. Statuses outside 2xx that the predicate rejects fail the
// fetch immediately with a *StatusError.
func WithFetchRetryStatus(fn func(int) bool) FetcherOption {
	return func(f *Fetcher) {
		if fn != nil {
			f.retryStatus = fn
		}
	}
}

// defaultRetryStatus treats rate limiting and server errors as transient.
func defaultRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// NewFetcher builds a Fetcher on top of client with default policy, headers,
// and limits.
func NewFetcher(client *Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:         client,
		policy:         DefaultRetryPolicy(),
		userAgent:      DefaultUserAgent,
		attemptTimeout: DefaultAttemptTimeout,
		maxBodySize:    DefaultMaxBodySize,
		retryStatus:    defaultRetryStatus,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs one page, retrying per the policy. It validates and builds the
// final URL before touching the network, so malformed input fails without a
// request ever being sent. On success the response body has been decoded to
// UTF-8. When every attempt fails the returned error is a *MaxAttemptsError
// wrapping the last attempt's failure.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	u, err := buildURL(req)
	if err != nil {
		return nil, err
	}

	defaults := f.sendDefaults(req)
	var resp *Response
	err = f.policy.Do(ctx, func(ctx context.Context) error {
		r, err := f.attempt(ctx, u, req.Headers, defaults)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// sendDefaults reports whether the default header set applies to req.
// Explicitly empty parameters are the caller's signal to go bare.
func (f *Fetcher) sendDefaults(req Request) bool {
	return req.Params == nil || len(req.Params) > 0
}

// attempt performs one GET under the per-attempt deadline. Transport
// failures and retryable statuses return plain errors so the policy retries
// them; everything else comes back wrapped with Permanent.
func (f *Fetcher) attempt(ctx context.Context, u string, headers map[string]string, defaults bool) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, Permanent(err)
	}
	if defaults {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	res, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		serr := &StatusError{URL: u, StatusCode: res.StatusCode}
		if f.retryStatus(res.StatusCode) {
			return nil, serr
		}
		return nil, Permanent(serr)
	}

	return &Response{
		URL:        u,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       decodeToUTF8(body, res.Header.Get("Content-Type")),
	}, nil
}

// buildURL validates the request URL and merges Params into its query
// string. Existing query values survive; Params values are added alongside
// them.
func buildURL(req Request) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", req.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, req.URL)
	}
	if len(req.Params) > 0 {
		q := u.Query()
		for key, values := range req.Params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
