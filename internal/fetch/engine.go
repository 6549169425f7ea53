package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/nao1215/clfetch/internal/filter"
	"github.com/nao1215/clfetch/internal/model"
)

// Result pairs one fetched page with its outcome. Exactly one of Doc and
// Err is set. URL is the page as submitted, before query merging.
type Result struct {
	URL string
	Doc *model.Document
	Err error
}

// Engine coordinates a fetch run end to end: it resolves single versus
// batched input, owns the connection context for the run, retries and
// dispatches fetches, parses each body through the document filter, and
// streams parsed documents back in completion order.
type Engine struct {
	policy         RetryPolicy
	spec           filter.Spec
	poolSize       int
	userAgent      string
	attemptTimeout time.Duration
	maxBodySize    int64
	retryStatus    func(int) bool
	client         *Client
	logger         *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRetryPolicy replaces the retry policy applied to every fetch.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithFilter replaces the document filter. Pass nil to parse whole pages.
func WithFilter(spec filter.Spec) Option {
	return func(e *Engine) {
		e.spec = spec
	}
}

// WithPoolSize sets how many fetches run concurrently in a batch.
// Non-positive values keep the default.
func WithPoolSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.poolSize = n
		}
	}
}

// WithUserAgent replaces the default User-Agent value.
func WithUserAgent(ua string) Option {
	return func(e *Engine) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithAttemptTimeout replaces the per-attempt deadline applied to every
// fetch. Non-positive values keep the default.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.attemptTimeout = d
		}
	}
}

// WithClient pins the connection context instead of letting the Engine
// create one per run. The caller keeps ownership; the Engine will not
// release the client's connections.
func WithClient(c *Client) Option {
	return func(e *Engine) {
		e.client = c
	}
}

// WithLogger sets the logger for run-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxBodySize caps how many bytes of each response body are read.
func WithMaxBodySize(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBodySize = n
		}
	}
}

// WithRetryStatus replaces the predicate deciding which HTTP statuses are
// retried.
func WithRetryStatus(fn func(int) bool) Option {
	return func(e *Engine) {
		if fn != nil {
			e.retryStatus = fn
		}
	}
}

// New builds an Engine. The zero configuration fetches directly, retries
// per DefaultRetryPolicy, filters pages through filter.Default, and runs
// batches on DefaultPoolSize slots.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:         DefaultRetryPolicy(),
		spec:           filter.Default(),
		poolSize:       DefaultPoolSize,
		userAgent:      DefaultUserAgent,
		attemptTimeout: DefaultAttemptTimeout,
		maxBodySize:    DefaultMaxBodySize,
		retryStatus:    defaultRetryStatus,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Documents fetches every URL in src and streams parsed documents on the
// returned channel as fetches complete. The channel yields one Result per
// URL in completion order and is then closed.
//
// Input shape problems (no URLs, mismatched parameter list, malformed URL)
// are reported immediately and nothing is fetched. After that, a fetch that
// fails with a non-retryable status yields a Result carrying the error and
// the run continues. A fetch that exhausts its retry policy yields a Result
// whose error matches ErrNetworkExhausted and ends the run at that point:
// already-delivered documents remain valid, in-flight fetches finish and are
// discarded, and the channel closes.
//
// The run tears down cleanly whether or not the caller drains the channel.
// Cancel ctx to abort in-flight fetches early.
func (e *Engine) Documents(ctx context.Context, src Source) (<-chan Result, error) {
	src, err := src.resolve()
	if err != nil {
		return nil, err
	}
	for _, raw := range src.urls {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, raw)
		}
	}

	client, owned := e.client, false
	if client == nil {
		client, owned = NewClient(), true
	}

	if src.single {
		return e.runSingle(ctx, client, owned, src)
	}
	return e.runBatch(ctx, client, owned, src)
}

// Document fetches and parses one page, blocking until it is ready. It is
// shorthand for Documents with a Single source.
func (e *Engine) Document(ctx context.Context, rawURL string, params url.Values) (*model.Document, error) {
	results, err := e.Documents(ctx, Single(rawURL, params))
	if err != nil {
		return nil, err
	}
	res := <-results
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Doc, nil
}

// runSingle fetches one URL without creating a pool.
func (e *Engine) runSingle(ctx context.Context, client *Client, owned bool, src Source) (<-chan Result, error) {
	req := Request{URL: src.urls[0], Params: src.paramsAt(0)}
	fetcher := e.newFetcher(client)
	out := make(chan Result, 1)

	go func() {
		defer close(out)
		if owned {
			defer client.CloseIdleConnections()
		}
		resp, err := fetcher.Fetch(ctx, req)
		if err != nil {
			out <- Result{URL: req.URL, Err: e.translate(req.URL, err)}
			return
		}
		out <- e.parse(req.URL, resp)
	}()

	return out, nil
}

// runBatch fetches every URL through a pool and forwards parsed documents in
// completion order.
func (e *Engine) runBatch(ctx context.Context, client *Client, owned bool, src Source) (<-chan Result, error) {
	reqs := make([]Request, len(src.urls))
	fetchers := make([]*Fetcher, len(src.urls))
	// One fetcher per slot would also work, but the underlying client is
	// safe for concurrent use, so a single fetcher serves every position.
	shared := e.newFetcher(client)
	for i := range src.urls {
		reqs[i] = Request{URL: src.urls[i], Params: src.paramsAt(i)}
		fetchers[i] = shared
	}

	raw, err := NewPool(e.poolSize).Dispatch(ctx, fetchers, reqs)
	if err != nil {
		if owned {
			client.CloseIdleConnections()
		}
		return nil, err
	}
	e.logger.DebugContext(ctx, "dispatching batch", "urls", len(reqs), "pool", e.poolSize)

	out := make(chan Result, len(reqs))
	go func() {
		done := false
		finish := func() {
			if !done {
				close(out)
				done = true
			}
		}
		// Keep draining raw after an abort so every worker finishes before
		// the connection context is released.
		for r := range raw {
			if done {
				continue
			}
			u := reqs[r.Index].URL
			if r.Err != nil {
				translated := e.translate(u, r.Err)
				out <- Result{URL: u, Err: translated}
				if errors.Is(translated, ErrNetworkExhausted) {
					finish()
				}
				continue
			}
			out <- e.parse(u, r.Resp)
		}
		finish()
		if owned {
			client.CloseIdleConnections()
		}
	}()

	return out, nil
}

// parse runs one response body through the document filter.
func (e *Engine) parse(u string, resp *Response) Result {
	doc, err := filter.Parse(bytes.NewReader(resp.Body), e.spec)
	if err != nil {
		return Result{URL: u, Err: fmt.Errorf("parse %s: %w", u, err)}
	}
	doc.URL = u
	e.logger.Debug("page parsed", "url", u, "elements", doc.Len())
	return Result{URL: u, Doc: doc}
}

// translate maps fetch-level exhaustion onto the caller-facing sentinel.
// Other errors pass through unchanged.
func (e *Engine) translate(u string, err error) error {
	var m *MaxAttemptsError
	if errors.As(err, &m) {
		e.logger.Warn("fetch attempts exhausted", "url", u, "attempts", m.Attempts)
		return fmt.Errorf("%w: %w", ErrNetworkExhausted, err)
	}
	return err
}

// newFetcher builds the per-run fetcher from the engine configuration.
func (e *Engine) newFetcher(c *Client) *Fetcher {
	return NewFetcher(c,
		WithFetchPolicy(e.policy),
		WithFetchUserAgent(e.userAgent),
		WithFetchAttemptTimeout(e.attemptTimeout),
		WithFetchMaxBodySize(e.maxBodySize),
		WithFetchRetryStatus(e.retryStatus),
	)
}
