// Package search runs Craigslist searches end to end: it builds the search
// URL, fetches the first result page to learn the result total, fans the
// remaining pages out through the fetch engine, and extracts listings from
// each page as it completes.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/nao1215/clfetch/internal/fetch"
	"github.com/nao1215/clfetch/internal/model"
	"github.com/nao1215/clfetch/internal/query"
)

// Service coordinates search runs over a fetch engine. Construct with New;
// a Service is stateless between runs and safe for concurrent use.
type Service struct {
	engine   *fetch.Engine
	logger   *slog.Logger
	pageStep int
	maxPages int
	baseURL  string
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger for run-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPageStep overrides the listings-per-page step used to derive page
// offsets from the result total.
func WithPageStep(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageStep = n
		}
	}
}

// WithMaxPages caps how many result pages a run fetches, first page
// included. Zero means every page the result total calls for.
func WithMaxPages(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxPages = n
		}
	}
}

// WithBaseURL points the service at a host other than the site's
// craigslist.org subdomain. The search path is appended to it unchanged.
// Used by tests to target a local server.
func WithBaseURL(base string) Option {
	return func(s *Service) {
		s.baseURL = base
	}
}

// New builds a search Service on top of engine.
func New(engine *fetch.Engine, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		logger:   slog.Default(),
		pageStep: query.DefaultPageStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes one search.
type Request struct {
	// Site is the Craigslist site token, e.g. "sfbay".
	Site string

	// Area optionally narrows the site, e.g. "eby".
	Area string

	// Category is the category code to search, e.g. "bia".
	Category string

	// Query is the free-text query. Empty means browse the category.
	Query string

	// Params are extra search filters (hasPic, min_price, ...) merged into
	// every page request.
	Params url.Values

	// MaxPages caps the pages fetched for this run, overriding the service
	// setting. Zero means use the service setting.
	MaxPages int
}

// Search runs one search and returns the aggregated report.
//
// The first page is fetched alone to learn the result total, then the
// remaining pages are fetched concurrently and their listings appended in
// completion order. When a page fails with a permanent error the run skips
// it and keeps going. When the network is exhausted the run stops early and
// returns the partial report together with an error matching
// fetch.ErrNetworkExhausted; listings gathered before the stop are intact.
func (s *Service) Search(ctx context.Context, req Request) (*model.SearchReport, error) {
	target, err := s.target(req)
	if err != nil {
		return nil, err
	}

	params := query.PageParams(req.Params, 0)
	if req.Query != "" {
		params.Set("query", req.Query)
	}

	report := model.NewSearchReport(req.Site, req.Area, req.Category, req.Query)
	s.logger.Debug("search started", "url", target, "query", req.Query)

	// An empty non-nil map is the fetch layer's header opt-out signal.
	// A filterless browse is not opting out, so it passes nil instead.
	firstParams := params
	if len(firstParams) == 0 {
		firstParams = nil
	}
	first, err := s.engine.Document(ctx, target, firstParams)
	if err != nil {
		report.Err = err.Error()
		report.Elapsed = time.Since(report.StartedAt)
		return report, fmt.Errorf("fetch first page: %w", err)
	}
	if total, ok := first.TotalCount(); ok {
		report.TotalCount = total
	}
	report.AddListings(Listings(first))

	offsets := s.offsets(report.TotalCount, req.MaxPages)
	s.logger.Debug("search total known",
		"total", report.TotalCount, "first_page_listings", len(report.Listings), "more_pages", len(offsets))
	if len(offsets) == 0 {
		report.Elapsed = time.Since(report.StartedAt)
		return report, nil
	}

	urls := make([]string, len(offsets))
	pageParams := make([]url.Values, len(offsets))
	for i, off := range offsets {
		urls[i] = target
		pageParams[i] = query.PageParams(params, off)
	}

	results, err := s.engine.Documents(ctx, fetch.Batch(urls, pageParams))
	if err != nil {
		report.Err = err.Error()
		report.Elapsed = time.Since(report.StartedAt)
		return report, err
	}
	for res := range results {
		if res.Err != nil {
			if errors.Is(res.Err, fetch.ErrNetworkExhausted) {
				report.Err = res.Err.Error()
				report.Elapsed = time.Since(report.StartedAt)
				return report, res.Err
			}
			s.logger.Warn("result page skipped", "url", res.URL, "error", res.Err)
			continue
		}
		report.AddListings(Listings(res.Doc))
	}

	report.Elapsed = time.Since(report.StartedAt)
	return report, nil
}

// target resolves the search URL for req.
func (s *Service) target(req Request) (string, error) {
	if s.baseURL != "" {
		path, err := query.SearchPath(req.Area, req.Category)
		if err != nil {
			return "", err
		}
		return s.baseURL + path, nil
	}
	return query.BuildSearchURL(req.Site, req.Area, req.Category)
}

// offsets derives the offsets of the pages after the first, honoring the
// page cap.
func (s *Service) offsets(total, maxPages int) []int {
	offsets := query.PageOffsets(total, s.pageStep)
	limit := maxPages
	if limit == 0 {
		limit = s.maxPages
	}
	if limit > 0 && len(offsets) > limit-1 {
		offsets = offsets[:limit-1]
	}
	return offsets
}
