package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nao1215/clfetch/internal/fetch"
	"github.com/nao1215/clfetch/internal/model"
	"github.com/nao1215/clfetch/internal/search"
	"github.com/spf13/cobra"
)

// NewGetCmd creates the get command for fetching explicit URLs.
func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [url...]",
		Short: "Fetch one or more Craigslist pages by URL",
		Long: `Fetch one or more Craigslist pages by URL and report what each one
contains.

A single URL is fetched directly. Multiple URLs are fetched concurrently
over the worker pool, and the report lists them in completion order.

Examples:
  # Fetch a single search page
  clfetch get "https://sfbay.craigslist.org/search/bia"

  # Fetch several pages at once with extra query parameters
  clfetch get -P min_price=100 -P hasPic=1 \
    "https://sfbay.craigslist.org/search/bia" \
    "https://sfbay.craigslist.org/search/mca"

  # Fetch the page bare, without the default request headers
  clfetch get --no-defaults "https://sfbay.craigslist.org/search/bia"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGetCmd,
	}

	cmd.Flags().StringArrayP("param", "P", nil,
		"Extra query parameter as key=value (repeatable)")
	cmd.Flags().Bool("no-defaults", false,
		"Send bare requests without the default header set")
	cmd.Flags().BoolP("json", "j", false, "Write the report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Write the report as Markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

// runGetCmd executes the get command.
func runGetCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	params, err := parseParams(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := newSignalContext(logger)
	defer cancel()

	engine, cleanup, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fetchReport, runErr := runGet(ctx, engine, args, params, logger)

	// Write the report before surfacing the run error so partial results
	// are never lost.
	writer, closeFn, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	if _, err := writer.WriteFetch(fetchReport); err != nil {
		_ = closeFn() //nolint:errcheck // Report write already failed
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("failed to close report output: %w", err)
	}

	return runErr
}

// parseParams converts repeated --param key=value flags into query values.
// The result follows the request convention: nil keeps the default header
// set, an empty non-nil value suppresses it, and populated values are
// merged into the query with the default header set still applied.
func parseParams(cmd *cobra.Command) (url.Values, error) {
	raw, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return nil, err
	}
	noDefaults, err := cmd.Flags().GetBool("no-defaults")
	if err != nil {
		return nil, err
	}

	if noDefaults {
		if len(raw) > 0 {
			return nil, errors.New("cannot combine --no-defaults with --param: explicit parameters always re-enable the default header set")
		}
		return url.Values{}, nil
	}
	if len(raw) == 0 {
		return nil, nil
	}

	params := url.Values{}
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", kv)
		}
		params.Add(key, value)
	}
	return params, nil
}

// runGet fetches every URL and folds the streamed results into a report.
// The report is returned even when the run ends early so partial results
// survive; the error then says why it stopped.
func runGet(ctx context.Context, engine *fetch.Engine, urls []string, params url.Values, logger *slog.Logger) (*model.FetchReport, error) {
	fetchReport := model.NewFetchReport()

	// The same parameters apply to every URL in the batch.
	var paramsList []url.Values
	if params != nil {
		paramsList = make([]url.Values, len(urls))
		for i := range paramsList {
			paramsList[i] = params
		}
	}

	fmt.Fprintf(os.Stderr, "Fetching %d page(s)...\n", len(urls))

	results, err := engine.Documents(ctx, fetch.Batch(urls, paramsList))
	if err != nil {
		return fetchReport, err
	}

	var runErr error
	for res := range results {
		if res.Err != nil {
			fetchReport.Pages = append(fetchReport.Pages, model.PageSummary{
				URL: res.URL,
				Err: res.Err.Error(),
			})
			if errors.Is(res.Err, fetch.ErrNetworkExhausted) {
				fetchReport.Err = res.Err.Error()
				runErr = res.Err
			}
			logger.Warn("page fetch failed", "url", res.URL, "error", res.Err)
			continue
		}
		fetchReport.Pages = append(fetchReport.Pages, search.Summarize(res.Doc))
		logger.Debug("page fetched", "url", res.URL, "elements", res.Doc.Len())
	}

	fetchReport.Elapsed = time.Since(fetchReport.StartedAt)
	return fetchReport, runErr
}
