package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/nao1215/clfetch/internal/config"
	"github.com/nao1215/clfetch/internal/database"
	"github.com/nao1215/clfetch/internal/model"
	"github.com/nao1215/clfetch/internal/search"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search a Craigslist category and collect the listings",
		Long: `Search a Craigslist category and collect the listings from every
result page.

The first page reveals how many listings the site reported; the remaining
pages are then fetched concurrently and merged into one report. Recurring
searches can be saved as presets in the configuration file (see
'clfetch init') and run with --preset.

Examples:
  # Search the East Bay bicycles category
  clfetch search --site sfbay --area eby --category bia "road bike"

  # Browse a whole category, capped at two pages, and save the run
  clfetch search --category zip --max-pages 2 --save

  # Run a preset from the configuration file
  clfetch search --preset bikes

  # Add search filters and write the report as JSON
  clfetch search --category bia --param min_price=100 --json "fixie"`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("site", "s", config.DefaultSite, "Craigslist site to search (e.g., sfbay, newyork)")
	cmd.Flags().StringP("area", "a", "", "Sub-area within the site (e.g., eby, sfc)")
	cmd.Flags().StringP("category", "k", config.DefaultCategory, "Category code to search (e.g., bia, apa, sss)")
	cmd.Flags().IntP("max-pages", "n", config.DefaultMaxPages,
		"Maximum result pages to fetch, 0 for all")
	cmd.Flags().StringP("preset", "P", "", "Run a named search preset from the configuration file")
	cmd.Flags().StringArray("param", nil,
		"Extra search filter as key=value, e.g. min_price=100 (repeatable)")
	cmd.Flags().Bool("save", false, "Save the search results to the history database")
	cmd.Flags().BoolP("json", "j", false, "Write the report as JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Write the report as Markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	req, err := buildSearchRequest(cmd, cfg, args)
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

	service := search.New(engine,
		search.WithLogger(logger),
		search.WithMaxPages(cfg.MaxPages),
	)

	fmt.Fprintf(os.Stderr, "Searching %s...\n", searchTargetLabel(req))

	searchReport, runErr := service.Search(ctx, req)
	if searchReport == nil {
		// Only request shape problems end a search without a report.
		return runErr
	}

	// Write the report before surfacing the run error so partial results
	// are never lost.
	writer, closeFn, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	if _, err := writer.WriteSearch(searchReport); err != nil {
		_ = closeFn() //nolint:errcheck // Report write already failed
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeFn(); err != nil {
		return fmt.Errorf("failed to close report output: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveSearchReport(ctx, cfg, searchReport, logger); err != nil {
			if runErr != nil {
				logger.Error("failed to save search to history", "error", err)
				return runErr
			}
			return err
		}
	}

	return runErr
}

// buildSearchRequest assembles the search request from the configuration
// file and the command flags. Precedence, lowest to highest: configuration
// defaults, the named preset, explicit flags, the query argument.
func buildSearchRequest(cmd *cobra.Command, cfg *config.Config, args []string) (search.Request, error) {
	presetName, err := cmd.Flags().GetString("preset")
	if err != nil {
		return search.Request{}, err
	}

	var preset config.SearchPreset
	if presetName != "" {
		p, ok := cfg.Presets.GetPreset(presetName)
		if !ok {
			return search.Request{}, fmt.Errorf("preset %q not found in configuration file", presetName)
		}
		preset = p
	} else {
		preset = cfg.Presets.Defaults
	}

	req := search.Request{
		Site:     preset.Site,
		Area:     preset.Area,
		Category: preset.Category,
		Query:    preset.Query,
		MaxPages: preset.MaxPages,
	}
	if len(preset.Params) > 0 {
		req.Params = url.Values{}
		for k, v := range preset.Params {
			req.Params.Set(k, v)
		}
	}

	// Explicit flags override whatever the preset provided. Site and
	// category carry defaults, so those two also fill in when the preset
	// left them empty.
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return search.Request{}, err
	}
	if cmd.Flags().Changed("site") || req.Site == "" {
		req.Site = site
	}

	area, err := cmd.Flags().GetString("area")
	if err != nil {
		return search.Request{}, err
	}
	if cmd.Flags().Changed("area") {
		req.Area = area
	}

	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return search.Request{}, err
	}
	if cmd.Flags().Changed("category") || req.Category == "" {
		req.Category = category
	}

	if len(args) > 0 {
		req.Query = strings.Join(args, " ")
	}

	rawParams, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return search.Request{}, err
	}
	for _, kv := range rawParams {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return search.Request{}, fmt.Errorf("invalid --param %q: expected key=value", kv)
		}
		if req.Params == nil {
			req.Params = url.Values{}
		}
		req.Params.Set(key, value)
	}

	if cmd.Flags().Changed("max-pages") {
		req.MaxPages = cfg.MaxPages
	}

	return req, nil
}

// searchTargetLabel renders the request target for progress output,
// e.g. "sfbay/eby/bia" or "newyork/sss".
func searchTargetLabel(req search.Request) string {
	parts := []string{req.Site}
	if req.Area != "" {
		parts = append(parts, req.Area)
	}
	parts = append(parts, req.Category)
	return strings.Join(parts, "/")
}

// saveSearchReport persists the search results to the history database.
func saveSearchReport(ctx context.Context, cfg *config.Config, searchReport *model.SearchReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close history database", "error", err)
		}
	}()

	id, err := db.SaveSearch(ctx, searchReport)
	if err != nil {
		return fmt.Errorf("failed to save search to history: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Saved search to history (id %d)\n", id)
	return nil
}
