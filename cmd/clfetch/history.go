package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/clfetch/internal/config"
	"github.com/nao1215/clfetch/internal/database"
	"github.com/nao1215/clfetch/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is how many saved searches the listing shows unless
// --limit says otherwise.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command for browsing saved searches.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Browse searches saved with --save",
		Long: `Browse searches saved to the history database with 'clfetch search --save'.

Without arguments the most recent saved searches are listed. Pass a search
ID to print that search's full report, listings included.

Examples:
  # List recent saved searches
  clfetch history

  # List more of them
  clfetch history --limit 50

  # Show one saved search in full
  clfetch history 3

  # Dump a saved search as JSON
  clfetch history --json 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of searches to list")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Validate the argument before opening the database
	var id int64
	if len(args) > 0 {
		id, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid search id %q: expected a number", args[0])
		}
	}

	// History lives in the XDG data directory
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only usage

	ctx := context.Background()

	if len(args) > 0 {
		return showSearch(ctx, db, id, jsonOutput)
	}
	return listSearchHistory(ctx, db, limit, jsonOutput)
}

// listSearchHistory lists the most recent saved searches.
func listSearchHistory(ctx context.Context, db *database.HistoryDB, limit int, jsonOutput bool) error {
	summaries, err := db.ListSearches(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list saved searches: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No saved searches found.")
		fmt.Println("\nUse 'clfetch search --save' to save a search to the history.")
		return nil
	}

	fmt.Printf("Saved searches (%d):\n\n", len(summaries))
	fmt.Printf("  %-6s  %-20s  %-24s  %-9s  %s\n", "ID", "Date", "Target", "Listings", "Query")
	fmt.Println("  " + strings.Repeat("-", 76))

	for _, summary := range summaries {
		query := summary.Query
		if query == "" {
			query = "-"
		}
		fmt.Printf("  %-6d  %-20s  %-24s  %-9d  %s\n",
			summary.ID,
			summary.StartedAt.Format("2006-01-02 15:04:05"),
			historyTarget(summary),
			summary.ListingCount,
			query,
		)
	}

	fmt.Println("\nUse 'clfetch history <id>' to show a saved search in full.")

	return nil
}

// historyTarget renders a summary's site/area/category as one column value.
func historyTarget(summary database.SearchSummary) string {
	parts := []string{summary.Site}
	if summary.Area != "" {
		parts = append(parts, summary.Area)
	}
	parts = append(parts, summary.Category)
	return strings.Join(parts, "/")
}

// showSearch prints one saved search in full.
func showSearch(ctx context.Context, db *database.HistoryDB, id int64, jsonOutput bool) error {
	searchReport, err := db.GetSearch(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load search %d: %w", id, err)
	}
	if searchReport == nil {
		return fmt.Errorf("search %d not found (use 'clfetch history' to list saved searches)", id)
	}

	if jsonOutput {
		_, err := report.NewJSONWriter(os.Stdout, report.WithPrettyPrint()).WriteSearch(searchReport)
		return err
	}
	_, err = report.NewSimpleWriter(os.Stdout, report.WithVerbose(true)).WriteSearch(searchReport)
	return err
}
