package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/clfetch/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose enables per-listing URL and posting date lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteSearch outputs the search report in human-readable format.
func (w *SimpleWriter) WriteSearch(report *model.SearchReport) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "CLFETCH SEARCH REPORT")

	sb.WriteString(fmt.Sprintf("Target:        %s\n", searchTarget(report)))
	if report.Query != "" {
		sb.WriteString(fmt.Sprintf("Query:         %s\n", report.Query))
	}
	sb.WriteString(fmt.Sprintf("Date:          %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Fetched: %d\n", report.PagesFetched))
	sb.WriteString(fmt.Sprintf("Elapsed:       %s\n", report.Elapsed))
	sb.WriteString(fmt.Sprintf("Status:        %s\n", statusText(report.Err)))
	sb.WriteString("\n")

	w.writeRule(&sb, "RESULTS")
	sb.WriteString(fmt.Sprintf("  Reported Total: %d\n", report.TotalCount))
	sb.WriteString(fmt.Sprintf("  Collected:      %d listings\n", len(report.Listings)))
	sb.WriteString("\n")

	w.writeListings(&sb, report.Listings)

	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteFetch outputs the fetch report in human-readable format.
func (w *SimpleWriter) WriteFetch(report *model.FetchReport) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb, "CLFETCH FETCH REPORT")

	sb.WriteString(fmt.Sprintf("Pages:   %d\n", len(report.Pages)))
	sb.WriteString(fmt.Sprintf("Date:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed: %s\n", report.Elapsed))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", statusText(report.Err)))
	sb.WriteString("\n")

	if len(report.Pages) == 0 && !w.showEmpty {
		w.writeFooter(&sb)
		return w.output.Write([]byte(sb.String()))
	}

	w.writeRule(&sb, "PAGES")
	if len(report.Pages) == 0 {
		sb.WriteString("  No pages fetched\n")
	}
	for _, page := range report.Pages {
		if page.Err != "" {
			sb.WriteString(fmt.Sprintf("  [!] %s\n", page.URL))
			sb.WriteString(fmt.Sprintf("      Error: %s\n", page.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("  [+] %s\n", page.URL))
		sb.WriteString(fmt.Sprintf("      Elements: %d  Listings: %d", page.RetainedElements, page.Listings))
		if page.TotalCount > 0 {
			sb.WriteString(fmt.Sprintf("  Total: %d", page.TotalCount))
		}
		sb.WriteString("\n")
		if w.verbose && len(page.Attributes) > 0 {
			sb.WriteString(fmt.Sprintf("      Filters: %s\n", strings.Join(page.Attributes, ", ")))
		}
	}
	sb.WriteString("\n")

	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeListings writes the listing section of a search report.
func (w *SimpleWriter) writeListings(sb *strings.Builder, listings []model.Listing) {
	if len(listings) == 0 && !w.showEmpty {
		return
	}

	w.writeRule(sb, "LISTINGS")

	if len(listings) == 0 {
		sb.WriteString("  No listings\n\n")
		return
	}

	for _, l := range listings {
		sb.WriteString(fmt.Sprintf("  * %s", l.Title))
		if l.Price != "" {
			sb.WriteString(fmt.Sprintf("  [%s]", l.Price))
		}
		if l.Hood != "" {
			sb.WriteString(fmt.Sprintf("  (%s)", l.Hood))
		}
		sb.WriteString("\n")

		if w.verbose {
			if l.URL != "" {
				sb.WriteString(fmt.Sprintf("    URL: %s\n", l.URL))
			}
			if l.PostedAt != "" {
				sb.WriteString(fmt.Sprintf("    Posted: %s\n", l.PostedAt))
			}
		}
	}
	sb.WriteString("\n")
}

// writeBanner writes the double-ruled report header.
func (w *SimpleWriter) writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	pad := (70 - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeRule writes a single-ruled section header.
func (w *SimpleWriter) writeRule(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by clfetch\n")
	sb.WriteString("https://github.com/nao1215/clfetch\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// searchTarget renders the site/area/category path of a search report.
func searchTarget(report *model.SearchReport) string {
	if report.Area == "" {
		return report.Site + "/" + report.Category
	}
	return report.Site + "/" + report.Area + "/" + report.Category
}

// statusText renders the run status line from the terminal error message.
func statusText(errMsg string) string {
	if errMsg != "" {
		return "ERROR - " + errMsg + " (partial results)"
	}
	return "Complete"
}
