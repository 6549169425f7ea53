package report

import (
	"io"
	"strconv"

	"github.com/nao1215/clfetch/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteSearch outputs the search report in Markdown format.
func (w *MarkdownWriter) WriteSearch(report *model.SearchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeSearchHeader(md, report)
	w.writeResults(md, report)
	w.writeListings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteFetch outputs the fetch report in Markdown format.
func (w *MarkdownWriter) WriteFetch(report *model.FetchReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeFetchHeader(md, report)
	w.writePages(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSearchHeader writes the report header with search information.
func (w *MarkdownWriter) writeSearchHeader(md *markdown.Markdown, report *model.SearchReport) {
	md.H1("Craigslist Search Report")
	md.PlainText("")

	query := report.Query
	if query == "" {
		query = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + searchTarget(report) + "`"},
			{"Query", query},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Fetched", strconv.Itoa(report.PagesFetched)},
			{"Elapsed", report.Elapsed.String()},
			{"Status", w.getStatusText(report.Err)},
		},
	})
	md.PlainText("")
}

// writeFetchHeader writes the report header with fetch information.
func (w *MarkdownWriter) writeFetchHeader(md *markdown.Markdown, report *model.FetchReport) {
	md.H1("Craigslist Fetch Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Pages", strconv.Itoa(len(report.Pages))},
			{"Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", report.Elapsed.String()},
			{"Status", w.getStatusText(report.Err)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the terminal error message.
func (w *MarkdownWriter) getStatusText(errMsg string) string {
	if errMsg != "" {
		return "❌ Error - " + errMsg + " (partial results)"
	}
	return "✅ Complete"
}

// writeResults writes the result summary section.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.SearchReport) {
	md.H2("Results")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Reported Total", strconv.Itoa(report.TotalCount)},
			{"Collected", strconv.Itoa(len(report.Listings))},
		},
	})
	md.PlainText("")

	w.writeHoodChart(md, report.Listings)
	w.writeAlert(md, report)
}

// writeHoodChart writes a mermaid pie chart of listings per neighborhood.
// The chart is skipped when fewer than two neighborhoods are annotated
// because a single slice carries no information.
func (w *MarkdownWriter) writeHoodChart(md *markdown.Markdown, listings []model.Listing) {
	hoods := make([]string, 0)
	counts := make(map[string]int)
	for _, l := range listings {
		if l.Hood == "" {
			continue
		}
		if _, ok := counts[l.Hood]; !ok {
			hoods = append(hoods, l.Hood)
		}
		counts[l.Hood]++
	}
	if len(hoods) < 2 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Listings by Neighborhood"),
		piechart.WithShowData(true),
	)
	for _, hood := range hoods {
		chart.LabelAndIntValue(hood, uint64(counts[hood]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SearchReport) {
	switch {
	case report.Err != "":
		md.Warningf(
			"The search ended early: %s. Listings below may be incomplete.",
			report.Err,
		)
	case report.TotalCount > len(report.Listings):
		md.Importantf(
			"Collected %d of %d reported listings. Raise --max-pages to fetch the rest.",
			len(report.Listings), report.TotalCount,
		)
	default:
		md.Tip("Every listing the site reported was collected.")
	}
	md.PlainText("")
}

// writeListings writes the collected listings as a table.
func (w *MarkdownWriter) writeListings(md *markdown.Markdown, report *model.SearchReport) {
	md.H2("Listings")
	md.PlainText("")

	if len(report.Listings) == 0 {
		md.PlainText("No listings collected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Listings))
	for i, l := range report.Listings {
		price := l.Price
		if price == "" {
			price = "-"
		}
		hood := l.Hood
		if hood == "" {
			hood = "-"
		}
		posted := l.PostedAt
		if posted == "" {
			posted = "-"
		}

		rows[i] = []string{
			l.PID,
			truncateString(l.Title, 60),
			price,
			truncateString(hood, 30),
			posted,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"PID", "Title", "Price", "Neighborhood", "Posted"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePages writes the per-URL outcomes of a fetch run as a table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.FetchReport) {
	md.H2("Pages")
	md.PlainText("")

	if len(report.Pages) == 0 {
		md.PlainText("No pages fetched.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Pages))
	for i, page := range report.Pages {
		status := "✅ OK"
		if page.Err != "" {
			status = "❌ " + truncateString(page.Err, 60)
		}
		total := "-"
		if page.TotalCount > 0 {
			total = strconv.Itoa(page.TotalCount)
		}

		rows[i] = []string{
			"`" + truncateString(page.URL, 60) + "`",
			strconv.Itoa(page.RetainedElements),
			strconv.Itoa(page.Listings),
			total,
			status,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Elements", "Listings", "Total", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [clfetch](https://github.com/nao1215/clfetch)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
