package search

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/clfetch/internal/model"
)

// Listings extracts every result row from a search page document. Rows are
// the <li data-pid> children of <ul class="rows">; elements without a
// data-pid are page furniture (nearby-results separators and the like) and
// are skipped. Missing fields stay empty rather than failing the row.
func Listings(doc *model.Document) []model.Listing {
	var out []model.Listing
	for _, ul := range doc.Find("ul", "class", "rows") {
		for _, li := range model.FindIn(ul, "li", "", "") {
			pid := model.Attr(li, "data-pid")
			if pid == "" {
				continue
			}
			out = append(out, listingFrom(li, pid))
		}
	}
	return out
}

func listingFrom(li *html.Node, pid string) model.Listing {
	title := model.FirstIn(li, "a", "class", "result-title hdrlnk")
	return model.Listing{
		PID:      pid,
		Title:    strings.TrimSpace(model.Text(title)),
		URL:      model.Attr(title, "href"),
		Price:    strings.TrimSpace(model.Text(model.FirstIn(li, "span", "class", "result-price"))),
		Hood:     trimHood(model.Text(model.FirstIn(li, "span", "class", "result-hood"))),
		PostedAt: model.Attr(model.FirstIn(li, "time", "class", "result-date"), "datetime"),
	}
}

// trimHood strips the decoration Craigslist puts around neighborhood names:
// " (berkeley north)" becomes "berkeley north".
func trimHood(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.TrimSpace(s)
}

// Filters extracts the searchable attribute filters a search page offers:
// each retained <div class="search-attribute ..."> block keyed by its
// data-attr name, mapped to the human-readable labels of its options.
func Filters(doc *model.Document) map[string][]string {
	out := make(map[string][]string)
	divs := doc.Find("div", "class", "search-attribute ")
	divs = append(divs, doc.Find("div", "class", "search-attribute hide-list")...)
	for _, div := range divs {
		key := model.Attr(div, "data-attr")
		if key == "" {
			continue
		}
		var labels []string
		for _, span := range model.FindIn(div, "span", "class", "option-label") {
			if label := strings.TrimSpace(model.Text(span)); label != "" {
				labels = append(labels, label)
			}
		}
		out[key] = labels
	}
	return out
}

// Summarize condenses one fetched page into the fields a fetch report
// carries: how much survived filtering and what kind of page it looks like.
func Summarize(doc *model.Document) model.PageSummary {
	summary := model.PageSummary{
		URL:              doc.URL,
		RetainedElements: doc.Len(),
		Listings:         len(Listings(doc)),
	}
	if total, ok := doc.TotalCount(); ok {
		summary.TotalCount = total
	}
	for key := range Filters(doc) {
		summary.Attributes = append(summary.Attributes, key)
	}
	sort.Strings(summary.Attributes)
	return summary
}
