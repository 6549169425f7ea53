package model

import "time"

// SearchReport is the aggregated result of one search run: the query that
// was issued, how many pages were fetched, and every listing extracted from
// them. It is the unit of report output and of database persistence.
type SearchReport struct {
	// Site is the Craigslist site token, e.g. "sfbay".
	Site string `json:"site"`

	// Area is the optional area token within the site, e.g. "sfc".
	Area string `json:"area,omitempty"`

	// Category is the search category token, e.g. "bia" for bikes.
	Category string `json:"category"`

	// Query is the free-text query, empty for a category browse.
	Query string `json:"query,omitempty"`

	// TotalCount is the result total the site reported for the search.
	// This is the site's number, not len(Listings); the run may have
	// fetched only a subset of pages.
	TotalCount int `json:"total_count"`

	// PagesFetched is the number of result pages actually fetched.
	PagesFetched int `json:"pages_fetched"`

	// Listings holds the extracted posts in the order their pages
	// completed, which is not necessarily page order.
	Listings []Listing `json:"listings"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Err holds the terminal error message when the run ended early.
	// Listings gathered before the error remain valid.
	Err string `json:"error,omitempty"`
}

// NewSearchReport creates a SearchReport for the given search target with
// the start time set to now.
func NewSearchReport(site, area, category, query string) *SearchReport {
	return &SearchReport{
		Site:      site,
		Area:      area,
		Category:  category,
		Query:     query,
		Listings:  make([]Listing, 0),
		StartedAt: time.Now(),
	}
}

// AddListings appends extracted listings and bumps the fetched-page count.
func (r *SearchReport) AddListings(listings []Listing) {
	r.Listings = append(r.Listings, listings...)
	r.PagesFetched++
}

// PageSummary describes the outcome of fetching a single explicit URL.
type PageSummary struct {
	// URL is the address that was fetched.
	URL string `json:"url"`

	// RetainedElements is the number of top-level elements that survived
	// the document filter.
	RetainedElements int `json:"retained_elements"`

	// Listings is the number of search-result rows found on the page.
	Listings int `json:"listings"`

	// TotalCount is the page's reported result total, if present.
	TotalCount int `json:"total_count,omitempty"`

	// Attributes names the searchable attribute filters found on the page,
	// e.g. "condition" or "bicycle_frame_material" on a category search.
	Attributes []string `json:"attributes,omitempty"`

	// Err holds the fetch error message for this URL, if any.
	Err string `json:"error,omitempty"`
}

// FetchReport is the result of fetching one or more explicit URLs with the
// `get` command. Pages appear in completion order.
type FetchReport struct {
	// Pages holds one summary per requested URL that produced a result
	// before the run ended.
	Pages []PageSummary `json:"pages"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// Err holds the terminal error message when the run ended early.
	Err string `json:"error,omitempty"`
}

// NewFetchReport creates an empty FetchReport with the start time set to now.
func NewFetchReport() *FetchReport {
	return &FetchReport{
		Pages:     make([]PageSummary, 0),
		StartedAt: time.Now(),
	}
}
