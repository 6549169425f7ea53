package model

// Listing is a single Craigslist post as it appears in a search result row.
// All fields are kept as the page presented them; no price normalization or
// date parsing happens at this level because page formats drift over time
// and the raw strings are what callers archive and display.
type Listing struct {
	// PID is the post identifier from the row's data-pid attribute.
	PID string `json:"pid"`

	// Title is the text of the post's title anchor.
	Title string `json:"title"`

	// URL is the absolute link to the post.
	URL string `json:"url"`

	// Price is the listed price including its currency sign, e.g. "$80".
	// Empty when the post has no price.
	Price string `json:"price,omitempty"`

	// Hood is the neighborhood annotation without its surrounding
	// parentheses, e.g. "mission district". Empty when absent.
	Hood string `json:"hood,omitempty"`

	// PostedAt is the row's machine-readable datetime attribute,
	// e.g. "2026-08-21 14:03". Empty when absent.
	PostedAt string `json:"posted_at,omitempty"`
}
