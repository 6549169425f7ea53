// Package query builds Craigslist search URLs and pagination parameters.
//
// A search lives at https://{site}.craigslist.org/search/{category}, with an
// optional area segment between search and category for the sites that are
// split into sub-areas. Result pages beyond the first are addressed with the
// "s" query parameter carrying the listing offset.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// DefaultPageStep is how many listings one Craigslist search page carries,
// and therefore the offset distance between consecutive pages.
const DefaultPageStep = 120

// offsetKey is the query parameter Craigslist uses for the page offset.
const offsetKey = "s"

var (
	// ErrInvalidSite is returned for an empty or malformed site token.
	ErrInvalidSite = errors.New("invalid site")

	// ErrInvalidArea is returned for a malformed area token.
	ErrInvalidArea = errors.New("invalid area")

	// ErrInvalidCategory is returned for an empty or malformed category code.
	ErrInvalidCategory = errors.New("invalid category")
)

// Site, area, and category tokens are short lowercase codes (sfbay, eby,
// cta). Anything else would end up URL-encoded into a path Craigslist does
// not serve, so reject it up front.
var tokenRe = regexp.MustCompile(`^[a-z0-9]+$`)

// BuildSearchURL returns the search URL for a category on a site. area may
// be empty; sites without sub-areas do not use one.
func BuildSearchURL(site, area, category string) (string, error) {
	if !tokenRe.MatchString(site) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSite, site)
	}
	path, err := SearchPath(area, category)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.craigslist.org%s", site, path), nil
}

// SearchPath returns the path component of a search URL, for callers that
// supply their own host.
func SearchPath(area, category string) (string, error) {
	if area != "" && !tokenRe.MatchString(area) {
		return "", fmt.Errorf("%w: %q", ErrInvalidArea, area)
	}
	if !tokenRe.MatchString(category) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if area != "" {
		return fmt.Sprintf("/search/%s/%s", area, category), nil
	}
	return "/search/" + category, nil
}

// PageParams returns a copy of base with the page offset applied. The first
// page (offset 0 or less) carries no offset parameter at all, matching the
// URL a browser lands on. The copy is deep: mutating the result never
// touches base.
func PageParams(base url.Values, offset int) url.Values {
	out := make(url.Values, len(base)+1)
	for key, values := range base {
		out[key] = append([]string(nil), values...)
	}
	if offset > 0 {
		out.Set(offsetKey, strconv.Itoa(offset))
	}
	return out
}

// PageOffsets returns the offsets of every result page after the first for
// a search with total listings. A non-positive step falls back to
// DefaultPageStep. A total that fits on one page yields nothing.
func PageOffsets(total, step int) []int {
	if step <= 0 {
		step = DefaultPageStep
	}
	var offsets []int
	for off := step; off < total; off += step {
		offsets = append(offsets, off)
	}
	return offsets
}
