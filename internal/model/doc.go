// Package model defines the core data structures used throughout clfetch.
//
// This package contains the following main types:
//   - Document: a parsed, filtered HTML page exposing the retained elements
//   - Listing: a single Craigslist post extracted from a search page
//   - SearchReport: the result of one search run across one or more pages
//   - FetchReport: the result of fetching one or more explicit URLs
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (fetch, filter, search, report, database)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
