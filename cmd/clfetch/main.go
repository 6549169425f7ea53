// Package main provides the entry point for the clfetch CLI.
//
// clfetch fetches Craigslist search pages concurrently, extracts listings
// from them, and reports the results as text, JSON, or Markdown.
//
// Usage:
//
//	clfetch search --site sfbay --category bia "road bike"
//	clfetch get <url>...
//
// See --help for all available options.
package main

// main is the entry point for clfetch.
func main() {
	Execute()
}
