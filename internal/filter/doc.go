// Package filter decides which HTML elements survive parsing.
//
// # Architecture
//
// A Spec is an ordered set of retention rules matched against element name
// and attribute values. Parse runs the x/net/html tokenizer over a page and
// materializes only the elements a rule retains, together with their full
// subtrees. Everything else is scanned and dropped without being built.
//
// Design decision: We filter during tokenization rather than pruning a fully
// parsed tree because:
//  1. Craigslist pages are large and mostly navigation chrome; the parts we
//     keep are a small fraction of the markup
//  2. Dropped subtrees never allocate nodes, which bounds memory per parse
//  3. The tokenizer already handles raw-text elements (script) and entity
//     decoding, so the filter stays a thin layer
//
// # Shared use
//
// A Spec is immutable after construction and safe for concurrent use by any
// number of parses. Reconstructing one per parse is functionally equivalent,
// only wasteful.
package filter
