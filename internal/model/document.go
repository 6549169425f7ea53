package model

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML page reduced to the elements that survived
// filtering. Each root is a fully materialized element subtree; everything
// outside the roots was discarded during parsing.
//
// Design decision: We keep *html.Node subtrees rather than flattening into
// our own element structs because:
//  1. Callers can walk arbitrary structure (nested spans, anchors, text)
//  2. x/net/html nodes carry attributes and text without copying
//  3. Extraction code stays a thin layer over a well-known type
type Document struct {
	// URL is the address the page was fetched from.
	// Empty when the document was parsed from a raw reader.
	URL string `json:"url,omitempty"`

	// Roots holds the retained top-level elements in document order.
	// A retained element's entire subtree is present; siblings and
	// ancestors that did not match the filter are not.
	Roots []*html.Node `json:"-"`
}

// Len returns the number of retained top-level elements.
func (d *Document) Len() int {
	return len(d.Roots)
}

// Find returns all elements with the given tag name whose attribute attr
// equals val exactly. The comparison is against the whole attribute value;
// a class attribute of "userbody extra" does not match val "userbody".
// Roots themselves are candidates as well as their descendants.
//
// An empty attr matches on tag name alone.
func (d *Document) Find(tag, attr, val string) []*html.Node {
	var found []*html.Node
	for _, root := range d.Roots {
		found = append(found, FindIn(root, tag, attr, val)...)
	}
	return found
}

// First returns the first element matching Find's criteria, or nil.
func (d *Document) First(tag, attr, val string) *html.Node {
	nodes := d.Find(tag, attr, val)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// FindIn is Find scoped to a single subtree. n itself is a candidate.
func FindIn(n *html.Node, tag, attr, val string) []*html.Node {
	var found []*html.Node
	walk(n, func(c *html.Node) {
		if c.Type != html.ElementNode || c.Data != tag {
			return
		}
		if attr == "" || Attr(c, attr) == val {
			found = append(found, c)
		}
	})
	return found
}

// FirstIn returns the first match of FindIn, or nil.
func FirstIn(n *html.Node, tag, attr, val string) *html.Node {
	nodes := FindIn(n, tag, attr, val)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// TotalCount returns the result count carried by the page's
// <span class="totalcount"> element. The second return value reports
// whether the element was present and parseable.
func (d *Document) TotalCount() (int, bool) {
	span := d.First("span", "class", "totalcount")
	if span == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(Text(span)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Text returns the concatenated text content of n and its descendants.
// A nil node has no text, so lookups can be chained without nil checks:
// Text(doc.First(...)).
func Text(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// Attr returns the value of the named attribute on n, or "" if n is nil or
// the attribute is absent.
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// walk visits n and all of its descendants in depth-first document order.
// A nil node is an empty tree.
func walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
