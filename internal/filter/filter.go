package filter

import "golang.org/x/net/html"

// Rule retains elements with a given tag name when the named attribute
// carries one of the listed values. An empty Attr retains every element
// with the tag name.
type Rule struct {
	// Element is the tag name, lowercase, e.g. "div".
	Element string

	// Attr is the attribute to inspect, e.g. "class".
	Attr string

	// Values are the accepted attribute values. The whole attribute value
	// must equal one of them; values are not split into class lists.
	Values []string
}

// matches reports whether the rule retains an element with the given tag
// name and attributes.
func (r Rule) matches(tag string, attrs []html.Attribute) bool {
	if tag != r.Element {
		return false
	}
	if r.Attr == "" {
		return true
	}
	for _, a := range attrs {
		if a.Key != r.Attr {
			continue
		}
		for _, v := range r.Values {
			if a.Val == v {
				return true
			}
		}
	}
	return false
}

// Spec is a set of retention rules. An element is retained iff any rule
// matches; rule order does not matter. An empty or nil spec retains every
// element, turning Parse into a plain whole-page parser.
type Spec []Rule

// Retain reports whether an element with the given tag name and attributes
// should be kept.
func (s Spec) Retain(tag string, attrs []html.Attribute) bool {
	if len(s) == 0 {
		return true
	}
	for _, r := range s {
		if r.matches(tag, attrs) {
			return true
		}
	}
	return false
}

// Default returns the spec for Craigslist pages. It keeps exactly the parts
// that carry listing data on search and posting pages:
//
//   - ul.rows: the search result rows
//   - span.totalcount: the result total for the search
//   - script[type=text/javascript]: inline metadata used by search pages
//   - div.search-attribute variants: post attributes on detail pages
//   - section.userbody: the posting body on detail pages
func Default() Spec {
	return Spec{
		{Element: "section", Attr: "class", Values: []string{"userbody"}},
		{Element: "script", Attr: "type", Values: []string{"text/javascript"}},
		// The trailing space in "search-attribute " appears verbatim in
		// the page markup and is significant.
		{Element: "div", Attr: "class", Values: []string{"search-attribute ", "search-attribute hide-list"}},
		{Element: "span", Attr: "class", Values: []string{"totalcount"}},
		{Element: "ul", Attr: "class", Values: []string{"rows"}},
	}
}
