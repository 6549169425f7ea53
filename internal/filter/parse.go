package filter

import (
	"errors"
	"io"

	"golang.org/x/net/html"

	"github.com/nao1215/clfetch/internal/model"
)

// voidElements never carry an end tag, so they must not be pushed on the
// open-element stack while a retained subtree is being built.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Parse tokenizes the HTML from r and returns a Document holding only the
// elements the spec retains. A retained element's entire subtree is kept
// without further filtering. Elements that do not match are dropped, but
// their descendants are still examined, so a matching element nested inside
// a non-matching one becomes its own root.
//
// Truncated input is tolerated; whatever was retained before the cutoff is
// returned. Only reader errors other than end-of-input are reported.
func Parse(r io.Reader, spec Spec) (*model.Document, error) {
	doc := &model.Document{}
	z := html.NewTokenizer(r)

	// stack holds the open elements of the retained subtree currently
	// being built. Empty stack means we are scanning between matches.
	var stack []*html.Node

	for {
		switch z.Next() {
		case html.ErrorToken:
			err := z.Err()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return doc, nil
			}
			return nil, err

		case html.StartTagToken:
			tok := z.Token()
			if len(stack) == 0 && !spec.Retain(tok.Data, tok.Attr) {
				continue
			}
			n := node(tok)
			appendChild(doc, stack, n)
			if !voidElements[tok.Data] {
				stack = append(stack, n)
			}

		case html.SelfClosingTagToken:
			tok := z.Token()
			if len(stack) == 0 && !spec.Retain(tok.Data, tok.Attr) {
				continue
			}
			appendChild(doc, stack, node(tok))

		case html.EndTagToken:
			if len(stack) == 0 {
				continue
			}
			tok := z.Token()
			// Close back to the nearest matching open element.
			// End tags that match nothing on the stack are stray
			// markup and are ignored.
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].Data == tok.Data {
					stack = stack[:i]
					break
				}
			}

		case html.TextToken:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.AppendChild(&html.Node{Type: html.TextNode, Data: string(z.Text())})
			}

			// Comments and doctypes carry no listing data and are dropped
			// even inside retained subtrees.
		}
	}
}

// node converts a start tag token into a fresh element node.
func node(tok html.Token) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tok.Data,
		DataAtom: tok.DataAtom,
		Attr:     tok.Attr,
	}
}

// appendChild attaches n either under the innermost open element or, when
// no subtree is being built, as a new document root.
func appendChild(doc *model.Document, stack []*html.Node, n *html.Node) {
	if len(stack) == 0 {
		doc.Roots = append(doc.Roots, n)
		return
	}
	stack[len(stack)-1].AppendChild(n)
}
