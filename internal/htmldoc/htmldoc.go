// Package htmldoc abstracts HTML parsing behind a small selector interface so
// extraction logic does not depend on a concrete engine.
package htmldoc

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// Parser turns raw markup into a navigable document.
type Parser interface {
	Parse(markup []byte) (Doc, error)
}

// Doc is a parsed document supporting CSS selector lookups.
type Doc interface {
	// First returns the first node matching selector, if any.
	First(selector string) (Node, bool)
	// Each visits every node matching selector in document order.
	Each(selector string, visit func(Node))
}

// Node is one element of a document. It supports nested lookups scoped to
// its subtree.
type Node interface {
	Doc
	Text() string
	Attr(name string) (string, bool)
}

// Goquery is the default Parser, backed by github.com/PuerkitoBio/goquery.
type Goquery struct{}

func (Goquery) Parse(markup []byte) (Doc, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return gqNode{doc.Selection}, nil
}

type gqNode struct {
	sel *goquery.Selection
}

func (n gqNode) First(selector string) (Node, bool) {
	m := n.sel.Find(selector).First()
	if m.Length() == 0 {
		return nil, false
	}
	return gqNode{m}, true
}

func (n gqNode) Each(selector string, visit func(Node)) {
	n.sel.Find(selector).Each(func(_ int, m *goquery.Selection) {
		visit(gqNode{m})
	})
}

func (n gqNode) Text() string { return n.sel.Text() }

func (n gqNode) Attr(name string) (string, bool) { return n.sel.Attr(name) }
