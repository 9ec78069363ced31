// Package htmldoc implements audit.Document on top of goquery.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/seo-optimizer/llm-audit/audit"
)

// Ensure Document implements audit.Document at compile time.
var _ audit.Document = (*Document)(nil)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse parses rawHTML into a Document.
func Parse(rawHTML string) (*Document, error) {
	return FromReader(strings.NewReader(rawHTML))
}

// FromReader parses HTML read from r into a Document.
//
// The page is parsed the way a browser without JavaScript sees it: the
// contents of <noscript> are markup, not text. Template contents are inert
// and removed, so neither selectors nor text reach them.
func FromReader(r io.Reader) (*Document, error) {
	root, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find("template").Empty()

	return &Document{doc: doc}, nil
}

// New wraps an already parsed goquery document.
func New(doc *goquery.Document) *Document {
	return &Document{doc: doc}
}

func (d *Document) SelectFirst(selector string) (audit.Element, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return element{sel: sel}, true
}

func (d *Document) SelectAll(selector string) []audit.Element {
	sel := d.doc.Find(selector)
	elements := make([]audit.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, element{sel: s})
	})
	return elements
}

// element wraps a single-node selection.
type element struct {
	sel *goquery.Selection
}

func (e element) Text() string {
	return e.sel.Text()
}

func (e element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}
