package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed snapshot of a rendered document. It is the only view of
// page content the rest of the pipeline sees; all selector knowledge stays
// with the callers that own it.
type Page struct {
	doc *goquery.Document
}

// ParsePage builds a Page from raw HTML. Used by sessions after rendering
// and by tests to fabricate page states.
func ParsePage(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{doc: doc}, nil
}

// Has reports whether the selector matches at least one element.
func (p *Page) Has(selector string) bool {
	return p.doc.Find(selector).Length() > 0
}

// Text returns the trimmed text of the first element matching selector,
// or "" when nothing matches.
func (p *Page) Text(selector string) string {
	return strings.TrimSpace(p.doc.Find(selector).First().Text())
}

// AttrOr returns the named attribute of the first match, or def.
func (p *Page) AttrOr(selector, attr, def string) string {
	return p.doc.Find(selector).First().AttrOr(attr, def)
}

// Each visits every element matching selector in document order.
func (p *Page) Each(selector string, fn func(*Fragment)) {
	p.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		fn(&Fragment{sel: sel})
	})
}

// Fragment is one element within a Page, scoped for relative queries.
type Fragment struct {
	sel *goquery.Selection
}

// Text returns the trimmed text of the first descendant matching selector.
func (f *Fragment) Text(selector string) string {
	return strings.TrimSpace(f.sel.Find(selector).First().Text())
}

// AttrOr returns the named attribute of the fragment's own element, or def.
func (f *Fragment) AttrOr(attr, def string) string {
	return f.sel.AttrOr(attr, def)
}

// FindAttrOr returns the named attribute of the first descendant matching
// selector, or def.
func (f *Fragment) FindAttrOr(selector, attr, def string) string {
	return f.sel.Find(selector).First().AttrOr(attr, def)
}
