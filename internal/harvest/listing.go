package harvest

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"lotwatch/internal/browser"
	"lotwatch/internal/fetch"
	"lotwatch/internal/market"
)

// ListingSelectors is the brittle, source-owned mapping from the listing
// page layout to the fields the pipeline needs. One table, one place to fix
// when the source changes its markup.
type ListingSelectors struct {
	TotalCount    string // element whose text is the total item count
	RowsContainer string // container that exists once results rendered
	ErrorText     string // element carrying the source's error message
	Row           string // one listing row
	RowName       string // item name within a row
	RowQty        string // element carrying the data-qty attribute
	RowPrice      string // price text within a row
}

// DefaultListingSelectors matches the marketplace's current markup.
var DefaultListingSelectors = ListingSelectors{
	TotalCount:    "#searchResults_total",
	RowsContainer: "#searchResultsRows",
	ErrorText:     "#searchResultsRows > div",
	Row:           "#searchResultsRows a.market_listing_row",
	RowName:       ".market_listing_item_name_block span",
	RowQty:        ".market_listing_num_listings_qty",
	RowPrice:      ".market_listing_price",
}

// Classifier returns the listing-page classifier for the fetch gate:
// rows container absent → not yet rendered; explicit error text or the
// half-opacity loading state → source error; a throttling message → rate
// limited.
func (s ListingSelectors) Classifier() fetch.Classifier {
	return fetch.ClassifierFunc(func(p *browser.Page) fetch.Kind {
		if !p.Has(s.RowsContainer) {
			return fetch.NotYetRendered
		}
		errText := strings.ToLower(p.Text(s.ErrorText))
		if strings.Contains(errText, "too many requests") {
			return fetch.RateLimited
		}
		if strings.Contains(errText, "error") {
			return fetch.SourceError
		}
		// The source dims the result rows to opacity 0.5 while loading the
		// next page and sometimes wedges there.
		style := p.AttrOr(s.RowsContainer, "style", "")
		if opacityOf(style) == "0.5" {
			return fetch.SourceError
		}
		return fetch.OK
	})
}

func opacityOf(style string) string {
	for _, decl := range strings.Split(style, ";") {
		k, v, found := strings.Cut(decl, ":")
		if found && strings.TrimSpace(k) == "opacity" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Parser extracts records from listing pages. It owns the prefix pair that
// derives each record's enrichment locator.
type Parser struct {
	Sel           ListingSelectors
	ListingPrefix string
	EnrichPrefix  string
	Logger        *slog.Logger
}

// Total implements RowParser. The marker renders counts like "2,345".
func (p *Parser) Total(page *browser.Page) (int, error) {
	raw := page.Text(p.Sel.TotalCount)
	if raw == "" {
		return 0, fmt.Errorf("total count marker %q not found", p.Sel.TotalCount)
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("total count %q: %w", raw, err)
	}
	return n, nil
}

// Rows implements RowParser. A row missing its name or URL is logged and
// skipped; the page survives.
func (p *Parser) Rows(page *browser.Page) []market.Record {
	var out []market.Record
	page.Each(p.Sel.Row, func(f *browser.Fragment) {
		name := strings.TrimSpace(strings.ReplaceAll(f.Text(p.Sel.RowName), "|", ""))
		href := f.AttrOr("href", "")
		if name == "" || href == "" {
			if p.Logger != nil {
				p.Logger.Warn("skipping unparseable listing row", "name", name, "href", href)
			}
			return
		}
		qty, _ := strconv.Atoi(f.FindAttrOr(p.Sel.RowQty, "data-qty", "0"))
		out = append(out, market.Record{
			Name:      name,
			URL:       href,
			OriginRef: market.DeriveOriginRef(href, p.ListingPrefix, p.EnrichPrefix),
			Qty:       qty,
			Price:     f.Text(p.Sel.RowPrice),
		})
	})
	return out
}
