package enrich

import (
	"strconv"
	"strings"

	"lotwatch/internal/browser"
	"lotwatch/internal/fetch"
	"lotwatch/internal/market"
)

// SalesSelectors is the sales source's selector mapping. Like the listing
// selectors, this is the one brittle table to fix when the source changes.
type SalesSelectors struct {
	Marker  string // container proving the item view rendered
	Name    string // item name as the sales source shows it
	Weekly  string
	Monthly string
	Yearly  string
}

// DefaultSalesSelectors matches the sales source's current markup: the
// three time windows are consecutive table rows in the item panel.
var DefaultSalesSelectors = SalesSelectors{
	Marker:  "#item-container",
	Name:    "#item-container .item-name",
	Weekly:  "#item-container table tbody tr:nth-child(2) td",
	Monthly: "#item-container table tbody tr:nth-child(3) td",
	Yearly:  "#item-container table tbody tr:nth-child(4) td",
}

// Classifier gates sales lookups: container absent → still rendering; a
// throttling banner → rate limited; container present but the sales table
// unpopulated → source error (a reload usually recovers it).
func (s SalesSelectors) Classifier() fetch.Classifier {
	return fetch.ClassifierFunc(func(p *browser.Page) fetch.Kind {
		if !p.Has(s.Marker) {
			if strings.Contains(strings.ToLower(p.Text("body")), "too many requests") {
				return fetch.RateLimited
			}
			return fetch.NotYetRendered
		}
		if !p.Has(s.Weekly) || !p.Has(s.Monthly) || !p.Has(s.Yearly) {
			return fetch.SourceError
		}
		return fetch.OK
	})
}

// Result is one enrichment lookup's outcome, collected by original record
// index so input order is reconstructible.
type Result struct {
	Name   string
	SalesW market.OptInt
	SalesM market.OptInt
	SalesY market.OptInt
	Err    error
}

// Extract pulls the sales figures from an accepted page. Individual fields
// may still come back missing when a cell is present but unreadable.
func (s SalesSelectors) Extract(p *browser.Page) Result {
	return Result{
		Name:   CleanName(p.Text(s.Name)),
		SalesW: parseCount(p.Text(s.Weekly)),
		SalesM: parseCount(p.Text(s.Monthly)),
		SalesY: parseCount(p.Text(s.Yearly)),
	}
}

// CleanName strips the sales source's trailing price decoration
// ("Item Name | $12.34") from an extracted name.
func CleanName(name string) string {
	head, _, _ := strings.Cut(name, "| $")
	return strings.TrimSpace(head)
}

// parseCount reads a rendered count like "1,234". Anything unreadable is
// missing, not zero.
func parseCount(text string) market.OptInt {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return market.OptInt{}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return market.OptInt{}
	}
	return market.Some(n)
}
