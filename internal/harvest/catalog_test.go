package harvest

import (
	"context"
	"fmt"
	"testing"

	"lotwatch/internal/browser"
	"lotwatch/internal/fetch"
)

func catalogPage(t *testing.T, body string) *browser.Page {
	t.Helper()
	p, err := browser.ParsePage(fmt.Sprintf("<html><body><pre>%s</pre></body></html>", body))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCatalog_PagesUntilTotalCovered(t *testing.T) {
	base := "https://market.example/search/render/?appid=730&norender=1"
	gate := &fakeGate{pages: map[string]*browser.Page{
		base + "&start=0&count=100": catalogPage(t, `{
			"success": true, "total_count": 3,
			"results": [
				{"name": "Alpha", "sell_listings": 3, "sell_price_text": "$1.00"},
				{"name": "Beta", "sell_listings": 7, "sell_price_text": "$2.00"}
			]}`),
		base + "&start=2&count=100": catalogPage(t, `{
			"success": true, "total_count": 3,
			"results": [
				{"name": "Gamma", "sell_listings": 1, "sell_price_text": "$3.00"}
			]}`),
	}}

	c := NewCatalog(gate, base, listingPrefix, enrichPrefix, nil)
	records, err := c.Harvest(context.Background())
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	if len(gate.calls) != 2 {
		t.Fatalf("gate calls = %v, want 2 pages", gate.calls)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if records[0].Name != "Alpha" || records[0].Qty != 3 || records[0].Price != "$1.00" {
		t.Errorf("first record = %+v", records[0])
	}
	wantURL := listingPrefix + "Alpha"
	if records[0].URL != wantURL {
		t.Errorf("URL = %q, want %q", records[0].URL, wantURL)
	}
	if records[0].OriginRef != enrichPrefix+"Alpha" {
		t.Errorf("OriginRef = %q", records[0].OriginRef)
	}
}

func TestCatalog_ExhaustedAborts(t *testing.T) {
	base := "https://market.example/search/render/?appid=730&norender=1"
	gate := &fakeGate{pages: map[string]*browser.Page{}} // every fetch fails

	c := NewCatalog(gate, base, listingPrefix, enrichPrefix, nil)
	if _, err := c.Harvest(context.Background()); err == nil {
		t.Fatal("expected error when catalog page cannot be fetched")
	}
}

func TestCatalogClassifier(t *testing.T) {
	classify := CatalogClassifier()

	empty, _ := browser.ParsePage("<html><body></body></html>")
	if got := classify.Classify(empty); got != fetch.NotYetRendered {
		t.Errorf("no pre: %v, want NotYetRendered", got)
	}

	garbage := catalogPage(t, "not json at all")
	if got := classify.Classify(garbage); got != fetch.SourceError {
		t.Errorf("garbage: %v, want SourceError", got)
	}

	noResults := catalogPage(t, `{"success": true, "total_count": 10, "results": []}`)
	if got := classify.Classify(noResults); got != fetch.SourceError {
		t.Errorf("empty results: %v, want SourceError", got)
	}

	ok := catalogPage(t, `{"success": true, "total_count": 10,
		"results": [{"name": "x", "sell_listings": 1, "sell_price_text": "$1"}]}`)
	if got := classify.Classify(ok); got != fetch.OK {
		t.Errorf("valid payload: %v, want OK", got)
	}
}
