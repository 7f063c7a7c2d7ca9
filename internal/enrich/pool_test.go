package enrich

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lotwatch/internal/browser"
	"lotwatch/internal/fetch"
	"lotwatch/internal/market"
)

const enrichPrefix = "https://sales.example/Item?name="

func salesHTML(name string, w, m, y string) string {
	return fmt.Sprintf(`<html><body><div id="item-container">
		<div class="item-name">%s</div>
		<table><tbody>
			<tr><td>window</td></tr>
			<tr><td>%s</td></tr>
			<tr><td>%s</td></tr>
			<tr><td>%s</td></tr>
		</tbody></table>
	</div></body></html>`, name, w, m, y)
}

func salesPage(t *testing.T, name, w, m, y string) *browser.Page {
	t.Helper()
	p, err := browser.ParsePage(salesHTML(name, w, m, y))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// recordingGate serves pages by locator and records its fetch order.
type recordingGate struct {
	pages map[string]*browser.Page
	calls []string
}

func (g *recordingGate) Fetch(ctx context.Context, locator string) (*browser.Page, error) {
	g.calls = append(g.calls, locator)
	p, ok := g.pages[locator]
	if !ok {
		return nil, &fetch.Error{Kind: fetch.Exhausted, Locator: locator, Attempts: 5}
	}
	return p, nil
}

func rawRecord(name string) market.Record {
	return market.Record{Name: name, OriginRef: enrichPrefix + name}
}

func TestPool_StripesRoundRobin(t *testing.T) {
	records := []market.Record{
		rawRecord("a"), rawRecord("b"), rawRecord("c"), rawRecord("d"), rawRecord("e"),
	}
	pages := map[string]*browser.Page{}
	for _, r := range records {
		pages[r.OriginRef] = salesPage(t, r.Name, "1", "2", "3")
	}
	g0 := &recordingGate{pages: pages}
	g1 := &recordingGate{pages: pages}

	pool := NewPool([]Fetcher{g0, g1}, DefaultSalesSelectors, nil)
	pool.Enrich(context.Background(), records)

	want0 := []string{enrichPrefix + "a", enrichPrefix + "c", enrichPrefix + "e"}
	want1 := []string{enrichPrefix + "b", enrichPrefix + "d"}
	if diff := cmp.Diff(want0, g0.calls); diff != "" {
		t.Errorf("worker 0 stripe (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want1, g1.calls); diff != "" {
		t.Errorf("worker 1 stripe (-want +got):\n%s", diff)
	}

	for i := range records {
		if !records[i].EnrichmentComplete() {
			t.Errorf("record %d not enriched: %+v", i, records[i])
		}
	}
	if records[2].SalesW.Or(-1) != 1 || records[2].SalesY.Or(-1) != 3 {
		t.Errorf("fan-in misapplied: %+v", records[2])
	}
}

func TestPool_FailureDoesNotBlockSiblings(t *testing.T) {
	records := []market.Record{rawRecord("ok"), rawRecord("broken"), rawRecord("fine")}
	pages := map[string]*browser.Page{
		enrichPrefix + "ok":   salesPage(t, "ok", "10", "20", "30"),
		enrichPrefix + "fine": salesPage(t, "fine", "7", "8", "9"),
		// "broken" has no page: its gate reports Exhausted.
	}
	g := &recordingGate{pages: pages}
	pool := NewPool([]Fetcher{g}, DefaultSalesSelectors, nil)
	pool.Enrich(context.Background(), records)

	if !records[0].EnrichmentComplete() || !records[2].EnrichmentComplete() {
		t.Error("siblings of a failed record must still be enriched")
	}
	if records[1].EnrichmentComplete() {
		t.Errorf("failed record should keep missing fields: %+v", records[1])
	}
	if len(g.calls) != 3 {
		t.Errorf("calls = %d, want one fetch per record per pass", len(g.calls))
	}
}

func TestPool_NoOriginRef(t *testing.T) {
	records := []market.Record{{Name: "orphan"}}
	g := &recordingGate{pages: map[string]*browser.Page{}}
	pool := NewPool([]Fetcher{g}, DefaultSalesSelectors, nil)
	pool.Enrich(context.Background(), records)

	if len(g.calls) != 0 {
		t.Error("record without origin ref must not hit the gate")
	}
	if records[0].EnrichmentComplete() {
		t.Error("orphan record should stay missing")
	}
}

func TestExtract_PartialFields(t *testing.T) {
	page := salesPage(t, "Thing", "1,234", "", "x")
	res := DefaultSalesSelectors.Extract(page)

	if res.SalesW.Or(-1) != 1234 {
		t.Errorf("weekly = %+v, want 1234", res.SalesW)
	}
	if res.SalesM.Valid {
		t.Error("empty cell should be missing, not zero")
	}
	if res.SalesY.Valid {
		t.Error("unreadable cell should be missing")
	}
}

func TestCleanName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"AK-47 Redline | $12.34", "AK-47 Redline"},
		{"Plain Item", "Plain Item"},
		{"  Spaced  | $1", "Spaced"},
	}
	for _, tc := range cases {
		if got := CleanName(tc.in); got != tc.want {
			t.Errorf("CleanName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSalesClassifier(t *testing.T) {
	classify := DefaultSalesSelectors.Classifier()

	parse := func(html string) *browser.Page {
		p, err := browser.ParsePage(html)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	if got := classify.Classify(parse("<html><body>loading</body></html>")); got != fetch.NotYetRendered {
		t.Errorf("missing container: %v, want NotYetRendered", got)
	}
	if got := classify.Classify(parse("<html><body>Too Many Requests</body></html>")); got != fetch.RateLimited {
		t.Errorf("throttle banner: %v, want RateLimited", got)
	}
	if got := classify.Classify(parse(`<html><body><div id="item-container"></div></body></html>`)); got != fetch.SourceError {
		t.Errorf("empty table: %v, want SourceError", got)
	}
	if got := classify.Classify(parse(salesHTML("x", "1", "2", "3"))); got != fetch.OK {
		t.Errorf("full page: %v, want OK", got)
	}
}
