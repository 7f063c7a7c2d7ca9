package market

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func complete(name, price string, qty int) Record {
	return Record{
		Name:   name,
		Qty:    qty,
		Price:  price,
		SalesW: Some(1),
		SalesM: Some(2),
		SalesY: Some(3),
	}
}

func TestDedup_LastSeenWins(t *testing.T) {
	records := []Record{
		complete("Widget", "$1.00", 5),
		complete("Gadget", "$2.00", 1),
		complete("Widget", "$1.50", 7),
	}

	got := Dedup(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Name != "Widget" || got[0].Price != "$1.50" || got[0].Qty != 7 {
		t.Errorf("Widget not resolved to last occurrence: %+v", got[0])
	}
	if got[1].Name != "Gadget" {
		t.Errorf("Gadget lost or reordered: %+v", got[1])
	}
}

func TestDedup_Deterministic(t *testing.T) {
	records := []Record{
		complete("c", "$3", 3),
		complete("a", "$1", 1),
		complete("c", "$4", 4),
		complete("b", "$2", 2),
		complete("a", "$5", 5),
	}

	first := Dedup(records)
	second := Dedup(records)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Dedup not deterministic (-first +second):\n%s", diff)
	}
}

func TestResolve_DropsUnattempted(t *testing.T) {
	records := []Record{
		complete("Widget", "$1.00", 5),
		{Name: "Phantom", Price: "$9.99"}, // no enrichment attempt
	}

	got := Resolve(records, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 canonical record, got %d", len(got))
	}
	if got[0].Name != "Widget" {
		t.Errorf("wrong survivor: %+v", got[0])
	}
}

func TestResolve_InnerJoinProperty(t *testing.T) {
	records := []Record{
		complete("a", "$1", 1),
		{Name: "b", Price: "$2"},
		complete("a", "$3", 3),
		complete("c", "$4", 4),
	}

	dedupedKeys := map[string]bool{}
	for _, r := range Dedup(records) {
		dedupedKeys[r.Name] = true
	}
	enrichedKeys := map[string]bool{}
	for _, r := range records {
		if r.EnrichmentComplete() {
			enrichedKeys[r.Name] = true
		}
	}

	canonical := map[string]bool{}
	for _, r := range Resolve(records, nil) {
		canonical[r.Name] = true
	}

	for k := range canonical {
		if !dedupedKeys[k] || !enrichedKeys[k] {
			t.Errorf("canonical key %q outside intersection", k)
		}
	}
	for k := range dedupedKeys {
		if enrichedKeys[k] && !canonical[k] {
			t.Errorf("key %q in intersection but not canonical", k)
		}
	}
}

func TestOptInt_MissingVsZero(t *testing.T) {
	var missing OptInt
	if missing.Valid {
		t.Error("zero OptInt should be missing")
	}
	if missing.Or(-1) != -1 {
		t.Error("Or should return default for missing")
	}
	zero := Some(0)
	if !zero.Valid || zero.Or(-1) != 0 {
		t.Error("Some(0) should be a present zero, not missing")
	}
}

func TestSetSentinel(t *testing.T) {
	r := Record{Name: "x"}
	r.SetSentinel()
	if !r.EnrichmentComplete() {
		t.Fatal("sentineled record should be complete")
	}
	if r.SalesW.Value != 0 || r.SalesM.Value != 0 || r.SalesY.Value != 0 {
		t.Errorf("sentinel values should be zero: %+v", r)
	}
}

func TestDeriveOriginRef(t *testing.T) {
	got := DeriveOriginRef(
		"https://market.example/listings/730/AK-47",
		"https://market.example/listings/730/",
		"https://sales.example/Item?name=",
	)
	want := "https://sales.example/Item?name=AK-47"
	if got != want {
		t.Errorf("DeriveOriginRef = %q, want %q", got, want)
	}

	if got := DeriveOriginRef("https://other.example/x", "https://market.example/listings/730/", "p"); got != "" {
		t.Errorf("expected empty origin ref for foreign URL, got %q", got)
	}
}

func TestEscapeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"AK47", "AK47"},
		{"AK-47 | Redline", "AK%2d47%20%7c%20Redline"},
		{"★ Karambit", "★%20Karambit"},
	}
	for _, tc := range cases {
		if got := EscapeName(tc.in); got != tc.want {
			t.Errorf("EscapeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
