package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lotwatch/internal/enrich"
	"lotwatch/internal/market"
	"lotwatch/internal/store"
)

func completeRecord(name string) market.Record {
	return market.Record{
		Name:   name,
		URL:    "https://market.example/listings/730/" + name,
		Qty:    5,
		Price:  "$1.00",
		SalesW: market.Some(1),
		SalesM: market.Some(2),
		SalesY: market.Some(3),
	}
}

// emptyPool enriches nothing, which leaves harvest output as-is.
func emptyPool() *enrich.Pool {
	return enrich.NewPool(nil, enrich.DefaultSalesSelectors, nil)
}

func TestRun_HappyPath(t *testing.T) {
	st := store.NewMemStore()
	var xlsxItems, xmlItems []store.Item

	summary, err := Run(context.Background(), Deps{
		Harvest: func(ctx context.Context) ([]market.Record, error) {
			return []market.Record{completeRecord("Widget"), completeRecord("Gadget")}, nil
		},
		Pool:      emptyPool(),
		Store:     st,
		XLSXPath:  "items.xlsx",
		XMLPath:   "items.xml",
		WriteXLSX: func(items []store.Item, _ string) error { xlsxItems = items; return nil },
		WriteXML:  func(items []store.Item, _ string) error { xmlItems = items; return nil },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Harvested != 2 || summary.Canonical != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Stats.Inserted != 2 {
		t.Errorf("stats = %+v, want 2 inserts", summary.Stats)
	}
	if len(summary.Sentineled) != 0 || len(summary.ExportErrs) != 0 {
		t.Errorf("unexpected degradation: %+v", summary)
	}

	// Exports see the persisted rows with their stable ids.
	if len(xlsxItems) != 2 || xlsxItems[0].Seq != 0 || xlsxItems[1].Seq != 1 {
		t.Errorf("xlsx items = %+v", xlsxItems)
	}
	if diff := cmp.Diff(xlsxItems, xmlItems); diff != "" {
		t.Errorf("exports diverge:\n%s", diff)
	}
}

func TestRun_HarvestFailureAborts(t *testing.T) {
	exported := false
	_, err := Run(context.Background(), Deps{
		Harvest: func(ctx context.Context) ([]market.Record, error) {
			return nil, errors.New("listing page gone")
		},
		Pool:     emptyPool(),
		Store:    store.NewMemStore(),
		XMLPath:  "items.xml",
		WriteXML: func([]store.Item, string) error { exported = true; return nil },
	})
	if err == nil {
		t.Fatal("want error on fatal harvest")
	}
	if exported {
		t.Error("nothing should be exported after a fatal harvest")
	}
}

type failingStore struct {
	*store.MemStore
}

func (f *failingStore) Apply([]market.Record) (store.ApplyStats, error) {
	return store.ApplyStats{}, store.ErrWriteConflict
}

func (f *failingStore) List(int) ([]store.Item, error) {
	return nil, errors.New("unreachable store")
}

func TestRun_PersistFailureStillExports(t *testing.T) {
	var got []store.Item
	summary, err := Run(context.Background(), Deps{
		Harvest: func(ctx context.Context) ([]market.Record, error) {
			return []market.Record{completeRecord("Widget"), completeRecord("Gadget")}, nil
		},
		Pool:     emptyPool(),
		Store:    &failingStore{store.NewMemStore()},
		XMLPath:  "items.xml",
		WriteXML: func(items []store.Item, _ string) error { got = items; return nil },
	})
	if !errors.Is(err, store.ErrWriteConflict) {
		t.Fatalf("err = %v, want write conflict", err)
	}

	// Exports fall back to the in-memory set with positional ids.
	if len(got) != 2 || got[0].Seq != 0 || got[1].Seq != 1 {
		t.Errorf("fallback export items = %+v", got)
	}
	if got[0].Name != "Widget" || got[1].Name != "Gadget" {
		t.Errorf("fallback export items = %+v", got)
	}
	if summary == nil || summary.Canonical != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRun_ExportFailureDoesNotFailRun(t *testing.T) {
	summary, err := Run(context.Background(), Deps{
		Harvest: func(ctx context.Context) ([]market.Record, error) {
			return []market.Record{completeRecord("Widget")}, nil
		},
		Pool:      emptyPool(),
		Store:     store.NewMemStore(),
		XLSXPath:  "items.xlsx",
		WriteXLSX: func([]store.Item, string) error { return errors.New("disk full") },
	})
	if err != nil {
		t.Fatalf("export failure must not fail the run: %v", err)
	}
	if len(summary.ExportErrs) != 1 {
		t.Errorf("export errors = %v", summary.ExportErrs)
	}
}

func TestRun_SentinelsIncompleteRecords(t *testing.T) {
	incomplete := completeRecord("Ghost")
	incomplete.SalesW = market.OptInt{}
	incomplete.SalesM = market.OptInt{}
	incomplete.SalesY = market.OptInt{}

	st := store.NewMemStore()
	summary, err := Run(context.Background(), Deps{
		Harvest: func(ctx context.Context) ([]market.Record, error) {
			return []market.Record{completeRecord("Widget"), incomplete}, nil
		},
		Pool:  emptyPool(),
		Store: st,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diff := cmp.Diff([]string{"Ghost"}, summary.Sentineled); diff != "" {
		t.Errorf("sentineled (-want +got):\n%s", diff)
	}
	it, err := st.Get("Ghost")
	if err != nil || it == nil {
		t.Fatalf("sentineled record should still persist: %v, %v", it, err)
	}
	if it.SalesW != 0 || it.SalesM != 0 || it.SalesY != 0 {
		t.Errorf("sentinel fields = %+v, want zeros", it)
	}
}
