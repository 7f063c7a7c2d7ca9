package pipeline

import (
	"context"
	"fmt"
	"time"

	"lotwatch/internal/browser"
	"lotwatch/internal/config"
	"lotwatch/internal/enrich"
	"lotwatch/internal/fetch"
	"lotwatch/internal/harvest"
	"lotwatch/internal/logging"
	"lotwatch/internal/market"
	"lotwatch/internal/store"
)

// Wire builds the real collaborators for one run: a browser pool sized to
// the worker count, one gate per stage, and the harvester matching the seed
// set, then executes the pipeline. The browser pool is torn down on every
// exit path.
func Wire(ctx context.Context, cfg config.Config, seeds []string, st store.Store) (*Summary, error) {
	pool, err := browser.NewPool(ctx, cfg.Workers, time.Duration(cfg.BrowserTimeout))
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	sel := enrich.DefaultSalesSelectors
	gates := make([]enrich.Fetcher, pool.Size())
	for i := range gates {
		gates[i] = fetch.NewGate(pool.Session(i), cfg.EnrichPolicy(), sel.Classifier(),
			fetch.WithLogger(logging.New(fmt.Sprintf("enrich-gate-%d", i))))
	}

	return Run(ctx, Deps{
		Harvest:  harvestFunc(cfg, seeds, pool),
		Pool:     enrich.NewPool(gates, sel, logging.New("enrich")),
		Store:    st,
		XLSXPath: cfg.ExportXLSX,
		XMLPath:  cfg.ExportXML,
		Logger:   logging.New("pipeline"),
	})
}

// harvestFunc selects seed-driven pagination or, with no seeds, the
// full-catalog endpoint. Harvesting runs before enrichment starts, so
// sharing tab 0 with enrichment worker 0 is safe.
func harvestFunc(cfg config.Config, seeds []string, pool *browser.Pool) func(context.Context) ([]market.Record, error) {
	if len(seeds) == 0 {
		gate := fetch.NewGate(pool.Session(0), cfg.CatalogPolicy(), harvest.CatalogClassifier(),
			fetch.WithLogger(logging.New("catalog-gate")))
		c := harvest.NewCatalog(gate, cfg.CatalogURL, cfg.ListingPrefix, cfg.EnrichPrefix, logging.New("catalog"))
		return c.Harvest
	}

	listSel := harvest.DefaultListingSelectors
	gate := fetch.NewGate(pool.Session(0), cfg.ListingPolicy(), listSel.Classifier(),
		fetch.WithLogger(logging.New("listing-gate")))
	parser := &harvest.Parser{
		Sel:           listSel,
		ListingPrefix: cfg.ListingPrefix,
		EnrichPrefix:  cfg.EnrichPrefix,
		Logger:        logging.New("harvest"),
	}
	h := harvest.NewHarvester(gate, parser, cfg.PageSize, logging.New("harvest"))
	return func(ctx context.Context) ([]market.Record, error) {
		return h.Harvest(ctx, seeds)
	}
}
