package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"lotwatch/internal/browser"
	"lotwatch/internal/fetch"
	"lotwatch/internal/market"
)

// catalogPageSize is the render endpoint's page size, independent of the
// listing page size.
const catalogPageSize = 100

// catalogPayload is the render endpoint's JSON shape.
type catalogPayload struct {
	Success    bool          `json:"success"`
	TotalCount int           `json:"total_count"`
	Results    []catalogItem `json:"results"`
}

type catalogItem struct {
	Name          string `json:"name"`
	SellListings  int    `json:"sell_listings"`
	SellPriceText string `json:"sell_price_text"`
}

// catalogOf parses the JSON body the endpoint renders inside a <pre>.
func catalogOf(p *browser.Page) (*catalogPayload, error) {
	body := p.Text("pre")
	if body == "" {
		return nil, fmt.Errorf("catalog page has no body")
	}
	var payload catalogPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("catalog payload: %w", err)
	}
	return &payload, nil
}

// CatalogClassifier gates the render endpoint: no <pre> body yet → not
// rendered; unparseable JSON or an unsuccessful/empty result set → source
// error (the endpoint serves empty results when throttling warms up, and
// a reload usually clears it).
func CatalogClassifier() fetch.Classifier {
	return fetch.ClassifierFunc(func(p *browser.Page) fetch.Kind {
		if !p.Has("pre") {
			return fetch.NotYetRendered
		}
		payload, err := catalogOf(p)
		if err != nil {
			return fetch.SourceError
		}
		if !payload.Success || len(payload.Results) == 0 {
			return fetch.SourceError
		}
		return fetch.OK
	})
}

// Catalog harvests the entire listing catalog through the source's JSON
// render endpoint. Selected when the run has no seed URLs.
type Catalog struct {
	gate          Fetcher
	baseURL       string
	listingPrefix string
	enrichPrefix  string
	logger        *slog.Logger
}

// NewCatalog wires a gate (carrying the bounded catalog policy) and the URL
// prefixes used to reconstruct per-item locators.
func NewCatalog(gate Fetcher, baseURL, listingPrefix, enrichPrefix string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		gate:          gate,
		baseURL:       baseURL,
		listingPrefix: listingPrefix,
		enrichPrefix:  enrichPrefix,
		logger:        logger,
	}
}

// Harvest pages through the endpoint until the reported total is covered.
// An exhausted page aborts the whole harvest: a truncated catalog is
// garbled pagination, not a partial success.
func (c *Catalog) Harvest(ctx context.Context) ([]market.Record, error) {
	var out []market.Record
	start, total := 0, -1
	for total < 0 || start < total {
		locator := fmt.Sprintf("%s&start=%d&count=%d", c.baseURL, start, catalogPageSize)
		page, err := c.gate.Fetch(ctx, locator)
		if err != nil {
			return nil, fmt.Errorf("catalog page at %d: %w", start, err)
		}
		payload, err := catalogOf(page)
		if err != nil {
			// The classifier already accepted this page; a parse failure
			// here means the DOM changed between classify and extract.
			return nil, fmt.Errorf("catalog page at %d: %w", start, err)
		}
		if total < 0 {
			total = payload.TotalCount
			c.logger.Info("catalog harvest", "total_items", total)
		}
		for _, item := range payload.Results {
			out = append(out, c.toRecord(item))
		}
		c.logger.Info("harvested catalog page", "start", start, "rows", len(payload.Results))
		start += len(payload.Results)
	}
	return out, nil
}

func (c *Catalog) toRecord(item catalogItem) market.Record {
	url := c.listingPrefix + market.EscapeName(item.Name)
	return market.Record{
		Name:      item.Name,
		URL:       url,
		OriginRef: market.DeriveOriginRef(url, c.listingPrefix, c.enrichPrefix),
		Qty:       item.SellListings,
		Price:     item.SellPriceText,
	}
}
