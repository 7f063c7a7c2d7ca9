// Package harvest walks the paginated listing source and produces the raw
// record set. Pagination retries are unbounded: silently truncated pages are
// worse than a run that does not terminate.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lotwatch/internal/browser"
	"lotwatch/internal/market"
)

// Fetcher is the gate contract the harvesters depend on.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*browser.Page, error)
}

// RowParser owns the listing source's selector mapping: the total-count
// marker and the per-row field extraction.
type RowParser interface {
	// Total reads the item count marker from a listing page.
	Total(p *browser.Page) (int, error)
	// Rows extracts one record per listing row. A row that fails
	// extraction is skipped, never aborts the page.
	Rows(p *browser.Page) []market.Record
}

// PageCount converts a total item count into the number of page slots.
// The +1 margin deliberately over-allocates by one page: the source
// under-reports on the boundary page, and an extra empty fetch is cheaper
// than a missing row. Pages 1..PageCount-1 are fetched.
func PageCount(total, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize
	return pages + 1
}

// Harvester paginates seed URLs through a fetch gate.
type Harvester struct {
	gate     Fetcher
	parser   RowParser
	pageSize int
	logger   *slog.Logger
}

// NewHarvester wires a gate and a row parser. The gate should carry the
// unbounded listing policy.
func NewHarvester(gate Fetcher, parser RowParser, pageSize int, logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{gate: gate, parser: parser, pageSize: pageSize, logger: logger}
}

// Harvest walks every seed URL page by page and returns the ordered raw
// record set. Duplicate keys across pages or seeds are expected; resolution
// happens downstream. Any error here is fatal to the run: nothing
// downstream has started yet.
func (h *Harvester) Harvest(ctx context.Context, seeds []string) ([]market.Record, error) {
	var out []market.Record
	for _, seed := range seeds {
		records, err := h.harvestSeed(ctx, seed)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (h *Harvester) harvestSeed(ctx context.Context, seed string) ([]market.Record, error) {
	probe, err := h.gate.Fetch(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("count probe %s: %w", seed, err)
	}
	total, err := h.parser.Total(probe)
	if err != nil {
		return nil, fmt.Errorf("count probe %s: %w", seed, err)
	}

	pageCount := PageCount(total, h.pageSize)
	base := strings.SplitN(seed, "#", 2)[0]
	h.logger.Info("harvesting seed", "seed", base, "total_items", total, "pages", pageCount-1)

	var out []market.Record
	for page := 1; page < pageCount; page++ {
		locator := fmt.Sprintf("%s#p%d_price_asc", base, page)
		p, err := h.gate.Fetch(ctx, locator)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", page, base, err)
		}
		rows := h.parser.Rows(p)
		out = append(out, rows...)
		h.logger.Info("harvested page", "page", page, "rows", len(rows))
	}
	return out, nil
}
