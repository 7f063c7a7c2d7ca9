// Package pipeline wires the harvest, enrichment, reconciliation, resolve,
// persist and export stages into one run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lotwatch/internal/enrich"
	"lotwatch/internal/export"
	"lotwatch/internal/market"
	"lotwatch/internal/store"
)

// Deps are the collaborators one run needs. Tests inject fakes; Wire builds
// the real ones.
type Deps struct {
	Harvest func(ctx context.Context) ([]market.Record, error)
	Pool    *enrich.Pool
	Store   store.Store

	XLSXPath string
	XMLPath  string
	// Export hooks default to the real serializers.
	WriteXLSX func([]store.Item, string) error
	WriteXML  func([]store.Item, string) error

	Logger *slog.Logger
}

// Summary is the user-visible outcome of a run.
type Summary struct {
	Harvested  int
	Canonical  int
	Sentineled []string
	Stats      store.ApplyStats
	ExportErrs []error
}

// Run executes the pipeline. The returned error is non-nil only when the
// harvest failed fatally or persistence failed; export failures are carried
// in the summary. On a persistence failure the exports still run from the
// in-memory canonical set.
func Run(ctx context.Context, d Deps) (*Summary, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if d.WriteXLSX == nil {
		d.WriteXLSX = export.WriteXLSX
	}
	if d.WriteXML == nil {
		d.WriteXML = export.WriteXML
	}

	start := time.Now()
	records, err := d.Harvest(ctx)
	if err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}
	logger.Info("harvest done", "records", len(records), "took", time.Since(start))

	stageStart := time.Now()
	d.Pool.Enrich(ctx, records)
	logger.Info("enrichment done", "workers", d.Pool.Size(), "took", time.Since(stageStart))

	stageStart = time.Now()
	sentineled := enrich.Reconcile(ctx, d.Pool, records, logger)
	logger.Info("reconciliation done", "sentineled", len(sentineled), "took", time.Since(stageStart))

	canonical := market.Resolve(records, logger)
	logger.Info("resolve done", "canonical", len(canonical))

	summary := &Summary{
		Harvested:  len(records),
		Canonical:  len(canonical),
		Sentineled: sentineled,
	}

	stageStart = time.Now()
	stats, persistErr := d.Store.Apply(canonical)
	summary.Stats = stats
	if persistErr != nil {
		logger.Error("persistence failed, exporting from memory", "error", persistErr)
	} else {
		logger.Info("persistence done", "inserted", stats.Inserted,
			"updated", stats.Updated, "unchanged", stats.Unchanged,
			"took", time.Since(stageStart))
	}

	items := exportSet(d.Store, canonical, persistErr)
	if d.XLSXPath != "" {
		if err := d.WriteXLSX(items, d.XLSXPath); err != nil {
			logger.Error("xlsx export failed", "path", d.XLSXPath, "error", err)
			summary.ExportErrs = append(summary.ExportErrs, err)
		}
	}
	if d.XMLPath != "" {
		if err := d.WriteXML(items, d.XMLPath); err != nil {
			logger.Error("xml export failed", "path", d.XMLPath, "error", err)
			summary.ExportErrs = append(summary.ExportErrs, err)
		}
	}

	logger.Info("run finished", "took", time.Since(start))
	if persistErr != nil {
		return summary, fmt.Errorf("persist: %w", persistErr)
	}
	return summary, nil
}

// exportSet prefers the persisted rows (stable seqs); when persistence
// failed it falls back to the in-memory canonical set with positional ids.
func exportSet(st store.Store, canonical []market.Record, persistErr error) []store.Item {
	if persistErr == nil {
		if items, err := st.List(0); err == nil {
			return items
		}
	}
	items := make([]store.Item, 0, len(canonical))
	for i, r := range canonical {
		it := store.FromRecord(r)
		it.Seq = int64(i)
		items = append(items, it)
	}
	return items
}
