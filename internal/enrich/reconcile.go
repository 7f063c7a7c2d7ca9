package enrich

import (
	"context"
	"log/slog"

	"lotwatch/internal/market"
)

// Reconcile runs a second lookup pass over exactly the records the first
// pass left incomplete, then degrades anything still missing to sentinel
// zeros rather than blocking the run. Returns the keys that were
// sentineled so the caller can enumerate them. Running it over an
// already-complete set is a no-op.
func Reconcile(ctx context.Context, pool *Pool, records []market.Record, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}

	var idx []int
	for i := range records {
		if !records[i].EnrichmentComplete() {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil
	}
	logger.Info("reconciling incomplete enrichment", "records", len(idx))

	subset := make([]market.Record, len(idx))
	for j, i := range idx {
		subset[j] = records[i]
	}
	pool.Enrich(ctx, subset)

	var sentineled []string
	for j, i := range idx {
		records[i] = subset[j]
		if !records[i].EnrichmentComplete() {
			records[i].SetSentinel()
			sentineled = append(sentineled, records[i].Name)
			logger.Warn("enrichment gave up, storing sentinel zeros", "name", records[i].Name)
		}
	}
	return sentineled
}
