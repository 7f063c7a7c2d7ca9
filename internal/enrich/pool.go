// Package enrich resolves per-record sales lookups through a fixed pool of
// workers, one rendering session each, and reconciles records the first
// pass left incomplete.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"lotwatch/internal/browser"
	"lotwatch/internal/market"
)

// Fetcher is the gate contract a worker drives. One gate per worker; gates
// are never shared, so no locking happens inside the pool.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*browser.Page, error)
}

// Pool fans records out across its workers and back in by original index.
type Pool struct {
	gates  []Fetcher
	sel    SalesSelectors
	logger *slog.Logger
}

// NewPool builds a pool with one worker per gate.
func NewPool(gates []Fetcher, sel SalesSelectors, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{gates: gates, sel: sel, logger: logger}
}

// Size returns the worker count.
func (p *Pool) Size() int { return len(p.gates) }

// Enrich fills the sales fields of records in place. Partitioning is static
// round-robin: record[i] belongs to worker[i mod N], fetched strictly in
// stripe order. A record whose lookup exhausts its retry budget keeps its
// missing fields and never fails the batch; a rate-limited worker sleeps
// out its cooldown without stalling siblings.
func (p *Pool) Enrich(ctx context.Context, records []market.Record) {
	n := len(p.gates)
	if n == 0 || len(records) == 0 {
		return
	}

	results := make([]Result, len(records))
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < n; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < len(records); i += n {
				results[i] = p.lookup(gctx, w, records[i].OriginRef)
			}
			return nil
		})
	}
	_ = g.Wait() // per-record failures live in results, not here

	for i := range records {
		r := results[i]
		if r.Err != nil {
			p.logger.Warn("enrichment lookup failed, leaving fields missing",
				"name", records[i].Name, "error", r.Err)
			continue
		}
		if r.Name != "" && r.Name != records[i].Name {
			p.logger.Debug("sales source names item differently",
				"listing", records[i].Name, "sales", r.Name)
		}
		records[i].SalesW = r.SalesW
		records[i].SalesM = r.SalesM
		records[i].SalesY = r.SalesY
	}
}

func (p *Pool) lookup(ctx context.Context, worker int, originRef string) Result {
	if originRef == "" {
		return Result{Err: fmt.Errorf("record has no enrichment locator")}
	}
	page, err := p.gates[worker].Fetch(ctx, originRef)
	if err != nil {
		return Result{Err: err}
	}
	return p.sel.Extract(page)
}
