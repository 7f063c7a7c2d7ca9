package market

import "log/slog"

// Dedup collapses records sharing a Name: the last-seen record wins, which
// matches the harvest ordering where later pages carry the more specific
// variants. The surviving record keeps the position of the key's first
// occurrence, so output order is stable across runs.
func Dedup(records []Record) []Record {
	out := make([]Record, 0, len(records))
	pos := make(map[string]int, len(records))
	for _, r := range records {
		if i, seen := pos[r.Name]; seen {
			out[i] = r
			continue
		}
		pos[r.Name] = len(out)
		out = append(out, r)
	}
	return out
}

// Resolve produces the canonical record set: deduplicated on Name, then
// inner-joined with the enrichment results. A record whose enrichment was
// never attempted (any sales field still missing) is dropped, not retained
// with holes — the reconciler guarantees completeness for every attempted
// key, so a gap here is a pipeline bug, logged per key.
func Resolve(records []Record, logger *slog.Logger) []Record {
	deduped := Dedup(records)
	out := make([]Record, 0, len(deduped))
	for _, r := range deduped {
		if !r.EnrichmentComplete() {
			if logger != nil {
				logger.Warn("join gap: enrichment never attempted, dropping record", "name", r.Name)
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
