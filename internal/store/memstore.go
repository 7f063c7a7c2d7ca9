package store

import (
	"sort"

	"lotwatch/internal/market"
)

// MemStore is an in-memory Store used by tests and dry runs. Same
// reconciliation semantics as SqlStore, no durability.
type MemStore struct {
	items map[string]Item
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]Item)}
}

// Snapshot implements Store.
func (m *MemStore) Snapshot() (map[string]Item, error) {
	out := make(map[string]Item, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out, nil
}

// Apply implements Store.
func (m *MemStore) Apply(records []market.Record) (ApplyStats, error) {
	var stats ApplyStats
	nextSeq := int64(0)
	if len(m.items) > 0 {
		max, _ := m.MaxSeq()
		nextSeq = max + 1
	}
	for _, r := range records {
		next := FromRecord(r)
		old, exists := m.items[next.Name]
		switch {
		case !exists:
			next.Seq = nextSeq
			nextSeq++
			m.items[next.Name] = next
			stats.Inserted++
		case len(diffCols(old, next)) > 0:
			next.Seq = old.Seq
			next.URL = old.URL
			m.items[next.Name] = next
			stats.Updated++
		default:
			stats.Unchanged++
		}
	}
	return stats, nil
}

// Rebuild implements Store.
func (m *MemStore) Rebuild() error {
	m.items = make(map[string]Item)
	return nil
}

// Get implements Store.
func (m *MemStore) Get(name string) (*Item, error) {
	if it, ok := m.items[name]; ok {
		cp := it
		return &cp, nil
	}
	return nil, nil
}

// List implements Store, ordered by seq.
func (m *MemStore) List(limit int) ([]Item, error) {
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count implements Store.
func (m *MemStore) Count() (int, error) { return len(m.items), nil }

// MaxSeq implements Store.
func (m *MemStore) MaxSeq() (int64, error) {
	max := int64(-1)
	for _, it := range m.items {
		if it.Seq > max {
			max = it.Seq
		}
	}
	return max, nil
}

// Close implements Store.
func (m *MemStore) Close() error { return nil }
