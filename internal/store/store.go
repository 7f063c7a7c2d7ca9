// Package store persists the canonical record set. The defining behavior is
// the diff-before-write discipline: re-running the pipeline against an
// unchanged source produces zero mutations.
package store

import (
	"errors"

	"lotwatch/internal/market"
)

// DefaultDBPath is the default relative path for the SQLite DB. Open()
// creates the parent directory.
const DefaultDBPath = "output/market_items.db"

// ErrWriteConflict marks a store-level constraint violation during a batch
// write. It aborts persistence but the caller still exports from memory.
var ErrWriteConflict = errors.New("store: write conflict")

// Item is one persisted row. Seq is allocated once per key and never
// reused; the sentinel collapse means sales columns hold 0 for both "gave
// up" and a genuine zero reading — the run log is the audit trail.
type Item struct {
	Seq    int64
	Name   string
	URL    string
	Qty    int
	Price  string
	SalesW int
	SalesM int
	SalesY int
}

// FromRecord converts a canonical record to its row form.
func FromRecord(r market.Record) Item {
	return Item{
		Seq:    r.Seq,
		Name:   r.Name,
		URL:    r.URL,
		Qty:    r.Qty,
		Price:  r.Price,
		SalesW: r.SalesW.Or(0),
		SalesM: r.SalesM.Or(0),
		SalesY: r.SalesY.Or(0),
	}
}

// ApplyStats summarizes one reconciling write.
type ApplyStats struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Store is the persistence facade. Exactly one logical writer drives it;
// no concurrent writers are modeled.
type Store interface {
	// Snapshot returns the stored table keyed by item name.
	Snapshot() (map[string]Item, error)
	// Apply reconciles the canonical record set against the stored state:
	// new keys insert at max(seq)+1 (or dense from 0 on a cold store),
	// changed rows update only the changed columns and keep their seq,
	// unchanged rows produce no write.
	Apply(records []market.Record) (ApplyStats, error)
	// Rebuild drops all rows and resets sequence allocation. The only
	// destructive operation, never implied.
	Rebuild() error
	Get(name string) (*Item, error)
	List(limit int) ([]Item, error)
	Count() (int, error)
	MaxSeq() (int64, error)
	Close() error
}

// diffCols lists the columns whose values differ between the stored row and
// the incoming one. Seq and name never count: seq is stable by contract and
// name is the key.
func diffCols(old, next Item) []string {
	var cols []string
	if old.Qty != next.Qty {
		cols = append(cols, "qty")
	}
	if old.Price != next.Price {
		cols = append(cols, "price")
	}
	if old.SalesW != next.SalesW {
		cols = append(cols, "sales_w")
	}
	if old.SalesM != next.SalesM {
		cols = append(cols, "sales_m")
	}
	if old.SalesY != next.SalesY {
		cols = append(cols, "sales_y")
	}
	return cols
}

// colValue maps a column name to its value on an item.
func colValue(it Item, col string) any {
	switch col {
	case "qty":
		return it.Qty
	case "price":
		return it.Price
	case "sales_w":
		return it.SalesW
	case "sales_m":
		return it.SalesM
	case "sales_y":
		return it.SalesY
	default:
		return nil
	}
}
