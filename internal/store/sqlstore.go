package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lotwatch/internal/market"

	_ "modernc.org/sqlite"
)

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and ensures the schema.
// Creates the parent directory if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersionV1 {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SqlStore) Close() error { return s.db.Close() }

// Snapshot implements Store.
func (s *SqlStore) Snapshot() (map[string]Item, error) {
	rows, err := s.db.Query(
		"SELECT seq, name, url, qty, price, sales_w, sales_m, sales_y FROM items")
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Item)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Seq, &it.Name, &it.URL, &it.Qty, &it.Price,
			&it.SalesW, &it.SalesM, &it.SalesY); err != nil {
			return nil, fmt.Errorf("snapshot scan: %w", err)
		}
		out[it.Name] = it
	}
	return out, rows.Err()
}

// Apply implements Store. The whole batch runs in one transaction: either
// the store moves to the reconciled state or it does not move at all.
func (s *SqlStore) Apply(records []market.Record) (ApplyStats, error) {
	var stats ApplyStats

	snapshot, err := s.Snapshot()
	if err != nil {
		return stats, err
	}
	nextSeq := int64(0)
	if len(snapshot) > 0 {
		maxSeq, err := s.MaxSeq()
		if err != nil {
			return stats, err
		}
		nextSeq = maxSeq + 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("begin apply: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		next := FromRecord(r)
		old, exists := snapshot[next.Name]
		if !exists {
			next.Seq = nextSeq
			nextSeq++
			if _, err := tx.Exec(
				`INSERT INTO items(seq, name, url, qty, price, sales_w, sales_m, sales_y)
				 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
				next.Seq, next.Name, next.URL, next.Qty, next.Price,
				next.SalesW, next.SalesM, next.SalesY); err != nil {
				return stats, fmt.Errorf("%w: insert %q: %v", ErrWriteConflict, next.Name, err)
			}
			stats.Inserted++
			continue
		}

		cols := diffCols(old, next)
		if len(cols) == 0 {
			stats.Unchanged++
			continue
		}
		set := make([]string, len(cols))
		args := make([]any, 0, len(cols)+1)
		for i, col := range cols {
			set[i] = col + " = ?"
			args = append(args, colValue(next, col))
		}
		args = append(args, old.Seq)
		if _, err := tx.Exec(
			"UPDATE items SET "+strings.Join(set, ", ")+" WHERE seq = ?", args...); err != nil {
			return stats, fmt.Errorf("%w: update %q: %v", ErrWriteConflict, next.Name, err)
		}
		stats.Updated++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit apply: %w", err)
	}
	return stats, nil
}

// Rebuild implements Store: drops all rows and resets sequence allocation.
func (s *SqlStore) Rebuild() error {
	if _, err := s.db.Exec("DELETE FROM items"); err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	return nil
}

// Get implements Store. Returns (nil, nil) when the name is absent.
func (s *SqlStore) Get(name string) (*Item, error) {
	var it Item
	err := s.db.QueryRow(
		`SELECT seq, name, url, qty, price, sales_w, sales_m, sales_y
		 FROM items WHERE name = ?`, name).
		Scan(&it.Seq, &it.Name, &it.URL, &it.Qty, &it.Price,
			&it.SalesW, &it.SalesM, &it.SalesY)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", name, err)
	}
	return &it, nil
}

// List implements Store, ordered by seq. limit <= 0 means no limit.
func (s *SqlStore) List(limit int) ([]Item, error) {
	q := "SELECT seq, name, url, qty, price, sales_w, sales_m, sales_y FROM items ORDER BY seq"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Seq, &it.Name, &it.URL, &it.Qty, &it.Price,
			&it.SalesW, &it.SalesM, &it.SalesY); err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Count implements Store.
func (s *SqlStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// MaxSeq implements Store. Returns -1 for an empty table so max+1 starts
// allocation at 0.
func (s *SqlStore) MaxSeq() (int64, error) {
	var max sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(seq) FROM items").Scan(&max); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return max.Int64, nil
}
