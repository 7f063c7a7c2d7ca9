// Package export serializes the canonical record set to its derived file
// formats. Pure output: failures here are reported but never roll back
// persistence.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"lotwatch/internal/store"
)

var xlsxHeader = []any{"id", "name", "url", "qty", "price", "sales_w", "sales_m", "sales_y"}

// WriteXLSX writes the items as a single-sheet spreadsheet, one row per
// item, in the given order.
func WriteXLSX(items []store.Item, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("export xlsx header: %w", err)
	}
	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export xlsx row %d: %w", i, err)
		}
		row := []any{it.Seq, it.Name, it.URL, it.Qty, it.Price, it.SalesW, it.SalesM, it.SalesY}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export xlsx row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export xlsx save: %w", err)
	}
	return nil
}
