package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"lotwatch/internal/store"
)

func sampleItems() []store.Item {
	return []store.Item{
		{Seq: 0, Name: "Widget", URL: "https://market.example/w", Qty: 5, Price: "$1.00", SalesW: 1, SalesM: 2, SalesY: 3},
		{Seq: 1, Name: "Gadget & Co", URL: "https://market.example/g", Qty: 9, Price: "$2.00", SalesW: 4, SalesM: 5, SalesY: 6},
	}
}

func TestWriteXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "items.xml")
	if err := WriteXML(sampleItems(), path); err != nil {
		t.Fatalf("WriteXML: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)

	if !strings.HasPrefix(body, "<?xml") {
		t.Error("missing XML declaration")
	}
	for _, want := range []string{
		"<Items>", "<Item>", "<name>Widget</name>", "<price>$1.00</price>",
		"<sales_y>6</sales_y>", "<name>Gadget &amp; Co</name>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("output missing %q:\n%s", want, body)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "items.xlsx")
	if err := WriteXLSX(sampleItems(), path); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][1] != "name" || rows[0][4] != "price" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Widget" || rows[1][4] != "$1.00" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][1] != "Gadget & Co" {
		t.Errorf("second row = %v", rows[2])
	}
}

func TestWriteXML_EmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.xml")
	if err := WriteXML(nil, path); err != nil {
		t.Fatalf("WriteXML(nil): %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "<Items>") {
		t.Errorf("empty set should still emit the root element: %s", data)
	}
}
