package export

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"lotwatch/internal/store"
)

type xmlItem struct {
	XMLName xml.Name `xml:"Item"`
	ID      int64    `xml:"id"`
	Name    string   `xml:"name"`
	URL     string   `xml:"url"`
	Qty     int      `xml:"qty"`
	Price   string   `xml:"price"`
	SalesW  int      `xml:"sales_w"`
	SalesM  int      `xml:"sales_m"`
	SalesY  int      `xml:"sales_y"`
}

type xmlItems struct {
	XMLName xml.Name  `xml:"Items"`
	Items   []xmlItem `xml:"Item"`
}

// WriteXML writes the items as an indented XML document.
func WriteXML(items []store.Item, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("export xml: %w", err)
	}

	doc := xmlItems{Items: make([]xmlItem, 0, len(items))}
	for _, it := range items {
		doc.Items = append(doc.Items, xmlItem{
			ID:     it.Seq,
			Name:   it.Name,
			URL:    it.URL,
			Qty:    it.Qty,
			Price:  it.Price,
			SalesW: it.SalesW,
			SalesM: it.SalesM,
			SalesY: it.SalesY,
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("export xml marshal: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("export xml write: %w", err)
	}
	return nil
}
