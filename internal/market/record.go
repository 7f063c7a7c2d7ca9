// Package market defines the record model shared by every pipeline stage and
// the dedup/join pass that produces the canonical record set.
package market

import "strings"

// OptInt is an integer field that distinguishes "not yet fetched" from a
// genuine zero reading. The zero OptInt is the missing state.
type OptInt struct {
	Value int
	Valid bool
}

// Some wraps a fetched value.
func Some(v int) OptInt { return OptInt{Value: v, Valid: true} }

// Or returns the value, or def when the field is missing.
func (o OptInt) Or(def int) int {
	if o.Valid {
		return o.Value
	}
	return def
}

// Record is one marketplace item's combined listing and sales data.
//
// Name is the natural key: unique after Resolve, used for enrichment lookup
// derivation and as the store's uniqueness constraint. Listing fields (URL,
// Qty, Price) are set once by the harvester and never change; sales fields
// are filled by the enrichment pool and the gap reconciler. Seq is assigned
// at persistence time and stays stable across incremental runs.
type Record struct {
	Name      string
	URL       string
	OriginRef string
	Qty       int
	Price     string

	SalesW OptInt
	SalesM OptInt
	SalesY OptInt

	Seq int64
}

// EnrichmentComplete reports whether all three sales fields are present
// (real values or sentinel zeros).
func (r *Record) EnrichmentComplete() bool {
	return r.SalesW.Valid && r.SalesM.Valid && r.SalesY.Valid
}

// SetSentinel marks all three sales fields as resolved-to-zero. Used when
// the reconciliation pass gives up on a record.
func (r *Record) SetSentinel() {
	r.SalesW = Some(0)
	r.SalesM = Some(0)
	r.SalesY = Some(0)
}

// DeriveOriginRef maps a listing URL to its enrichment locator by prefix
// substitution. A URL outside the listing namespace maps to "".
func DeriveOriginRef(listingURL, listingPrefix, enrichPrefix string) string {
	if !strings.HasPrefix(listingURL, listingPrefix) {
		return ""
	}
	return enrichPrefix + strings.TrimPrefix(listingURL, listingPrefix)
}

// EscapeName percent-encodes an item name for use in a listing URL.
// Alphanumerics and codepoints above 127 pass through; everything else
// becomes %hh. This matches the source's own URL scheme, which is not
// plain query escaping.
func EscapeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r > 127:
			b.WriteRune(r)
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteString(percentEncode(byte(r)))
		}
	}
	return b.String()
}

const hexDigits = "0123456789abcdef"

func percentEncode(c byte) string {
	return string([]byte{'%', hexDigits[c>>4], hexDigits[c&0xf]})
}
