// Package tabular models the engine's ingestion boundary: documents arrive as
// ordered rows of raw cell values (string, number, or blank), the shape a
// spreadsheet decoder hands over. Decoding the file formats themselves happens
// outside this module.
package tabular

import (
	"fmt"
	"strings"
)

// Row is a single decoded spreadsheet row. Cells are raw values as produced by
// the upstream decoder: string, float64 (spreadsheet numbers), or nil/blank.
type Row []any

// Rows is an ordered document.
type Rows []Row

// String returns the cell at idx rendered as a trimmed string. Out-of-range
// and blank cells yield "".
func (r Row) String(idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	switch v := r[idx].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// Float returns the cell at idx as a float64, applying the locale-aware
// numeric rules from ParseNumber for string cells. Unparsable cells yield 0.
func (r Row) Float(idx int) float64 {
	if idx < 0 || idx >= len(r) {
		return 0
	}
	switch v := r[idx].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		return ParseNumber(v)
	default:
		return 0
	}
}

// Int returns the cell at idx as an integer, truncating any fraction.
func (r Row) Int(idx int) int {
	return int(r.Float(idx))
}

// Blank reports whether the cell at idx is missing or empty.
func (r Row) Blank(idx int) bool {
	return r.String(idx) == ""
}
