package tabular

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// zeroWidthStripper removes format characters (zero-width spaces, BOMs and
// friends, Unicode category Cf) that sneak into codes copied out of Excel.
var zeroWidthStripper = runes.Remove(runes.In(unicode.Cf))

// NormalizeCode canonicalizes a SKU code: trim, strip zero-width characters,
// uppercase.
func NormalizeCode(raw string) string {
	s, _, err := transform.String(zeroWidthStripper, raw)
	if err != nil {
		s = raw
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseNumber parses a numeric cell using the locale rules seen in the source
// files: a value containing '.' but not ',' uses '.' as a thousands separator;
// the symmetric rule applies for ','. Anything else is parsed literally.
// Unparsable values yield 0, never an error.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && !hasComma:
		s = strings.ReplaceAll(s, ".", "")
	case hasComma && !hasDot:
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseInt is ParseNumber truncated to an integer.
func ParseInt(raw string) int {
	return int(ParseNumber(raw))
}

// Spreadsheet serial dates count days from 1899-12-30; 25569 is the offset to
// the Unix epoch.
const serialEpochOffset = 25569

// ParseDate interprets a date cell. Numeric cells are spreadsheet serial day
// counts; "d/m/yyyy" strings are rearranged; plain strings are tried as ISO
// dates. The second return value is false when nothing usable was found.
func ParseDate(cell any) (time.Time, bool) {
	switch v := cell.(type) {
	case float64:
		if v <= 0 {
			return time.Time{}, false
		}
		secs := int64((v - serialEpochOffset) * 86400)
		return time.Unix(secs, 0).UTC().Truncate(24 * time.Hour), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}, false
		}
		if strings.Contains(s, "/") {
			parts := strings.Split(s, "/")
			if len(parts) == 3 {
				if t, err := time.Parse("2006-1-2", parts[2]+"-"+parts[1]+"-"+parts[0]); err == nil {
					return t, true
				}
			}
			return time.Time{}, false
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Column layout detection. Peer-warehouse extracts do not share a fixed
// layout: some carry a header row naming the code and quantity columns,
// others start straight at the data using the legacy fixed positions.

// headerScanRows is how deep DetectColumns looks for a header row.
const headerScanRows = 10

var (
	codeHeaderTokens  = []string{"mã sp", "ma sp", "mã hàng", "sku", "code"}
	stockHeaderTokens = []string{"tồn kho", "ton kho", "tồn", "sl", "qty", "quantity", "stock"}
	labelHeaderTokens = []string{"kho", "chi nhánh", "warehouse", "branch"}
)

// Layout is a resolved column layout for a peer-warehouse document.
type Layout struct {
	Code  int
	Name  int
	Stock int
	Label int // warehouse-name column, -1 when absent
	// DataFrom is the first row index holding data (past a detected header).
	DataFrom int
}

// DefaultLayout is the legacy fixed positioning: code in column B, name in C,
// stock in E, no label column.
func DefaultLayout() Layout {
	return Layout{Code: 1, Name: 2, Stock: 4, Label: -1, DataFrom: 0}
}

// DetectColumns scans the first rows of a document for header tokens naming
// the code and quantity columns. When both are found the detected indices are
// used; otherwise the fixed default positions apply.
func DetectColumns(rows Rows) Layout {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		codeIdx, stockIdx, labelIdx := -1, -1, -1
		for j := range rows[i] {
			cell := strings.ToLower(rows[i].String(j))
			if cell == "" {
				continue
			}
			switch {
			case codeIdx < 0 && matchesToken(cell, codeHeaderTokens):
				codeIdx = j
			case stockIdx < 0 && matchesToken(cell, stockHeaderTokens):
				stockIdx = j
			case labelIdx < 0 && matchesToken(cell, labelHeaderTokens):
				labelIdx = j
			}
		}
		if codeIdx >= 0 && stockIdx >= 0 {
			return Layout{Code: codeIdx, Name: codeIdx + 1, Stock: stockIdx, Label: labelIdx, DataFrom: i + 1}
		}
	}
	return DefaultLayout()
}

// IsHeaderCell reports whether a code cell is actually a header token, so the
// row should be skipped during normalization.
func IsHeaderCell(s string) bool {
	return matchesToken(strings.ToLower(strings.TrimSpace(s)), codeHeaderTokens)
}

func matchesToken(cell string, tokens []string) bool {
	for _, t := range tokens {
		// Short tokens ("sl", "kho") must match the whole cell or they would
		// fire on ordinary product names.
		if len(t) <= 3 {
			if cell == t {
				return true
			}
			continue
		}
		if strings.Contains(cell, t) {
			return true
		}
	}
	return false
}
