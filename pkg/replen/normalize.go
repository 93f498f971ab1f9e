package replen

import (
	"github.com/starlogistic/replen/pkg/tabular"
)

// Fixed column positions of the legacy exports. The home ledger always uses
// this layout; peer-warehouse files fall back to it when no header row is
// detected (see tabular.DetectColumns).
const (
	homeColCode     = 1  // B
	homeColName     = 2  // C
	homeColStock    = 4  // E
	homeColPrice    = 5  // F
	homeColPending  = 18 // S
	homeColMaxStock = 24 // Y
	homeColAH       = 33 // AH

	branchColMaxStock = 24 // Y, display quota in the showroom file

	salesColCode = 0  // A
	salesColSold = 10 // K

	displayColCode      = 0 // A
	displayColDate      = 1 // B
	displayColCondition = 2 // C

	slowColCode   = 0 // A
	slowColStock  = 2 // C
	slowColMonths = 6 // G
)

// normalizeHome turns home-ledger rows into ordered stock records. Duplicate
// codes within the file sum stock and pending orders; the remaining fields
// keep the first occurrence. Short rows, header rows, and rows without a code
// are skipped.
func normalizeHome(rows tabular.Rows, sentinelMax int) []*StockRecord {
	var out []*StockRecord
	index := make(map[string]*StockRecord)

	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		raw := row.String(homeColCode)
		if raw == "" || tabular.IsHeaderCell(raw) {
			continue
		}
		code := tabular.NormalizeCode(raw)

		if rec, ok := index[code]; ok {
			rec.Stock += clampNonNegative(row.Int(homeColStock))
			rec.PendingOrders += clampNonNegative(row.Int(homeColPending))
			continue
		}

		maxStock := sentinelMax
		if !row.Blank(homeColMaxStock) {
			maxStock = row.Int(homeColMaxStock)
		}

		rec := &StockRecord{
			Code:          code,
			Name:          row.String(homeColName),
			Stock:         clampNonNegative(row.Int(homeColStock)),
			MaxStock:      maxStock,
			Price:         row.Float(homeColPrice),
			PendingOrders: clampNonNegative(row.Int(homeColPending)),
			AHCoefficient: row.Int(homeColAH),
		}
		index[code] = rec
		out = append(out, rec)
	}
	return out
}

// normalizeBranch turns a peer-warehouse document into a code-keyed entry map
// plus the in-row warehouse label, when one was found. Duplicates sum stock
// and keep the maximum max-stock seen.
func normalizeBranch(rows tabular.Rows) (map[string]*WarehouseEntry, string) {
	layout := tabular.DetectColumns(rows)
	entries := make(map[string]*WarehouseEntry)
	label := ""

	for i := layout.DataFrom; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 2 {
			continue
		}
		raw := row.String(layout.Code)
		if raw == "" || tabular.IsHeaderCell(raw) {
			continue
		}
		code := tabular.NormalizeCode(raw)

		originLabel := ""
		if layout.Label >= 0 {
			originLabel = row.String(layout.Label)
			if label == "" {
				label = originLabel
			}
		}

		maxStock := 0
		if !row.Blank(branchColMaxStock) {
			maxStock = row.Int(branchColMaxStock)
		}

		if e, ok := entries[code]; ok {
			e.Stock += clampNonNegative(row.Int(layout.Stock))
			if maxStock > e.MaxStock {
				e.MaxStock = maxStock
			}
			continue
		}
		entries[code] = &WarehouseEntry{
			Code:        code,
			Name:        row.String(layout.Name),
			Stock:       clampNonNegative(row.Int(layout.Stock)),
			MaxStock:    maxStock,
			OriginLabel: originLabel,
		}
	}
	return entries, label
}

// normalizeSales sums 30-day sold units per code. One code commonly recurs
// across several rows, so values accumulate and are never overwritten.
func normalizeSales(rows tabular.Rows) map[string]int {
	stats := make(map[string]int)
	for _, row := range rows {
		if len(row) < 1 {
			continue
		}
		raw := row.String(salesColCode)
		if raw == "" || tabular.IsHeaderCell(raw) {
			continue
		}
		code := tabular.NormalizeCode(raw)
		stats[code] += clampNonNegative(row.Int(salesColSold))
	}
	return stats
}

// normalizeDisplay parses the display-tracking extract. Rows without a usable
// start date are skipped: a display fact without a date cannot age.
func normalizeDisplay(rows tabular.Rows) map[string]DisplayRecord {
	out := make(map[string]DisplayRecord)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		raw := row.String(displayColCode)
		if raw == "" || tabular.IsHeaderCell(raw) {
			continue
		}
		start, ok := tabular.ParseDate(row[displayColDate])
		if !ok {
			continue
		}
		rawCond := row.String(displayColCondition)
		out[tabular.NormalizeCode(raw)] = DisplayRecord{
			StartDate:    start,
			Condition:    FoldCondition(rawCond),
			RawCondition: rawCond,
		}
	}
	return out
}

// normalizeSlow parses the slow-moving-stock report.
func normalizeSlow(rows tabular.Rows) map[string]SlowStockRecord {
	out := make(map[string]SlowStockRecord)
	for _, row := range rows {
		if len(row) < 1 {
			continue
		}
		raw := row.String(slowColCode)
		if raw == "" || tabular.IsHeaderCell(raw) {
			continue
		}
		out[tabular.NormalizeCode(raw)] = SlowStockRecord{
			ReportedStock: clampNonNegative(row.Int(slowColStock)),
			MonthsUnsold:  row.Float(slowColMonths),
		}
	}
	return out
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
