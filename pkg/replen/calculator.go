package replen

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// branchState is the per-run view of one branch warehouse: the normalized
// entries plus the remaining pullable stock, which sourcing allocation
// consumes as SKUs are processed in sequence. Built once per run, never
// re-read from the source rows.
type branchState struct {
	name      string
	priority  int
	entries   map[string]*WarehouseEntry
	remaining map[string]int
}

func newBranchState(name string, priority int, entries map[string]*WarehouseEntry) *branchState {
	remaining := make(map[string]int, len(entries))
	for code, e := range entries {
		remaining[code] = e.Stock
	}
	return &branchState{name: name, priority: priority, entries: entries, remaining: remaining}
}

// calculator evaluates one SKU at a time against the read-only registry state
// and the shared remaining-stock view.
type calculator struct {
	cfg Config
	now time.Time
}

// categorize runs the ordered category table: prefix rules against the
// normalized code, keyword rules against the lowercased name, first match
// wins, then the default label.
func (c *calculator) categorize(code, name string) string {
	lname := strings.ToLower(name)
	for _, rule := range c.cfg.CategoryRules {
		if rule.Prefix != "" && strings.HasPrefix(code, rule.Prefix) {
			return rule.Label
		}
		if rule.Keyword != "" && strings.Contains(lname, rule.Keyword) {
			return rule.Label
		}
	}
	return c.cfg.DefaultCategory
}

func (c *calculator) targetDays(category string) int {
	for _, fast := range c.cfg.FastCategories {
		if category == fast {
			return c.cfg.FastTargetDays
		}
	}
	return c.cfg.DefaultTargetDays
}

// defaultDisplayQuota is the fallback showroom quota when the display file
// carries no explicit max for the SKU.
func (c *calculator) defaultDisplayQuota(category string) int {
	for _, d := range c.cfg.DisplayCategories {
		if category == d {
			return 1
		}
	}
	return 0
}

func (c *calculator) isDiscontinued(name string) bool {
	return strings.HasPrefix(strings.TrimSpace(name), c.cfg.DiscontinuedPrefix)
}

// velocity classifies sell-through: Hot when sales in the window exceed
// HotSalesRatio x on-hand stock, Slow when nothing sold.
func (c *calculator) velocity(homeStock, sold int) Velocity {
	switch {
	case homeStock > 0 && float64(sold) > c.cfg.HotSalesRatio*float64(homeStock):
		return VelocityHot
	case sold == 0:
		return VelocitySlow
	default:
		return VelocityNormal
	}
}

// evaluate computes the full recommendation for one home-ledger SKU,
// consuming branch stock for whatever it allocates.
func (c *calculator) evaluate(item *StockRecord, sold int, displayEntry *WarehouseEntry,
	display *DisplayRecord, slow *SlowStockRecord, branches []*branchState) *Recommendation {

	isDiscontinued := c.isDiscontinued(item.Name)
	category := c.categorize(item.Code, item.Name)
	targetDays := c.targetDays(category)

	runRate := float64(sold) / float64(c.cfg.ObservationDays)
	targetStock := int(math.Ceil(runRate * float64(targetDays)))
	if !isDiscontinued && targetStock < 1 {
		targetStock = 1
	}

	space := item.MaxStock - item.Stock
	if space < 0 {
		space = 0
	}
	need := targetStock - item.Stock
	if need < 0 {
		need = 0
	}
	if need > space {
		need = space
	}

	// Velocity override: a hot seller (or a SKU eaten up by pending orders)
	// refills straight to max, capped by the AH coefficient ceiling. Refilling
	// to max only makes sense when an explicit max is configured, so SKUs on
	// the blank-column sentinel are exempt.
	vel := c.velocity(item.Stock, sold)
	effective := item.Stock - item.PendingOrders
	pullReason := ""
	if item.MaxStock < c.cfg.MaxStockSentinel {
		switch {
		case vel == VelocityHot && float64(effective) < c.cfg.HotRefillRatio*float64(item.MaxStock):
			pullReason = fmt.Sprintf("hot seller: %d sold in %d days against %d on hand, stock under alert level",
				sold, c.cfg.ObservationDays, item.Stock)
		case effective <= 0 && (item.Stock > 0 || item.PendingOrders > 0):
			pullReason = "stock exhausted or consumed by pending orders"
		}
	}
	if pullReason != "" {
		suggested := item.MaxStock - item.Stock + item.PendingOrders
		if suggested < 0 {
			suggested = 0
		}
		if item.AHCoefficient+suggested > c.cfg.PullCeiling {
			allowed := c.cfg.PullCeiling - item.AHCoefficient
			if allowed < 0 {
				allowed = 0
			}
			if allowed < suggested {
				pullReason += fmt.Sprintf(" (reduced: AH coefficient would pass the %d ceiling, initial suggestion %d)",
					c.cfg.PullCeiling, suggested)
				suggested = allowed
			}
		}
		need = suggested
	}

	// Urgency.
	coverDays := 0.0
	switch {
	case runRate > 0:
		coverDays = float64(item.Stock) / runRate
	case item.Stock > 0:
		coverDays = c.cfg.CoverDaysSentinel
	}
	urgency := UrgencyNormal
	if !isDiscontinued {
		switch {
		case item.Stock == 0:
			urgency = UrgencyCritical
		case item.Stock <= c.cfg.CriticalStockThreshold && sold > 0:
			urgency = UrgencyCritical
		case coverDays < c.cfg.CriticalCoverDays && sold > 0:
			urgency = UrgencyCritical
		}
	}

	// A freshly introduced SKU that has not reached the shelf yet is routed
	// to review instead of the critical queue, with a starter pull.
	isNewArrival := false
	if !isDiscontinued && sold == 0 && item.Stock == 0 &&
		c.isNewArrivalName(item.Name) && anyBranchHolds(item.Code, branches) {
		isNewArrival = true
		urgency = UrgencyLow
		if need < c.cfg.NewArrivalPull {
			need = c.cfg.NewArrivalPull
		}
	}

	// A critical SKU with no computed need still gets a minimum refill,
	// bounded by any explicitly configured ceiling.
	if urgency == UrgencyCritical && need == 0 {
		need = c.cfg.CriticalFloor
		if item.MaxStock < c.cfg.MaxStockSentinel && need > space {
			need = space
		}
	}

	rec := &Recommendation{
		Code:           item.Code,
		Name:           item.Name,
		Category:       category,
		HomeStock:      item.Stock,
		MaxStock:       item.MaxStock,
		TargetDays:     targetDays,
		TargetStock:    targetStock,
		Sold30Days:     sold,
		DailyRunRate:   round2(runRate),
		StockCoverDays: round1(coverDays),
		Price:          item.Price,
		Revenue30Days:  item.Price * float64(sold),
		PendingOrders:  item.PendingOrders,
		AHCoefficient:  item.AHCoefficient,
		PullReason:     pullReason,
		Velocity:       vel,
		Urgency:        urgency,
		IsDiscontinued: isDiscontinued,
		IsNewArrival:   isNewArrival,
		IsBestSeller:   sold >= c.cfg.BestSellerThreshold,
		Display:        display,
		SlowStock:      slow,
	}

	c.reconcileDisplay(rec, displayEntry, display)
	c.allocate(rec, need, branches)

	switch {
	case isNewArrival:
		rec.Status = StatusReview
	case urgency == UrgencyCritical:
		rec.Status = StatusCritical
	case item.MaxStock < c.cfg.MaxStockSentinel && item.Stock > item.MaxStock:
		rec.Status = StatusOverstock
	case rec.NeedsRestock > 0 || rec.IsTbaSolo || rec.ShouldDisplay || rec.IsReturnNeeded || slow != nil:
		rec.Status = StatusWarning
	default:
		rec.Status = StatusHealthy
	}

	return rec
}

// reconcileDisplay fills the showroom fields: actual display stock, the quota
// (explicit or category default), and the shelf flags.
func (c *calculator) reconcileDisplay(rec *Recommendation, displayEntry *WarehouseEntry, display *DisplayRecord) {
	displayStock := 0
	displayMax := 0
	if displayEntry != nil {
		displayStock = displayEntry.Stock
		displayMax = displayEntry.MaxStock
	}
	quota := c.defaultDisplayQuota(rec.Category)
	quotaUnset := displayMax < 1
	if quotaUnset && !rec.IsDiscontinued {
		displayMax = quota
	}

	rec.DisplayStock = displayStock
	rec.DisplayMaxStock = displayMax
	rec.IsTbaSolo = displayStock > 0 && rec.HomeStock == 0

	shortOfQuota := displayMax >= 1 && displayStock < displayMax
	noShelfPresence := displayMax < 1 && displayStock == 0 && quota > 0
	rec.ShouldDisplay = !rec.IsDiscontinued && rec.HomeStock > 0 && (shortOfQuota || noShelfPresence)

	if displayStock > 0 && display != nil && display.Condition == ConditionNew {
		days := int(math.Ceil(c.now.Sub(display.StartDate).Hours() / 24))
		if days > c.cfg.DisplayReturnDays {
			rec.IsReturnNeeded = true
		}
	}
}

// allocate walks branches by ascending priority (input order among ties),
// pulling from each until the need is met. The remaining-stock view is shared
// across the run, so stock a previous SKU claimed is gone.
func (c *calculator) allocate(rec *Recommendation, need int, branches []*branchState) {
	remainingNeed := need
	for _, br := range branches {
		avail := br.remaining[rec.Code]
		if avail > 0 {
			rec.AllWarehouses = append(rec.AllWarehouses, WarehouseStock{Name: br.name, Stock: avail})
		}
		if remainingNeed <= 0 || avail <= 0 {
			continue
		}
		take := avail
		if take > remainingNeed {
			take = remainingNeed
		}
		rec.Sourcing = append(rec.Sourcing, SourcingPlan{
			SourceWarehouse:       br.name,
			Quantity:              take,
			SourceStockAtPlanning: avail,
		})
		br.remaining[rec.Code] = avail - take
		remainingNeed -= take
	}

	rec.NeedsRestock = need
	rec.CanPull = need - remainingNeed
	if rec.IsDiscontinued {
		rec.MissingQuantity = 0
	} else {
		rec.MissingQuantity = remainingNeed
	}
}

// isNewArrivalName matches the curated naming markers of a newly introduced
// SKU.
func (c *calculator) isNewArrivalName(name string) bool {
	n := strings.ToLower(name)
	for _, kw := range c.cfg.NewArrivalKeywords {
		if kw != "" && strings.Contains(n, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func anyBranchHolds(code string, branches []*branchState) bool {
	for _, br := range branches {
		if br.remaining[code] > 0 {
			return true
		}
	}
	return false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
