package replen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalculator() *calculator {
	return &calculator{
		cfg: DefaultConfig(),
		now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func branchOf(name string, priority int, stock map[string]int) *branchState {
	entries := make(map[string]*WarehouseEntry, len(stock))
	for code, qty := range stock {
		entries[code] = &WarehouseEntry{Code: code, Name: name + " " + code, Stock: qty}
	}
	return newBranchState(name, priority, entries)
}

func TestCategorize_PrefixOrder(t *testing.T) {
	c := testCalculator()

	assert.Equal(t, "VGA", c.categorize("V.RTX4060", ""))
	assert.Equal(t, "Mainboard", c.categorize("M.B660M", ""))
	// Longer prefixes must win over their one-letter overlaps.
	assert.Equal(t, "Desktop PC", c.categorize("MB.I512", ""))
	assert.Equal(t, "Mouse", c.categorize("MO.LOGI", ""))
	assert.Equal(t, "Laptop", c.categorize("LT.ASUS", ""))
	assert.Equal(t, "Monitor", c.categorize("L.LG24", ""))
	assert.Equal(t, "Thermal Paste", c.categorize("KTN.MX4", ""))
	assert.Equal(t, "Other", c.categorize("ZZZ.1", "Unknown thing"))
}

func TestCategorize_KeywordFallback(t *testing.T) {
	c := testCalculator()
	assert.Equal(t, "Chair", c.categorize("XX.1", "Ghế công thái học"))
	assert.Equal(t, "Desk", c.categorize("XX.2", "Bàn nâng hạ"))
}

func TestTargetDays(t *testing.T) {
	c := testCalculator()
	assert.Equal(t, 4, c.targetDays("VGA"))
	assert.Equal(t, 4, c.targetDays("Laptop"))
	assert.Equal(t, 7, c.targetDays("Keyboard"))
	assert.Equal(t, 7, c.targetDays("Other"))
}

func TestVelocity(t *testing.T) {
	c := testCalculator()
	assert.Equal(t, VelocityHot, c.velocity(10, 6))
	assert.Equal(t, VelocityNormal, c.velocity(10, 5))
	assert.Equal(t, VelocitySlow, c.velocity(10, 0))
	assert.Equal(t, VelocityNormal, c.velocity(0, 3))
}

// Zero stock with sales: critical, target from run rate, nothing pullable
// without branches.
func TestEvaluate_ZeroStockCritical(t *testing.T) {
	c := testCalculator()
	item := &StockRecord{Code: "V.100", Name: "VGA 100", Stock: 0, MaxStock: 9999, Price: 5000000}

	rec := c.evaluate(item, 10, nil, nil, nil, nil)

	assert.Equal(t, "VGA", rec.Category)
	assert.Equal(t, 4, rec.TargetDays)
	assert.InDelta(t, 0.33, rec.DailyRunRate, 0.01)
	assert.Equal(t, 2, rec.TargetStock)
	assert.Equal(t, UrgencyCritical, rec.Urgency)
	assert.Equal(t, 2, rec.NeedsRestock)
	assert.Equal(t, 0, rec.CanPull)
	assert.Equal(t, 2, rec.MissingQuantity)
	assert.Equal(t, StatusCritical, rec.Status)
}

// Hot seller under the refill alert level pulls back up to max.
func TestEvaluate_HotPullOverride(t *testing.T) {
	c := testCalculator()
	item := &StockRecord{Code: "M.1", Name: "Main 1", Stock: 15, MaxStock: 50, Price: 2000000}

	rec := c.evaluate(item, 40, nil, nil, nil, nil)

	assert.Equal(t, VelocityHot, rec.Velocity)
	assert.Equal(t, 35, rec.NeedsRestock)
	assert.NotEmpty(t, rec.PullReason)
	assert.NotContains(t, rec.PullReason, "ceiling")
}

// The AH coefficient ceiling caps the suggested pull and explains itself.
func TestEvaluate_PullCeilingClamp(t *testing.T) {
	c := testCalculator()
	item := &StockRecord{
		Code: "L.1", Name: "Monitor 1",
		Stock: 0, MaxStock: 5, Price: 3000000,
		PendingOrders: 5, AHCoefficient: 125,
	}

	rec := c.evaluate(item, 0, nil, nil, nil, nil)

	// suggestedPull = 5 - 0 + 5 = 10; 125 + 10 > 130 clamps to 5.
	assert.Equal(t, 5, rec.NeedsRestock)
	assert.Contains(t, rec.PullReason, "ceiling")
	assert.Contains(t, rec.PullReason, "10")
}

func TestEvaluate_CriticalFloorWhenNoNeed(t *testing.T) {
	c := testCalculator()
	// Sold recently, three left, but the target computes to no need because
	// stock already covers it.
	item := &StockRecord{Code: "KB.1", Name: "Keyboard 1", Stock: 3, MaxStock: 9999, Price: 500000}

	rec := c.evaluate(item, 2, nil, nil, nil, nil)

	require.Equal(t, UrgencyCritical, rec.Urgency)
	assert.Equal(t, 5, rec.NeedsRestock)
}

func TestEvaluate_CriticalFloorRespectsExplicitMax(t *testing.T) {
	c := testCalculator()
	item := &StockRecord{Code: "KB.2", Name: "Keyboard 2", Stock: 3, MaxStock: 4, Price: 500000}

	rec := c.evaluate(item, 2, nil, nil, nil, nil)

	require.Equal(t, UrgencyCritical, rec.Urgency)
	// Floor of 5 re-clamped to the one unit of shelf space left.
	assert.Equal(t, 1, rec.NeedsRestock)
}

func TestEvaluate_DiscontinuedSkipsFloorAndMissing(t *testing.T) {
	c := testCalculator()
	item := &StockRecord{Code: "V.OLD", Name: "0.VGA cũ", Stock: 0, MaxStock: 9999, Price: 1000000}

	rec := c.evaluate(item, 0, nil, nil, nil, nil)

	assert.True(t, rec.IsDiscontinued)
	assert.Equal(t, UrgencyNormal, rec.Urgency)
	assert.Equal(t, 0, rec.TargetStock)
	assert.Equal(t, 0, rec.NeedsRestock)
	assert.Equal(t, 0, rec.MissingQuantity)
}

func TestEvaluate_CoverDaysSentinel(t *testing.T) {
	c := testCalculator()
	item := &StockRecord{Code: "U.1", Name: "Hub 1", Stock: 8, MaxStock: 9999, Price: 200000}

	rec := c.evaluate(item, 0, nil, nil, nil, nil)

	assert.Equal(t, 999.0, rec.StockCoverDays)
	assert.Equal(t, VelocitySlow, rec.Velocity)
	assert.Equal(t, UrgencyNormal, rec.Urgency)
}

func TestEvaluate_SourcingAllocationByPriority(t *testing.T) {
	c := testCalculator()
	primary := branchOf("64TDH", 1, map[string]int{"V.1": 3})
	secondary := branchOf("7BC", 2, map[string]int{"V.1": 10})
	item := &StockRecord{Code: "V.1", Name: "VGA 1", Stock: 0, MaxStock: 9999, Price: 5000000}

	rec := c.evaluate(item, 30, nil, nil, nil, []*branchState{primary, secondary})

	// runRate 1.0, targetDays 4, need 4: 3 from primary, 1 from secondary.
	require.Len(t, rec.Sourcing, 2)
	assert.Equal(t, "64TDH", rec.Sourcing[0].SourceWarehouse)
	assert.Equal(t, 3, rec.Sourcing[0].Quantity)
	assert.Equal(t, 3, rec.Sourcing[0].SourceStockAtPlanning)
	assert.Equal(t, "7BC", rec.Sourcing[1].SourceWarehouse)
	assert.Equal(t, 1, rec.Sourcing[1].Quantity)
	assert.Equal(t, 10, rec.Sourcing[1].SourceStockAtPlanning)

	assert.Equal(t, 4, rec.CanPull)
	assert.Equal(t, 0, rec.MissingQuantity)
	assert.Equal(t, 0, primary.remaining["V.1"])
	assert.Equal(t, 9, secondary.remaining["V.1"])
}

func TestEvaluate_AllocationSharedAcrossSKUs(t *testing.T) {
	c := testCalculator()
	primary := branchOf("64TDH", 1, map[string]int{"V.1": 3})
	branches := []*branchState{primary}

	first := c.evaluate(&StockRecord{Code: "V.1", Name: "VGA 1", Stock: 0, MaxStock: 9999, Price: 1},
		30, nil, nil, nil, branches)
	require.Equal(t, 3, first.CanPull)

	// A duplicate evaluation sees the already consumed view.
	second := c.evaluate(&StockRecord{Code: "V.1", Name: "VGA 1", Stock: 0, MaxStock: 9999, Price: 1},
		30, nil, nil, nil, branches)
	assert.Equal(t, 0, second.CanPull)
	assert.Equal(t, second.NeedsRestock, second.MissingQuantity)
	assert.Empty(t, second.AllWarehouses)
}

func TestEvaluate_NewArrival(t *testing.T) {
	c := testCalculator()
	primary := branchOf("64TDH", 1, map[string]int{"LT.NEW": 6})
	item := &StockRecord{Code: "LT.NEW", Name: "Laptop XYZ new 2024", Stock: 0, MaxStock: 9999, Price: 20000000}

	rec := c.evaluate(item, 0, nil, nil, nil, []*branchState{primary})

	assert.True(t, rec.IsNewArrival)
	assert.Equal(t, StatusReview, rec.Status)
	assert.Equal(t, UrgencyLow, rec.Urgency)
	assert.Equal(t, 2, rec.NeedsRestock)
	assert.Equal(t, 2, rec.CanPull)
}

func TestReconcileDisplay_Flags(t *testing.T) {
	c := testCalculator()

	// On shelf, nothing at home.
	solo := &Recommendation{Code: "L.1", Category: "Monitor", HomeStock: 0}
	c.reconcileDisplay(solo, &WarehouseEntry{Stock: 1}, nil)
	assert.True(t, solo.IsTbaSolo)
	assert.False(t, solo.ShouldDisplay)

	// Home stock present, display category, nothing on shelf.
	missing := &Recommendation{Code: "L.2", Category: "Monitor", HomeStock: 4}
	c.reconcileDisplay(missing, nil, nil)
	assert.True(t, missing.ShouldDisplay)
	assert.Equal(t, 1, missing.DisplayMaxStock)

	// Non-display category never asks for a shelf slot.
	paste := &Recommendation{Code: "KTN.1", Category: "Thermal Paste", HomeStock: 4}
	c.reconcileDisplay(paste, nil, nil)
	assert.False(t, paste.ShouldDisplay)
}

func TestReconcileDisplay_ReturnNeeded(t *testing.T) {
	c := testCalculator()
	old := c.now.AddDate(0, 0, -30)
	fresh := c.now.AddDate(0, 0, -5)

	rec := &Recommendation{Code: "L.1", Category: "Monitor", HomeStock: 2}
	c.reconcileDisplay(rec, &WarehouseEntry{Stock: 1}, &DisplayRecord{StartDate: old, Condition: ConditionNew})
	assert.True(t, rec.IsReturnNeeded)

	rec = &Recommendation{Code: "L.2", Category: "Monitor", HomeStock: 2}
	c.reconcileDisplay(rec, &WarehouseEntry{Stock: 1}, &DisplayRecord{StartDate: fresh, Condition: ConditionNew})
	assert.False(t, rec.IsReturnNeeded)

	// Partial days round up, so 20.5 days on shelf crosses the threshold.
	halfPast := c.now.Add(-(20*24 + 12) * time.Hour)
	rec = &Recommendation{Code: "L.4", Category: "Monitor", HomeStock: 2}
	c.reconcileDisplay(rec, &WarehouseEntry{Stock: 1}, &DisplayRecord{StartDate: halfPast, Condition: ConditionNew})
	assert.True(t, rec.IsReturnNeeded)

	// Scratched units age without triggering a return.
	rec = &Recommendation{Code: "L.3", Category: "Monitor", HomeStock: 2}
	c.reconcileDisplay(rec, &WarehouseEntry{Stock: 1}, &DisplayRecord{StartDate: old, Condition: ConditionScratched})
	assert.False(t, rec.IsReturnNeeded)
}
