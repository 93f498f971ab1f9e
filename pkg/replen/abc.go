package replen

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// classifyABC assigns Pareto revenue tiers across the run's sold SKUs and
// tops up class A and B needs with a safety stock bonus. SKUs with no sales
// in the window land in class N and are never adjusted.
//
// Revenue sums use decimal arithmetic so the cumulative-share walk is not
// sensitive to float accumulation order.
func (c *calculator) classifyABC(recs []*Recommendation) {
	sold := make([]*Recommendation, 0, len(recs))
	for _, r := range recs {
		if r.Sold30Days > 0 {
			sold = append(sold, r)
		} else {
			r.ABCClass = ClassN
		}
	}
	if len(sold) == 0 {
		return
	}

	metric := func(r *Recommendation) decimal.Decimal {
		return decimal.NewFromFloat(r.Price).Mul(decimal.NewFromInt(int64(r.Sold30Days)))
	}
	total := decimal.Zero
	for _, r := range sold {
		total = total.Add(metric(r))
	}
	// Prices all missing: fall back to unit volume so the walk still ranks.
	if total.IsZero() {
		metric = func(r *Recommendation) decimal.Decimal {
			return decimal.NewFromInt(int64(r.Sold30Days))
		}
		for _, r := range sold {
			total = total.Add(metric(r))
		}
	}

	sort.SliceStable(sold, func(i, j int) bool {
		return metric(sold[i]).GreaterThan(metric(sold[j]))
	})

	pctA := decimal.NewFromInt(80)
	pctB := decimal.NewFromInt(95)
	hundred := decimal.NewFromInt(100)
	cum := decimal.Zero
	for _, r := range sold {
		cum = cum.Add(metric(r))
		share := cum.Mul(hundred).Div(total)
		switch {
		case share.LessThanOrEqual(pctA):
			r.ABCClass = ClassA
		case share.LessThanOrEqual(pctB):
			r.ABCClass = ClassB
		default:
			r.ABCClass = ClassC
		}
	}

	for _, r := range sold {
		c.applySafetyBonus(r)
	}
}

// applySafetyBonus widens the restock target by extra days of cover for the
// top revenue tiers, then re-clamps against shelf space. The adjusted need
// never drops below what was already allocated, so the sourcing split stays
// consistent (MissingQuantity + CanPull == NeedsRestock).
func (c *calculator) applySafetyBonus(r *Recommendation) {
	days := 0
	switch r.ABCClass {
	case ClassA:
		days = c.cfg.ClassABonusDays
	case ClassB:
		days = c.cfg.ClassBBonusDays
	default:
		return
	}
	if r.IsDiscontinued {
		return
	}

	bonus := int(math.Ceil(r.DailyRunRate * float64(days)))
	if bonus <= 0 {
		return
	}
	r.SafetyStockBonus = bonus

	adjusted := r.NeedsRestock + bonus
	space := r.MaxStock - r.HomeStock
	if space < 0 {
		space = 0
	}
	if adjusted > space {
		adjusted = space
	}
	if adjusted < r.CanPull {
		adjusted = r.CanPull
	}
	r.NeedsRestock = adjusted
	r.MissingQuantity = adjusted - r.CanPull
}
