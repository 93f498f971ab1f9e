package replen

import "sort"

var abcRank = map[ABCClass]int{ClassA: 0, ClassB: 1, ClassC: 2, ClassN: 3}

// sortRecommendations orders the output for review: critical SKUs first, then
// revenue tier, with new arrivals ahead of regular replenishments inside a
// tier, largest needs first. The sort is stable, so input order breaks the
// remaining ties and repeated runs on the same data produce identical output.
func sortRecommendations(recs []*Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if (a.Urgency == UrgencyCritical) != (b.Urgency == UrgencyCritical) {
			return a.Urgency == UrgencyCritical
		}
		if ra, rb := abcRank[a.ABCClass], abcRank[b.ABCClass]; ra != rb {
			return ra < rb
		}
		if a.IsNewArrival != b.IsNewArrival {
			return a.IsNewArrival
		}
		return a.NeedsRestock > b.NeedsRestock
	})
}
