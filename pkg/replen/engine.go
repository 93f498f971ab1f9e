package replen

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/starlogistic/replen/pkg/logger"
	"github.com/starlogistic/replen/pkg/tabular"
	"github.com/starlogistic/replen/pkg/warehouse"
)

// Input bundles the raw documents of one planning run. The home ledger and
// the sales extract are required; everything else is optional.
type Input struct {
	HomeRows  tabular.Rows
	SalesRows tabular.Rows

	// Branches holds every peer-warehouse extract, the showroom included.
	// Documents tagged RoleAuto go through the name/content role detector.
	Branches []warehouse.Document

	DisplayRows tabular.Rows
	SlowRows    tabular.Rows

	// Overlay overrides parsed display facts per SKU code. It is read only.
	Overlay map[string]DisplayRecord

	// Now anchors day counting for display aging. Zero means wall clock.
	Now time.Time
}

// Report is the outcome of one engine run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Duration    time.Duration

	HomeSKUs        int
	SalesLines      int
	BranchDocs      int
	DisplayReplaced int
	Excluded        int

	Recommendations []Recommendation
}

// Engine runs the replenishment computation. It is stateless between runs and
// safe for concurrent use.
type Engine struct {
	cfg Config
	log zerolog.Logger
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		log: logger.Log.With().Str("component", "engine").Logger(),
	}
}

// Run normalizes every document, reconciles them into one recommendation per
// SKU and returns the sorted result. Parsing of independent documents runs in
// parallel; the reconciliation stages run strictly after, single threaded,
// because sourcing allocation consumes a shared remaining-stock view.
func (e *Engine) Run(ctx context.Context, in Input) (*Report, error) {
	started := time.Now()
	now := in.Now
	if now.IsZero() {
		now = started
	}

	if len(in.HomeRows) == 0 {
		return nil, &IngestError{Doc: "home ledger", Reason: "no rows"}
	}
	if len(in.SalesRows) == 0 {
		return nil, &IngestError{Doc: "sales report", Reason: "no rows"}
	}

	var (
		home  []*StockRecord
		sales map[string]int
		facts map[string]DisplayRecord
		slow  map[string]SlowStockRecord
	)
	branchEntries := make([]map[string]*WarehouseEntry, len(in.Branches))
	branchLabels := make([]string, len(in.Branches))

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		home = normalizeHome(in.HomeRows, e.cfg.MaxStockSentinel)
		if len(home) == 0 {
			return &IngestError{Doc: "home ledger", Reason: "no parseable rows"}
		}
		return nil
	})
	g.Go(func() error {
		sales = normalizeSales(in.SalesRows)
		if len(sales) == 0 {
			return &IngestError{Doc: "sales report", Reason: "no parseable rows"}
		}
		return nil
	})
	g.Go(func() error {
		facts = normalizeDisplay(in.DisplayRows)
		return nil
	})
	g.Go(func() error {
		slow = normalizeSlow(in.SlowRows)
		return nil
	})
	for i := range in.Branches {
		i := i
		g.Go(func() error {
			branchEntries[i], branchLabels[i] = normalizeBranch(in.Branches[i].Rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for code, fact := range in.Overlay {
		facts[tabular.NormalizeCode(code)] = fact
	}

	labels := make(map[string]string, len(in.Branches))
	entriesByName := make(map[string]map[string]*WarehouseEntry, len(in.Branches))
	for i, doc := range in.Branches {
		labels[doc.Name] = branchLabels[i]
		entriesByName[doc.Name] = branchEntries[i]
	}
	classified := warehouse.Classify(in.Branches, labels, e.cfg.Detect)
	if classified.Replaced > 0 {
		e.log.Warn().Int("replaced", classified.Replaced).
			Msg("multiple display documents supplied, keeping the last")
	}

	displayEntries := map[string]*WarehouseEntry{}
	if classified.Display != nil {
		displayEntries = entriesByName[classified.Display.Name]
	}
	branches := make([]*branchState, 0, len(classified.Branches))
	for _, doc := range classified.Branches {
		branches = append(branches, newBranchState(doc.Name, doc.Priority, entriesByName[doc.Name]))
	}

	calc := &calculator{cfg: e.cfg, now: now}
	excluded := 0

	main := e.mainPass(calc, home, sales, displayEntries, facts, slow, branches, &excluded)
	seen := make(map[string]struct{}, len(main))
	for _, r := range main {
		seen[r.Code] = struct{}{}
	}

	recs := main
	recs = appendNew(recs, seen, e.displayOrphanPass(calc, displayEntries, facts, sales, now))
	recs = appendNew(recs, seen, e.branchOrphanPass(calc, branches, displayEntries, sales, slow, &excluded))
	recs = appendNew(recs, seen, e.slowOrphanPass(calc, slow, sales))

	calc.classifyABC(recs)
	sortRecommendations(recs)

	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	report := &Report{
		RunID:           uuid.NewString(),
		GeneratedAt:     now,
		Duration:        time.Since(started),
		HomeSKUs:        len(home),
		SalesLines:      len(sales),
		BranchDocs:      len(classified.Branches),
		DisplayReplaced: classified.Replaced,
		Excluded:        excluded,
		Recommendations: out,
	}
	e.log.Info().
		Str("run_id", report.RunID).
		Int("home_skus", report.HomeSKUs).
		Int("branch_docs", report.BranchDocs).
		Int("recommendations", len(out)).
		Int("excluded", excluded).
		Dur("took", report.Duration).
		Msg("replenishment run complete")
	return report, nil
}

// mainPass evaluates every home-ledger SKU in ledger order.
func (e *Engine) mainPass(calc *calculator, home []*StockRecord, sales map[string]int,
	displayEntries map[string]*WarehouseEntry, facts map[string]DisplayRecord,
	slow map[string]SlowStockRecord, branches []*branchState, excluded *int) []*Recommendation {

	recs := make([]*Recommendation, 0, len(home))
	for _, item := range home {
		if item.Price <= e.cfg.NoisePriceThreshold && !anyBranchLists(item.Code, branches) {
			*excluded++
			e.log.Debug().Str("code", item.Code).Msg("dropped home-only noise entry")
			continue
		}
		var fact *DisplayRecord
		if f, ok := facts[item.Code]; ok {
			fact = &f
		}
		var slowRec *SlowStockRecord
		if s, ok := slow[item.Code]; ok {
			slowRec = &s
		}
		recs = append(recs, calc.evaluate(item, sales[item.Code], displayEntries[item.Code], fact, slowRec, branches))
	}
	return recs
}

// displayOrphanPass emits placeholders for SKUs sitting on the showroom shelf
// with no home-ledger line behind them.
func (e *Engine) displayOrphanPass(calc *calculator, displayEntries map[string]*WarehouseEntry,
	facts map[string]DisplayRecord, sales map[string]int, now time.Time) []*Recommendation {

	var recs []*Recommendation
	for _, code := range sortedCodes(displayEntries) {
		entry := displayEntries[code]
		if entry.Stock <= 0 {
			continue
		}
		rec := &Recommendation{
			Code:         code,
			Name:         entry.Name,
			Category:     calc.categorize(code, entry.Name),
			DisplayStock: entry.Stock,
			Sold30Days:   sales[code],
			MaxStock:     e.cfg.MaxStockSentinel,
			Urgency:      UrgencyLow,
			Velocity:     VelocitySlow,
			Status:       StatusReview,
			IsTbaSolo:    true,
		}
		rec.IsDiscontinued = calc.isDiscontinued(entry.Name)
		if f, ok := facts[code]; ok {
			fact := f
			rec.Display = &fact
			if f.Condition == ConditionNew {
				days := int(math.Ceil(now.Sub(f.StartDate).Hours() / 24))
				if days > e.cfg.DisplayReturnDays {
					rec.IsReturnNeeded = true
				}
			}
		}
		recs = append(recs, rec)
	}
	return recs
}

// branchOrphanPass covers SKUs held only by peer branches: new arrivals get a
// starter pull, stale discontinued echoes are dropped, everything else
// becomes a review placeholder.
func (e *Engine) branchOrphanPass(calc *calculator, branches []*branchState,
	displayEntries map[string]*WarehouseEntry, sales map[string]int,
	slow map[string]SlowStockRecord, excluded *int) []*Recommendation {

	names := make(map[string]string)
	holders := make(map[string]int)
	primaryOnly := make(map[string]bool)
	for _, br := range branches {
		for code, entry := range br.entries {
			if entry.Stock <= 0 {
				continue
			}
			if _, ok := names[code]; !ok {
				names[code] = entry.Name
				primaryOnly[code] = br.priority == 1
			} else if br.priority != 1 {
				primaryOnly[code] = false
			}
			holders[code]++
		}
	}

	var recs []*Recommendation
	for _, code := range sortedCodes(names) {
		name := names[code]
		// Codes with actual display stock were already emitted by the display
		// pass; a zero-stock display row must not mask a branch holding.
		if entry, ok := displayEntries[code]; ok && entry.Stock > 0 {
			continue
		}
		_, inSlow := slow[code]
		if calc.isDiscontinued(name) && primaryOnly[code] && holders[code] == 1 &&
			sales[code] == 0 && !inSlow {
			*excluded++
			e.log.Debug().Str("code", code).Msg("dropped stale discontinued branch echo")
			continue
		}

		rec := &Recommendation{
			Code:     code,
			Name:     name,
			Category: calc.categorize(code, name),
			MaxStock: e.cfg.MaxStockSentinel,

			Sold30Days: sales[code],
			Urgency:    UrgencyLow,
			Velocity:   VelocitySlow,
			Status:     StatusReview,
		}
		rec.IsDiscontinued = calc.isDiscontinued(name)
		if s, ok := slow[code]; ok {
			slowRec := s
			rec.SlowStock = &slowRec
		}

		if !rec.IsDiscontinued && sales[code] == 0 && calc.isNewArrivalName(name) {
			rec.IsNewArrival = true
			calc.allocate(rec, e.cfg.NewArrivalPull, branches)
		} else {
			calc.allocate(rec, 0, branches)
		}
		recs = append(recs, rec)
	}
	return recs
}

// slowOrphanPass emits review placeholders for SKUs known only from the
// slow-moving-stock report.
func (e *Engine) slowOrphanPass(calc *calculator, slow map[string]SlowStockRecord,
	sales map[string]int) []*Recommendation {

	var recs []*Recommendation
	for _, code := range sortedCodes(slow) {
		s := slow[code]
		slowRec := s
		recs = append(recs, &Recommendation{
			Code:       code,
			Category:   calc.categorize(code, ""),
			MaxStock:   e.cfg.MaxStockSentinel,
			HomeStock:  s.ReportedStock,
			Sold30Days: sales[code],
			Urgency:    UrgencyLow,
			Velocity:   VelocitySlow,
			Status:     StatusReview,
			SlowStock:  &slowRec,
		})
	}
	return recs
}

// appendNew concatenates candidates whose codes are not yet in the result,
// extending the seen set as it goes. Pass outputs stay pure; the dedup is one
// explicit set-difference step here.
func appendNew(dst []*Recommendation, seen map[string]struct{}, candidates []*Recommendation) []*Recommendation {
	for _, r := range candidates {
		if _, ok := seen[r.Code]; ok {
			continue
		}
		seen[r.Code] = struct{}{}
		dst = append(dst, r)
	}
	return dst
}

// sortedCodes keeps orphan pass output deterministic regardless of map
// iteration order.
func sortedCodes[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func anyBranchLists(code string, branches []*branchState) bool {
	for _, br := range branches {
		if _, ok := br.entries[code]; ok {
			return true
		}
	}
	return false
}

// ComputeRecommendations runs a default engine once. Callers needing custom
// tuning or the run metadata use Engine.Run directly.
func ComputeRecommendations(ctx context.Context, in Input) ([]Recommendation, error) {
	report, err := NewEngine(DefaultConfig()).Run(ctx, in)
	if err != nil {
		return nil, err
	}
	return report.Recommendations, nil
}
