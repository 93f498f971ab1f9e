// Package replen computes ranked per-SKU replenishment recommendations from a
// set of independently produced inventory snapshots: the home branch stock
// ledger, a 30-day sales extract, peer-warehouse extracts, and the optional
// display-tracking and slow-stock reports.
package replen

import (
	"fmt"
	"strings"
	"time"
)

// StockRecord is one home-ledger line after normalization. Duplicate codes
// within the file are aggregated (stock and pending orders summed).
type StockRecord struct {
	Code          string
	Name          string
	Stock         int
	MaxStock      int
	Price         float64
	PendingOrders int
	AHCoefficient int
}

// WarehouseEntry is one peer-warehouse line after normalization. Duplicates
// sum stock and keep the maximum max-stock seen.
type WarehouseEntry struct {
	Code        string
	Name        string
	Stock       int
	MaxStock    int
	OriginLabel string
}

// DisplayRecord is a user-maintained display fact: when a unit went on the
// showroom shelf and in what condition. It is merged in as an overlay and
// never derived by the engine.
type DisplayRecord struct {
	StartDate    time.Time
	Condition    Condition
	RawCondition string
}

// Condition is the folded display condition label.
type Condition string

const (
	ConditionNew       Condition = "New"
	ConditionScratched Condition = "Scratched"
	ConditionUsed      Condition = "Used"
)

// SlowStockRecord is one line of the slow-moving-stock report.
type SlowStockRecord struct {
	ReportedStock int
	MonthsUnsold  float64
}

// SourcingPlan is one pull allocation from a branch warehouse.
type SourcingPlan struct {
	SourceWarehouse       string
	Quantity              int
	SourceStockAtPlanning int
}

// WarehouseStock is a snapshot of one branch's holding of a SKU at planning
// time, before any allocation in this run consumed it.
type WarehouseStock struct {
	Name  string
	Stock int
}

// Urgency drives alerting and output ordering.
type Urgency string

const (
	UrgencyCritical Urgency = "Critical"
	UrgencyNormal   Urgency = "Normal"
	UrgencyLow      Urgency = "Low"
)

// Velocity classifies a SKU's sell-through relative to its stock.
type Velocity string

const (
	VelocityHot    Velocity = "Hot"
	VelocityNormal Velocity = "Normal"
	VelocitySlow   Velocity = "Slow"
)

// Status is the headline state shown per recommendation.
type Status string

const (
	StatusCritical  Status = "Critical"
	StatusWarning   Status = "Warning"
	StatusHealthy   Status = "Healthy"
	StatusOverstock Status = "Overstock"
	StatusReview    Status = "Review"
)

// ABCClass is the Pareto contribution tier. N marks SKUs with no sales in the
// observation window.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
	ClassN ABCClass = "N"
)

// Recommendation is the per-SKU output aggregate.
type Recommendation struct {
	Code     string
	Name     string
	Category string

	HomeStock       int
	DisplayStock    int
	DisplayMaxStock int
	MaxStock        int
	TargetDays      int
	TargetStock     int

	Sold30Days     int
	DailyRunRate   float64
	StockCoverDays float64
	Price          float64
	Revenue30Days  float64

	NeedsRestock    int
	CanPull         int
	MissingQuantity int
	Sourcing        []SourcingPlan
	AllWarehouses   []WarehouseStock

	Status   Status
	Urgency  Urgency
	Velocity Velocity

	PendingOrders int
	AHCoefficient int
	PullReason    string

	IsDiscontinued bool
	IsNewArrival   bool
	IsBestSeller   bool
	IsTbaSolo      bool
	ShouldDisplay  bool
	IsReturnNeeded bool

	ABCClass         ABCClass
	SafetyStockBonus int

	Display   *DisplayRecord
	SlowStock *SlowStockRecord
}

// IngestError reports a structurally unusable input document: the whole
// document produced no parseable rows. It is the only error surfaced by the
// ingestion stage; individual bad rows are skipped silently, and the
// calculation stage never fails on semantically odd data.
type IngestError struct {
	Doc    string
	Reason string
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %s", e.Doc, e.Reason)
}

// FoldCondition maps a free-form condition cell onto the known labels, keeping
// the source files' Vietnamese markers working.
func FoldCondition(raw string) Condition {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "trầy"), strings.Contains(s, "xước"),
		strings.Contains(s, "cũ"), strings.Contains(s, "scratch"):
		return ConditionScratched
	case strings.Contains(s, "dùng"), strings.Contains(s, "use"):
		return ConditionUsed
	default:
		return ConditionNew
	}
}
