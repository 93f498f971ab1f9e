package replen

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/starlogistic/replen/pkg/warehouse"
)

// CategoryRule is one entry of the ordered category table: the first rule
// whose prefix matches the (normalized, uppercase) code wins; rules with a
// Keyword instead match against the lowercased product name. Evaluation order
// is the contract, so the table is a slice, not a map.
type CategoryRule struct {
	Prefix  string
	Keyword string
	Label   string
}

// Config carries every business-tuned constant of the engine. All values that
// used to be embedded literals in the legacy sheets are named here and can be
// overridden per run.
type Config struct {
	// Sales window length in days for run-rate computation.
	ObservationDays int

	// Target stock cover in days for high-turnover categories vs the rest.
	FastTargetDays    int
	DefaultTargetDays int
	FastCategories    []string

	// Ordered category classification table and the default label.
	CategoryRules   []CategoryRule
	DefaultCategory string

	// Categories that should keep one unit on display when no explicit
	// display quota is configured.
	DisplayCategories []string

	// Name prefix marking a discontinued SKU, exempt from supplier reorder.
	DiscontinuedPrefix string

	// Velocity / pull override tuning. A SKU is Hot when 30-day sales exceed
	// HotSalesRatio x on-hand stock; a Hot SKU refills when effective stock
	// drops under HotRefillRatio x max stock. PullCeiling caps the AH
	// coefficient after the pull.
	HotSalesRatio  float64
	HotRefillRatio float64
	PullCeiling    int

	// Urgency thresholds.
	CriticalStockThreshold int
	CriticalCoverDays      float64
	CriticalFloor          int

	// MaxStockSentinel is the home-ledger max-stock default when column Y is
	// blank; values at or above it mean "no explicit ceiling configured".
	MaxStockSentinel int
	// CoverDaysSentinel stands in for "infinite cover" when stock is positive
	// but the run rate is zero.
	CoverDaysSentinel float64

	// Home-only SKUs priced at or below this are dropped as catalog noise.
	NoisePriceThreshold float64

	// Display units in New condition older than this many days should come
	// back off the shelf.
	DisplayReturnDays int

	// New-arrival handling: minimum pull quantity and the naming markers a
	// newly introduced SKU carries.
	NewArrivalPull     int
	NewArrivalKeywords []string

	// Best-seller tagging threshold on 30-day sales.
	BestSellerThreshold int

	// Safety stock bonus in days of cover per ABC class.
	ClassABonusDays int
	ClassBBonusDays int

	// Tokens for the optional warehouse role detector.
	Detect warehouse.DetectConfig
}

// DefaultConfig returns the engine defaults, matching the tuning the store
// ran on its legacy sheets.
func DefaultConfig() Config {
	return Config{
		ObservationDays:   30,
		FastTargetDays:    4,
		DefaultTargetDays: 7,
		FastCategories:    []string{"VGA", "Mainboard", "Laptop", "Monitor", "Desktop PC", "Printer"},

		CategoryRules:   DefaultCategoryRules(),
		DefaultCategory: "Other",

		DisplayCategories: []string{
			"Monitor", "Laptop", "Mainboard", "VGA", "Case",
			"Speaker", "Headphone", "Keyboard", "Mouse",
			"Keyboard Combo", "Desktop PC", "Chair", "Desk",
		},

		DiscontinuedPrefix: "0.",

		HotSalesRatio:  0.5,
		HotRefillRatio: 0.4,
		PullCeiling:    130,

		CriticalStockThreshold: 3,
		CriticalCoverDays:      2,
		CriticalFloor:          5,

		MaxStockSentinel:  9999,
		CoverDaysSentinel: 999,

		NoisePriceThreshold: 1000,

		DisplayReturnDays: 20,

		NewArrivalPull:     2,
		NewArrivalKeywords: []string{"new", "mới"},

		BestSellerThreshold: 5,

		ClassABonusDays: 2,
		ClassBBonusDays: 1,

		Detect: warehouse.DefaultDetectConfig(),
	}
}

// DefaultCategoryRules is the curated prefix table, longest-first where
// prefixes overlap. Codes are matched after NormalizeCode, hence uppercase.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Prefix: "KTN.", Label: "Thermal Paste"},
		{Prefix: "CMR.", Label: "Camera"},
		{Prefix: "CAP.", Label: "Cable"},
		{Prefix: "GIA.", Label: "Stand"},
		{Prefix: "V.", Label: "VGA"},
		{Prefix: "MB.", Label: "Desktop PC"},
		{Prefix: "MI.", Label: "Printer"},
		{Prefix: "MP.", Label: "Mousepad"},
		{Prefix: "MO.", Label: "Mouse"},
		{Prefix: "M.", Label: "Mainboard"},
		{Prefix: "LT.", Label: "Laptop"},
		{Prefix: "LO.", Label: "Speaker"},
		{Prefix: "L.", Label: "Monitor"},
		{Prefix: "CA.", Label: "Case"},
		{Prefix: "CB.", Label: "Keyboard Combo"},
		{Prefix: "HP.", Label: "Headphone"},
		{Prefix: "KB.", Label: "Keyboard"},
		{Prefix: "SS.", Label: "SSD"},
		{Prefix: "SW.", Label: "Switch"},
		{Prefix: "R3.", Label: "RAM D3"},
		{Prefix: "R4.", Label: "RAM D4"},
		{Prefix: "R5.", Label: "RAM D5"},
		{Prefix: "RT.", Label: "Router"},
		{Prefix: "P.", Label: "PSU"},
		{Prefix: "F.", Label: "Cooling Fan"},
		{Prefix: "TN.", Label: "Memory Card"},
		{Prefix: "WC.", Label: "Webcam"},
		{Prefix: "GT.", Label: "Mount"},
		{Prefix: "U.", Label: "USB/Hub"},
		{Keyword: "ghế", Label: "Chair"},
		{Keyword: "bàn", Label: "Desk"},
	}
}

// LoadConfig builds a Config from DefaultConfig plus environment overrides
// (REPLEN_* variables, .env honored when present).
func LoadConfig() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("REPLEN")
	v.AutomaticEnv()

	cfg := DefaultConfig()
	v.SetDefault("OBSERVATION_DAYS", cfg.ObservationDays)
	v.SetDefault("FAST_TARGET_DAYS", cfg.FastTargetDays)
	v.SetDefault("DEFAULT_TARGET_DAYS", cfg.DefaultTargetDays)
	v.SetDefault("HOT_SALES_RATIO", cfg.HotSalesRatio)
	v.SetDefault("HOT_REFILL_RATIO", cfg.HotRefillRatio)
	v.SetDefault("PULL_CEILING", cfg.PullCeiling)
	v.SetDefault("CRITICAL_STOCK_THRESHOLD", cfg.CriticalStockThreshold)
	v.SetDefault("CRITICAL_COVER_DAYS", cfg.CriticalCoverDays)
	v.SetDefault("CRITICAL_FLOOR", cfg.CriticalFloor)
	v.SetDefault("NOISE_PRICE_THRESHOLD", cfg.NoisePriceThreshold)
	v.SetDefault("DISPLAY_RETURN_DAYS", cfg.DisplayReturnDays)
	v.SetDefault("NEW_ARRIVAL_PULL", cfg.NewArrivalPull)
	v.SetDefault("BEST_SELLER_THRESHOLD", cfg.BestSellerThreshold)

	cfg.ObservationDays = v.GetInt("OBSERVATION_DAYS")
	cfg.FastTargetDays = v.GetInt("FAST_TARGET_DAYS")
	cfg.DefaultTargetDays = v.GetInt("DEFAULT_TARGET_DAYS")
	cfg.HotSalesRatio = v.GetFloat64("HOT_SALES_RATIO")
	cfg.HotRefillRatio = v.GetFloat64("HOT_REFILL_RATIO")
	cfg.PullCeiling = v.GetInt("PULL_CEILING")
	cfg.CriticalStockThreshold = v.GetInt("CRITICAL_STOCK_THRESHOLD")
	cfg.CriticalCoverDays = v.GetFloat64("CRITICAL_COVER_DAYS")
	cfg.CriticalFloor = v.GetInt("CRITICAL_FLOOR")
	cfg.NoisePriceThreshold = v.GetFloat64("NOISE_PRICE_THRESHOLD")
	cfg.DisplayReturnDays = v.GetInt("DISPLAY_RETURN_DAYS")
	cfg.NewArrivalPull = v.GetInt("NEW_ARRIVAL_PULL")
	cfg.BestSellerThreshold = v.GetInt("BEST_SELLER_THRESHOLD")

	return cfg
}
