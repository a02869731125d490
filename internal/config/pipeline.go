package config

import (
	"time"

	apperrors "carmarket/internal/errors"
)

// Canonical column names. The loader's rename map is the single source of
// truth for converging the differently spelled source headers onto these.
const (
	ColAutomaker   = "Automaker"
	ColAutomakerID = "Automaker_ID"
	ColGenmodel    = "Genmodel"
	ColGenmodelID  = "Genmodel_ID"
	ColYear        = "Year"
	ColEntryPrice  = "Entry_price"
)

// Source table names.
const (
	TableCatalog = "basic"
	TablePrice   = "price"
	TableSales   = "sales"
)

// PipelineConfig aggregates the per-component configuration of the
// analytics pipeline.
type PipelineConfig struct {
	Loader    LoaderConfig    `yaml:"loader"`
	Cleaning  CleaningConfig  `yaml:"cleaning"`
	Rules     ValidationRules `yaml:"rules"`
	Quality   QualityConfig   `yaml:"quality"`
	Features  FeatureConfig   `yaml:"features"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// LoaderConfig configures source table ingestion.
type LoaderConfig struct {
	// Files maps table name to its file name under the data directory.
	Files map[string]string `yaml:"files"`

	// Encodings is the fixed fallback list tried in order; exhausting it is
	// a hard LoadError, not retried further.
	Encodings []string `yaml:"encodings"`

	// ColumnMapping maps source header spellings to canonical names,
	// matched case-insensitively.
	ColumnMapping map[string]string `yaml:"column_mapping"`

	// RequiredColumns lists the columns that must exist per table after
	// renaming.
	RequiredColumns map[string][]string `yaml:"required_columns"`

	// SalesYearFrom/To bound the wide year columns of the sales table.
	SalesYearFrom int `yaml:"sales_year_from"`
	SalesYearTo   int `yaml:"sales_year_to"`

	// LoadTimeout bounds a single table load.
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// CleaningConfig configures manufacturer and model name normalization.
type CleaningConfig struct {
	// AliasMap maps known bad manufacturer spellings (and model names wrongly
	// entered as manufacturers) to the canonical manufacturer.
	AliasMap map[string]string `yaml:"alias_map"`

	// Denylist holds placeholder tokens matched case-insensitively after
	// trimming. Matching rows are excluded from joins but kept in an audit
	// side-list.
	Denylist []string `yaml:"denylist"`
}

// ColumnRule is one validation rule for one column.
type ColumnRule struct {
	Type     string   `yaml:"type"` // "string" or "number"
	Required bool     `yaml:"required"`
	Unique   bool     `yaml:"unique"`
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
}

// ValidationRules maps table name to per-column rules.
type ValidationRules map[string]map[string]ColumnRule

// QualityConfig holds quality-score weights and status thresholds.
type QualityConfig struct {
	CompletenessWeight float64 `yaml:"completeness_weight"`
	UniquenessWeight   float64 `yaml:"uniqueness_weight"`
	ConsistencyWeight  float64 `yaml:"consistency_weight"`

	ExcellentAt float64 `yaml:"excellent_at"`
	GoodAt      float64 `yaml:"good_at"`
	WarningAt   float64 `yaml:"warning_at"`
}

// FeatureConfig holds feature-engineering thresholds.
type FeatureConfig struct {
	// VolatilityThreshold flags models whose price coefficient of variation
	// exceeds it.
	VolatilityThreshold float64 `yaml:"volatility_threshold"`

	// Segment quantile cut points over the price distribution. Lower bounds
	// are inclusive: a price exactly at the 25th percentile is Budget.
	SegmentBudgetQ  float64 `yaml:"segment_budget_q"`
	SegmentMidQ     float64 `yaml:"segment_mid_q"`
	SegmentPremiumQ float64 `yaml:"segment_premium_q"`

	// Performance tier cut points over the total-sales percentile rank,
	// listed from the top bucket down.
	TierTopQ     float64 `yaml:"tier_top_q"`
	TierStrongQ  float64 `yaml:"tier_strong_q"`
	TierMidQ     float64 `yaml:"tier_mid_q"`
	TierLaggingQ float64 `yaml:"tier_lagging_q"`
}

// AnalyticsConfig holds analytics-engine parameters.
type AnalyticsConfig struct {
	// ZScoreThreshold flags outliers with |z| above it.
	ZScoreThreshold float64 `yaml:"zscore_threshold"`

	// IQRMultiplier widens the IQR fences (Q1 - m*IQR, Q3 + m*IQR).
	IQRMultiplier float64 `yaml:"iqr_multiplier"`

	// HHI classification thresholds on the 0-100 share convention.
	HHIModerateAt     float64 `yaml:"hhi_moderate_at"`
	HHIConcentratedAt float64 `yaml:"hhi_concentrated_at"`

	// TopN for the top-N concentration summary.
	TopN int `yaml:"top_n"`

	// Clustering parameters.
	Clusters      int   `yaml:"clusters"`
	MaxIterations int   `yaml:"max_iterations"`
	Seed          int64 `yaml:"seed"`

	// UnitBand is the half-width of the band treated as unit elasticity.
	UnitBand float64 `yaml:"unit_band"`
}

// applyDefaults fills zero-valued fields with the documented defaults.
func (p *PipelineConfig) applyDefaults() {
	if p.Loader.Files == nil {
		p.Loader.Files = map[string]string{
			TableCatalog: "Basic_table.csv",
			TablePrice:   "Price_table.csv",
			TableSales:   "Sales_table.csv",
		}
	}
	if len(p.Loader.Encodings) == 0 {
		p.Loader.Encodings = []string{"utf-8", "utf-16le", "utf-16be", "windows-1252"}
	}
	if p.Loader.ColumnMapping == nil {
		p.Loader.ColumnMapping = map[string]string{
			"Maker":     ColAutomaker,
			"Automaker": ColAutomaker,
			"Maker_ID":  ColAutomakerID,
			"Model":     ColGenmodel,
			"Genmodel":  ColGenmodel,
			"Model_ID":  ColGenmodelID,
		}
	}
	if p.Loader.RequiredColumns == nil {
		p.Loader.RequiredColumns = map[string][]string{
			TableCatalog: {ColAutomaker, ColGenmodel, ColGenmodelID},
			TablePrice:   {ColGenmodelID, ColYear, ColEntryPrice},
			TableSales:   {ColAutomaker, ColGenmodel, ColGenmodelID},
		}
	}
	if p.Loader.SalesYearFrom == 0 {
		p.Loader.SalesYearFrom = 2001
	}
	if p.Loader.SalesYearTo == 0 {
		p.Loader.SalesYearTo = 2020
	}
	if p.Loader.LoadTimeout == 0 {
		p.Loader.LoadTimeout = 30 * time.Second
	}

	if p.Cleaning.AliasMap == nil {
		p.Cleaning.AliasMap = map[string]string{
			// Model names wrongly entered as manufacturers.
			"Sebring":        "Chrysler",
			"PT Cruiser":     "Chrysler",
			"Town & Country": "Chrysler",
			"300C":           "Chrysler",
			"Crossfire":      "Chrysler",

			// Alternative spellings and group names.
			"Mercedes":          "Mercedes-Benz",
			"BMW Group":         "BMW",
			"VW":                "Volkswagen",
			"VW Group":          "Volkswagen",
			"Audi AG":           "Audi",
			"Toyota Motor":      "Toyota",
			"Ford Motor":        "Ford",
			"General Motors":    "GM",
			"Chrysler Group":    "Chrysler",
			"Range Rover":       "Land Rover",
			"Jaguar Land Rover": "Jaguar",
		}
	}
	if len(p.Cleaning.Denylist) == 0 {
		p.Cleaning.Denylist = []string{
			"undefined", "unknown", "null", "none", "n/a", "tbd",
			"to be determined", "other", "misc", "miscellaneous", "",
		}
	}

	if p.Rules == nil {
		minYear, maxYear := 2000.0, 2025.0
		minPrice, maxPrice := 1000.0, 1000000.0
		p.Rules = ValidationRules{
			TableCatalog: {
				ColGenmodelID: {Type: "string", Required: true, Unique: true},
				ColAutomaker:  {Type: "string", Required: true},
				ColGenmodel:   {Type: "string", Required: true},
			},
			TablePrice: {
				ColGenmodelID: {Type: "string", Required: true},
				ColYear:       {Type: "number", Min: &minYear, Max: &maxYear},
				ColEntryPrice: {Type: "number", Min: &minPrice, Max: &maxPrice},
			},
			TableSales: {
				ColGenmodelID: {Type: "string", Required: true, Unique: true},
				ColGenmodel:   {Type: "string", Required: true},
			},
		}
	}

	if p.Quality.CompletenessWeight == 0 && p.Quality.UniquenessWeight == 0 && p.Quality.ConsistencyWeight == 0 {
		p.Quality = QualityConfig{
			CompletenessWeight: 0.4,
			UniquenessWeight:   0.3,
			ConsistencyWeight:  0.3,
			ExcellentAt:        90,
			GoodAt:             75,
			WarningAt:          50,
		}
	}

	if p.Features.VolatilityThreshold == 0 {
		p.Features.VolatilityThreshold = 0.5
	}
	if p.Features.SegmentBudgetQ == 0 {
		p.Features.SegmentBudgetQ = 0.25
		p.Features.SegmentMidQ = 0.75
		p.Features.SegmentPremiumQ = 0.95
	}
	if p.Features.TierTopQ == 0 {
		// Top 10% / next 20% / next 20% / next 30% / bottom 10%.
		p.Features.TierTopQ = 0.90
		p.Features.TierStrongQ = 0.70
		p.Features.TierMidQ = 0.50
		p.Features.TierLaggingQ = 0.10
	}

	if p.Analytics.ZScoreThreshold == 0 {
		p.Analytics.ZScoreThreshold = 3
	}
	if p.Analytics.IQRMultiplier == 0 {
		p.Analytics.IQRMultiplier = 1.5
	}
	if p.Analytics.HHIModerateAt == 0 {
		p.Analytics.HHIModerateAt = 1500
		p.Analytics.HHIConcentratedAt = 2500
	}
	if p.Analytics.TopN == 0 {
		p.Analytics.TopN = 3
	}
	if p.Analytics.Clusters == 0 {
		p.Analytics.Clusters = 4
	}
	if p.Analytics.MaxIterations == 0 {
		p.Analytics.MaxIterations = 100
	}
	if p.Analytics.UnitBand == 0 {
		p.Analytics.UnitBand = 0.05
	}
}

// knownColumns returns the canonical column set of a table, used to verify
// that rules only reference columns the loader can produce.
func (p *PipelineConfig) knownColumns(table string) map[string]bool {
	switch table {
	case TableCatalog:
		return map[string]bool{ColAutomaker: true, ColAutomakerID: true, ColGenmodel: true, ColGenmodelID: true}
	case TablePrice:
		return map[string]bool{ColAutomaker: true, ColGenmodel: true, ColGenmodelID: true, ColYear: true, ColEntryPrice: true}
	case TableSales:
		return map[string]bool{ColAutomaker: true, ColGenmodel: true, ColGenmodelID: true}
	default:
		return nil
	}
}

// Validate performs the cross-field checks that must fail fast at startup.
func (p *PipelineConfig) Validate() error {
	for _, table := range []string{TableCatalog, TablePrice, TableSales} {
		if _, ok := p.Loader.Files[table]; !ok {
			return apperrors.NewConfigError("loader.files", "missing file entry for table "+table)
		}
	}

	for table, cols := range p.Rules {
		known := p.knownColumns(table)
		if known == nil {
			return apperrors.NewConfigError("rules", "rules reference unknown table "+table)
		}
		for col, rule := range cols {
			if !known[col] {
				return apperrors.NewConfigError("rules."+table, "rule references unknown column "+col)
			}
			if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
				return apperrors.NewConfigError("rules."+table+"."+col, "min exceeds max")
			}
		}
	}

	w := p.Quality
	if sum := w.CompletenessWeight + w.UniquenessWeight + w.ConsistencyWeight; sum < 0.99 || sum > 1.01 {
		return apperrors.NewConfigError("quality", "score weights must sum to 1")
	}
	if !(w.ExcellentAt > w.GoodAt && w.GoodAt > w.WarningAt) {
		return apperrors.NewConfigError("quality", "status thresholds must be strictly decreasing")
	}

	f := p.Features
	if !(f.SegmentBudgetQ < f.SegmentMidQ && f.SegmentMidQ < f.SegmentPremiumQ && f.SegmentPremiumQ < 1) {
		return apperrors.NewConfigError("features", "segment quantiles must be strictly increasing and below 1")
	}
	if !(f.TierLaggingQ < f.TierMidQ && f.TierMidQ < f.TierStrongQ && f.TierStrongQ < f.TierTopQ) {
		return apperrors.NewConfigError("features", "tier quantiles must be strictly increasing")
	}

	a := p.Analytics
	if a.HHIModerateAt >= a.HHIConcentratedAt {
		return apperrors.NewConfigError("analytics", "HHI thresholds must be increasing")
	}
	if a.Clusters < 1 {
		return apperrors.NewConfigError("analytics.clusters", "cluster count must be positive")
	}
	if p.Loader.SalesYearFrom > p.Loader.SalesYearTo {
		return apperrors.NewConfigError("loader", "sales year range inverted")
	}
	return nil
}
