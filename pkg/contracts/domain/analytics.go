package domain

// MarketSegment is the price-percentile tier assigned to a model. It is a
// function of the current price distribution, recomputed whenever the
// distribution changes, never a stored fact.
type MarketSegment string

const (
	SegmentBudget   MarketSegment = "Budget"
	SegmentMidRange MarketSegment = "Mid-Range"
	SegmentPremium  MarketSegment = "Premium"
	SegmentLuxury   MarketSegment = "Luxury"
	SegmentUnknown  MarketSegment = "Unknown"
)

// PerformanceTier buckets a model by total-sales percentile.
type PerformanceTier string

const (
	TierTop     PerformanceTier = "Top"
	TierStrong  PerformanceTier = "Strong"
	TierMid     PerformanceTier = "Mid"
	TierLagging PerformanceTier = "Lagging"
	TierTail    PerformanceTier = "Tail"
	TierNoData  PerformanceTier = "No Data"
)

// EnrichedModel is one row of the enriched catalog: a catalog record with
// all derived price, sales and market features attached. Nil stats mean the
// model had no rows in the corresponding source; such models are kept with
// null features rather than dropped.
type EnrichedModel struct {
	ModelRecord

	Price *PriceStats `json:"price,omitempty"`
	Sales *SalesStats `json:"sales,omitempty"`

	PriceVolatility float64 `json:"price_volatility"`
	HighVolatility  bool    `json:"high_volatility"`

	Segment MarketSegment   `json:"market_segment"`
	Tier    PerformanceTier `json:"performance_tier"`

	// MarketShare is the model's share of its manufacturer's total sales,
	// on a 0-100 scale. Zero when the manufacturer total is zero.
	MarketShare float64 `json:"market_share"`
}

// HasPriceData reports whether any price observation joined to the model.
func (m EnrichedModel) HasPriceData() bool { return m.Price != nil && m.Price.Count > 0 }

// HasSalesData reports whether any sales year joined to the model.
func (m EnrichedModel) HasSalesData() bool { return m.Sales != nil && m.Sales.Years > 0 }

// ManufacturerShare is one row of the market-share-by-manufacturer summary.
// Share is a 0-100 percentage of the grand total.
type ManufacturerShare struct {
	Automaker  string  `json:"automaker"`
	TotalSales float64 `json:"total_sales"`
	Share      float64 `json:"market_share_percent"`
	Models     int     `json:"models"`
}

// ConcentrationClass classifies an HHI value per the standard thresholds.
type ConcentrationClass string

const (
	ConcentrationFragmented   ConcentrationClass = "fragmented"
	ConcentrationModerate     ConcentrationClass = "moderate"
	ConcentrationConcentrated ConcentrationClass = "concentrated"
)

// Concentration holds the HHI and derived concentration metrics. HHI uses
// the 0-100 share convention, so a pure monopoly scores 10000.
type Concentration struct {
	HHI       float64            `json:"hhi"`
	Class     ConcentrationClass `json:"class"`
	TopN      int                `json:"top_n"`
	TopNShare float64            `json:"top_n_share"`

	// SignificantPlayers counts manufacturers holding at least 1% of sales.
	SignificantPlayers int `json:"significant_players"`
}

// Outlier flags a model whose value on the inspected field falls outside
// the detection bounds.
type Outlier struct {
	Key    ModelKey `json:"key"`
	Field  string   `json:"field"`
	Value  float64  `json:"value"`
	Method string   `json:"method"`
	Score  float64  `json:"score"` // z-score, or distance past the IQR fence
}

// ElasticityClass classifies a point elasticity estimate.
type ElasticityClass string

const (
	ElasticityInelastic ElasticityClass = "inelastic"
	ElasticityUnit      ElasticityClass = "unit"
	ElasticityElastic   ElasticityClass = "elastic"
	ElasticityUndefined ElasticityClass = "undefined"
)

// Elasticity is a simplified point estimate of price elasticity for one
// model between two reference years. Defined is false when the price
// change between the reference points is zero.
type Elasticity struct {
	Key      ModelKey        `json:"key"`
	Value    float64         `json:"elasticity"`
	Class    ElasticityClass `json:"class"`
	Defined  bool            `json:"defined"`
	FromYear int             `json:"from_year"`
	ToYear   int             `json:"to_year"`
}

// ClusterAssignment places a model in a k-means cluster with a
// human-readable label derived from the centroid's position.
type ClusterAssignment struct {
	Key     ModelKey `json:"key"`
	Cluster int      `json:"cluster"`
	Label   string   `json:"label"`
}

// CorrelationMatrix is a pairwise Pearson correlation matrix over a
// configured numeric feature set. Missing values are excluded pairwise.
type CorrelationMatrix struct {
	Features []string    `json:"features"`
	Values   [][]float64 `json:"values"`
}

// At returns the correlation between two features by index.
func (c CorrelationMatrix) At(i, j int) float64 { return c.Values[i][j] }

// Insight is one deterministic, rule-derived statement about the market.
type Insight struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Coverage pairs a summary with the fraction of models that actually had
// source data behind it, so degraded inputs stay visible.
type Coverage struct {
	With  int `json:"with_data"`
	Total int `json:"total"`
}

// KPISummary holds headline market figures over the covered year range.
// Growth figures are percentages; they are zero with no claim of meaning
// when the range has fewer than two years of data.
type KPISummary struct {
	Models        int     `json:"models"`
	Manufacturers int     `json:"manufacturers"`
	AvgPrice      float64 `json:"avg_price"`
	MedianPrice   float64 `json:"median_price"`

	TotalVolume float64 `json:"total_volume"`
	FirstYear   int     `json:"first_year"`
	LastYear    int     `json:"last_year"`
	YoYGrowth   float64 `json:"yoy_growth_percent"`
	CAGR        float64 `json:"cagr_percent"`
	PeakYear    int     `json:"peak_year"`
	PeakVolume  float64 `json:"peak_volume"`
}
