// Package query is the read facade over published snapshots: filtered
// model views, named summary tables and coverage indicators. It never
// recomputes anything; every accessor projects the snapshot the store
// currently publishes.
package query

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"carmarket/internal/pipeline"
	"carmarket/pkg/contracts/domain"
)

// Facade reads from a snapshot store.
type Facade struct {
	store  *pipeline.Store
	logger *slog.Logger
}

// Sentinel errors of the read surface.
var (
	ErrNoSnapshot     = errors.New("no snapshot published yet")
	ErrUnknownSummary = errors.New("unknown summary kind")
)

// New creates a facade over a store.
func New(store *pipeline.Store, logger *slog.Logger) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{store: store, logger: logger}
}

// Filter selects a subset of the enriched catalog. Empty fields select
// everything; a value absent from the data yields an empty result, not an
// error.
type Filter struct {
	Automakers []string               `json:"automakers,omitempty"`
	Genmodels  []string               `json:"genmodels,omitempty"`
	Segments   []domain.MarketSegment `json:"segments,omitempty"`
}

func (f Filter) matches(m domain.EnrichedModel) bool {
	if len(f.Automakers) > 0 && !containsString(f.Automakers, m.Automaker) {
		return false
	}
	if len(f.Genmodels) > 0 && !containsString(f.Genmodels, m.Genmodel) {
		return false
	}
	if len(f.Segments) > 0 {
		found := false
		for _, s := range f.Segments {
			if s == m.Segment {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Snapshot returns the currently published snapshot.
func (f *Facade) Snapshot() (*pipeline.Snapshot, error) {
	snap := f.store.Current()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// State reports snapshot freshness.
func (f *Facade) State() pipeline.State { return f.store.State() }

// Models returns the filtered enriched catalog, sorted by composite key.
func (f *Facade) Models(filter Filter) ([]domain.EnrichedModel, error) {
	snap, err := f.Snapshot()
	if err != nil {
		return nil, err
	}

	out := make([]domain.EnrichedModel, 0, len(snap.Models))
	for _, m := range snap.Models {
		if filter.matches(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out, nil
}

// Coverage reports how many models carry price and sales data, so a
// reader can present "N of M models have price data" alongside any
// price-derived figure.
func (f *Facade) Coverage() (price, sales domain.Coverage, err error) {
	snap, sErr := f.Snapshot()
	if sErr != nil {
		return domain.Coverage{}, domain.Coverage{}, sErr
	}
	price.Total, sales.Total = len(snap.Models), len(snap.Models)
	for _, m := range snap.Models {
		if m.HasPriceData() {
			price.With++
		}
		if m.HasSalesData() {
			sales.With++
		}
	}
	return price, sales, nil
}

// SegmentDistribution counts models per market segment, ordered from
// Budget up with Unknown last.
func (f *Facade) SegmentDistribution() ([]SegmentCount, error) {
	snap, err := f.Snapshot()
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.MarketSegment]int)
	for _, m := range snap.Models {
		counts[m.Segment]++
	}

	order := []domain.MarketSegment{
		domain.SegmentBudget,
		domain.SegmentMidRange,
		domain.SegmentPremium,
		domain.SegmentLuxury,
		domain.SegmentUnknown,
	}
	out := make([]SegmentCount, 0, len(order))
	for _, seg := range order {
		if n, ok := counts[seg]; ok {
			out = append(out, SegmentCount{Segment: seg, Models: n})
		}
	}
	return out, nil
}

// SegmentCount is one row of the segment distribution summary.
type SegmentCount struct {
	Segment domain.MarketSegment `json:"segment"`
	Models  int                  `json:"models"`
}

// Summary kinds accepted by Summary.
const (
	SummaryPriceByModel  = "price_by_model"
	SummarySalesByModel  = "sales_by_model"
	SummaryMarketShare   = "market_share"
	SummarySegments      = "segments"
	SummaryConcentration = "concentration"
	SummaryOutliers      = "outliers"
	SummaryElasticity    = "elasticity"
	SummaryClusters      = "clusters"
	SummaryCorrelation   = "correlation"
	SummaryInsights      = "insights"
	SummaryQuality       = "quality"
	SummaryKPI           = "kpi"
)

// Summary returns a named summary table from the current snapshot. The
// kind names are the contract with the presentation layer; an unknown
// kind is the caller's error, not a missing feature.
func (f *Facade) Summary(kind string) (any, error) {
	snap, err := f.Snapshot()
	if err != nil {
		return nil, err
	}

	switch kind {
	case SummaryPriceByModel:
		return priceRows(snap.Models), nil
	case SummarySalesByModel:
		return salesRows(snap.Models), nil
	case SummaryMarketShare:
		return snap.Shares, nil
	case SummarySegments:
		return f.SegmentDistribution()
	case SummaryConcentration:
		return snap.Concentration, nil
	case SummaryOutliers:
		return snap.Outliers, nil
	case SummaryElasticity:
		return snap.Elasticities, nil
	case SummaryClusters:
		return snap.Clusters, nil
	case SummaryCorrelation:
		return snap.Correlation, nil
	case SummaryInsights:
		return snap.Insights, nil
	case SummaryQuality:
		return snap.Quality, nil
	case SummaryKPI:
		return snap.KPI, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSummary, kind)
	}
}

// PriceRow is one row of the price-by-model summary. Models without price
// data keep a nil Price rather than being dropped.
type PriceRow struct {
	Key   domain.ModelKey    `json:"key"`
	Price *domain.PriceStats `json:"price,omitempty"`
}

// SalesRow is one row of the sales-by-model summary, null-preserving like
// PriceRow.
type SalesRow struct {
	Key   domain.ModelKey    `json:"key"`
	Sales *domain.SalesStats `json:"sales,omitempty"`
}

func priceRows(models []domain.EnrichedModel) []PriceRow {
	out := make([]PriceRow, len(models))
	for i, m := range models {
		out[i] = PriceRow{Key: m.Key(), Price: m.Price}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

func salesRows(models []domain.EnrichedModel) []SalesRow {
	out := make([]SalesRow, len(models))
	for i, m := range models {
		out[i] = SalesRow{Key: m.Key(), Sales: m.Sales}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
