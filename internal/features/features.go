// Package features derives per-model analytics features from the cleaned
// tables: price and sales summaries, volatility, market segments,
// performance tiers and within-manufacturer share. Features are functions
// of the current distributions, recomputed on every run, never stored.
package features

import (
	"log/slog"
	"sort"

	"github.com/montanaflynn/stats"

	"carmarket/internal/config"
	"carmarket/pkg/contracts/domain"
)

// Engineer computes the enriched catalog.
type Engineer struct {
	cfg    config.FeatureConfig
	logger *slog.Logger
}

// New creates a feature engineer.
func New(cfg config.FeatureConfig, logger *slog.Logger) *Engineer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engineer{cfg: cfg, logger: logger}
}

// Enrich joins the three tables on the composite (manufacturer, model
// name) key and attaches derived features to every non-excluded catalog
// row. Models with no matching price or sales rows are kept with nil
// stats; nothing is silently dropped except rows the cleaner excluded.
func (e *Engineer) Enrich(catalog []domain.ModelRecord, prices []domain.PriceObservation, sales []domain.SalesRecord) []domain.EnrichedModel {
	priceByKey := groupPrices(prices)
	salesByKey := groupSales(sales)

	models := make([]domain.EnrichedModel, 0, len(catalog))
	for _, rec := range catalog {
		if rec.Excluded || !rec.IsValid() {
			continue
		}
		m := domain.EnrichedModel{ModelRecord: rec}
		m.Price = priceStats(priceByKey[rec.Key()])
		if salesRec, ok := salesByKey[rec.Key()]; ok {
			m.Sales = salesStats(salesRec)
		}
		m.PriceVolatility = volatility(m.Price)
		m.HighVolatility = m.PriceVolatility > e.cfg.VolatilityThreshold
		models = append(models, m)
	}

	e.assignSegments(models)
	e.assignTiers(models)
	assignShares(models)

	e.logger.Info("catalog enriched",
		slog.Int("models", len(models)),
		slog.Int("with_price", countWithPrice(models)),
		slog.Int("with_sales", countWithSales(models)),
	)
	return models
}

// groupPrices buckets valid price observations by composite key.
func groupPrices(prices []domain.PriceObservation) map[domain.ModelKey][]float64 {
	byKey := make(map[domain.ModelKey][]float64)
	for _, o := range prices {
		if !o.IsValid() {
			continue
		}
		byKey[o.Key()] = append(byKey[o.Key()], o.EntryPrice)
	}
	return byKey
}

// groupSales merges sales rows by composite key, summing unit counts when
// a key appears on multiple rows.
func groupSales(sales []domain.SalesRecord) map[domain.ModelKey]domain.SalesRecord {
	byKey := make(map[domain.ModelKey]domain.SalesRecord)
	for _, rec := range sales {
		key := rec.Key()
		existing, ok := byKey[key]
		if !ok {
			merged := rec
			merged.Units = make(map[int]float64, len(rec.Units))
			for y, u := range rec.Units {
				merged.Units[y] = u
			}
			byKey[key] = merged
			continue
		}
		for y, u := range rec.Units {
			existing.Units[y] += u
		}
		byKey[key] = existing
	}
	return byKey
}

// assignSegments places each priced model in a segment by where its mean
// price falls against the distribution quantiles. Cut points are inclusive
// on the lower side: a price exactly at a cut belongs to the lower
// segment. Models without price data get the Unknown segment.
func (e *Engineer) assignSegments(models []domain.EnrichedModel) {
	var means []float64
	for _, m := range models {
		if m.HasPriceData() {
			means = append(means, m.Price.Mean)
		}
	}

	if len(means) == 0 {
		for i := range models {
			models[i].Segment = domain.SegmentUnknown
		}
		return
	}

	budgetCut := quantile(means, e.cfg.SegmentBudgetQ)
	midCut := quantile(means, e.cfg.SegmentMidQ)
	premiumCut := quantile(means, e.cfg.SegmentPremiumQ)

	for i := range models {
		m := &models[i]
		if !m.HasPriceData() {
			m.Segment = domain.SegmentUnknown
			continue
		}
		switch mean := m.Price.Mean; {
		case mean <= budgetCut:
			m.Segment = domain.SegmentBudget
		case mean <= midCut:
			m.Segment = domain.SegmentMidRange
		case mean <= premiumCut:
			m.Segment = domain.SegmentPremium
		default:
			m.Segment = domain.SegmentLuxury
		}
	}
}

// assignTiers buckets models by total-sales percentile rank. The rank of a
// model is the share of selling models with totals at or below its own, so
// ties land in the same tier. A model exactly at a cut belongs to the
// lower tier. Models without sales data get the No Data tier.
func (e *Engineer) assignTiers(models []domain.EnrichedModel) {
	var totals []float64
	for _, m := range models {
		if m.HasSalesData() {
			totals = append(totals, m.Sales.Total)
		}
	}
	sort.Float64s(totals)

	for i := range models {
		m := &models[i]
		if !m.HasSalesData() {
			m.Tier = domain.TierNoData
			continue
		}
		rank := percentileRank(totals, m.Sales.Total)
		switch {
		case rank > e.cfg.TierTopQ:
			m.Tier = domain.TierTop
		case rank > e.cfg.TierStrongQ:
			m.Tier = domain.TierStrong
		case rank > e.cfg.TierMidQ:
			m.Tier = domain.TierMid
		case rank > e.cfg.TierLaggingQ:
			m.Tier = domain.TierLagging
		default:
			m.Tier = domain.TierTail
		}
	}
}

// assignShares computes each model's share of its manufacturer's total
// sales on a 0-100 scale. A manufacturer with zero total yields zero
// shares rather than a division error.
func assignShares(models []domain.EnrichedModel) {
	totals := make(map[string]float64)
	for _, m := range models {
		if m.HasSalesData() {
			totals[m.Automaker] += m.Sales.Total
		}
	}
	for i := range models {
		m := &models[i]
		if !m.HasSalesData() || totals[m.Automaker] == 0 {
			m.MarketShare = 0
			continue
		}
		m.MarketShare = 100 * m.Sales.Total / totals[m.Automaker]
	}
}

// quantile returns the q-th quantile of values.
func quantile(values []float64, q float64) float64 {
	v, err := stats.Percentile(values, q*100)
	if err != nil {
		return 0
	}
	return v
}

// percentileRank is the inclusive rank of x in the sorted values: the
// share of entries at or below x.
func percentileRank(sorted []float64, x float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	// First index strictly above x.
	idx := sort.SearchFloat64s(sorted, x)
	for idx < len(sorted) && sorted[idx] == x {
		idx++
	}
	return float64(idx) / float64(len(sorted))
}

func countWithPrice(models []domain.EnrichedModel) int {
	n := 0
	for _, m := range models {
		if m.HasPriceData() {
			n++
		}
	}
	return n
}

func countWithSales(models []domain.EnrichedModel) int {
	n := 0
	for _, m := range models {
		if m.HasSalesData() {
			n++
		}
	}
	return n
}
