// Package analytics computes the cross-table market metrics over the
// enriched catalog: manufacturer shares, concentration, outliers,
// elasticity, clustering, correlation and templated insights. Every
// computation is a stateless pure transform; the same inputs always
// produce the same outputs.
package analytics

import (
	"log/slog"
	"sort"

	"carmarket/internal/config"
	"carmarket/pkg/contracts/domain"
)

// UnknownBucket is the manufacturer bucket for sales rows whose
// manufacturer could not be resolved during cleaning. Keeping them in a
// named bucket keeps share denominators honest and the gap auditable.
const UnknownBucket = "Unknown"

// Engine computes market analytics.
type Engine struct {
	cfg    config.AnalyticsConfig
	logger *slog.Logger
}

// New creates an analytics engine.
func New(cfg config.AnalyticsConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// MarketShare groups total sales by manufacturer and computes each share
// of the grand total on a 0-100 scale. Sales rows with an unresolved
// manufacturer are counted under the Unknown bucket. The result is sorted
// by share descending, with ties broken by manufacturer name ascending.
func (e *Engine) MarketShare(models []domain.EnrichedModel, sales []domain.SalesRecord) []domain.ManufacturerShare {
	totals := make(map[string]float64)
	counts := make(map[string]int)

	for _, m := range models {
		if !m.HasSalesData() {
			counts[m.Automaker]++
			continue
		}
		totals[m.Automaker] += m.Sales.Total
		counts[m.Automaker]++
	}

	for _, rec := range sales {
		if rec.Automaker != "" {
			continue
		}
		var sum float64
		for _, u := range rec.Units {
			sum += u
		}
		totals[UnknownBucket] += sum
		counts[UnknownBucket]++
	}

	var grand float64
	for _, t := range totals {
		grand += t
	}

	shares := make([]domain.ManufacturerShare, 0, len(counts))
	for maker, n := range counts {
		s := domain.ManufacturerShare{
			Automaker:  maker,
			TotalSales: totals[maker],
			Models:     n,
		}
		if grand > 0 {
			s.Share = 100 * totals[maker] / grand
		}
		shares = append(shares, s)
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Share != shares[j].Share {
			return shares[i].Share > shares[j].Share
		}
		return shares[i].Automaker < shares[j].Automaker
	})

	e.logger.Debug("market share computed",
		slog.Int("manufacturers", len(shares)),
		slog.Float64("grand_total", grand),
	)
	return shares
}

// Concentration computes the HHI over the given shares and the combined
// share of the top N manufacturers. Shares are on the 0-100 convention, so
// a pure monopoly scores 10000.
func (e *Engine) Concentration(shares []domain.ManufacturerShare) domain.Concentration {
	var hhi float64
	for _, s := range shares {
		hhi += s.Share * s.Share
	}

	c := domain.Concentration{HHI: hhi, TopN: e.cfg.TopN}
	switch {
	case hhi > e.cfg.HHIConcentratedAt:
		c.Class = domain.ConcentrationConcentrated
	case hhi >= e.cfg.HHIModerateAt:
		c.Class = domain.ConcentrationModerate
	default:
		c.Class = domain.ConcentrationFragmented
	}

	for i, s := range shares {
		if i < e.cfg.TopN {
			c.TopNShare += s.Share
		}
		if s.Share >= 1 {
			c.SignificantPlayers++
		}
	}
	return c
}
