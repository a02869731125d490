package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"carmarket/pkg/contracts/domain"
)

// KPIs computes the headline market figures from the enriched catalog and
// the cleaned sales table. Growth figures cover the union of years carrying
// any data; a market with fewer than two such years reports zero growth.
func (e *Engine) KPIs(models []domain.EnrichedModel, sales []domain.SalesRecord) domain.KPISummary {
	kpi := catalogKPIs(models)

	byYear := make(map[int]float64)
	for _, rec := range sales {
		for y, u := range rec.Units {
			byYear[y] += u
		}
	}
	if len(byYear) == 0 {
		return kpi
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	kpi.FirstYear = years[0]
	kpi.LastYear = years[len(years)-1]
	for _, y := range years {
		v := byYear[y]
		kpi.TotalVolume += v
		if v > kpi.PeakVolume {
			kpi.PeakVolume = v
			kpi.PeakYear = y
		}
	}

	if len(years) < 2 {
		return kpi
	}

	last, prev := byYear[years[len(years)-1]], byYear[years[len(years)-2]]
	if prev > 0 {
		kpi.YoYGrowth = 100 * (last - prev) / prev
	}

	first := byYear[years[0]]
	span := float64(kpi.LastYear - kpi.FirstYear)
	if first > 0 && span > 0 {
		kpi.CAGR = 100 * (math.Pow(byYear[kpi.LastYear]/first, 1/span) - 1)
	}
	return kpi
}

// catalogKPIs derives the catalog-level figures: model and manufacturer
// counts plus the average and median of the per-model mean entry price.
func catalogKPIs(models []domain.EnrichedModel) domain.KPISummary {
	kpi := domain.KPISummary{Models: len(models)}

	makers := make(map[string]bool)
	var prices []float64
	for _, m := range models {
		makers[m.Automaker] = true
		if m.HasPriceData() {
			prices = append(prices, m.Price.Mean)
		}
	}
	kpi.Manufacturers = len(makers)

	if len(prices) > 0 {
		if v, err := stats.Mean(prices); err == nil {
			kpi.AvgPrice = v
		}
		if v, err := stats.Median(prices); err == nil {
			kpi.MedianPrice = v
		}
	}
	return kpi
}

// Insights synthesizes the templated market facts: leader, concentration,
// price range, volume, growth, outlier count and data coverage. The rules
// are fixed and the inputs deterministic, so the same snapshot always
// yields the same statements in the same order.
func (e *Engine) Insights(
	models []domain.EnrichedModel,
	shares []domain.ManufacturerShare,
	conc domain.Concentration,
	outliers []domain.Outlier,
	kpi domain.KPISummary,
) []domain.Insight {
	var out []domain.Insight

	if len(shares) > 0 && shares[0].TotalSales > 0 {
		out = append(out, domain.Insight{
			Kind: "leader",
			Text: fmt.Sprintf("%s leads the market with a %.1f%% share of total sales.", shares[0].Automaker, shares[0].Share),
		})
	}

	out = append(out, domain.Insight{
		Kind: "concentration",
		Text: fmt.Sprintf("The market is %s (HHI %.0f); the top %d manufacturers hold %.1f%% of sales.", conc.Class, conc.HHI, conc.TopN, conc.TopNShare),
	})

	if lo, hi, ok := priceRange(models); ok {
		out = append(out, domain.Insight{
			Kind: "price_range",
			Text: fmt.Sprintf("Entry prices span %.0f to %.0f across priced models.", lo, hi),
		})
	}

	if kpi.TotalVolume > 0 {
		out = append(out, domain.Insight{
			Kind: "volume",
			Text: fmt.Sprintf("Total recorded volume is %.0f units between %d and %d, peaking at %.0f in %d.", kpi.TotalVolume, kpi.FirstYear, kpi.LastYear, kpi.PeakVolume, kpi.PeakYear),
		})
		if kpi.LastYear > kpi.FirstYear {
			out = append(out, domain.Insight{
				Kind: "growth",
				Text: fmt.Sprintf("Latest year-over-year growth is %.1f%%; compound annual growth over the range is %.1f%%.", kpi.YoYGrowth, kpi.CAGR),
			})
		}
	}

	if len(outliers) > 0 {
		out = append(out, domain.Insight{
			Kind: "outliers",
			Text: fmt.Sprintf("%d models carry extreme values on the inspected fields.", countDistinctOutliers(outliers)),
		})
	}

	priced, sold := 0, 0
	for _, m := range models {
		if m.HasPriceData() {
			priced++
		}
		if m.HasSalesData() {
			sold++
		}
	}
	out = append(out, domain.Insight{
		Kind: "coverage",
		Text: fmt.Sprintf("%d of %d models have price data; %d of %d have sales data.", priced, len(models), sold, len(models)),
	})

	return out
}

func priceRange(models []domain.EnrichedModel) (lo, hi float64, ok bool) {
	for _, m := range models {
		if !m.HasPriceData() {
			continue
		}
		if !ok {
			lo, hi, ok = m.Price.Min, m.Price.Max, true
			continue
		}
		if m.Price.Min < lo {
			lo = m.Price.Min
		}
		if m.Price.Max > hi {
			hi = m.Price.Max
		}
	}
	return lo, hi, ok
}

func countDistinctOutliers(outliers []domain.Outlier) int {
	seen := make(map[domain.ModelKey]bool, len(outliers))
	for _, o := range outliers {
		seen[o.Key] = true
	}
	return len(seen)
}
