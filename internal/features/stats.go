package features

import (
	"github.com/montanaflynn/stats"

	"carmarket/pkg/contracts/domain"
)

// priceStats summarizes one model's valid price observations.
func priceStats(values []float64) *domain.PriceStats {
	if len(values) == 0 {
		return nil
	}
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)

	std := 0.0
	if len(values) >= 2 {
		std, _ = stats.StandardDeviationSample(values)
	}

	return &domain.PriceStats{
		Min:    min,
		Max:    max,
		Mean:   mean,
		Median: median,
		Std:    std,
		Count:  len(values),
	}
}

// salesStats summarizes one model's yearly unit sales. Trend is the OLS
// slope of units against the year index within the model's own series, so
// a model present only for 2010-2015 gets indices 0..5.
func salesStats(rec domain.SalesRecord) *domain.SalesStats {
	if len(rec.Units) == 0 {
		return nil
	}

	values := make([]float64, 0, len(rec.Units))
	for _, y := range rec.Years() {
		values = append(values, rec.Units[y])
	}

	total, _ := stats.Sum(values)
	avg, _ := stats.Mean(values)
	max, _ := stats.Max(values)
	min, _ := stats.Min(values)

	std := 0.0
	if len(values) >= 2 {
		std, _ = stats.StandardDeviationSample(values)
	}

	s := &domain.SalesStats{
		Total: total,
		Avg:   avg,
		Max:   max,
		Min:   min,
		Std:   std,
		Years: len(values),
	}

	if len(values) < 2 {
		s.LowConfidence = true
		return s
	}
	s.Trend = olsSlope(values)
	return s
}

// olsSlope fits units = a + b*index and returns b.
func olsSlope(values []float64) float64 {
	series := make(stats.Series, len(values))
	for i, v := range values {
		series[i] = stats.Coordinate{X: float64(i), Y: v}
	}
	fitted, err := stats.LinearRegression(series)
	if err != nil || len(fitted) < 2 {
		return 0
	}
	first, last := fitted[0], fitted[len(fitted)-1]
	if last.X == first.X {
		return 0
	}
	return (last.Y - first.Y) / (last.X - first.X)
}

// volatility is the coefficient of variation of a model's prices. Zero
// when fewer than two observations exist or the mean is zero.
func volatility(p *domain.PriceStats) float64 {
	if p == nil || p.Count < 2 || p.Mean == 0 {
		return 0
	}
	return p.Std / p.Mean
}
