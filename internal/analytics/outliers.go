package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"carmarket/pkg/contracts/domain"
)

// Outlier detection methods.
const (
	MethodIQR    = "iqr"
	MethodZScore = "zscore"
)

// Outlier-bearing fields.
const (
	FieldPriceMean  = "price_mean"
	FieldTotalSales = "total_sales"
)

// Outliers flags models whose value on the given field falls outside the
// detection bounds of the chosen method. The IQR method fences at
// Q1 - m*IQR and Q3 + m*IQR; the z-score method uses the modified
// (median/MAD based) z-score, which stays meaningful on the small samples
// where the ordinary z-score is bounded below the threshold by
// construction. Both methods flag the same points on data with a tight
// cluster and a clear extreme.
func (e *Engine) Outliers(models []domain.EnrichedModel, field, method string) ([]domain.Outlier, error) {
	keys, values := fieldValues(models, field)
	if len(values) == 0 {
		return nil, nil
	}

	switch method {
	case MethodIQR:
		return e.iqrOutliers(keys, values, field), nil
	case MethodZScore:
		return e.zScoreOutliers(keys, values, field), nil
	default:
		return nil, fmt.Errorf("unknown outlier method %q", method)
	}
}

// fieldValues extracts the inspected field from models that carry it.
func fieldValues(models []domain.EnrichedModel, field string) ([]domain.ModelKey, []float64) {
	var keys []domain.ModelKey
	var values []float64
	for _, m := range models {
		switch field {
		case FieldPriceMean:
			if m.HasPriceData() {
				keys = append(keys, m.Key())
				values = append(values, m.Price.Mean)
			}
		case FieldTotalSales:
			if m.HasSalesData() {
				keys = append(keys, m.Key())
				values = append(values, m.Sales.Total)
			}
		}
	}
	return keys, values
}

func (e *Engine) iqrOutliers(keys []domain.ModelKey, values []float64, field string) []domain.Outlier {
	q, err := stats.Quartile(values)
	if err != nil {
		return nil
	}
	iqr := q.Q3 - q.Q1
	lower := q.Q1 - e.cfg.IQRMultiplier*iqr
	upper := q.Q3 + e.cfg.IQRMultiplier*iqr

	var out []domain.Outlier
	for i, v := range values {
		var score float64
		switch {
		case v < lower:
			score = lower - v
		case v > upper:
			score = v - upper
		default:
			continue
		}
		out = append(out, domain.Outlier{
			Key:    keys[i],
			Field:  field,
			Value:  v,
			Method: MethodIQR,
			Score:  score,
		})
	}
	sortOutliers(out)
	return out
}

func (e *Engine) zScoreOutliers(keys []domain.ModelKey, values []float64, field string) []domain.Outlier {
	median, err := stats.Median(values)
	if err != nil {
		return nil
	}

	absDev := make([]float64, len(values))
	for i, v := range values {
		absDev[i] = math.Abs(v - median)
	}
	mad, _ := stats.Median(absDev)

	// Degenerate spread: fall back to the ordinary z-score so a MAD of
	// zero does not flag every nonidentical point.
	var score func(v float64) float64
	if mad == 0 {
		mean, _ := stats.Mean(values)
		std, _ := stats.StandardDeviation(values)
		if std == 0 {
			return nil
		}
		score = func(v float64) float64 { return (v - mean) / std }
	} else {
		score = func(v float64) float64 { return 0.6745 * (v - median) / mad }
	}

	var out []domain.Outlier
	for i, v := range values {
		z := score(v)
		if math.Abs(z) <= e.cfg.ZScoreThreshold {
			continue
		}
		out = append(out, domain.Outlier{
			Key:    keys[i],
			Field:  field,
			Value:  v,
			Method: MethodZScore,
			Score:  z,
		})
	}
	sortOutliers(out)
	return out
}

func sortOutliers(out []domain.Outlier) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key.String() < out[j].Key.String()
	})
}
