package analytics

import (
	"github.com/montanaflynn/stats"

	"carmarket/pkg/contracts/domain"
)

// Correlatable feature names.
var DefaultCorrelationFeatures = []string{
	FieldPriceMean,
	"price_volatility",
	FieldTotalSales,
	"sales_trend",
	"market_share",
}

// Correlation computes the pairwise Pearson correlation matrix over the
// given features. For each pair, only models carrying both values enter
// the computation; missing values are excluded pairwise, never
// zero-filled. Pairs with fewer than two common observations, or with a
// degenerate (constant) series, report a correlation of zero.
func (e *Engine) Correlation(models []domain.EnrichedModel, features []string) domain.CorrelationMatrix {
	if len(features) == 0 {
		features = DefaultCorrelationFeatures
	}

	matrix := domain.CorrelationMatrix{
		Features: features,
		Values:   make([][]float64, len(features)),
	}
	for i := range matrix.Values {
		matrix.Values[i] = make([]float64, len(features))
		matrix.Values[i][i] = 1
	}

	for i := 0; i < len(features); i++ {
		for j := i + 1; j < len(features); j++ {
			r := pairwisePearson(models, features[i], features[j])
			matrix.Values[i][j] = r
			matrix.Values[j][i] = r
		}
	}
	return matrix
}

// pairwisePearson correlates two features over the models where both are
// present.
func pairwisePearson(models []domain.EnrichedModel, f1, f2 string) float64 {
	var xs, ys []float64
	for _, m := range models {
		x, okX := featureValue(m, f1)
		y, okY := featureValue(m, f2)
		if !okX || !okY {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return 0
	}
	r, err := stats.Pearson(xs, ys)
	if err != nil {
		return 0
	}
	return r
}

// featureValue extracts one numeric feature from a model, reporting
// whether the model carries it at all.
func featureValue(m domain.EnrichedModel, feature string) (float64, bool) {
	switch feature {
	case FieldPriceMean:
		if !m.HasPriceData() {
			return 0, false
		}
		return m.Price.Mean, true
	case "price_volatility":
		if !m.HasPriceData() {
			return 0, false
		}
		return m.PriceVolatility, true
	case FieldTotalSales:
		if !m.HasSalesData() {
			return 0, false
		}
		return m.Sales.Total, true
	case "sales_trend":
		if !m.HasSalesData() {
			return 0, false
		}
		return m.Sales.Trend, true
	case "market_share":
		if !m.HasSalesData() {
			return 0, false
		}
		return m.MarketShare, true
	default:
		return 0, false
	}
}
