package analytics

import (
	"log/slog"
	"math"
	"sort"

	"carmarket/pkg/contracts/domain"
)

// Elasticities estimates a point price elasticity for every model with
// price and sales data in at least two common years. The estimate is
// -(% change in sales) / (% change in price) between the earliest and
// latest common year. It is not a fitted demand curve: when the price
// change between the reference points is zero the result is undefined
// rather than infinite, and such entries carry Defined=false.
func (e *Engine) Elasticities(prices []domain.PriceObservation, sales []domain.SalesRecord) []domain.Elasticity {
	priceByYear := groupPricesByYear(prices)
	salesByKey := make(map[domain.ModelKey]domain.SalesRecord, len(sales))
	for _, rec := range sales {
		if rec.Automaker == "" || rec.Genmodel == "" {
			continue
		}
		salesByKey[rec.Key()] = rec
	}

	keys := make([]domain.ModelKey, 0, len(priceByYear))
	for key := range priceByYear {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	var out []domain.Elasticity
	for _, key := range keys {
		salesRec, ok := salesByKey[key]
		if !ok {
			continue
		}
		est, ok := e.estimate(key, priceByYear[key], salesRec.Units)
		if !ok {
			continue
		}
		out = append(out, est)
	}

	e.logger.Debug("elasticities estimated", slog.Int("models", len(out)))
	return out
}

// estimate computes one model's elasticity between its earliest and latest
// year carrying both a price and a sales figure.
func (e *Engine) estimate(key domain.ModelKey, priceByYear map[int]float64, units map[int]float64) (domain.Elasticity, bool) {
	var years []int
	for y := range priceByYear {
		if _, ok := units[y]; ok {
			years = append(years, y)
		}
	}
	if len(years) < 2 {
		return domain.Elasticity{}, false
	}
	sort.Ints(years)
	from, to := years[0], years[len(years)-1]

	basePrice, baseSales := priceByYear[from], units[from]
	if basePrice == 0 || baseSales == 0 {
		return domain.Elasticity{}, false
	}

	est := domain.Elasticity{Key: key, FromYear: from, ToYear: to}

	priceChange := (priceByYear[to] - basePrice) / basePrice
	if priceChange == 0 {
		est.Class = domain.ElasticityUndefined
		return est, true
	}

	salesChange := (units[to] - baseSales) / baseSales
	est.Value = -salesChange / priceChange
	est.Defined = true

	switch mag := math.Abs(est.Value); {
	case mag < 1-e.cfg.UnitBand:
		est.Class = domain.ElasticityInelastic
	case mag <= 1+e.cfg.UnitBand:
		est.Class = domain.ElasticityUnit
	default:
		est.Class = domain.ElasticityElastic
	}
	return est, true
}

// groupPricesByYear averages valid price observations per model per year.
func groupPricesByYear(prices []domain.PriceObservation) map[domain.ModelKey]map[int]float64 {
	sums := make(map[domain.ModelKey]map[int][2]float64)
	for _, o := range prices {
		if !o.IsValid() || o.Automaker == "" || o.Genmodel == "" {
			continue
		}
		key := o.Key()
		if sums[key] == nil {
			sums[key] = make(map[int][2]float64)
		}
		agg := sums[key][o.Year]
		agg[0] += o.EntryPrice
		agg[1]++
		sums[key][o.Year] = agg
	}

	out := make(map[domain.ModelKey]map[int]float64, len(sums))
	for key, byYear := range sums {
		out[key] = make(map[int]float64, len(byYear))
		for y, agg := range byYear {
			out[key][y] = agg[0] / agg[1]
		}
	}
	return out
}
