package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carmarket/internal/config"
	"carmarket/pkg/contracts/domain"
)

func newTestEngine() *Engine {
	return New(config.Default().Pipeline.Analytics, nil)
}

func enriched(maker, name string, total float64) domain.EnrichedModel {
	return domain.EnrichedModel{
		ModelRecord: domain.ModelRecord{Automaker: maker, Genmodel: name},
		Sales:       &domain.SalesStats{Total: total, Years: 1},
	}
}

func TestMarketShare_SortAndSum(t *testing.T) {
	e := newTestEngine()

	shares := e.MarketShare([]domain.EnrichedModel{
		enriched("Ford", "Focus", 300),
		enriched("Toyota", "Corolla", 500),
		enriched("BMW", "3 Series", 200),
	}, nil)

	require.Len(t, shares, 3)
	assert.Equal(t, "Toyota", shares[0].Automaker)
	assert.Equal(t, "Ford", shares[1].Automaker)
	assert.Equal(t, "BMW", shares[2].Automaker)

	var sum float64
	for _, s := range shares {
		sum += s.Share
	}
	assert.InDelta(t, 100, sum, 1e-9, "shares over the full population sum to 100")
}

func TestMarketShare_TiesBrokenByName(t *testing.T) {
	e := newTestEngine()

	shares := e.MarketShare([]domain.EnrichedModel{
		enriched("Zeta", "Z1", 100),
		enriched("Alpha", "A1", 100),
	}, nil)

	require.Len(t, shares, 2)
	assert.Equal(t, "Alpha", shares[0].Automaker)
	assert.Equal(t, "Zeta", shares[1].Automaker)
}

func TestMarketShare_UnknownBucket(t *testing.T) {
	e := newTestEngine()

	// A sales row whose manufacturer never resolved lands in the Unknown
	// bucket instead of silently shrinking the denominator.
	shares := e.MarketShare(
		[]domain.EnrichedModel{enriched("Ford", "Focus", 900)},
		[]domain.SalesRecord{{Automaker: "", Genmodel: "Mystery", Units: map[int]float64{2010: 100}}},
	)

	require.Len(t, shares, 2)
	byMaker := map[string]domain.ManufacturerShare{}
	for _, s := range shares {
		byMaker[s.Automaker] = s
	}
	assert.InDelta(t, 90, byMaker["Ford"].Share, 1e-9)
	assert.InDelta(t, 10, byMaker[UnknownBucket].Share, 1e-9)
}

func TestConcentration_HHI(t *testing.T) {
	e := newTestEngine()

	t.Run("monopoly scores 10000", func(t *testing.T) {
		c := e.Concentration([]domain.ManufacturerShare{{Automaker: "Only", Share: 100}})
		assert.InDelta(t, 10000, c.HHI, 1e-9)
		assert.Equal(t, domain.ConcentrationConcentrated, c.Class)
	})

	t.Run("even split is fragmented", func(t *testing.T) {
		shares := make([]domain.ManufacturerShare, 10)
		for i := range shares {
			shares[i] = domain.ManufacturerShare{Share: 10}
		}
		c := e.Concentration(shares)
		assert.InDelta(t, 1000, c.HHI, 1e-9)
		assert.Equal(t, domain.ConcentrationFragmented, c.Class)
	})

	t.Run("order invariant", func(t *testing.T) {
		a := e.Concentration([]domain.ManufacturerShare{{Share: 60}, {Share: 30}, {Share: 10}})
		b := e.Concentration([]domain.ManufacturerShare{{Share: 10}, {Share: 60}, {Share: 30}})
		assert.Equal(t, a.HHI, b.HHI)
	})

	t.Run("concentrating share never decreases HHI", func(t *testing.T) {
		before := e.Concentration([]domain.ManufacturerShare{{Share: 50}, {Share: 30}, {Share: 20}})
		// Move share from the smaller to the larger manufacturer.
		after := e.Concentration([]domain.ManufacturerShare{{Share: 60}, {Share: 30}, {Share: 10}})
		assert.GreaterOrEqual(t, after.HHI, before.HHI)
	})

	t.Run("top-n share", func(t *testing.T) {
		c := e.Concentration([]domain.ManufacturerShare{
			{Share: 40}, {Share: 30}, {Share: 20}, {Share: 10},
		})
		assert.Equal(t, 3, c.TopN)
		assert.InDelta(t, 90, c.TopNShare, 1e-9)
	})

	t.Run("significant players", func(t *testing.T) {
		c := e.Concentration([]domain.ManufacturerShare{
			{Share: 70}, {Share: 29.5}, {Share: 0.5},
		})
		assert.Equal(t, 2, c.SignificantPlayers, "below 1% does not count")
	})
}

func TestOutliers_BothMethodsAgree(t *testing.T) {
	e := newTestEngine()

	prices := []float64{10, 11, 12, 11, 10, 9, 500}
	models := make([]domain.EnrichedModel, len(prices))
	for i, p := range prices {
		models[i] = domain.EnrichedModel{
			ModelRecord: domain.ModelRecord{Automaker: "M", Genmodel: string(rune('A' + i))},
			Price:       &domain.PriceStats{Mean: p, Count: 1},
		}
	}

	for _, method := range []string{MethodIQR, MethodZScore} {
		t.Run(method, func(t *testing.T) {
			out, err := e.Outliers(models, FieldPriceMean, method)
			require.NoError(t, err)
			require.Len(t, out, 1, "only the extreme point is flagged")
			assert.Equal(t, 500.0, out[0].Value)
			assert.Equal(t, method, out[0].Method)
		})
	}
}

func TestOutliers_UnknownMethod(t *testing.T) {
	e := newTestEngine()
	_, err := e.Outliers([]domain.EnrichedModel{
		{Price: &domain.PriceStats{Mean: 10, Count: 1}},
	}, FieldPriceMean, "mad-max")
	assert.Error(t, err)
}

func TestOutliers_EmptyField(t *testing.T) {
	e := newTestEngine()
	out, err := e.Outliers(nil, FieldTotalSales, MethodIQR)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestElasticity_Scenario(t *testing.T) {
	e := newTestEngine()

	// Prices 20000 -> 22000 (+10%) against sales 10000 -> 9700 (-3%)
	// gives magnitude 0.3, inelastic.
	prices := []domain.PriceObservation{
		{Automaker: "Ford", Genmodel: "Focus", Year: 2010, EntryPrice: 20000},
		{Automaker: "Ford", Genmodel: "Focus", Year: 2011, EntryPrice: 22000},
	}
	sales := []domain.SalesRecord{
		{Automaker: "Ford", Genmodel: "Focus", Units: map[int]float64{2010: 10000, 2011: 9700}},
	}

	out := e.Elasticities(prices, sales)
	require.Len(t, out, 1)
	est := out[0]
	assert.True(t, est.Defined)
	assert.InDelta(t, 0.3, est.Value, 1e-9)
	assert.Equal(t, domain.ElasticityInelastic, est.Class)
	assert.Equal(t, 2010, est.FromYear)
	assert.Equal(t, 2011, est.ToYear)
}

func TestElasticity_UndefinedOnFlatPrice(t *testing.T) {
	e := newTestEngine()

	out := e.Elasticities(
		[]domain.PriceObservation{
			{Automaker: "Ford", Genmodel: "Focus", Year: 2010, EntryPrice: 20000},
			{Automaker: "Ford", Genmodel: "Focus", Year: 2011, EntryPrice: 20000},
		},
		[]domain.SalesRecord{
			{Automaker: "Ford", Genmodel: "Focus", Units: map[int]float64{2010: 10000, 2011: 8000}},
		},
	)

	require.Len(t, out, 1)
	assert.False(t, out[0].Defined, "zero price change cannot produce a finite elasticity")
	assert.Equal(t, domain.ElasticityUndefined, out[0].Class)
}

func TestElasticity_ClassBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		priceTo   float64
		salesTo   float64
		wantClass domain.ElasticityClass
	}{
		// +10% price; sales deltas chosen to land each class.
		{name: "inelastic", priceTo: 22000, salesTo: 9700, wantClass: domain.ElasticityInelastic},
		{name: "unit", priceTo: 22000, salesTo: 9000, wantClass: domain.ElasticityUnit},
		{name: "elastic", priceTo: 22000, salesTo: 7000, wantClass: domain.ElasticityElastic},
	}

	e := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Elasticities(
				[]domain.PriceObservation{
					{Automaker: "M", Genmodel: "X", Year: 2010, EntryPrice: 20000},
					{Automaker: "M", Genmodel: "X", Year: 2011, EntryPrice: tt.priceTo},
				},
				[]domain.SalesRecord{
					{Automaker: "M", Genmodel: "X", Units: map[int]float64{2010: 10000, 2011: tt.salesTo}},
				},
			)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantClass, out[0].Class)
		})
	}
}

func TestClusters_SeededReproducibility(t *testing.T) {
	e := newTestEngine()

	var models []domain.EnrichedModel
	for i := 0; i < 20; i++ {
		models = append(models, domain.EnrichedModel{
			ModelRecord: domain.ModelRecord{Automaker: "M", Genmodel: string(rune('A' + i))},
			Price:       &domain.PriceStats{Mean: float64(10000 + i*5000), Count: 2},
			Sales:       &domain.SalesStats{Total: float64(1000 * (20 - i)), Years: 3, Trend: float64(i - 10)},
		})
	}

	first := e.Clusters(models)
	second := e.Clusters(models)

	require.Len(t, first, 20)
	assert.Equal(t, first, second, "fixed seed on fixed input yields identical assignments")
}

func TestClusters_SkipsModelsWithoutData(t *testing.T) {
	e := newTestEngine()

	out := e.Clusters([]domain.EnrichedModel{
		{ModelRecord: domain.ModelRecord{Automaker: "M", Genmodel: "NoData"}},
	})
	assert.Empty(t, out)
}

func TestCorrelation_PairwiseExclusion(t *testing.T) {
	e := newTestEngine()

	// Two models carry both features, one carries only price. The pair
	// correlation must use exactly the two complete models.
	models := []domain.EnrichedModel{
		{Price: &domain.PriceStats{Mean: 10000, Count: 1}, Sales: &domain.SalesStats{Total: 100, Years: 1}},
		{Price: &domain.PriceStats{Mean: 20000, Count: 1}, Sales: &domain.SalesStats{Total: 200, Years: 1}},
		{Price: &domain.PriceStats{Mean: 90000, Count: 1}},
	}

	matrix := e.Correlation(models, []string{FieldPriceMean, FieldTotalSales})

	require.Len(t, matrix.Features, 2)
	assert.InDelta(t, 1, matrix.At(0, 0), 1e-9)
	assert.InDelta(t, 1, matrix.At(0, 1), 1e-9, "two complete points correlate perfectly")
	assert.Equal(t, matrix.At(0, 1), matrix.At(1, 0))
}

func TestKPIs(t *testing.T) {
	e := newTestEngine()

	models := []domain.EnrichedModel{
		{ModelRecord: domain.ModelRecord{Automaker: "Ford", Genmodel: "Focus"}, Price: &domain.PriceStats{Mean: 20000, Count: 1}},
		{ModelRecord: domain.ModelRecord{Automaker: "Ford", Genmodel: "Fiesta"}, Price: &domain.PriceStats{Mean: 15000, Count: 1}},
		{ModelRecord: domain.ModelRecord{Automaker: "BMW", Genmodel: "3 Series"}, Price: &domain.PriceStats{Mean: 40000, Count: 1}},
	}
	kpi := e.KPIs(models, []domain.SalesRecord{
		{Units: map[int]float64{2010: 1000, 2011: 1200, 2012: 1100}},
		{Units: map[int]float64{2012: 100}},
	})

	assert.Equal(t, 3, kpi.Models)
	assert.Equal(t, 2, kpi.Manufacturers)
	assert.InDelta(t, 25000, kpi.AvgPrice, 1e-9)
	assert.InDelta(t, 20000, kpi.MedianPrice, 1e-9)

	assert.Equal(t, 2010, kpi.FirstYear)
	assert.Equal(t, 2012, kpi.LastYear)
	assert.InDelta(t, 3400, kpi.TotalVolume, 1e-9)
	assert.Equal(t, 2011, kpi.PeakYear, "2012 ties the peak but does not beat it")
	assert.InDelta(t, 1200, kpi.PeakVolume, 1e-9)
	assert.InDelta(t, 0, kpi.YoYGrowth, 1e-9)
	assert.InDelta(t, 100*(math.Pow(1200.0/1000.0, 0.5)-1), kpi.CAGR, 1e-6)
}

func TestInsights_Deterministic(t *testing.T) {
	e := newTestEngine()

	models := []domain.EnrichedModel{enriched("Toyota", "Corolla", 500)}
	shares := e.MarketShare(models, nil)
	conc := e.Concentration(shares)
	kpi := domain.KPISummary{TotalVolume: 500, FirstYear: 2010, LastYear: 2012, PeakYear: 2011, PeakVolume: 200, YoYGrowth: 5, CAGR: 3}

	first := e.Insights(models, shares, conc, nil, kpi)
	second := e.Insights(models, shares, conc, nil, kpi)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "same inputs always produce the same statements")
	assert.Contains(t, first[0].Text, "Toyota")
	assert.Equal(t, "leader", first[0].Kind)
}
