package analytics

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/montanaflynn/stats"

	"carmarket/pkg/contracts/domain"
)

// clusterPoint is one model's standardized feature vector.
type clusterPoint struct {
	key domain.ModelKey
	vec []float64
}

// Clusters partitions models with both price and sales data into k-means
// clusters over standardized (price mean, total sales, volatility, trend)
// vectors. The random source is seeded from configuration, so a fixed
// seed on a fixed input yields identical assignments across runs. Labels
// describe the centroid's position on the price and volume axes.
func (e *Engine) Clusters(models []domain.EnrichedModel) []domain.ClusterAssignment {
	points := buildPoints(models)
	if len(points) == 0 {
		return nil
	}

	k := e.cfg.Clusters
	if k > len(points) {
		k = len(points)
	}

	centroids := e.seedCentroids(points, k)
	assign := make([]int, len(points))

	for iter := 0; iter < e.cfg.MaxIterations; iter++ {
		moved := false
		for i, p := range points {
			best := nearest(p.vec, centroids)
			if best != assign[i] {
				assign[i] = best
				moved = true
			}
		}
		if !moved && iter > 0 {
			break
		}
		centroids = recompute(points, assign, centroids)
	}

	out := make([]domain.ClusterAssignment, len(points))
	for i, p := range points {
		out[i] = domain.ClusterAssignment{
			Key:     p.key,
			Cluster: assign[i],
			Label:   label(centroids[assign[i]]),
		}
	}

	e.logger.Debug("models clustered",
		slog.Int("models", len(points)),
		slog.Int("clusters", k),
	)
	return out
}

// buildPoints standardizes the feature vectors of models carrying both
// price and sales data. Points are ordered by key so iteration order never
// depends on map traversal.
func buildPoints(models []domain.EnrichedModel) []clusterPoint {
	type raw struct {
		key domain.ModelKey
		vec []float64
	}
	var rows []raw
	for _, m := range models {
		if !m.HasPriceData() || !m.HasSalesData() {
			continue
		}
		rows = append(rows, raw{
			key: m.Key(),
			vec: []float64{m.Price.Mean, m.Sales.Total, m.PriceVolatility, m.Sales.Trend},
		})
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].key.String() < rows[j].key.String() })

	dims := len(rows[0].vec)
	for d := 0; d < dims; d++ {
		col := make([]float64, len(rows))
		for i, r := range rows {
			col[i] = r.vec[d]
		}
		mean, _ := stats.Mean(col)
		std, _ := stats.StandardDeviation(col)
		for i := range rows {
			if std == 0 {
				rows[i].vec[d] = 0
				continue
			}
			rows[i].vec[d] = (rows[i].vec[d] - mean) / std
		}
	}

	points := make([]clusterPoint, len(rows))
	for i, r := range rows {
		points[i] = clusterPoint{key: r.key, vec: r.vec}
	}
	return points
}

// seedCentroids picks k distinct starting points with the configured seed.
func (e *Engine) seedCentroids(points []clusterPoint, k int) [][]float64 {
	rng := rand.New(rand.NewSource(e.cfg.Seed))
	perm := rng.Perm(len(points))

	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]].vec...)
	}
	return centroids
}

func nearest(vec []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		var d float64
		for i := range vec {
			diff := vec[i] - centroid[i]
			d += diff * diff
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// recompute moves each centroid to the mean of its members. Empty clusters
// keep their previous position.
func recompute(points []clusterPoint, assign []int, prev [][]float64) [][]float64 {
	k := len(prev)
	dims := len(points[0].vec)

	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dims)
	}
	for i, p := range points {
		c := assign[i]
		counts[c]++
		for d, v := range p.vec {
			sums[c][d] += v
		}
	}

	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			centroids[c] = prev[c]
			continue
		}
		centroids[c] = make([]float64, dims)
		for d := 0; d < dims; d++ {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
	return centroids
}

// label names a centroid by its standardized price and volume position.
func label(centroid []float64) string {
	price := "Value"
	if centroid[0] > 0 {
		price = "Premium"
	}
	volume := "Niche"
	if centroid[1] > 0 {
		volume = "Volume"
	}
	return price + " " + volume
}
