package domain

import "sort"

// SalesRecord is one row of the sales table in its persisted wide shape:
// one column per year, each holding a unit count or nothing. Missing years
// are simply absent from Units.
type SalesRecord struct {
	Automaker  string `json:"automaker" csv:"Automaker"`
	Genmodel   string `json:"genmodel" csv:"Genmodel"`
	GenmodelID string `json:"genmodel_id" csv:"Genmodel_ID"`

	// Units maps year to unit sales for years that carried a value.
	Units map[int]float64 `json:"units"`
}

// Key returns the composite join key for the record.
func (s SalesRecord) Key() ModelKey {
	return ModelKey{Automaker: s.Automaker, Genmodel: s.Genmodel}
}

// Years returns the years with data in ascending order.
func (s SalesRecord) Years() []int {
	years := make([]int, 0, len(s.Units))
	for y := range s.Units {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Long reshapes the record to long form, one point per year with data.
// The wide form is the loaded shape; the long form is a derived
// intermediate used by aggregation.
func (s SalesRecord) Long() []SalesPoint {
	points := make([]SalesPoint, 0, len(s.Units))
	for _, y := range s.Years() {
		points = append(points, SalesPoint{
			Key:   s.Key(),
			Year:  y,
			Units: s.Units[y],
		})
	}
	return points
}

// SalesPoint is one (model, year, units) row of the long-form sales table.
type SalesPoint struct {
	Key   ModelKey `json:"key"`
	Year  int      `json:"year"`
	Units float64  `json:"units"`
}

// SalesStats summarizes a model's yearly unit sales.
type SalesStats struct {
	Total float64 `json:"total_sales"`
	Avg   float64 `json:"avg_sales"`
	Max   float64 `json:"max_sales"`
	Min   float64 `json:"min_sales"`
	Std   float64 `json:"sales_std"`
	Years int     `json:"years_with_data"`

	// Trend is the OLS slope of units against year index (not raw year).
	// Zero with LowConfidence set when fewer than two years carry data.
	Trend         float64 `json:"sales_trend"`
	LowConfidence bool    `json:"low_confidence"`
}
