package domain

// PriceObservation is one row of the price table: an observed entry price
// for a model in a given year. A model may have zero, one, or many
// observations across years and trims.
type PriceObservation struct {
	Automaker  string  `json:"automaker" csv:"Automaker"`
	Genmodel   string  `json:"genmodel" csv:"Genmodel"`
	GenmodelID string  `json:"genmodel_id" csv:"Genmodel_ID"`
	Year       int     `json:"year" csv:"Year"`
	EntryPrice float64 `json:"entry_price" csv:"Entry_price"`
}

// Key returns the composite join key for the observation.
func (p PriceObservation) Key() ModelKey {
	return ModelKey{Automaker: p.Automaker, Genmodel: p.Genmodel}
}

// IsValid reports whether the observation is usable for aggregation.
func (p PriceObservation) IsValid() bool {
	return p.EntryPrice > 0 && p.Year > 0
}

// PriceStats is the five-number-plus-count summary of a model's
// price observations.
type PriceStats struct {
	Min    float64 `json:"price_min"`
	Max    float64 `json:"price_max"`
	Mean   float64 `json:"price_mean"`
	Median float64 `json:"price_median"`
	Std    float64 `json:"price_std"`
	Count  int     `json:"price_count"`
}
