package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"carmarket/internal/pipeline"
	"carmarket/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize the file as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var modelHeaders = []string{
	"Automaker", "Genmodel", "Genmodel_ID",
	"Price_min", "Price_max", "Price_mean", "Price_median", "Price_std", "Price_count",
	"Total_sales", "Avg_sales", "Sales_years", "Sales_trend", "Low_confidence",
	"Price_volatility", "High_volatility",
	"Market_segment", "Performance_tier", "Market_share",
}

// RenderModelsCSV renders the enriched catalog as BOM-prefixed CSV. Models
// without price or sales data keep empty cells rather than zeros, so a
// spreadsheet reader can tell missing from measured.
func (e *Exporter) RenderModelsCSV(snap *pipeline.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(modelHeaders); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}
	for _, m := range snap.Models {
		if err := w.Write(modelRecord(m)); err != nil {
			return nil, fmt.Errorf("write record for %s: %w", m.Key(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderSharesCSV renders the market-share summary as BOM-prefixed CSV.
func (e *Exporter) RenderSharesCSV(shares []domain.ManufacturerShare) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Automaker", "Total_sales", "Market_share", "Models"}); err != nil {
		return nil, err
	}
	for _, s := range shares {
		record := []string{s.Automaker, formatFloat(s.TotalSales), formatFloat(s.Share), formatInt(s.Models)}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// modelRecord flattens one enriched model to a CSV row.
func modelRecord(m domain.EnrichedModel) []string {
	row := []string{m.Automaker, m.Genmodel, m.GenmodelID}

	if m.HasPriceData() {
		p := m.Price
		row = append(row,
			formatFloat(p.Min), formatFloat(p.Max), formatFloat(p.Mean),
			formatFloat(p.Median), formatFloat(p.Std), formatInt(p.Count),
		)
	} else {
		row = append(row, "", "", "", "", "", "")
	}

	if m.HasSalesData() {
		s := m.Sales
		row = append(row,
			formatFloat(s.Total), formatFloat(s.Avg), formatInt(s.Years),
			formatFloat(s.Trend), formatBool(s.LowConfidence),
		)
	} else {
		row = append(row, "", "", "", "", "")
	}

	row = append(row,
		formatFloat(m.PriceVolatility), formatBool(m.HighVolatility),
		string(m.Segment), string(m.Tier), formatFloat(m.MarketShare),
	)
	return row
}
