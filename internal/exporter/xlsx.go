package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"carmarket/internal/pipeline"
)

// Workbook sheet names.
const (
	sheetCatalog  = "Enriched_Catalog"
	sheetShares   = "Market_Share"
	sheetQuality  = "Quality_Report"
	sheetMetadata = "Metadata"
)

// RenderXLSX renders the snapshot as a workbook: the enriched catalog, the
// market-share summary, the per-table quality reports, and a metadata
// sheet carrying run identity and generation time so an exported file can
// be traced back to the run that produced it.
func (e *Exporter) RenderXLSX(snap *pipeline.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetCatalog)
	for _, sheet := range []string{sheetShares, sheetQuality, sheetMetadata} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	if err := writeCatalogSheet(f, snap); err != nil {
		return nil, err
	}
	if err := writeSharesSheet(f, snap); err != nil {
		return nil, err
	}
	if err := writeQualitySheet(f, snap); err != nil {
		return nil, err
	}
	if err := writeMetadataSheet(f, snap); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCatalogSheet(f *excelize.File, snap *pipeline.Snapshot) error {
	if err := setRow(f, sheetCatalog, 1, toAny(modelHeaders)); err != nil {
		return err
	}
	for i, m := range snap.Models {
		if err := setRow(f, sheetCatalog, i+2, toAny(modelRecord(m))); err != nil {
			return err
		}
	}
	return nil
}

func writeSharesSheet(f *excelize.File, snap *pipeline.Snapshot) error {
	if err := setRow(f, sheetShares, 1, []any{"Automaker", "Total_sales", "Market_share", "Models"}); err != nil {
		return err
	}
	for i, s := range snap.Shares {
		row := []any{s.Automaker, s.TotalSales, s.Share, s.Models}
		if err := setRow(f, sheetShares, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeQualitySheet(f *excelize.File, snap *pipeline.Snapshot) error {
	header := []any{"Table", "Rows", "Completeness", "Uniqueness", "Consistency", "Overall", "Status", "Recommendations"}
	if err := setRow(f, sheetQuality, 1, header); err != nil {
		return err
	}
	for i, q := range snap.Quality {
		recs := ""
		for j, r := range q.Recommendations {
			if j > 0 {
				recs += "; "
			}
			recs += r
		}
		row := []any{q.Table, q.Rows, q.Completeness, q.Uniqueness, q.Consistency, q.Overall, string(q.Status), recs}
		if err := setRow(f, sheetQuality, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeMetadataSheet(f *excelize.File, snap *pipeline.Snapshot) error {
	rows := [][]any{
		{"Run_ID", snap.RunID},
		{"Version", int(snap.Version)},
		{"Generated_at", snap.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", snap.Duration.String()},
		{"Models", len(snap.Models)},
		{"Manufacturers", len(snap.Shares)},
		{"HHI", snap.Concentration.HHI},
		{"Concentration", string(snap.Concentration.Class)},
	}
	for i, row := range rows {
		if err := setRow(f, sheetMetadata, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
