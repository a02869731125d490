// Package exporter renders snapshots to flat formats: delimited text for
// spreadsheet workflows, a workbook with metadata and quality sheets, and
// a structured JSON document for programmatic consumers.
package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"carmarket/internal/pipeline"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Exporter writes snapshot exports into the reports directory.
type Exporter struct {
	reportsDir string
	logger     *slog.Logger
}

// New creates an exporter rooted at the reports directory.
func New(reportsDir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{reportsDir: reportsDir, logger: logger}
}

// Export renders the snapshot in the given format and writes it under the
// reports directory. It returns the written file's path.
func (e *Exporter) Export(snap *pipeline.Snapshot, format string) (string, error) {
	var (
		data []byte
		name string
		err  error
	)

	switch format {
	case FormatCSV:
		name = "enriched_catalog.csv"
		data, err = e.RenderModelsCSV(snap)
	case FormatJSON:
		name = "snapshot.json"
		data, err = e.RenderJSON(snap)
	case FormatXLSX:
		name = "market_report.xlsx"
		data, err = e.RenderXLSX(snap)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(e.reportsDir, name)
	if err := os.MkdirAll(e.reportsDir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	e.logger.Info("snapshot exported",
		slog.String("format", format),
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)
	return path, nil
}
