// Package loader ingests the three source tables. Each load tries a fixed
// fallback list of text encodings, converges source headers onto canonical
// column names through the configured rename map, and parses rows into
// typed records. Loads have no side effects beyond the returned tables.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"carmarket/internal/config"
	apperrors "carmarket/internal/errors"
	"carmarket/pkg/contracts/domain"
)

// Tables holds the three loaded source tables.
type Tables struct {
	Catalog []domain.ModelRecord
	Prices  []domain.PriceObservation
	Sales   []domain.SalesRecord
}

// Loader reads source tables from the data directory.
type Loader struct {
	cfg     config.LoaderConfig
	dataDir string
	logger  *slog.Logger
}

// New creates a loader for the given data directory.
func New(cfg config.LoaderConfig, dataDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cfg: cfg, dataDir: dataDir, logger: logger}
}

// LoadAll loads the catalog, price and sales tables. The three loads are
// independent and run concurrently; the first failure aborts the rest.
func (l *Loader) LoadAll(ctx context.Context) (*Tables, error) {
	start := time.Now()
	tables := &Tables{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tables.Catalog, err = l.LoadCatalog(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tables.Prices, err = l.LoadPrices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tables.Sales, err = l.LoadSales(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "all source tables loaded",
		slog.Int("catalog_rows", len(tables.Catalog)),
		slog.Int("price_rows", len(tables.Prices)),
		slog.Int("sales_rows", len(tables.Sales)),
		slog.Duration("duration", time.Since(start)),
	)
	return tables, nil
}

// LoadCatalog loads the catalog table.
func (l *Loader) LoadCatalog(ctx context.Context) ([]domain.ModelRecord, error) {
	table, err := l.readTable(ctx, config.TableCatalog)
	if err != nil {
		return nil, err
	}

	in := newInterner()
	records := make([]domain.ModelRecord, 0, len(table.rows))
	for _, row := range table.rows {
		records = append(records, domain.ModelRecord{
			Automaker:   in.Intern(table.cell(row, config.ColAutomaker)),
			AutomakerID: in.Intern(table.cell(row, config.ColAutomakerID)),
			Genmodel:    table.cell(row, config.ColGenmodel),
			GenmodelID:  table.cell(row, config.ColGenmodelID),
		})
	}
	return records, nil
}

// LoadPrices loads the price table. Rows with an unparseable year or price
// are kept as zero-valued observations so the validator can count them;
// they never join downstream because IsValid rejects them.
func (l *Loader) LoadPrices(ctx context.Context) ([]domain.PriceObservation, error) {
	table, err := l.readTable(ctx, config.TablePrice)
	if err != nil {
		return nil, err
	}

	in := newInterner()
	obs := make([]domain.PriceObservation, 0, len(table.rows))
	for _, row := range table.rows {
		year, _ := parseYear(table.cell(row, config.ColYear))
		price, _ := parsePrice(table.cell(row, config.ColEntryPrice))
		obs = append(obs, domain.PriceObservation{
			Automaker:  in.Intern(table.cell(row, config.ColAutomaker)),
			Genmodel:   table.cell(row, config.ColGenmodel),
			GenmodelID: table.cell(row, config.ColGenmodelID),
			Year:       year,
			EntryPrice: price,
		})
	}
	return obs, nil
}

// LoadSales loads the sales table in its wide shape. Year columns outside
// the configured range are ignored; empty or unparseable cells leave the
// year absent rather than zero-filled.
func (l *Loader) LoadSales(ctx context.Context) ([]domain.SalesRecord, error) {
	table, err := l.readTable(ctx, config.TableSales)
	if err != nil {
		return nil, err
	}

	yearCols := make(map[int]int) // year -> column index
	for idx, name := range table.header {
		if y, ok := parseYear(name); ok && y >= l.cfg.SalesYearFrom && y <= l.cfg.SalesYearTo {
			yearCols[y] = idx
		}
	}

	in := newInterner()
	records := make([]domain.SalesRecord, 0, len(table.rows))
	for _, row := range table.rows {
		units := make(map[int]float64, len(yearCols))
		for year, idx := range yearCols {
			if idx >= len(row) {
				continue
			}
			if v, ok := parseCount(row[idx]); ok {
				units[year] = v
			}
		}
		records = append(records, domain.SalesRecord{
			Automaker:  in.Intern(table.cell(row, config.ColAutomaker)),
			Genmodel:   table.cell(row, config.ColGenmodel),
			GenmodelID: table.cell(row, config.ColGenmodelID),
			Units:      units,
		})
	}
	return records, nil
}

// rawTable is a decoded CSV with canonicalized headers.
type rawTable struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// cell returns the named column's value in a row, trimmed. Missing columns
// and short rows yield the empty string.
func (t *rawTable) cell(row []string, col string) string {
	idx, ok := t.index[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// readTable reads, decodes and parses one source table, honoring the
// configured load timeout.
func (l *Loader) readTable(ctx context.Context, table string) (*rawTable, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.LoadTimeout)
	defer cancel()

	filename, ok := l.cfg.Files[table]
	if !ok {
		return nil, apperrors.NewConfigError("loader.files", "no file configured for table "+table)
	}
	path := filepath.Join(l.dataDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewLoadError(table, apperrors.ErrFileNotFound, err)
	}

	text, encoding, err := decodeWithFallback(data, l.cfg.Encodings)
	if err != nil {
		return nil, apperrors.NewLoadError(table, apperrors.ErrEncoding, err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewLoadError(table, apperrors.ErrEncoding, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewLoadError(table, apperrors.ErrSchemaMismatch, fmt.Errorf("file is empty"))
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewLoadError(table, apperrors.ErrTimeout, err)
	}

	header := l.canonicalizeHeader(rows[0])
	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	for _, required := range l.cfg.RequiredColumns[table] {
		if _, ok := index[required]; !ok {
			return nil, apperrors.NewLoadError(table, apperrors.ErrSchemaMismatch,
				fmt.Errorf("required column %q absent after renaming", required))
		}
	}

	l.logger.DebugContext(ctx, "source table read",
		slog.String("table", table),
		slog.String("encoding", encoding),
		slog.Int("rows", len(rows)-1),
	)

	return &rawTable{header: header, index: index, rows: rows[1:]}, nil
}

// canonicalizeHeader applies the rename map to a header row. Matching is
// case-insensitive; unmapped headers (such as the sales year columns) pass
// through unchanged.
func (l *Loader) canonicalizeHeader(raw []string) []string {
	lower := make(map[string]string, len(l.cfg.ColumnMapping))
	for from, to := range l.cfg.ColumnMapping {
		lower[strings.ToLower(from)] = to
	}

	header := make([]string, len(raw))
	for i, name := range raw {
		name = strings.TrimSpace(name)
		if canonical, ok := lower[strings.ToLower(name)]; ok {
			header[i] = canonical
		} else {
			header[i] = name
		}
	}
	return header
}
