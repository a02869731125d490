// Package cleaner normalizes the manufacturer and model name fields of the
// loaded tables. Cleaning is a projection onto a fixed point: running it
// twice over the same input yields identical output and an identical
// report. It never fails on malformed data; it only categorizes and counts.
package cleaner

import (
	"log/slog"
	"strings"

	"carmarket/internal/config"
	"carmarket/pkg/contracts/domain"
)

// Cleaner applies the alias map and placeholder denylist.
type Cleaner struct {
	cfg      config.CleaningConfig
	denylist map[string]bool
	logger   *slog.Logger
}

// New creates a cleaner from the cleaning configuration.
func New(cfg config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	deny := make(map[string]bool, len(cfg.Denylist))
	for _, v := range cfg.Denylist {
		deny[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return &Cleaner{cfg: cfg, denylist: deny, logger: logger}
}

// collapseWhitespace trims the edges and folds internal whitespace runs to
// single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanAutomaker normalizes one manufacturer value. It reports whether the
// value was altered and whether it matched the placeholder denylist.
func (c *Cleaner) cleanAutomaker(v string) (out string, altered, denied bool) {
	out = collapseWhitespace(v)
	if c.denylist[strings.ToLower(out)] {
		return "", out != v, true
	}
	if canonical, ok := c.cfg.AliasMap[out]; ok {
		return canonical, true, false
	}
	return out, out != v, false
}

// cleanGenmodel normalizes one model name value.
func (c *Cleaner) cleanGenmodel(v string) (out string, altered, denied bool) {
	out = collapseWhitespace(v)
	if c.denylist[strings.ToLower(out)] {
		return "", out != v, true
	}
	return out, out != v, false
}

// CleanCatalog cleans the catalog table. Rows whose manufacturer matches
// the denylist are retained with Excluded set so they stay auditable while
// dropping out of joins and share denominators; rows whose model name
// cleans to blank are retained with Flagged set.
func (c *Cleaner) CleanCatalog(records []domain.ModelRecord) ([]domain.ModelRecord, domain.CleaningReport) {
	report := newReport("catalog")
	maker := report.Columns[config.ColAutomaker]
	model := report.Columns[config.ColGenmodel]

	out := make([]domain.ModelRecord, len(records))
	for i, r := range records {
		cleaned := r

		v, altered, denied := c.cleanAutomaker(r.Automaker)
		cleaned.Automaker = v
		if denied {
			maker.Removed++
			cleaned.Excluded = true
			cleaned.FlagReason = "placeholder manufacturer"
		} else if altered {
			maker.Altered++
		}

		m, alteredM, deniedM := c.cleanGenmodel(r.Genmodel)
		cleaned.Genmodel = m
		switch {
		case deniedM || m == "":
			model.Flagged++
			cleaned.Flagged = true
			if cleaned.FlagReason == "" {
				cleaned.FlagReason = "blank model name"
			}
		case alteredM:
			model.Altered++
		}

		out[i] = cleaned
	}

	report.Columns[config.ColAutomaker] = maker
	report.Columns[config.ColGenmodel] = model
	c.logReport(report)
	return out, report
}

// CleanPrices cleans the price table. Denylisted names clean to blank so
// the affected rows cannot join on the composite key.
func (c *Cleaner) CleanPrices(obs []domain.PriceObservation) ([]domain.PriceObservation, domain.CleaningReport) {
	report := newReport("price")
	maker := report.Columns[config.ColAutomaker]
	model := report.Columns[config.ColGenmodel]

	out := make([]domain.PriceObservation, len(obs))
	for i, o := range obs {
		cleaned := o

		v, altered, denied := c.cleanAutomaker(o.Automaker)
		cleaned.Automaker = v
		if denied {
			maker.Removed++
		} else if altered {
			maker.Altered++
		}

		m, alteredM, deniedM := c.cleanGenmodel(o.Genmodel)
		cleaned.Genmodel = m
		if deniedM {
			model.Removed++
		} else if alteredM {
			model.Altered++
		}

		out[i] = cleaned
	}

	report.Columns[config.ColAutomaker] = maker
	report.Columns[config.ColGenmodel] = model
	c.logReport(report)
	return out, report
}

// CleanSales cleans the sales table.
func (c *Cleaner) CleanSales(records []domain.SalesRecord) ([]domain.SalesRecord, domain.CleaningReport) {
	report := newReport("sales")
	maker := report.Columns[config.ColAutomaker]
	model := report.Columns[config.ColGenmodel]

	out := make([]domain.SalesRecord, len(records))
	for i, r := range records {
		cleaned := r

		v, altered, denied := c.cleanAutomaker(r.Automaker)
		cleaned.Automaker = v
		if denied {
			maker.Removed++
		} else if altered {
			maker.Altered++
		}

		m, alteredM, deniedM := c.cleanGenmodel(r.Genmodel)
		cleaned.Genmodel = m
		if deniedM {
			model.Removed++
		} else if alteredM {
			model.Altered++
		}

		out[i] = cleaned
	}

	report.Columns[config.ColAutomaker] = maker
	report.Columns[config.ColGenmodel] = model
	c.logReport(report)
	return out, report
}

func newReport(table string) domain.CleaningReport {
	return domain.CleaningReport{
		Table: table,
		Columns: map[string]domain.CleaningStats{
			config.ColAutomaker: {},
			config.ColGenmodel:  {},
		},
	}
}

func (c *Cleaner) logReport(report domain.CleaningReport) {
	for col, stats := range report.Columns {
		if stats.Altered+stats.Removed+stats.Flagged == 0 {
			continue
		}
		c.logger.Info("column cleaned",
			slog.String("table", report.Table),
			slog.String("column", col),
			slog.Int("altered", stats.Altered),
			slog.Int("removed", stats.Removed),
			slog.Int("flagged", stats.Flagged),
		)
	}
}
