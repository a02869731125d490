package validator

import (
	"fmt"
	"log/slog"

	"carmarket/internal/config"
	"carmarket/pkg/contracts/domain"
)

// QualityCatalog validates and scores the catalog table.
func (v *Validator) QualityCatalog(records []domain.ModelRecord) (domain.ValidationResult, domain.QualityReport) {
	view := catalogView(records)
	result := v.validate(view)
	return result, v.score(view, result)
}

// QualityPrices validates and scores the price table.
func (v *Validator) QualityPrices(obs []domain.PriceObservation) (domain.ValidationResult, domain.QualityReport) {
	view := priceView(obs)
	result := v.validate(view)
	return result, v.score(view, result)
}

// QualitySales validates and scores the sales table.
func (v *Validator) QualitySales(records []domain.SalesRecord) (domain.ValidationResult, domain.QualityReport) {
	view := salesView(records)
	result := v.validate(view)
	return result, v.score(view, result)
}

// score derives a table's quality report from its validation result and
// cell-level completeness. All three component scores are on a 0-100
// scale; the overall score is the configured weighted combination.
func (v *Validator) score(view *tableView, result domain.ValidationResult) domain.QualityReport {
	report := domain.QualityReport{Table: view.name, Rows: view.rows}
	if view.rows == 0 {
		report.Status = domain.QualityPoor
		report.Recommendations = []string{fmt.Sprintf("table %q is empty; check the source file", view.name)}
		return report
	}

	report.Completeness = completeness(view, v.rules[view.name])
	report.Uniqueness = uniqueness(view, result)
	report.Consistency = consistency(view, result)

	w := v.quality
	report.Overall = w.CompletenessWeight*report.Completeness +
		w.UniquenessWeight*report.Uniqueness +
		w.ConsistencyWeight*report.Consistency

	switch {
	case report.Overall >= w.ExcellentAt:
		report.Status = domain.QualityExcellent
	case report.Overall >= w.GoodAt:
		report.Status = domain.QualityGood
	case report.Overall >= w.WarningAt:
		report.Status = domain.QualityWarning
	default:
		report.Status = domain.QualityPoor
	}

	report.Recommendations = recommend(report, result)

	v.logger.Info("table quality scored",
		slog.String("table", view.name),
		slog.Float64("overall", report.Overall),
		slog.String("status", string(report.Status)),
	)
	return report
}

// completeness is the share of present cells over the table's required
// columns. Optional columns may be sparse without dragging the score down.
func completeness(view *tableView, rules map[string]config.ColumnRule) float64 {
	var cols []string
	for col, rule := range rules {
		if rule.Required {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return 100
	}
	present := 0
	for i := 0; i < view.rows; i++ {
		for _, col := range cols {
			if _, ok := view.str(i, col); ok {
				present++
			}
		}
	}
	return 100 * float64(present) / float64(view.rows*len(cols))
}

// uniqueness is the share of rows not involved in a duplicate of a
// unique-constrained column. Tables without uniqueness expectations score
// on distinct composite keys instead.
func uniqueness(view *tableView, result domain.ValidationResult) float64 {
	if result.HasDuplicates() {
		duplicated := 0
		for _, d := range result.Duplicates {
			duplicated += d.Count - 1
		}
		return 100 * float64(view.rows-duplicated) / float64(view.rows)
	}

	seen := make(map[string]bool, view.rows)
	distinct := 0
	for i := 0; i < view.rows; i++ {
		k := view.key(i)
		if !seen[k] {
			seen[k] = true
			distinct++
		}
	}
	return 100 * float64(distinct) / float64(view.rows)
}

// consistency is the share of rows with no range violations.
func consistency(view *tableView, result domain.ValidationResult) float64 {
	violations := 0
	for _, issue := range result.Issues {
		if issue.Rule == "range" {
			violations += issue.Count
		}
	}
	if violations > view.rows {
		violations = view.rows
	}
	return 100 * float64(view.rows-violations) / float64(view.rows)
}

// recommend turns component scores into deterministic remediation hints.
func recommend(report domain.QualityReport, result domain.ValidationResult) []string {
	var recs []string
	if report.Completeness < 90 {
		recs = append(recs, fmt.Sprintf("fill or drop rows with missing values in %q (completeness %.1f%%)", report.Table, report.Completeness))
	}
	if report.Uniqueness < 100 {
		recs = append(recs, fmt.Sprintf("deduplicate %q on its key columns (uniqueness %.1f%%)", report.Table, report.Uniqueness))
	}
	if report.Consistency < 95 {
		recs = append(recs, fmt.Sprintf("review out-of-range values in %q (consistency %.1f%%)", report.Table, report.Consistency))
	}
	for _, d := range result.Duplicates {
		if len(d.Keys) > 1 {
			recs = append(recs, fmt.Sprintf("identifier %q is shared by %d rows; join on manufacturer and model name instead", d.Value, d.Count))
			break
		}
	}
	return recs
}
