// Package validator checks the cleaned tables against the configured
// column rules and scores each table's fitness for analysis. Violations
// are counted and reported, never fatal: downstream stages decide what to
// do with flagged rows.
package validator

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"carmarket/internal/config"
	"carmarket/pkg/contracts/domain"
)

// Validator applies validation rules and quality scoring.
type Validator struct {
	rules   config.ValidationRules
	quality config.QualityConfig
	logger  *slog.Logger
}

// New creates a validator from the rule set and quality thresholds.
func New(rules config.ValidationRules, quality config.QualityConfig, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{rules: rules, quality: quality, logger: logger}
}

// tableView adapts a typed record slice to the column-oriented shape the
// rule engine works over. Cells are either strings or numbers; absent is a
// separate state from zero.
type tableView struct {
	name string
	rows int
	cols []string
	str  func(i int, col string) (string, bool)
	num  func(i int, col string) (float64, bool)
	key  func(i int) string
}

func catalogView(records []domain.ModelRecord) *tableView {
	return &tableView{
		name: config.TableCatalog,
		rows: len(records),
		cols: []string{config.ColAutomaker, config.ColAutomakerID, config.ColGenmodel, config.ColGenmodelID},
		str: func(i int, col string) (string, bool) {
			r := records[i]
			switch col {
			case config.ColAutomaker:
				return r.Automaker, r.Automaker != ""
			case config.ColAutomakerID:
				return r.AutomakerID, r.AutomakerID != ""
			case config.ColGenmodel:
				return r.Genmodel, r.Genmodel != ""
			case config.ColGenmodelID:
				return r.GenmodelID, r.GenmodelID != ""
			}
			return "", false
		},
		num: func(int, string) (float64, bool) { return 0, false },
		key: func(i int) string { return records[i].Key().String() },
	}
}

func priceView(obs []domain.PriceObservation) *tableView {
	return &tableView{
		name: config.TablePrice,
		rows: len(obs),
		cols: []string{config.ColAutomaker, config.ColGenmodel, config.ColGenmodelID, config.ColYear, config.ColEntryPrice},
		str: func(i int, col string) (string, bool) {
			o := obs[i]
			switch col {
			case config.ColAutomaker:
				return o.Automaker, o.Automaker != ""
			case config.ColGenmodel:
				return o.Genmodel, o.Genmodel != ""
			case config.ColGenmodelID:
				return o.GenmodelID, o.GenmodelID != ""
			case config.ColYear:
				return strconv.Itoa(o.Year), o.Year != 0
			case config.ColEntryPrice:
				return strconv.FormatFloat(o.EntryPrice, 'f', -1, 64), o.EntryPrice != 0
			}
			return "", false
		},
		num: func(i int, col string) (float64, bool) {
			o := obs[i]
			switch col {
			case config.ColYear:
				return float64(o.Year), o.Year != 0
			case config.ColEntryPrice:
				return o.EntryPrice, o.EntryPrice != 0
			}
			return 0, false
		},
		key: func(i int) string { return obs[i].Key().String() + "/" + strconv.Itoa(obs[i].Year) },
	}
}

func salesView(records []domain.SalesRecord) *tableView {
	return &tableView{
		name: config.TableSales,
		rows: len(records),
		cols: []string{config.ColAutomaker, config.ColGenmodel, config.ColGenmodelID},
		str: func(i int, col string) (string, bool) {
			r := records[i]
			switch col {
			case config.ColAutomaker:
				return r.Automaker, r.Automaker != ""
			case config.ColGenmodel:
				return r.Genmodel, r.Genmodel != ""
			case config.ColGenmodelID:
				return r.GenmodelID, r.GenmodelID != ""
			}
			return "", false
		},
		num: func(int, string) (float64, bool) { return 0, false },
		key: func(i int) string { return records[i].Key().String() },
	}
}

// ValidateCatalog checks the catalog table.
func (v *Validator) ValidateCatalog(records []domain.ModelRecord) domain.ValidationResult {
	return v.validate(catalogView(records))
}

// ValidatePrices checks the price table.
func (v *Validator) ValidatePrices(obs []domain.PriceObservation) domain.ValidationResult {
	return v.validate(priceView(obs))
}

// ValidateSales checks the sales table. The wide year columns are not
// rule-bearing; only the identity columns are checked.
func (v *Validator) ValidateSales(records []domain.SalesRecord) domain.ValidationResult {
	return v.validate(salesView(records))
}

// validate runs the table's configured rules over a view.
func (v *Validator) validate(view *tableView) domain.ValidationResult {
	result := domain.ValidationResult{Table: view.name, Rows: view.rows}
	rules := v.rules[view.name]

	cols := make([]string, 0, len(rules))
	for col := range rules {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		rule := rules[col]

		if rule.Required {
			missing := 0
			for i := 0; i < view.rows; i++ {
				if _, ok := view.str(i, col); !ok {
					missing++
				}
			}
			if missing > 0 {
				result.Issues = append(result.Issues, domain.ValidationIssue{
					Column:  col,
					Rule:    "required",
					Count:   missing,
					Message: fmt.Sprintf("%d rows missing required value", missing),
				})
			}
		}

		if rule.Min != nil || rule.Max != nil {
			outOfRange := 0
			for i := 0; i < view.rows; i++ {
				n, ok := view.num(i, col)
				if !ok {
					continue
				}
				if (rule.Min != nil && n < *rule.Min) || (rule.Max != nil && n > *rule.Max) {
					outOfRange++
				}
			}
			if outOfRange > 0 {
				result.Issues = append(result.Issues, domain.ValidationIssue{
					Column:  col,
					Rule:    "range",
					Count:   outOfRange,
					Message: fmt.Sprintf("%d rows outside [%s, %s]", outOfRange, boundString(rule.Min), boundString(rule.Max)),
				})
			}
		}

		if rule.Unique {
			result.Duplicates = append(result.Duplicates, findDuplicates(view, col)...)
		}
	}

	v.logger.Info("table validated",
		slog.String("table", view.name),
		slog.Int("rows", view.rows),
		slog.Int("issues", len(result.Issues)),
		slog.Int("duplicate_keys", len(result.Duplicates)),
	)
	return result
}

// findDuplicates collects values of a unique column that appear on more
// than one row, each with the composite keys of the rows it spans. The
// composite keys make identifier collisions across distinct models visible
// at a glance.
func findDuplicates(view *tableView, col string) []domain.DuplicateKey {
	byValue := make(map[string][]string)
	order := make([]string, 0)
	for i := 0; i < view.rows; i++ {
		val, ok := view.str(i, col)
		if !ok {
			continue
		}
		if _, seen := byValue[val]; !seen {
			order = append(order, val)
		}
		byValue[val] = append(byValue[val], view.key(i))
	}

	var dups []domain.DuplicateKey
	for _, val := range order {
		keys := byValue[val]
		if len(keys) < 2 {
			continue
		}
		sort.Strings(keys)
		dups = append(dups, domain.DuplicateKey{Value: val, Count: len(keys), Keys: keys})
	}
	return dups
}

func boundString(b *float64) string {
	if b == nil {
		return "-"
	}
	return strconv.FormatFloat(*b, 'f', -1, 64)
}
