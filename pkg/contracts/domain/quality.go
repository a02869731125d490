package domain

// QualityStatus classifies an overall quality score.
type QualityStatus string

const (
	QualityExcellent QualityStatus = "excellent"
	QualityGood      QualityStatus = "good"
	QualityWarning   QualityStatus = "warning"
	QualityPoor      QualityStatus = "poor"
)

// QualityReport summarizes a table's fitness for analysis. Scores are on a
// 0-100 scale; the overall score is a weighted combination of the three
// component ratios.
type QualityReport struct {
	Table        string        `json:"table"`
	Rows         int           `json:"rows"`
	Completeness float64       `json:"completeness_score"`
	Uniqueness   float64       `json:"uniqueness_score"`
	Consistency  float64       `json:"consistency_score"`
	Overall      float64       `json:"overall_score"`
	Status       QualityStatus `json:"status"`

	// Recommendations are deterministic remediation hints derived from the
	// component scores.
	Recommendations []string `json:"recommendations,omitempty"`
}

// ValidationIssue records a single rule violation found during validation.
// Issues are reported, never fatal.
type ValidationIssue struct {
	Column  string `json:"column"`
	Rule    string `json:"rule"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// DuplicateKey records a key value that appears on more than one row of a
// column expected to be unique, with the rows it collides across.
type DuplicateKey struct {
	Value string   `json:"value"`
	Count int      `json:"count"`
	Keys  []string `json:"keys,omitempty"`
}

// ValidationResult is the outcome of checking one table against its rules.
type ValidationResult struct {
	Table      string            `json:"table"`
	Rows       int               `json:"rows"`
	Issues     []ValidationIssue `json:"issues,omitempty"`
	Duplicates []DuplicateKey    `json:"duplicates,omitempty"`
}

// HasDuplicates reports whether any uniqueness expectation was violated.
func (r ValidationResult) HasDuplicates() bool {
	return len(r.Duplicates) > 0
}

// CleaningReport counts what the cleaner did to each column. Running the
// cleaner twice over the same input yields an identical report.
type CleaningReport struct {
	Table   string                   `json:"table"`
	Columns map[string]CleaningStats `json:"columns"`
}

// CleaningStats holds per-column cleaning counters.
type CleaningStats struct {
	Altered int `json:"altered"` // values rewritten (alias, whitespace)
	Removed int `json:"removed"` // placeholder values excluded from joins
	Flagged int `json:"flagged"` // kept but marked unresolved
}
