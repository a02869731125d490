package domain

import "strings"

// ModelRecord is one row of the catalog table: a unique
// (manufacturer, model name, model identifier) triple.
type ModelRecord struct {
	Automaker   string `json:"automaker" csv:"Automaker"`
	AutomakerID string `json:"automaker_id" csv:"Automaker_ID"`
	Genmodel    string `json:"genmodel" csv:"Genmodel"`
	GenmodelID  string `json:"genmodel_id" csv:"Genmodel_ID"`

	// Flags set by the cleaner. Flagged rows stay in the catalog but are
	// excluded from joins and share denominators.
	Flagged    bool   `json:"flagged,omitempty"`
	FlagReason string `json:"flag_reason,omitempty"`
	Excluded   bool   `json:"excluded,omitempty"`
}

// Key returns the composite join key. Genmodel_ID values collide across
// distinct models in the sales source, so the composite key is the only
// safe way to join catalog, price and sales rows.
func (m ModelRecord) Key() ModelKey {
	return ModelKey{Automaker: m.Automaker, Genmodel: m.Genmodel}
}

// IsValid reports whether the record carries enough identity to join on.
func (m ModelRecord) IsValid() bool {
	return strings.TrimSpace(m.Automaker) != "" && strings.TrimSpace(m.Genmodel) != ""
}

// ModelKey is the composite (manufacturer, model name) join key.
type ModelKey struct {
	Automaker string `json:"automaker"`
	Genmodel  string `json:"genmodel"`
}

// String renders the key for log output and report rows.
func (k ModelKey) String() string {
	return k.Automaker + "/" + k.Genmodel
}
