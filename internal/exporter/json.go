package exporter

import (
	"encoding/json"
	"fmt"

	"carmarket/internal/pipeline"
)

// RenderJSON renders the full snapshot as an indented, self-describing
// JSON document. The snapshot's own field tags define the schema; the
// exporter adds nothing and hides nothing.
func (e *Exporter) RenderJSON(snap *pipeline.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
