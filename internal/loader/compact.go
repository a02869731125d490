package loader

import (
	"strings"

	"github.com/spf13/cast"
)

// interner deduplicates low-cardinality string columns (manufacturer and
// model names repeat across thousands of rows) so each distinct value is
// stored once. Value-preserving by construction.
type interner struct {
	pool map[string]string
}

func newInterner() *interner {
	return &interner{pool: make(map[string]string)}
}

func (in *interner) Intern(s string) string {
	if v, ok := in.pool[s]; ok {
		return v
	}
	in.pool[s] = s
	return s
}

// parseCount parses a unit-sales cell, tolerating thousands separators.
// Cells parse as float64 directly; a narrowing integer path would truncate
// fractional counts. An empty or unparseable cell reports ok=false and the
// year is treated as missing.
func parseCount(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(cell)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parsePrice parses a price cell, tolerating thousands separators.
func parsePrice(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(cell)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseYear parses a year cell.
func parseYear(cell string) (int, bool) {
	n, err := cast.ToIntE(strings.TrimSpace(cell))
	if err != nil {
		return 0, false
	}
	return n, true
}
