package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat renders a float with two decimal places so 13.4 exports as
// 13.40 consistently across sheets and CSV.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
