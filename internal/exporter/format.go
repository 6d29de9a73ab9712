package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a float64 value for CSV output, trimming trailing
// zeros so values stay compact but exact.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
