package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "retailcast/internal/errors"
)

// ParsePercent converts a percentage-formatted string such as "12.5%" to
// the fraction 0.125. The value must end with a percent sign; anything
// else is a ParsingError.
func ParsePercent(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasSuffix(trimmed, "%") {
		return 0, apperrors.NewParsingError(
			fmt.Sprintf("percentage value %q does not end with %%", s), nil)
	}

	number := strings.TrimSpace(strings.TrimSuffix(trimmed, "%"))
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, apperrors.NewParsingError(
			fmt.Sprintf("percentage value %q is not numeric", s), err)
	}

	return value / 100, nil
}

// FormatPercent is the exact inverse of ParsePercent: the fraction 0.125
// renders as "12.5%".
func FormatPercent(fraction float64) string {
	return strconv.FormatFloat(fraction*100, 'f', -1, 64) + "%"
}
