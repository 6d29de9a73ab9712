package forecast

import (
	apperrors "retailcast/internal/errors"
)

// linearTrend holds the parameters of an ordinary least-squares fit of
// observed values against their 0-based ordinal position.
type linearTrend struct {
	Slope     float64
	Intercept float64
	N         int
}

// fitTrend fits a least-squares line through (i, values[i]). At least two
// observations are required for the slope to be defined.
func fitTrend(values []float64) (linearTrend, error) {
	n := len(values)
	if n < 2 {
		return linearTrend{}, apperrors.NewConfigError(
			"trend fit requires at least two observations", nil)
	}

	meanX := float64(n-1) / 2
	meanY := 0.0
	for _, y := range values {
		meanY += y
	}
	meanY /= float64(n)

	var num, den float64
	for i, y := range values {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}

	slope := num / den
	return linearTrend{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		N:         n,
	}, nil
}

// at evaluates the fitted line at ordinal position x
func (t linearTrend) at(x int) float64 {
	return t.Slope*float64(x) + t.Intercept
}
