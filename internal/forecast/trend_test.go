package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "retailcast/internal/errors"
)

func TestFitTrend(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		wantSlope     float64
		wantIntercept float64
	}{
		{
			name:          "exact line",
			values:        []float64{100, 200, 300},
			wantSlope:     100,
			wantIntercept: 100,
		},
		{
			name:          "flat series",
			values:        []float64{50, 50, 50, 50},
			wantSlope:     0,
			wantIntercept: 50,
		},
		{
			name:          "descending line",
			values:        []float64{30, 20, 10},
			wantSlope:     -10,
			wantIntercept: 30,
		},
		{
			name:          "noisy series",
			values:        []float64{0, 2, 1, 3},
			wantSlope:     0.8,
			wantIntercept: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend, err := fitTrend(tt.values)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantSlope, trend.Slope, 1e-9)
			assert.InDelta(t, tt.wantIntercept, trend.Intercept, 1e-9)
			assert.Equal(t, len(tt.values), trend.N)
		})
	}
}

func TestFitTrendTooFewObservations(t *testing.T) {
	for _, values := range [][]float64{nil, {}, {42}} {
		_, err := fitTrend(values)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	}
}

func TestLinearTrendAt(t *testing.T) {
	trend := linearTrend{Slope: 100, Intercept: 100, N: 3}
	assert.InDelta(t, 400.0, trend.at(3), 1e-9)
	assert.InDelta(t, 500.0, trend.at(4), 1e-9)
}
