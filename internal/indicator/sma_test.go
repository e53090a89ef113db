package indicator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		window   int
		expected []float64
		wantErr  bool
	}{
		{
			// index window-1 stays 0: each value is the mean of the window before it
			name:     "First value lands at index window",
			series:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			window:   3,
			expected: []float64{0, 0, 0, 2, 3, 4, 5, 6, 7, 8},
		},
		{
			name:     "Window one lags by a bar",
			series:   []float64{5, 6, 7},
			window:   1,
			expected: []float64{0, 5, 6},
		},
		{
			name:     "Window equal to length is all zero",
			series:   []float64{1, 2, 3},
			window:   3,
			expected: []float64{0, 0, 0},
		},
		{
			name:    "Window exceeds length",
			series:  []float64{1, 2, 3},
			window:  4,
			wantErr: true,
		},
		{
			name:    "Zero window",
			series:  []float64{1, 2, 3},
			window:  0,
			wantErr: true,
		},
		{
			name:    "Empty series",
			series:  []float64{},
			window:  1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CalculateSMA(tt.series, tt.window)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, result, 1e-12)
		})
	}
}

func TestSMAConstantSeries(t *testing.T) {
	const c = 42.5
	series := make([]float64, 30)
	for i := range series {
		series[i] = c
	}

	window := 7
	result, err := CalculateSMA(series, window)
	require.NoError(t, err)

	for i := range result {
		if i < window {
			assert.Equal(t, 0.0, result[i], "index %d", i)
			continue
		}
		assert.InDelta(t, c, result[i], 1e-9, "index %d", i)
	}
}
