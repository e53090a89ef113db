package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBollingerSignals(t *testing.T) {
	prices := []float64{10, 9, 8, 12, 13, 7}
	lower := []float64{9.5, 9.5, 9.5, 9.5, 9.5, 9.5}
	upper := []float64{11, 11, 11, 11, 11, 11}

	s, err := BollingerSignals(prices, lower, upper)
	require.NoError(t, err)

	assertSeries(t, []float64{nan, 9, nan, nan, nan, 7}, s.Buy, "buy")
	assertSeries(t, []float64{nan, nan, nan, 12, nan, nan}, s.Sell, "sell")
}

func TestBollingerSignalsWarmupBands(t *testing.T) {
	// zero bands before the window is filled: prices sit above both, so only an
	// upper cross from below could fire and none does
	prices := []float64{10, 11, 12, 11}
	zero := []float64{0, 0, 0, 0}

	s, err := BollingerSignals(prices, zero, zero)
	require.NoError(t, err)

	assertSeries(t, []float64{nan, nan, nan, nan}, s.Buy, "buy")
	assertSeries(t, []float64{nan, nan, nan, nan}, s.Sell, "sell")
}
