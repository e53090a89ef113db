package strategy

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// assertSeries compares two series treating NaN as equal to NaN.
func assertSeries(t *testing.T, expected, actual []float64, label string) {
	t.Helper()
	require.Len(t, actual, len(expected), "%s length mismatch", label)
	for i := range expected {
		if math.IsNaN(expected[i]) {
			assert.True(t, math.IsNaN(actual[i]), "%s: expected NaN at index %d, got %v", label, i, actual[i])
			continue
		}
		assert.Equal(t, expected[i], actual[i], "%s mismatch at index %d", label, i)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name         string
		pos          Position
		buy, sell    bool
		wantDecision Decision
		wantPos      Position
	}{
		{"flat buy", Flat, true, false, Buy, Long},
		{"flat sell", Flat, false, true, Sell, Short},
		{"flat nothing", Flat, false, false, Hold, Flat},
		{"long buy is ignored", Long, true, false, Hold, Long},
		{"long sell", Long, false, true, Sell, Short},
		{"short sell is ignored", Short, false, true, Hold, Short},
		{"short buy", Short, true, false, Buy, Long},
		{"both while flat prefers buy", Flat, true, true, Buy, Long},
		{"both while long falls through to sell", Long, true, true, Sell, Short},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pos := Transition(tt.pos, tt.buy, tt.sell)
			assert.Equal(t, tt.wantDecision, d)
			assert.Equal(t, tt.wantPos, pos)
		})
	}
}

func TestSignalsEvents(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour), base.Add(3 * time.Hour)}
	s := Signals{
		Buy:  []float64{nan, 101, nan, nan},
		Sell: []float64{nan, nan, nan, 104},
	}

	events := s.Events(KindBollinger, times)
	require.Len(t, events, 2)

	assert.Equal(t, 1, events[0].Index)
	assert.Equal(t, Long, events[0].Position)
	assert.Equal(t, 101.0, events[0].TriggerPrice)
	assert.Equal(t, times[1], events[0].Time)
	assert.Equal(t, "bollinger", events[0].StrategyName)
	assert.Equal(t, "price crossed below lower band", events[0].Reason)

	assert.Equal(t, 3, events[1].Index)
	assert.Equal(t, Short, events[1].Position)
	assert.Equal(t, 104.0, events[1].TriggerPrice)

	assert.True(t, s.Events(KindBollinger, nil)[1].Time.IsZero())
	assert.Empty(t, newSignals(3).Events(KindRSI, nil))
}

func TestSignalsJSON(t *testing.T) {
	data, err := json.Marshal(Signals{Buy: []float64{nan, 5}, Sell: []float64{6, nan}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"buy":[null,5],"sell":[6,null]}`, string(data))

	data, err = json.Marshal(Signal{Position: Short, TriggerPrice: 3})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"position":"short"`)
}

func TestSignalValidation(t *testing.T) {
	prices := []float64{1, 2, 3}
	short := []float64{1, 2}

	_, err := RSISignals(prices, short)
	assert.True(t, errors.Is(err, indicator.ErrInvalidArgument))

	_, err = RSISignals(nil, nil)
	assert.True(t, errors.Is(err, indicator.ErrInvalidArgument))

	_, err = MACDSignals(prices, indicator.MACDResult{MACD: prices, Signal: short})
	assert.True(t, errors.Is(err, indicator.ErrInvalidArgument))

	_, err = BollingerSignals(prices, prices, short)
	assert.True(t, errors.Is(err, indicator.ErrInvalidArgument))

	_, err = DonchianSignals(prices, short, prices)
	assert.True(t, errors.Is(err, indicator.ErrInvalidArgument))
}

// wave builds a deterministic oscillating price series.
func wave(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		x := float64(i)
		prices[i] = 100 + 8*math.Sin(x/5) + 3*math.Sin(x/1.7) + 0.05*x
	}
	return prices
}

// assertAlternates checks that consecutive firings never repeat a side.
func assertAlternates(t *testing.T, s Signals) int {
	t.Helper()
	events := s.Events("", nil)
	for i := 1; i < len(events); i++ {
		assert.NotEqual(t, events[i-1].Position, events[i].Position,
			"signals at %d and %d fire the same side", events[i-1].Index, events[i].Index)
	}
	return len(events)
}

func TestSignalsAlternate(t *testing.T) {
	prices := wave(300)
	high := make([]float64, len(prices))
	low := make([]float64, len(prices))
	for i, p := range prices {
		high[i] = p + 1
		low[i] = p - 1
	}

	rsi, err := indicator.CalculateRSI(prices, 14)
	require.NoError(t, err)
	rsiSignals, err := RSISignals(prices, rsi)
	require.NoError(t, err)
	assertAlternates(t, rsiSignals)

	sma, err := indicator.CalculateSMA(prices, 20)
	require.NoError(t, err)
	upperBB, lowerBB, err := indicator.CalculateBollingerBands(prices, sma, 20)
	require.NoError(t, err)
	bbSignals, err := BollingerSignals(prices, lowerBB, upperBB)
	require.NoError(t, err)
	assertAlternates(t, bbSignals)

	upperDC, lowerDC, err := indicator.CalculateDonchianChannel(prices, high, low, 20)
	require.NoError(t, err)
	dcSignals, err := DonchianSignals(prices, upperDC, lowerDC)
	require.NoError(t, err)
	assertAlternates(t, dcSignals)

	macd, err := indicator.CalculateMACD(prices, 26, 12, 9)
	require.NoError(t, err)
	macdSignals, err := MACDSignals(prices, macd)
	require.NoError(t, err)
	assert.Positive(t, assertAlternates(t, macdSignals))
}
