package strategy

import "github.com/amirphl/simple-ta/internal/indicator"

// RSI levels that arm the crossover signals.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// RSICross reports whether the RSI moved from prev to curr through the oversold
// level downwards (buy) or through the overbought level upwards (sell).
func RSICross(prev, curr float64) (buy, sell bool) {
	buy = prev > RSIOversold && curr < RSIOversold
	sell = prev < RSIOverbought && curr > RSIOverbought
	return buy, sell
}

// RSISignals buys when the RSI drops below 30 and sells when it rises above 70.
func RSISignals(prices, rsi []float64) (Signals, error) {
	if err := validate(prices, indicator.NamedSeries{Name: "rsi", Values: rsi}); err != nil {
		return Signals{}, err
	}
	return scan(prices, 1, func(i int) (bool, bool) {
		return RSICross(rsi[i-1], rsi[i])
	}), nil
}
