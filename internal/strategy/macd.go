package strategy

import "github.com/amirphl/simple-ta/internal/indicator"

// MACDRelation compares the MACD line with its signal line on one bar.
// There is no edge requirement: the relation alone arms the signal.
func MACDRelation(macd, signal float64) (buy, sell bool) {
	return macd > signal, macd < signal
}

// MACDSignals buys while MACD is above its signal line and sells while it is below,
// firing on the first bar of each stretch. The scan starts at bar 0.
func MACDSignals(prices []float64, macd indicator.MACDResult) (Signals, error) {
	if err := validate(prices, indicator.NamedSeries{Name: "macd", Values: macd.MACD}, indicator.NamedSeries{Name: "macd signal", Values: macd.Signal}); err != nil {
		return Signals{}, err
	}
	return scan(prices, 0, func(i int) (bool, bool) {
		return MACDRelation(macd.MACD[i], macd.Signal[i])
	}), nil
}
