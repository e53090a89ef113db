package strategy

import "github.com/amirphl/simple-ta/internal/indicator"

// DonchianBreak reports a breakout against the previous bar's channel: price moving
// from at-or-below the upper channel to above it (buy), or from at-or-above the lower
// channel to below it (sell).
func DonchianBreak(prevPrice, price, prevUpper, prevLower float64) (buy, sell bool) {
	buy = price > prevUpper && prevPrice <= prevUpper
	sell = price < prevLower && prevPrice >= prevLower
	return buy, sell
}

// DonchianSignals buys on upper channel breakouts and sells on lower channel breakdowns.
func DonchianSignals(prices, upper, lower []float64) (Signals, error) {
	if err := validate(prices, indicator.NamedSeries{Name: "upper channel", Values: upper}, indicator.NamedSeries{Name: "lower channel", Values: lower}); err != nil {
		return Signals{}, err
	}
	return scan(prices, 1, func(i int) (bool, bool) {
		return DonchianBreak(prices[i-1], prices[i], upper[i-1], lower[i-1])
	}), nil
}
