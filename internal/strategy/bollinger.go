package strategy

import "github.com/amirphl/simple-ta/internal/indicator"

// BollingerCross reports a price crossing below the lower band (buy) or above the
// upper band (sell) between two bars.
func BollingerCross(prevPrice, price, prevLower, lower, prevUpper, upper float64) (buy, sell bool) {
	buy = prevPrice > prevLower && price < lower
	sell = prevPrice < prevUpper && price > upper
	return buy, sell
}

// BollingerSignals buys on a cross below the lower band and sells on a cross above the upper band.
func BollingerSignals(prices, lower, upper []float64) (Signals, error) {
	if err := validate(prices, indicator.NamedSeries{Name: "lower band", Values: lower}, indicator.NamedSeries{Name: "upper band", Values: upper}); err != nil {
		return Signals{}, err
	}
	return scan(prices, 1, func(i int) (bool, bool) {
		return BollingerCross(prices[i-1], prices[i], lower[i-1], lower[i], upper[i-1], upper[i])
	}), nil
}
