package indicator

import "math"

// BollingerWidth is the number of standard deviations between the SMA and each band.
const BollingerWidth = 2.0

// CalculateBollingerBands returns the upper and lower bands around sma, which must be
// the CalculateSMA output of prices for the same window.
//
// The population standard deviation at i covers prices[i-window+1..i] measured
// against sma[i]. It starts at index window, matching the first value CalculateSMA
// writes; before that both bands equal sma (0).
func CalculateBollingerBands(prices, sma []float64, window int) (upper, lower []float64, err error) {
	if err := validateSeries("bollinger", prices); err != nil {
		return nil, nil, err
	}
	if err := ValidateSameLength(len(prices), NamedSeries{"sma", sma}); err != nil {
		return nil, nil, err
	}
	if err := validateWindow("bollinger", window, len(prices)); err != nil {
		return nil, nil, err
	}

	std := make([]float64, len(prices))
	for i := window; i < len(prices); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			d := prices[j] - sma[i]
			sum += d * d
		}
		std[i] = math.Sqrt(sum / float64(window))
	}

	upper = make([]float64, len(sma))
	lower = make([]float64, len(sma))
	for i := range sma {
		upper[i] = sma[i] + BollingerWidth*std[i]
		lower[i] = sma[i] - BollingerWidth*std[i]
	}
	return upper, lower, nil
}
