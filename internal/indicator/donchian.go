package indicator

// CalculateDonchianChannel returns the rolling max of high and rolling min of low over
// window. prices only fixes the output length; high and low must match it. Indices
// before window-1 hold 0.
func CalculateDonchianChannel(prices, high, low []float64, window int) (upper, lower []float64, err error) {
	if err := validateSeries("donchian", prices); err != nil {
		return nil, nil, err
	}
	if err := ValidateSameLength(len(prices), NamedSeries{"high", high}, NamedSeries{"low", low}); err != nil {
		return nil, nil, err
	}
	if err := validateWindow("donchian", window, len(prices)); err != nil {
		return nil, nil, err
	}

	upper = make([]float64, len(prices))
	lower = make([]float64, len(prices))
	for i := window - 1; i < len(prices); i++ {
		hi, lo := high[i-window+1], low[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if high[j] > hi {
				hi = high[j]
			}
			if low[j] < lo {
				lo = low[j]
			}
		}
		upper[i] = hi
		lower[i] = lo
	}
	return upper, lower, nil
}
