package indicator

// CalculateRSI returns the relative strength index of prices, smoothing gains and
// losses with an EMA of the given lookback.
//
// rs = gain/loss is not guarded: a bar with no smoothed loss yields +Inf (RSI 100)
// and a bar with neither gain nor loss yields NaN.
func CalculateRSI(prices []float64, lookback int) ([]float64, error) {
	if err := validateSeries("rsi", prices); err != nil {
		return nil, err
	}
	if err := validatePeriod("rsi", lookback); err != nil {
		return nil, err
	}

	up := make([]float64, len(prices))
	down := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change < 0 {
			down[i] = -change
		} else {
			up[i] = change
		}
	}

	upEMA := ema(up, lookback)
	downEMA := ema(down, lookback)

	rsi := make([]float64, len(prices))
	for i := range rsi {
		rs := upEMA[i] / downEMA[i]
		rsi[i] = 100 - 100/(1+rs)
	}
	return rsi, nil
}
