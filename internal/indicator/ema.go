package indicator

// CalculateEMA returns the exponential moving average of series with
// alpha = 2/(period+1), seeded with the first value (out[0] == series[0]).
func CalculateEMA(series []float64, period int) ([]float64, error) {
	if err := validateSeries("ema", series); err != nil {
		return nil, err
	}
	if err := validatePeriod("ema", period); err != nil {
		return nil, err
	}
	return ema(series, period), nil
}

func ema(series []float64, period int) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}
