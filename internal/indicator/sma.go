package indicator

// CalculateSMA returns the simple moving average of series over window.
//
// The running sum is written before it is advanced, so the value stored at index i
// is the mean of series[i-window..i-1] and indices [0, window) hold 0. Bollinger bands
// rely on this alignment: their first defined value is also at index window.
func CalculateSMA(series []float64, window int) ([]float64, error) {
	if err := validateSeries("sma", series); err != nil {
		return nil, err
	}
	if err := validateWindow("sma", window, len(series)); err != nil {
		return nil, err
	}
	return sma(series, window), nil
}

func sma(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	var sum float64
	for _, v := range series[:window] {
		sum += v
	}
	for i := window; i < len(series); i++ {
		out[i] = sum / float64(window)
		sum += series[i] - series[i-window]
	}
	return out
}
