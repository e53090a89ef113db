package indicator

// MACDResult holds the three aligned MACD series.
type MACDResult struct {
	MACD      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// CalculateMACD returns EMA(fast) - EMA(slow), its EMA over smooth, and their
// difference. The fast/slow ordering is the caller's business.
func CalculateMACD(prices []float64, slow, fast, smooth int) (MACDResult, error) {
	if err := validateSeries("macd", prices); err != nil {
		return MACDResult{}, err
	}
	periods := []struct {
		name string
		p    int
	}{{"macd slow", slow}, {"macd fast", fast}, {"macd smooth", smooth}}
	for _, p := range periods {
		if err := validatePeriod(p.name, p.p); err != nil {
			return MACDResult{}, err
		}
	}

	fastEMA := ema(prices, fast)
	slowEMA := ema(prices, slow)
	macd := make([]float64, len(prices))
	for i := range macd {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signal := ema(macd, smooth)
	hist := make([]float64, len(prices))
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}

	return MACDResult{MACD: macd, Signal: signal, Histogram: hist}, nil
}
