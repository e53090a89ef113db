package candle

// HeikinAshiSource marks candles produced by HeikinAshi.
const HeikinAshiSource = "heikin_ashi"

// HeikinAshi converts raw candles into Heikin-Ashi candles.
// Input candles must be sorted by timestamp ascending.
func HeikinAshi(raw []Candle) []Candle {
	if len(raw) == 0 {
		return nil
	}

	out := make([]Candle, len(raw))
	for i, c := range raw {
		ha := c
		ha.Close = (c.Open + c.High + c.Low + c.Close) / 4
		if i == 0 {
			ha.Open = (c.Open + c.Close) / 2
		} else {
			ha.Open = (out[i-1].Open + out[i-1].Close) / 2
		}
		ha.High = max(c.High, ha.Open, ha.Close)
		ha.Low = min(c.Low, ha.Open, ha.Close)
		ha.Source = HeikinAshiSource
		out[i] = ha
	}
	return out
}
