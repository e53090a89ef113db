package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/amirphl/simple-ta/internal/strategy"
)

// Params selects the indicators to compute and their periods.
type Params struct {
	Indicators      []strategy.Kind `yaml:"indicators" json:"indicators"`
	RSIPeriod       int             `yaml:"rsi_period" json:"rsi_period"`
	MACDSlow        int             `yaml:"macd_slow" json:"macd_slow"`
	MACDFast        int             `yaml:"macd_fast" json:"macd_fast"`
	MACDSmooth      int             `yaml:"macd_smooth" json:"macd_smooth"`
	BollingerWindow int             `yaml:"bollinger_window" json:"bollinger_window"`
	DonchianWindow  int             `yaml:"donchian_window" json:"donchian_window"`
}

// AllKinds lists every indicator the engine knows, in report order.
var AllKinds = []strategy.Kind{strategy.KindRSI, strategy.KindMACD, strategy.KindBollinger, strategy.KindDonchian}

// DefaultParams returns RSI 14, MACD 26/12/9, Bollinger 20 and Donchian 20 with
// every indicator enabled.
func DefaultParams() Params {
	return Params{
		Indicators:      slices.Clone(AllKinds),
		RSIPeriod:       14,
		MACDSlow:        26,
		MACDFast:        12,
		MACDSmooth:      9,
		BollingerWindow: 20,
		DonchianWindow:  20,
	}
}

// ParseKinds turns "rsi,macd" into kinds. An empty string selects all of them.
func ParseKinds(list string) ([]strategy.Kind, error) {
	if strings.TrimSpace(list) == "" {
		return slices.Clone(AllKinds), nil
	}
	var kinds []strategy.Kind
	for _, name := range strings.Split(list, ",") {
		k := strategy.Kind(strings.ToLower(strings.TrimSpace(name)))
		if !slices.Contains(AllKinds, k) {
			return nil, fmt.Errorf("%w: unknown indicator %q", indicator.ErrInvalidArgument, name)
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// Enabled reports whether kind is selected.
func (p Params) Enabled(kind strategy.Kind) bool {
	return slices.Contains(p.Indicators, kind)
}

// Validate checks the selection and the periods of the selected indicators.
// Window sizes against the series length are left to the indicators.
func (p Params) Validate() error {
	if len(p.Indicators) == 0 {
		return fmt.Errorf("%w: no indicators selected", indicator.ErrInvalidArgument)
	}
	for _, k := range p.Indicators {
		if !slices.Contains(AllKinds, k) {
			return fmt.Errorf("%w: unknown indicator %q", indicator.ErrInvalidArgument, k)
		}
	}

	type setting struct {
		name  string
		value int
	}
	checks := map[strategy.Kind][]setting{
		strategy.KindRSI:       {{"rsi_period", p.RSIPeriod}},
		strategy.KindMACD:      {{"macd_slow", p.MACDSlow}, {"macd_fast", p.MACDFast}, {"macd_smooth", p.MACDSmooth}},
		strategy.KindBollinger: {{"bollinger_window", p.BollingerWindow}},
		strategy.KindDonchian:  {{"donchian_window", p.DonchianWindow}},
	}
	for _, k := range p.Indicators {
		for _, s := range checks[k] {
			if s.value <= 0 {
				return fmt.Errorf("%w: %s must be positive, got %d", indicator.ErrInvalidArgument, s.name, s.value)
			}
		}
	}
	return nil
}
