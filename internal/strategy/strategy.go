// Package strategy turns indicator series into buy/sell signals.
//
// Every extractor is a single pass over the bars that threads a Position through the
// scan: a condition for the side already held is ignored, so a side can only fire
// again after the opposite side has fired.
package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/amirphl/simple-ta/internal/indicator"
)

// Position is the side held after the latest fired signal.
type Position int8

const (
	Short Position = -1
	Flat  Position = 0
	Long  Position = 1
)

// String returns "long", "short" or "flat".
func (p Position) String() string {
	switch p {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// MarshalText encodes the position by name so JSON reads "long" rather than 1.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Decision is the outcome of a single bar.
type Decision int8

const (
	Hold Decision = iota
	Buy
	Sell
)

// Transition applies the entry conditions of one bar to the running position.
// Buy is checked first; a buy condition while already long falls through to the
// sell check, the same way an if/else-if chain would.
func Transition(pos Position, buy, sell bool) (Decision, Position) {
	switch {
	case buy && pos != Long:
		return Buy, Long
	case sell && pos != Short:
		return Sell, Short
	}
	return Hold, pos
}

// Signals holds the firing prices of an extractor. Both series are NaN where nothing fired.
type Signals struct {
	Buy  []float64
	Sell []float64
}

// MarshalJSON writes the series with NaN as null.
func (s Signals) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Buy  indicator.Series `json:"buy"`
		Sell indicator.Series `json:"sell"`
	}{s.Buy, s.Sell})
}

func newSignals(n int) Signals {
	s := Signals{Buy: make([]float64, n), Sell: make([]float64, n)}
	for i := 0; i < n; i++ {
		s.Buy[i] = math.NaN()
		s.Sell[i] = math.NaN()
	}
	return s
}

// conditions reports the buy and sell conditions of bar i.
type conditions func(i int) (buy, sell bool)

// scan folds Transition over bars [from, len(prices)), starting flat.
func scan(prices []float64, from int, cond conditions) Signals {
	out := newSignals(len(prices))
	pos := Flat
	for i := from; i < len(prices); i++ {
		buy, sell := cond(i)
		var d Decision
		d, pos = Transition(pos, buy, sell)
		switch d {
		case Buy:
			out.Buy[i] = prices[i]
		case Sell:
			out.Sell[i] = prices[i]
		}
	}
	return out
}

func validate(prices []float64, named ...indicator.NamedSeries) error {
	if len(prices) == 0 {
		return fmt.Errorf("%w: price series cannot be empty", indicator.ErrInvalidArgument)
	}
	return indicator.ValidateSameLength(len(prices), named...)
}

// Kind names a signal extractor.
type Kind string

const (
	KindRSI       Kind = "rsi"
	KindMACD      Kind = "macd"
	KindBollinger Kind = "bollinger"
	KindDonchian  Kind = "donchian"
)

var reasons = map[Kind][2]string{
	KindRSI:       {"RSI crossed below oversold", "RSI crossed above overbought"},
	KindMACD:      {"MACD above signal line", "MACD below signal line"},
	KindBollinger: {"price crossed below lower band", "price crossed above upper band"},
	KindDonchian:  {"price broke above upper channel", "price broke below lower channel"},
}

// Signal is a single fired signal.
type Signal struct {
	Time         time.Time `json:"time"`
	Index        int       `json:"index"`
	Position     Position  `json:"position"`
	Reason       string    `json:"reason"`
	StrategyName string    `json:"strategy_name"`
	TriggerPrice float64   `json:"trigger_price"`
}

// Events lists the fired signals in bar order. times is optional; when it is shorter
// than the series the event time stays zero.
func (s Signals) Events(kind Kind, times []time.Time) []Signal {
	var events []Signal
	for i := range s.Buy {
		var (
			pos   Position
			price float64
		)
		switch {
		case !math.IsNaN(s.Buy[i]):
			pos, price = Long, s.Buy[i]
		case i < len(s.Sell) && !math.IsNaN(s.Sell[i]):
			pos, price = Short, s.Sell[i]
		default:
			continue
		}

		ev := Signal{
			Index:        i,
			Position:     pos,
			StrategyName: string(kind),
			TriggerPrice: price,
		}
		if r, ok := reasons[kind]; ok {
			if pos == Long {
				ev.Reason = r[0]
			} else {
				ev.Reason = r[1]
			}
		}
		if i < len(times) {
			ev.Time = times[i]
		}
		events = append(events, ev)
	}
	return events
}
