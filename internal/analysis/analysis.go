// Package analysis runs the indicator engine over a candle series and collects every
// indicator together with the signals derived from it.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/amirphl/simple-ta/internal/metrics"
	"github.com/amirphl/simple-ta/internal/strategy"
	"github.com/amirphl/simple-ta/internal/utils"
)

// RSIReport holds the RSI line and its overbought/oversold signals.
type RSIReport struct {
	Period  int              `json:"period"`
	Values  indicator.Series `json:"values"`
	Signals strategy.Signals `json:"signals"`
}

// MACDReport holds the MACD, signal and histogram lines with their crossover signals.
type MACDReport struct {
	Slow      int              `json:"slow"`
	Fast      int              `json:"fast"`
	Smooth    int              `json:"smooth"`
	MACD      indicator.Series `json:"macd"`
	Signal    indicator.Series `json:"signal"`
	Histogram indicator.Series `json:"histogram"`
	Signals   strategy.Signals `json:"signals"`
}

// BollingerReport holds the bands and the band-crossing signals.
type BollingerReport struct {
	Window  int              `json:"window"`
	SMA     indicator.Series `json:"sma"`
	Upper   indicator.Series `json:"upper"`
	Lower   indicator.Series `json:"lower"`
	Signals strategy.Signals `json:"signals"`
}

// DonchianReport holds the channel and the breakout signals.
type DonchianReport struct {
	Window  int              `json:"window"`
	Upper   indicator.Series `json:"upper"`
	Lower   indicator.Series `json:"lower"`
	Signals strategy.Signals `json:"signals"`
}

// Report is the output of one analysis run. Indicators that were not selected are nil.
type Report struct {
	Symbol    string            `json:"symbol"`
	Timeframe string            `json:"timeframe"`
	Times     []time.Time       `json:"times"`
	Open      indicator.Series  `json:"open"`
	Close     indicator.Series  `json:"close"`
	High      indicator.Series  `json:"high"`
	Low       indicator.Series  `json:"low"`
	RSI       *RSIReport        `json:"rsi,omitempty"`
	MACD      *MACDReport       `json:"macd,omitempty"`
	Bollinger *BollingerReport  `json:"bollinger,omitempty"`
	Donchian  *DonchianReport   `json:"donchian,omitempty"`
	Events    []strategy.Signal `json:"events"`
}

// Run validates and orders candles, then computes every selected indicator on the
// close series (Donchian also uses high and low).
func Run(candles []candle.Candle, p Params) (*Report, error) {
	report, err := run(candles, p)
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AnalysisRuns.WithLabelValues("ok").Inc()
	return report, nil
}

func run(candles []candle.Candle, p Params) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sorted, err := candle.Prepare(candles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", indicator.ErrInvalidArgument, err)
	}

	cols := candle.Columns(sorted)
	r := &Report{
		Symbol:    sorted[0].Symbol,
		Timeframe: sorted[0].Timeframe,
		Times:     cols.Times,
		Open:      cols.Open,
		Close:     cols.Close,
		High:      cols.High,
		Low:       cols.Low,
	}
	if err := Compute(r, cols, p); err != nil {
		return nil, err
	}

	log := utils.Component("analysis")
	log.Debug().
		Str("symbol", r.Symbol).
		Str("timeframe", r.Timeframe).
		Int("bars", len(sorted)).
		Int("events", len(r.Events)).
		Msg("analysis complete")
	return r, nil
}

// Compute fills the indicator sections of r from the column series.
func Compute(r *Report, cols candle.Series, p Params) error {
	metrics.BarsProcessed.Add(float64(len(cols.Close)))

	for _, kind := range AllKinds {
		if !p.Enabled(kind) {
			continue
		}
		start := time.Now()
		signals, err := computeKind(r, cols, p, kind)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		metrics.IndicatorDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

		events := signals.Events(kind, cols.Times)
		for _, ev := range events {
			side := "buy"
			if ev.Position == strategy.Short {
				side = "sell"
			}
			metrics.SignalsTotal.WithLabelValues(string(kind), side).Inc()
		}
		r.Events = append(r.Events, events...)
	}

	sort.SliceStable(r.Events, func(i, j int) bool {
		return r.Events[i].Index < r.Events[j].Index
	})
	return nil
}

func computeKind(r *Report, cols candle.Series, p Params, kind strategy.Kind) (strategy.Signals, error) {
	closes := cols.Close
	switch kind {
	case strategy.KindRSI:
		rsi, err := indicator.CalculateRSI(closes, p.RSIPeriod)
		if err != nil {
			return strategy.Signals{}, err
		}
		signals, err := strategy.RSISignals(closes, rsi)
		if err != nil {
			return strategy.Signals{}, err
		}
		r.RSI = &RSIReport{Period: p.RSIPeriod, Values: rsi, Signals: signals}
		return signals, nil

	case strategy.KindMACD:
		macd, err := indicator.CalculateMACD(closes, p.MACDSlow, p.MACDFast, p.MACDSmooth)
		if err != nil {
			return strategy.Signals{}, err
		}
		signals, err := strategy.MACDSignals(closes, macd)
		if err != nil {
			return strategy.Signals{}, err
		}
		r.MACD = &MACDReport{
			Slow: p.MACDSlow, Fast: p.MACDFast, Smooth: p.MACDSmooth,
			MACD: macd.MACD, Signal: macd.Signal, Histogram: macd.Histogram,
			Signals: signals,
		}
		return signals, nil

	case strategy.KindBollinger:
		sma, err := indicator.CalculateSMA(closes, p.BollingerWindow)
		if err != nil {
			return strategy.Signals{}, err
		}
		upper, lower, err := indicator.CalculateBollingerBands(closes, sma, p.BollingerWindow)
		if err != nil {
			return strategy.Signals{}, err
		}
		signals, err := strategy.BollingerSignals(closes, lower, upper)
		if err != nil {
			return strategy.Signals{}, err
		}
		r.Bollinger = &BollingerReport{Window: p.BollingerWindow, SMA: sma, Upper: upper, Lower: lower, Signals: signals}
		return signals, nil

	case strategy.KindDonchian:
		upper, lower, err := indicator.CalculateDonchianChannel(closes, cols.High, cols.Low, p.DonchianWindow)
		if err != nil {
			return strategy.Signals{}, err
		}
		signals, err := strategy.DonchianSignals(closes, upper, lower)
		if err != nil {
			return strategy.Signals{}, err
		}
		r.Donchian = &DonchianReport{Window: p.DonchianWindow, Upper: upper, Lower: lower, Signals: signals}
		return signals, nil
	}
	return strategy.Signals{}, fmt.Errorf("%w: unknown indicator %q", indicator.ErrInvalidArgument, kind)
}

// LatestSignals returns the events that fired on the last bar.
func (r *Report) LatestSignals() []strategy.Signal {
	last := len(r.Close) - 1
	var out []strategy.Signal
	for _, ev := range r.Events {
		if ev.Index == last {
			out = append(out, ev)
		}
	}
	return out
}

// LastClose returns the most recent close, or NaN for an empty report.
func (r *Report) LastClose() float64 {
	if len(r.Close) == 0 {
		return math.NaN()
	}
	return r.Close[len(r.Close)-1]
}
