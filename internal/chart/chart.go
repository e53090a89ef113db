// Package chart renders an analysis report as an ECharts HTML page.
package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/analysis"
	"github.com/amirphl/simple-ta/internal/strategy"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	width  = "1600px"
	height = "600px"

	buyColor  = "#55FF55"
	sellColor = "#FF5555"
)

// missing is how ECharts skips a point.
const missing = "-"

// Render writes a page with the price chart, its overlays and signal markers,
// followed by RSI and MACD panels when those indicators were computed.
func Render(w io.Writer, r *analysis.Report) error {
	if r == nil || len(r.Close) == 0 {
		return fmt.Errorf("chart: empty report")
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s %s", r.Symbol, r.Timeframe)
	page.AddCharts(priceChart(r))
	if r.RSI != nil {
		page.AddCharts(rsiChart(r))
	}
	if r.MACD != nil {
		page.AddCharts(macdChart(r))
	}
	return page.Render(w)
}

func xAxis(times []time.Time) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.UTC().Format("2006-01-02 15:04")
	}
	return out
}

func globalOpts(title string, zoom bool) []charts.GlobalOpts {
	o := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  width,
			Height: height,
			Theme:  types.ThemeInfographic,
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithYAxisOpts(opts.YAxis{Scale: true}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
	}
	if zoom {
		o = append(o, charts.WithDataZoomOpts(opts.DataZoom{
			Start:      0,
			End:        100,
			Throttle:   16.666,
			XAxisIndex: []int{0},
			Type:       "inside",
		}))
	}
	return o
}

// lineData drops the warm-up prefix before from and any non-finite value.
func lineData(values []float64, from int) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if i < from || math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = opts.LineData{Value: missing}
			continue
		}
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func constLine(n int, v float64) []opts.LineData {
	out := make([]opts.LineData, n)
	for i := range out {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// markers groups the events per bar into buy and sell scatter series.
func markers(n int, events []strategy.Signal) (buys, sells []opts.ScatterData) {
	buyNames := make([][]string, n)
	sellNames := make([][]string, n)
	price := make([]float64, n)
	for _, ev := range events {
		if ev.Index < 0 || ev.Index >= n {
			continue
		}
		price[ev.Index] = ev.TriggerPrice
		if ev.Position == strategy.Long {
			buyNames[ev.Index] = append(buyNames[ev.Index], ev.StrategyName)
		} else {
			sellNames[ev.Index] = append(sellNames[ev.Index], ev.StrategyName)
		}
	}

	buys = make([]opts.ScatterData, n)
	sells = make([]opts.ScatterData, n)
	for i := 0; i < n; i++ {
		buys[i] = opts.ScatterData{Value: missing, SymbolSize: 0}
		sells[i] = opts.ScatterData{Value: missing, SymbolSize: 0}
		if len(buyNames[i]) > 0 {
			buys[i] = opts.ScatterData{
				Value:      price[i],
				Symbol:     "triangle",
				SymbolSize: 16,
				Name:       "buy " + strings.Join(buyNames[i], ","),
			}
		}
		if len(sellNames[i]) > 0 {
			sells[i] = opts.ScatterData{
				Value:        price[i],
				Symbol:       "triangle",
				SymbolSize:   16,
				SymbolRotate: 180,
				Name:         "sell " + strings.Join(sellNames[i], ","),
			}
		}
	}
	return buys, sells
}

func priceChart(r *analysis.Report) *charts.Kline {
	x := xAxis(r.Times)
	n := len(r.Close)

	klineY := make([]opts.KlineData, n)
	for i := 0; i < n; i++ {
		open := r.Close[i]
		if i < len(r.Open) {
			open = r.Open[i]
		}
		klineY[i] = opts.KlineData{Value: []float64{open, r.Close[i], r.Low[i], r.High[i]}}
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(globalOpts(fmt.Sprintf("%s %s", r.Symbol, r.Timeframe), true)...)
	kline.SetXAxis(x).
		AddSeries("Price", klineY).
		SetSeriesOptions(
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:        "#00000000",
				Color0:       "#00000000",
				BorderColor:  "#00AA00",
				BorderColor0: "#DD0000",
			}),
		)

	if r.Bollinger != nil || r.Donchian != nil {
		line := charts.NewLine()
		line.SetXAxis(x)
		if b := r.Bollinger; b != nil {
			line.AddSeries(fmt.Sprintf("SMA (%d)", b.Window), lineData(b.SMA, b.Window)).
				AddSeries("Bollinger (upper)", lineData(b.Upper, b.Window)).
				AddSeries("Bollinger (lower)", lineData(b.Lower, b.Window))
		}
		if d := r.Donchian; d != nil {
			line.AddSeries("Donchian (upper)", lineData(d.Upper, d.Window-1)).
				AddSeries("Donchian (lower)", lineData(d.Lower, d.Window-1))
		}
		kline.Overlap(line)
	}

	buys, sells := markers(n, r.Events)
	scatterBuy := charts.NewScatter()
	scatterBuy.SetXAxis(x).
		AddSeries("Buy", buys).
		SetSeriesOptions(
			charts.WithItemStyleOpts(opts.ItemStyle{Color: buyColor, BorderColor: buyColor}),
			charts.WithLabelOpts(opts.Label{Show: true, Position: "bottom", Formatter: "{b}"}),
		)
	scatterSell := charts.NewScatter()
	scatterSell.SetXAxis(x).
		AddSeries("Sell", sells).
		SetSeriesOptions(
			charts.WithItemStyleOpts(opts.ItemStyle{Color: sellColor, BorderColor: sellColor}),
			charts.WithLabelOpts(opts.Label{Show: true, Position: "top", Formatter: "{b}"}),
		)
	kline.Overlap(scatterBuy, scatterSell)

	return kline
}

func rsiChart(r *analysis.Report) *charts.Line {
	n := len(r.RSI.Values)
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(fmt.Sprintf("RSI (%d)", r.RSI.Period), false)...)
	line.SetXAxis(xAxis(r.Times)).
		AddSeries("RSI", lineData(r.RSI.Values, 1)).
		AddSeries("Overbought", constLine(n, strategy.RSIOverbought)).
		AddSeries("Oversold", constLine(n, strategy.RSIOversold))
	return line
}

func macdChart(r *analysis.Report) *charts.Bar {
	m := r.MACD
	bars := make([]opts.BarData, len(m.Histogram))
	for i, v := range m.Histogram {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bars[i] = opts.BarData{Value: missing}
			continue
		}
		bars[i] = opts.BarData{Value: v}
	}

	x := xAxis(r.Times)
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(fmt.Sprintf("MACD (%d, %d, %d)", m.Fast, m.Slow, m.Smooth), false)...)
	bar.SetXAxis(x).AddSeries("Histogram", bars)

	line := charts.NewLine()
	line.SetXAxis(x).
		AddSeries("MACD", lineData(m.MACD, 0)).
		AddSeries("Signal", lineData(m.Signal, 0))
	bar.Overlap(line)
	return bar
}
