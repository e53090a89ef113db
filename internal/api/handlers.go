package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/amirphl/simple-ta/internal/analysis"
	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("bad request")

type analyzeRequest struct {
	// Symbol and Timeframe fill in candles that leave them empty.
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Candles   []candle.Candle `json:"candles"`
	Params    analysis.Params `json:"params"`

	HeikinAshi bool `json:"heikin_ashi"`
}

type indicatorRequest struct {
	Series []float64 `json:"series"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Window int       `json:"window"`
	Period int       `json:"period"`
	Slow   int       `json:"slow"`
	Fast   int       `json:"fast"`
	Smooth int       `json:"smooth"`
}

type valuesResponse struct {
	Values indicator.Series `json:"values"`
}

type macdResponse struct {
	MACD      indicator.Series `json:"macd"`
	Signal    indicator.Series `json:"signal"`
	Histogram indicator.Series `json:"histogram"`
}

type bandsResponse struct {
	Middle indicator.Series `json:"middle,omitempty"`
	Upper  indicator.Series `json:"upper"`
	Lower  indicator.Series `json:"lower"`
}

// GetDefaultParams returns the indicator settings used when a request leaves them out.
func GetDefaultParams(c *gin.Context) {
	c.JSON(http.StatusOK, analysis.DefaultParams())
}

// Analyze runs the selected indicators over the posted candles. Params missing
// from the body keep their defaults.
func Analyze(c *gin.Context) {
	req := analyzeRequest{Params: analysis.DefaultParams()}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	for i := range req.Candles {
		if req.Candles[i].Symbol == "" {
			req.Candles[i].Symbol = req.Symbol
		}
		if req.Candles[i].Timeframe == "" {
			req.Candles[i].Timeframe = req.Timeframe
		}
	}

	candles := req.Candles
	if req.HeikinAshi {
		sorted, err := candle.Prepare(candles)
		if err != nil {
			abort(c, fmt.Errorf("%w: %v", indicator.ErrInvalidArgument, err))
			return
		}
		candles = candle.HeikinAshi(sorted)
	}

	report, err := analysis.Run(candles, req.Params)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ComputeIndicator evaluates a single indicator named by the path.
func ComputeIndicator(c *gin.Context) {
	var req indicatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	resp, err := compute(c.Param("name"), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func compute(name string, req indicatorRequest) (any, error) {
	switch name {
	case "ema":
		out, err := indicator.CalculateEMA(req.Series, req.Period)
		return valuesResponse{Values: out}, err
	case "sma":
		out, err := indicator.CalculateSMA(req.Series, req.Window)
		return valuesResponse{Values: out}, err
	case "rsi":
		out, err := indicator.CalculateRSI(req.Series, req.Period)
		return valuesResponse{Values: out}, err
	case "macd":
		out, err := indicator.CalculateMACD(req.Series, req.Slow, req.Fast, req.Smooth)
		return macdResponse{MACD: out.MACD, Signal: out.Signal, Histogram: out.Histogram}, err
	case "bollinger":
		sma, err := indicator.CalculateSMA(req.Series, req.Window)
		if err != nil {
			return nil, err
		}
		upper, lower, err := indicator.CalculateBollingerBands(req.Series, sma, req.Window)
		return bandsResponse{Middle: sma, Upper: upper, Lower: lower}, err
	case "donchian":
		upper, lower, err := indicator.CalculateDonchianChannel(req.Series, req.High, req.Low, req.Window)
		return bandsResponse{Upper: upper, Lower: lower}, err
	}
	return nil, fmt.Errorf("%w: unknown indicator %q", errBadRequest, name)
}
