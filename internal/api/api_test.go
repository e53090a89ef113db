package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/simple-ta/internal/analysis"
	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	w := do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDefaultParams(t *testing.T) {
	w := do(t, http.MethodGet, "/v1/params/default", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, analysis.DefaultParams(), decode[analysis.Params](t, w))
}

func TestMetricsEndpoint(t *testing.T) {
	do(t, http.MethodGet, "/healthz", nil)
	w := do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ta_http_requests_total{code="200",route="/healthz"}`)
}

func TestComputeIndicator(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	w := do(t, http.MethodPost, "/v1/indicators/sma", indicatorRequest{Series: series, Window: 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []float64{0, 0, 0, 2, 3, 4, 5, 6, 7, 8}, decode[struct{ Values []float64 }](t, w).Values)

	w = do(t, http.MethodPost, "/v1/indicators/macd", indicatorRequest{Series: []float64{1, 2, 3}, Slow: 3, Fast: 1, Smooth: 3})
	require.Equal(t, http.StatusOK, w.Code)
	macd := decode[struct{ MACD, Signal, Histogram []float64 }](t, w)
	assert.Equal(t, []float64{0, 0.5, 0.75}, macd.MACD)
	assert.Equal(t, []float64{0, 0.25, 0.25}, macd.Histogram)

	w = do(t, http.MethodPost, "/v1/indicators/donchian", indicatorRequest{
		Series: []float64{1, 3, 2, 5, 4},
		High:   []float64{1, 3, 2, 5, 4},
		Low:    []float64{0, 1, 1, 2, 3},
		Window: 3,
	})
	require.Equal(t, http.StatusOK, w.Code)
	bands := decode[struct{ Upper, Lower []float64 }](t, w)
	assert.Equal(t, []float64{0, 0, 3, 5, 5}, bands.Upper)
	assert.Equal(t, []float64{0, 0, 0, 1, 1}, bands.Lower)

	w = do(t, http.MethodPost, "/v1/indicators/bollinger", indicatorRequest{Series: []float64{5, 5, 5, 5}, Window: 2})
	require.Equal(t, http.StatusOK, w.Code)
	bb := decode[struct{ Middle, Upper, Lower []float64 }](t, w)
	assert.Equal(t, []float64{0, 0, 5, 5}, bb.Upper)
	assert.Equal(t, bb.Upper, bb.Lower)
}

func TestComputeIndicatorNaNAsNull(t *testing.T) {
	// a flat series has no gains or losses, so RSI is 0/0 after the first bar
	w := do(t, http.MethodPost, "/v1/indicators/rsi", indicatorRequest{Series: []float64{2, 2, 2}, Period: 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "null")

	values := decode[struct{ Values []*float64 }](t, w).Values
	require.Len(t, values, 3)
	assert.Nil(t, values[2])
}

func TestComputeIndicatorErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body any
	}{
		{"unknown indicator", "/v1/indicators/adx", indicatorRequest{Series: []float64{1}}},
		{"bad json", "/v1/indicators/sma", "{"},
		{"empty series", "/v1/indicators/sma", indicatorRequest{Window: 2}},
		{"window too large", "/v1/indicators/sma", indicatorRequest{Series: []float64{1, 2}, Window: 3}},
		{"zero period", "/v1/indicators/rsi", indicatorRequest{Series: []float64{1, 2}}},
		{"length mismatch", "/v1/indicators/donchian", indicatorRequest{Series: []float64{1, 2}, High: []float64{1}, Low: []float64{1, 2}, Window: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[errorResponse](t, w).Error)
		})
	}
}

func candlesBody(n int) []candle.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]candle.Candle, n)
	for i := range out {
		p := 50 + 5*math.Sin(float64(i)/3)
		out[i] = candle.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: p, High: p + 1, Low: p - 1, Close: p}
	}
	return out
}

func TestAnalyze(t *testing.T) {
	w := do(t, http.MethodPost, "/v1/analyze", map[string]any{
		"symbol":    "BTCUSDT",
		"timeframe": "1h",
		"candles":   candlesBody(60),
		"params":    map[string]any{"indicators": []string{"rsi", "donchian"}, "donchian_window": 10},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "BTCUSDT", report["symbol"])
	assert.Contains(t, report, "rsi")
	assert.Contains(t, report, "donchian")
	assert.NotContains(t, report, "macd")

	donchian := report["donchian"].(map[string]any)
	assert.Equal(t, 10.0, donchian["window"])
	rsi := report["rsi"].(map[string]any)
	assert.Equal(t, 14.0, rsi["period"])
}

func TestAnalyzeHeikinAshi(t *testing.T) {
	body := map[string]any{
		"symbol": "BTCUSDT", "timeframe": "1h", "candles": candlesBody(40), "heikin_ashi": true,
		"params": map[string]any{"indicators": []string{"rsi"}},
	}
	w := do(t, http.MethodPost, "/v1/analyze", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct{ Close []float64 }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	raw := candlesBody(40)
	assert.InDelta(t, (raw[1].Open+raw[1].High+raw[1].Low+raw[1].Close)/4, report.Close[1], 1e-9)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"bad json", `{"candles":`},
		{"no candles", map[string]any{"symbol": "X", "timeframe": "1h"}},
		{"bad timeframe", map[string]any{"symbol": "X", "timeframe": "7m", "candles": candlesBody(30)}},
		{"window too large", map[string]any{
			"symbol": "X", "timeframe": "1h", "candles": candlesBody(5),
			"params": map[string]any{"indicators": []string{"bollinger"}},
		}},
		{"unknown indicator", map[string]any{
			"symbol": "X", "timeframe": "1h", "candles": candlesBody(5),
			"params": map[string]any{"indicators": []string{"adx"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, http.MethodPost, "/v1/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprint(w.Body.String()))
		})
	}
}
