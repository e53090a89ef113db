package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/tfutils"
	"github.com/amirphl/simple-ta/internal/utils"
	wallex "github.com/wallexchange/wallex-go"
)

// candleClient is the part of the Wallex client used here.
type candleClient interface {
	Candles(symbol, resolution string, from, to time.Time) ([]*wallex.Candle, error)
}

// WallexExchange reads historical candles from the Wallex REST API, retrying
// failed requests with exponential backoff.
type WallexExchange struct {
	client   candleClient
	attempts int
	delay    time.Duration
}

var _ CandleSource = (*WallexExchange)(nil)

// NewWallexExchange creates a Wallex candle source; apiKey may be empty for public market data.
func NewWallexExchange(apiKey string) *WallexExchange {
	return &WallexExchange{
		client:   wallex.New(wallex.ClientOptions{APIKey: apiKey}),
		attempts: 3,
		delay:    2 * time.Second,
	}
}

// Name returns the source tag stored with every candle.
func (w *WallexExchange) Name() string {
	return "wallex"
}

// retry wraps a function with retry logic for transient errors, using exponential backoff.
// It gives up early when ctx is done.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	log := utils.Component("exchange")
	backoff := delay
	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn().Err(lastErr).Int("attempt", i).Int("attempts", attempts).
			Dur("backoff", backoff).Msg("wallex request failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		// Exponential backoff, capped at 5 minutes
		backoff = min(backoff*2, 5*time.Minute)
	}
	return errors.Join(errors.New("all retry attempts failed"), lastErr)
}

func (w *WallexExchange) FetchCandles(ctx context.Context, symbol string, timeframe string, start, end time.Time) ([]candle.Candle, error) {
	if !tfutils.IsValidTimeframe(timeframe) {
		return nil, fmt.Errorf("unsupported timeframe: %s", timeframe)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("invalid range: end %s is not after start %s", end, start)
	}

	normalizedTimeframe := NormalizedTimeframe(timeframe)
	normalizedSymbol := NormalizeSymbol(symbol)

	var wallexCandles []*wallex.Candle
	err := retry(ctx, w.attempts, w.delay, func() error {
		var err error
		wallexCandles, err = w.client.Candles(normalizedSymbol, normalizedTimeframe, start, end)
		if err != nil {
			return fmt.Errorf("fetching candles: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FetchCandles failed: %w", err)
	}

	log := utils.Component("exchange")
	candles := make([]candle.Candle, 0, len(wallexCandles))
	for _, wc := range wallexCandles {
		c, err := convertCandle(wc, symbol, timeframe, w.Name())
		if err == nil && (c.Timestamp.Before(start) || !c.Timestamp.Before(end)) {
			err = fmt.Errorf("outside [%s, %s)", start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		if err != nil {
			log.Debug().Err(err).Time("timestamp", wc.Timestamp).Msg("skipping candle")
			continue
		}
		candles = append(candles, c)
	}

	log.Debug().Str("symbol", symbol).Str("timeframe", timeframe).
		Int("received", len(wallexCandles)).Int("kept", len(candles)).Msg("fetched candles")
	return candles, nil
}

// FetchLatestCandles fetches the most recent count candles for a symbol and timeframe
func (w *WallexExchange) FetchLatestCandles(ctx context.Context, symbol string, timeframe string, count int) ([]candle.Candle, error) {
	duration := tfutils.GetTimeframeDuration(timeframe)
	if duration == 0 {
		return nil, fmt.Errorf("invalid timeframe: %s", timeframe)
	}
	if count <= 0 {
		return nil, fmt.Errorf("invalid count: %d", count)
	}

	end := time.Now().UTC()
	start := end.Add(-duration * time.Duration(count))
	return w.FetchCandles(ctx, symbol, timeframe, start, end)
}

func convertCandle(wc *wallex.Candle, symbol, timeframe, source string) (candle.Candle, error) {
	fields := []wallex.Number{wc.Open, wc.High, wc.Low, wc.Close, wc.Volume}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(string(f), 64)
		if err != nil {
			return candle.Candle{}, fmt.Errorf("parse %q: %w", f, err)
		}
		values[i] = v
	}

	c := candle.Candle{
		Timestamp: wc.Timestamp.UTC().Truncate(time.Minute),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
		Symbol:    symbol,
		Timeframe: timeframe,
		Source:    source,
	}
	if err := c.Validate(); err != nil {
		return candle.Candle{}, err
	}
	return c, nil
}

// NormalizeSymbol turns "btc-usdt" into the Wallex market name "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	symbol = strings.ReplaceAll(symbol, "/", "")
	return strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))
}

// NormalizedTimeframe converts a timeframe to a Wallex resolution: minutes for
// intraday frames, "1D" and "1W" otherwise.
func NormalizedTimeframe(timeframe string) string {
	switch timeframe {
	case "1d":
		return "1D"
	case "1w":
		return "1W"
	}
	return strconv.Itoa(tfutils.TimeframeMinutes(timeframe))
}
