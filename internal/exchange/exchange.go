// Package exchange fetches candle history from remote exchanges.
package exchange

import (
	"context"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
)

// CandleSource is implemented by every exchange that can serve candle history.
type CandleSource interface {
	Name() string
	FetchCandles(ctx context.Context, symbol string, timeframe string, start, end time.Time) ([]candle.Candle, error)
}
