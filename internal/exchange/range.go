package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/utils"
)

// DefaultChunk keeps each request inside the exchanges' history limits.
const DefaultChunk = 30 * 24 * time.Hour

// FetchRange downloads [from, to) in chunks and concatenates the results. Sources that
// return the bar at a chunk's end are tolerated: each timestamp is kept once.
func FetchRange(ctx context.Context, src CandleSource, symbol, timeframe string, from, to time.Time, chunk time.Duration) ([]candle.Candle, error) {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	log := utils.Component("exchange")

	var out []candle.Candle
	seen := make(map[time.Time]struct{})
	for curr := from; curr.Before(to); {
		next := curr.Add(chunk)
		if next.After(to) {
			next = to
		}

		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		candles, err := src.FetchCandles(fetchCtx, symbol, timeframe, curr, next)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("error fetching candles from %s to %s: %w",
				curr.Format(time.RFC3339), next.Format(time.RFC3339), err)
		}

		log.Info().Str("source", src.Name()).Int("candles", len(candles)).
			Time("from", curr).Time("to", next).Msg("downloaded chunk")
		for _, c := range candles {
			if c.Timestamp.Before(from) || !c.Timestamp.Before(to) {
				continue
			}
			ts := c.Timestamp.UTC()
			if _, dup := seen[ts]; dup {
				continue
			}
			seen[ts] = struct{}{}
			out = append(out, c)
		}
		curr = next
	}
	return out, nil
}
