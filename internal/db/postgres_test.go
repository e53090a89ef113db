package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/db"
	dbconf "github.com/amirphl/simple-ta/internal/db/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandles(source string, n int) []candle.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]candle.Candle, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = candle.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      p, High: p + 2, Low: p - 2, Close: p + 1, Volume: 10,
			Symbol: "BTC-USDT", Timeframe: "1h", Source: source,
		}
	}
	return out
}

func TestSplitStatements(t *testing.T) {
	stmts := db.SplitStatements(db.Schema)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS candles")
	assert.Contains(t, stmts[2], "create_hypertable")

	assert.Empty(t, db.SplitStatements(" ; ;\n"))
}

func TestSaveAndGetCandles(t *testing.T) {
	cfg, cleanup := dbconf.NewTestConfig(t)
	defer cleanup()

	ctx := context.Background()
	store := db.New(cfg.DB)

	candles := testCandles("wallex", 5)
	require.NoError(t, store.SaveCandles(ctx, candles))

	start := candles[0].Timestamp
	end := start.Add(5 * time.Hour)

	got, err := store.GetCandles(ctx, "BTC-USDT", "1h", "wallex", start, end)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, candles[4].Close, got[4].Close)
	assert.True(t, got[0].Timestamp.Equal(start))

	count, err := store.GetCandleCount(ctx, "BTC-USDT", "1h", "wallex", start, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// upsert replaces prices
	candles[0].Close = candles[0].High
	require.NoError(t, store.SaveCandles(ctx, candles[:1]))
	got, err = store.GetCandles(ctx, "BTC-USDT", "1h", "wallex", start, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, candles[0].High, got[0].Close)
}

func TestGetCandlesAcrossSourcesKeepsOnePerTimestamp(t *testing.T) {
	cfg, cleanup := dbconf.NewTestConfig(t)
	defer cleanup()

	ctx := context.Background()
	store := db.New(cfg.DB)

	csvRows := testCandles("csv", 3)
	wallexRows := testCandles("wallex", 5)
	for i := range wallexRows {
		wallexRows[i].Close = wallexRows[i].Low
	}
	require.NoError(t, store.SaveCandles(ctx, wallexRows))
	require.NoError(t, store.SaveCandles(ctx, csvRows))

	start := csvRows[0].Timestamp
	end := start.Add(5 * time.Hour)

	all, err := store.GetCandles(ctx, "BTC-USDT", "1h", "", start, end)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "csv", all[0].Source)
	assert.Equal(t, csvRows[2].Close, all[2].Close)
	assert.Equal(t, "wallex", all[3].Source)

	_, err = candle.Prepare(all)
	assert.NoError(t, err)

	count, err := store.GetCandleCount(ctx, "BTC-USDT", "1h", "", start, end)
	require.NoError(t, err)
	assert.Equal(t, len(all), count)

	onlyWallex, err := store.GetCandles(ctx, "BTC-USDT", "1h", "wallex", start, end)
	require.NoError(t, err)
	require.Len(t, onlyWallex, 5)
	for _, c := range onlyWallex {
		assert.Equal(t, "wallex", c.Source)
		assert.Equal(t, c.Low, c.Close)
	}
}

func TestImportCandlesInBatches(t *testing.T) {
	cfg, cleanup := dbconf.NewTestConfig(t)
	defer cleanup()

	ctx := context.Background()
	store := db.New(cfg.DB)

	candles := testCandles("csv", 7)
	require.NoError(t, store.ImportCandles(ctx, candles, 3))

	start := candles[0].Timestamp
	count, err := store.GetCandleCount(ctx, "BTC-USDT", "1h", "csv", start, start.Add(7*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	// a bad row in the last batch rolls back the earlier ones
	more := testCandles("wallex", 7)
	more[6].High = 1
	err = store.ImportCandles(ctx, more, 3)
	assert.ErrorContains(t, err, "invalid candle at index 0")

	count, err = store.GetCandleCount(ctx, "BTC-USDT", "1h", "wallex", start, start.Add(7*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSaveCandlesRejectsInvalid(t *testing.T) {
	store := db.New(nil)
	bad := testCandles("csv", 1)
	bad[0].High = 1
	err := store.SaveCandles(context.Background(), bad)
	assert.ErrorContains(t, err, "invalid candle at index 0")

	assert.NoError(t, store.SaveCandles(context.Background(), nil))
}

func TestApplySchemaIsIdempotent(t *testing.T) {
	cfg, cleanup := dbconf.NewTestConfig(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, db.ApplySchema(ctx, cfg.DB, db.Schema))

	var exists bool
	require.NoError(t, cfg.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = 'candles')").Scan(&exists))
	assert.True(t, exists)
}
