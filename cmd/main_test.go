package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	source  string
	candles []candle.Candle
	err     error
}

func (f *fakeStorage) GetCandles(_ context.Context, _, _, source string, _, _ time.Time) ([]candle.Candle, error) {
	f.source = source
	return f.candles, f.err
}

func TestReadStoredPassesDBSource(t *testing.T) {
	cfg := config.Config{Symbol: "BTCUSDT", Timeframe: "1h", DBSource: config.SourceWallex}
	s := &fakeStorage{candles: []candle.Candle{{Timestamp: time.Unix(0, 0).UTC(), Source: "wallex"}}}

	got, err := readStored(context.Background(), s, cfg)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "wallex", s.source)
}

func TestReadStoredErrors(t *testing.T) {
	cfg := config.Config{Symbol: "BTCUSDT", Timeframe: "1h"}

	_, err := readStored(context.Background(), &fakeStorage{}, cfg)
	assert.ErrorContains(t, err, "no candles in database for BTCUSDT 1h")

	boom := errors.New("connection reset")
	_, err = readStored(context.Background(), &fakeStorage{err: boom}, cfg)
	assert.ErrorIs(t, err, boom)
}
