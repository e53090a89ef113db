package candle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadCSV reads candles from a CSV with a header row. Columns are matched by name,
// case-insensitively: timestamp (or date/time), open, high, low, close (or adj close)
// and an optional volume. Timestamps may be RFC3339, "2006-01-02 15:04:05",
// "2006-01-02" or unix seconds.
func ReadCSV(r io.Reader, symbol, timeframe, source string) ([]Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	col := func(names ...string) int {
		for _, n := range names {
			if i, ok := cols[n]; ok {
				return i
			}
		}
		return -1
	}

	tsCol := col("timestamp", "date", "time", "datetime")
	openCol := col("open")
	highCol := col("high")
	lowCol := col("low")
	closeCol := col("close", "adj close", "adj_close")
	volCol := col("volume")
	if tsCol < 0 || openCol < 0 || highCol < 0 || lowCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("csv header %v must name timestamp, open, high, low and close columns", header)
	}

	var candles []Candle
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		ts, err := parseTimestamp(rec[tsCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c := Candle{Timestamp: ts, Symbol: symbol, Timeframe: timeframe, Source: source}
		fields := []struct {
			idx int
			dst *float64
		}{
			{openCol, &c.Open}, {highCol, &c.High}, {lowCol, &c.Low}, {closeCol, &c.Close}, {volCol, &c.Volume},
		}
		for _, f := range fields {
			if f.idx < 0 {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[f.idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[f.idx], err)
			}
			*f.dst = v
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path, symbol, timeframe string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, symbol, timeframe, "csv")
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}
