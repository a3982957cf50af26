package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"crypto-trading-bot/internal/types"
)

// LoadCandlesCSV reads an OHLCV series from a CSV file with a header of
// ts,open,high,low,close,volume. Timestamps are unix milliseconds.
func LoadCandlesCSV(path string) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := map[string]int{}
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"ts", "open", "high", "low", "close", "volume"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("data file missing column %q", col)
		}
	}

	var candles []types.Candle
	line := 1
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		line++

		ts, err := strconv.ParseInt(row[idx["ts"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad ts: %w", line, err)
		}

		vals := make(map[string]float64, 5)
		for _, col := range []string{"open", "high", "low", "close", "volume"} {
			v, err := strconv.ParseFloat(row[idx[col]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s: %w", line, col, err)
			}
			vals[col] = v
		}

		candles = append(candles, types.Candle{
			Ts:    ts,
			Open:  vals["open"],
			High:  vals["high"],
			Low:   vals["low"],
			Close: vals["close"],
			Vol:   vals["volume"],
		})
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("data file %s contains no candles", path)
	}
	return candles, nil
}
