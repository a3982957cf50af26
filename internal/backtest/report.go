package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"crypto-trading-bot/internal/execution"
)

// reportSummary is the JSON report body.
type reportSummary struct {
	GeneratedAt     time.Time `json:"generated_at"`
	Symbol          string    `json:"symbol"`
	Timeframe       string    `json:"timeframe"`
	Bars            int       `json:"bars"`
	StartingBalance float64   `json:"starting_balance"`
	FinalBalance    float64   `json:"final_balance"`
	Metrics         Metrics   `json:"metrics"`
}

// WriteReport persists a run as summary JSON plus a trades CSV under
// dir, named by timestamp. It returns the paths it wrote.
func WriteReport(dir, symbol, timeframe string, startingBalance float64, result *Result) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	jsonPath = filepath.Join(dir, fmt.Sprintf("backtest-%s.json", stamp))
	csvPath = filepath.Join(dir, fmt.Sprintf("backtest-%s-trades.csv", stamp))

	final := startingBalance
	if n := len(result.EquityCurve); n > 0 {
		final = result.EquityCurve[n-1]
	}

	summary := reportSummary{
		GeneratedAt:     time.Now().UTC(),
		Symbol:          symbol,
		Timeframe:       timeframe,
		Bars:            len(result.EquityCurve),
		StartingBalance: startingBalance,
		FinalBalance:    final,
		Metrics:         result.Metrics,
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write summary: %w", err)
	}

	if err := writeTradesCSV(csvPath, result.Trades); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func writeTradesCSV(path string, trades []*execution.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"trade_id",
		"symbol",
		"direction",
		"opened_at",
		"closed_at",
		"entry_avg",
		"exit_price",
		"size",
		"stop_loss",
		"take_profit",
		"pnl_usd",
		"exit_reason",
		"duration_sec",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		row := []string{
			t.ID,
			t.Symbol,
			t.Direction,
			fmtTime(t.OpenedAt),
			fmtTime(t.ClosedAt),
			fmtFloat(t.EntryPriceAvg),
			fmtFloat(t.ExitPrice),
			fmtFloat(t.SizeTotal),
			fmtFloat(t.StopLoss),
			fmtFloat(t.TakeProfit),
			fmtFloat(t.PnLUSD),
			t.ExitReason,
			strconv.FormatFloat(t.Duration().Seconds(), 'f', 0, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
