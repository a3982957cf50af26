package backtest

import (
	"time"

	"github.com/montanaflynn/stats"

	"crypto-trading-bot/internal/execution"
)

// Metrics summarises a finished backtest.
type Metrics struct {
	NumTrades    int     `json:"num_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	NetProfit    float64 `json:"net_profit"`
	NetProfitPct float64 `json:"net_profit_pct"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	MaxDrawdown  float64 `json:"max_drawdown"`

	AvgDuration    time.Duration `json:"avg_duration_ns"`
	MedianDuration time.Duration `json:"median_duration_ns"`
}

// ComputeMetrics aggregates per-trade results and the equity curve.
func ComputeMetrics(trades []*execution.Trade, startingBalance float64, equity []float64) Metrics {
	m := Metrics{NumTrades: len(trades)}

	var winPnls, lossPnls, durations []float64
	grossWin, grossLoss := 0.0, 0.0

	for _, t := range trades {
		m.NetProfit += t.PnLUSD
		if t.PnLUSD >= 0 {
			m.Wins++
			winPnls = append(winPnls, t.PnLUSD)
			grossWin += t.PnLUSD
		} else {
			m.Losses++
			lossPnls = append(lossPnls, t.PnLUSD)
			grossLoss += -t.PnLUSD
		}
		if d := t.Duration(); d > 0 {
			durations = append(durations, d.Seconds())
		}
	}

	if m.NumTrades > 0 {
		m.WinRate = float64(m.Wins) / float64(m.NumTrades)
	}
	if startingBalance > 0 {
		m.NetProfitPct = m.NetProfit / startingBalance * 100
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossWin / grossLoss
	}

	if v, err := stats.Mean(winPnls); err == nil {
		m.AvgWin = v
	}
	if v, err := stats.Mean(lossPnls); err == nil {
		m.AvgLoss = v
	}
	if v, err := stats.Mean(durations); err == nil {
		m.AvgDuration = time.Duration(v * float64(time.Second))
	}
	if v, err := stats.Median(durations); err == nil {
		m.MedianDuration = time.Duration(v * float64(time.Second))
	}

	m.MaxDrawdown = maxDrawdown(equity)
	return m
}

// maxDrawdown is the largest peak-to-trough drop of the equity curve.
func maxDrawdown(equity []float64) float64 {
	peak, dd := 0.0, 0.0
	for i, v := range equity {
		if i == 0 || v > peak {
			peak = v
		}
		if d := peak - v; d > dd {
			dd = d
		}
	}
	return dd
}
