package backtest

import (
	"context"
	"fmt"

	"crypto-trading-bot/internal/execution"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/store"
	"crypto-trading-bot/internal/strategy"
	"crypto-trading-bot/internal/types"
)

// Snapshot is the state of the simulation after one bar, kept for the
// chart replay.
type Snapshot struct {
	Index  int          `json:"index"`
	Candle types.Candle `json:"candle"`
	Equity float64      `json:"equity"`

	SignalDirection string  `json:"signal_direction,omitempty"`
	StopLoss        float64 `json:"stop_loss,omitempty"`
	TakeProfit      float64 `json:"take_profit,omitempty"`

	OpenTradeID string `json:"open_trade_id,omitempty"`
}

// Result is the full outcome of a backtest run.
type Result struct {
	Trades      []*execution.Trade
	EquityCurve []float64
	Snapshots   []Snapshot
	Metrics     Metrics
}

// Engine replays a candle series bar by bar through the strategy and
// the order manager.
type Engine struct {
	cfg    *store.Config
	om     *execution.OrderManager
	onStep func(Snapshot)
}

func NewEngine(cfg *store.Config, om *execution.OrderManager) *Engine {
	return &Engine{cfg: cfg, om: om}
}

// OnStep registers a callback invoked after every simulated bar.
func (e *Engine) OnStep(fn func(Snapshot)) { e.onStep = fn }

// Run walks the series once. Each bar first advances any active trade
// (fills, stop, target) and then looks for a fresh setup. At most one
// trade is active at a time; a still-pending ladder is cancelled when a
// new signal arrives.
func (e *Engine) Run(ctx context.Context, candles []types.Candle) (*Result, error) {
	if e.cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if e.om == nil {
		return nil, fmt.Errorf("order manager is nil")
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles")
	}

	params := strategy.Params{
		PivotLeft:  e.cfg.Strategy.PivotLeft,
		PivotRight: e.cfg.Strategy.PivotRight,
		FibEntries: e.cfg.Strategy.FibEntries,
		MaxEntries: e.cfg.NumLimitOrders,
		MinBars:    e.cfg.Strategy.MinBars,
	}

	balance := e.cfg.Backtest.StartingBalance
	var (
		trades    []*execution.Trade
		active    *execution.Trade
		equity    = make([]float64, 0, len(candles))
		snapshots = make([]Snapshot, 0, len(candles))
		lastSigTs int64
	)

	logger.Info(ctx, "Backtest started",
		"symbol", e.cfg.Symbol, "bars", len(candles), "starting_balance", balance)

	for i, c := range candles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if active != nil {
			e.om.ProcessCandle(active, c)
			if active.Status == execution.TradeClosed {
				balance += active.PnLUSD
				trades = append(trades, active)
				active = nil
			} else if active.Status == execution.TradeCancelled {
				active = nil
			}
		}

		snap := Snapshot{Index: i, Candle: c, Equity: balance}

		window := windowStart(i, e.cfg.LookbackBars)
		sig := strategy.Generate(candles[window:i+1], params)
		if sig != nil && sig.SignalTs != lastSigTs {
			lastSigTs = sig.SignalTs
			snap.SignalDirection = sig.Direction
			snap.StopLoss = sig.StopLoss
			snap.TakeProfit = sig.TakeProfit

			if active != nil && active.Status == execution.TradePending {
				e.om.CancelTrade(active)
				active = nil
			}
			if active == nil {
				t, err := e.openTrade(ctx, sig, balance)
				if err != nil {
					logger.Warn(ctx, "Skipping signal", "error", err, "bar", i)
				} else {
					active = t
				}
			}
		}

		if active != nil {
			snap.OpenTradeID = active.ID
		}
		equity = append(equity, balance)
		snapshots = append(snapshots, snap)
		if e.onStep != nil {
			e.onStep(snap)
		}
	}

	if active != nil {
		last := candles[len(candles)-1]
		e.om.CloseTradeAtMarket(ctx, active, last.Close, last.Ts)
		if active.Status == execution.TradeClosed {
			balance += active.PnLUSD
			trades = append(trades, active)
			equity[len(equity)-1] = balance
		}
	}

	metrics := ComputeMetrics(trades, e.cfg.Backtest.StartingBalance, equity)
	logger.Info(ctx, "Backtest finished",
		"trades", len(trades),
		"net_profit", metrics.NetProfit,
		"win_rate", metrics.WinRate,
		"max_drawdown", metrics.MaxDrawdown,
	)

	return &Result{
		Trades:      trades,
		EquityCurve: equity,
		Snapshots:   snapshots,
		Metrics:     metrics,
	}, nil
}

func (e *Engine) openTrade(ctx context.Context, sig *types.Signal, balance float64) (*execution.Trade, error) {
	sizes, err := execution.ComputeEqualSizedOrders(sig.Entries, sig.StopLoss, balance, e.cfg.RiskFraction())
	if err != nil {
		return nil, fmt.Errorf("size orders: %w", err)
	}

	trade := execution.NewTrade(e.cfg.Symbol, sig.Direction)
	trade, err = e.om.PlaceLimitOrdersForTrade(ctx, trade, sig.Entries, sizes, sig.StopLoss, sig.TakeProfit)
	if err != nil {
		return nil, fmt.Errorf("place orders: %w", err)
	}

	logger.Signal(ctx, e.cfg.Symbol, sig.Direction, sig.Entries, sig.StopLoss, sig.TakeProfit)
	return trade, nil
}

func windowStart(i, lookback int) int {
	if lookback <= 0 || i+1 <= lookback {
		return 0
	}
	return i + 1 - lookback
}
