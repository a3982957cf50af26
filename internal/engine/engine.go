package engine

import (
	"context"
	"fmt"
	"sync"

	"crypto-trading-bot/internal/data"
	"crypto-trading-bot/internal/execution"
	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/news"
	"crypto-trading-bot/internal/store"
	"crypto-trading-bot/internal/strategy"
	"crypto-trading-bot/internal/tradelog"
	"crypto-trading-bot/internal/types"
)

// Engine runs the live trading loop on closed candles: advance the
// active trade, look for a new setup, place the ladder.
type Engine struct {
	cfg      *store.Config
	mgr      *data.Manager
	om       *execution.OrderManager
	notifier interfaces.Notifier
	news     *news.Service

	mu        sync.Mutex
	active    *execution.Trade
	lastSigTs int64
	closed    []*execution.Trade
}

func newEngine(cfg *store.Config, mgr *data.Manager, om *execution.OrderManager, notifier interfaces.Notifier, newsSvc *news.Service) *Engine {
	return &Engine{cfg: cfg, mgr: mgr, om: om, notifier: notifier, news: newsSvc}
}

// OnCandleClose handles one closed candle.
func (e *Engine) OnCandleClose(ctx context.Context, c types.Candle) (*types.StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &types.StepResult{Symbol: e.cfg.Symbol, Price: c.Close, Time: c.Ts}

	if e.active != nil {
		e.om.ProcessCandle(e.active, c)
		switch e.active.Status {
		case execution.TradeClosed:
			e.recordClose(ctx, e.active)
			result.TradeID = e.active.ID
			result.Reason = "trade_" + e.active.ExitReason
			e.active = nil
		case execution.TradeCancelled:
			e.active = nil
		}
	}

	sig := strategy.Generate(e.mgr.ClosedCandles(), strategy.Params{
		PivotLeft:  e.cfg.Strategy.PivotLeft,
		PivotRight: e.cfg.Strategy.PivotRight,
		FibEntries: e.cfg.Strategy.FibEntries,
		MaxEntries: e.cfg.NumLimitOrders,
		MinBars:    e.cfg.Strategy.MinBars,
	})
	if sig == nil || sig.SignalTs == e.lastSigTs {
		if result.Reason == "" {
			result.Reason = "no_setup"
		}
		return result, nil
	}
	e.lastSigTs = sig.SignalTs
	result.Signal = sig

	if e.active != nil {
		if e.active.Status == execution.TradePending {
			e.om.CancelTrade(e.active)
			e.active = nil
		} else {
			logger.Debug(ctx, "Signal ignored, trade already open", "trade_id", e.active.ID)
			result.Reason = "trade_active"
			return result, nil
		}
	}

	if reason, blocked := e.sentimentBlocks(ctx, sig.Direction); blocked {
		logger.Risk(ctx, e.cfg.Symbol, "SIGNAL_BLOCKED_SENTIMENT", "direction", sig.Direction, "sentiment", reason)
		_ = tradelog.AppendSignal(tradelog.SignalEntry{
			Symbol: e.cfg.Symbol, Direction: sig.Direction,
			Entries: sig.Entries, StopLoss: sig.StopLoss, TakeProfit: sig.TakeProfit,
			Taken: false, Reason: "sentiment " + reason,
		})
		result.Reason = "blocked_sentiment"
		return result, nil
	}

	trade, err := e.openTrade(ctx, sig)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open trade", err, "symbol", e.cfg.Symbol)
		result.Reason = "open_failed"
		return result, nil
	}

	e.active = trade
	result.TradeID = trade.ID
	result.Reason = "trade_opened"
	return result, nil
}

// ActiveTrade returns the currently tracked trade, if any.
func (e *Engine) ActiveTrade() *execution.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// ClosedTrades returns all trades completed this session.
func (e *Engine) ClosedTrades() []*execution.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*execution.Trade, len(e.closed))
	copy(out, e.closed)
	return out
}

// Shutdown cancels any resting ladder so no orders outlive the bot.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil && e.active.Status == execution.TradePending {
		logger.Info(ctx, "Cancelling pending ladder on shutdown", "trade_id", e.active.ID)
		e.om.CancelTrade(e.active)
		e.active = nil
	}
}

func (e *Engine) sentimentBlocks(ctx context.Context, direction string) (string, bool) {
	if e.news == nil {
		return "", false
	}
	sentiment, err := e.news.GetSentiment(ctx, e.cfg.Symbol)
	if err != nil {
		return "", false
	}
	if direction == "long" && sentiment.OverallSentiment == "NEGATIVE" {
		return sentiment.OverallSentiment, true
	}
	if direction == "short" && sentiment.OverallSentiment == "POSITIVE" {
		return sentiment.OverallSentiment, true
	}
	return "", false
}

func (e *Engine) openTrade(ctx context.Context, sig *types.Signal) (*execution.Trade, error) {
	sizes, err := execution.ComputeEqualSizedOrders(sig.Entries, sig.StopLoss, e.cfg.AccountSize, e.cfg.RiskFraction())
	if err != nil {
		return nil, fmt.Errorf("size orders: %w", err)
	}

	trade := execution.NewTrade(e.cfg.Symbol, sig.Direction)
	trade, err = e.om.PlaceLimitOrdersForTrade(ctx, trade, sig.Entries, sizes, sig.StopLoss, sig.TakeProfit)
	if err != nil {
		return nil, fmt.Errorf("place orders: %w", err)
	}

	logger.Signal(ctx, e.cfg.Symbol, sig.Direction, sig.Entries, sig.StopLoss, sig.TakeProfit)
	_ = tradelog.AppendSignal(tradelog.SignalEntry{
		Symbol: e.cfg.Symbol, Direction: sig.Direction,
		Entries: sig.Entries, StopLoss: sig.StopLoss, TakeProfit: sig.TakeProfit,
		Taken: true,
	})
	_ = tradelog.AppendTrade(tradelog.TradeEntry{
		TradeID: trade.ID, Symbol: trade.Symbol, Direction: trade.Direction,
		Event: "opened",
	})

	if e.notifier != nil {
		_ = e.notifier.TradeOpened(ctx, map[string]any{
			"symbol":      trade.Symbol,
			"direction":   trade.Direction,
			"entries":     sig.Entries,
			"stop_loss":   sig.StopLoss,
			"take_profit": sig.TakeProfit,
		})
	}
	return trade, nil
}

func (e *Engine) recordClose(ctx context.Context, trade *execution.Trade) {
	e.closed = append(e.closed, trade)

	logger.Trade(ctx, trade.Symbol, trade.Direction, trade.SizeTotal, trade.ExitPrice, trade.ID,
		"pnl_usd", trade.PnLUSD, "exit_reason", trade.ExitReason)
	_ = tradelog.AppendTrade(tradelog.TradeEntry{
		TradeID: trade.ID, Symbol: trade.Symbol, Direction: trade.Direction,
		Event: "closed", EntryAvg: trade.EntryPriceAvg, ExitPrice: trade.ExitPrice,
		Size: trade.SizeTotal, PnLUSD: trade.PnLUSD, ExitReason: trade.ExitReason,
	})

	if e.notifier != nil {
		_ = e.notifier.TradeClosed(ctx, map[string]any{
			"symbol":      trade.Symbol,
			"direction":   trade.Direction,
			"exit_price":  trade.ExitPrice,
			"pnl_usd":     trade.PnLUSD,
			"exit_reason": trade.ExitReason,
		})
	}
}
