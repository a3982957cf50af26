package engine

import (
	"context"
	"math"
	"testing"

	"crypto-trading-bot/internal/data"
	"crypto-trading-bot/internal/exchange/binance"
	"crypto-trading-bot/internal/execution"
	"crypto-trading-bot/internal/store"
	"crypto-trading-bot/internal/types"
)

type recordingNotifier struct {
	opened []map[string]any
	closed []map[string]any
}

func (n *recordingNotifier) TradeOpened(_ context.Context, info map[string]any) error {
	n.opened = append(n.opened, info)
	return nil
}

func (n *recordingNotifier) TradeClosed(_ context.Context, info map[string]any) error {
	n.closed = append(n.closed, info)
	return nil
}

func (n *recordingNotifier) BacktestFinished(_ context.Context, _ map[string]any) error {
	return nil
}

func almostEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func engineConfig() *store.Config {
	cfg := &store.Config{
		Symbol:      "BTC/USDT",
		Timeframe:   "1m",
		AccountSize: 2000,
		RiskPct:     2,
	}
	cfg.Strategy.PivotLeft = 2
	cfg.Strategy.PivotRight = 2
	cfg.Strategy.FibEntries = []float64{0.5, 0.618}
	cfg.Strategy.MinBars = 10
	return cfg
}

// signalSeries breaks structure bullishly at the last bar: pivot high
// 110, most recent swing low 97.
func signalSeries() []types.Candle {
	highs := []float64{100, 101, 102, 96, 104, 105, 110, 105, 104, 103, 106, 112}
	lows := []float64{95, 96, 94, 90, 96, 97, 101, 99, 98, 97, 99, 108}
	closes := []float64{98, 99, 95, 92, 103, 104, 108, 101, 100, 99, 105, 111}

	cs := make([]types.Candle, len(highs))
	for i := range cs {
		cs[i] = types.Candle{
			Ts:    int64(i) * 60_000,
			Open:  closes[i],
			High:  highs[i],
			Low:   lows[i],
			Close: closes[i],
			Vol:   1,
		}
	}
	return cs
}

func newTestEngine(t *testing.T) (*Engine, *data.Manager, *recordingNotifier) {
	t.Helper()
	t.Setenv("BOT_LOG_DIR", t.TempDir())

	cfg := engineConfig()
	ex := binance.NewClient(binance.Params{Mode: "DRY_RUN"})
	mgr, err := data.NewManager(ex, cfg.Symbol, cfg.Timeframe, 500)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	notifier := &recordingNotifier{}
	eng := New(cfg, mgr, execution.NewOrderManager(ex), notifier, nil)
	return eng, mgr, notifier
}

func feed(t *testing.T, eng *Engine, mgr *data.Manager, c types.Candle) *types.StepResult {
	t.Helper()
	mgr.UpdateWithClosedCandle(c)
	res, err := eng.OnCandleClose(context.Background(), c)
	if err != nil {
		t.Fatalf("OnCandleClose: %v", err)
	}
	return res
}

func TestEngineOpensTradeOnSignal(t *testing.T) {
	eng, mgr, notifier := newTestEngine(t)

	series := signalSeries()
	var last *types.StepResult
	for _, c := range series {
		last = feed(t, eng, mgr, c)
	}

	if last.Reason != "trade_opened" {
		t.Fatalf("reason = %s, want trade_opened", last.Reason)
	}
	if last.Signal == nil || last.Signal.Direction != "long" {
		t.Fatalf("signal = %+v, want long", last.Signal)
	}
	if eng.ActiveTrade() == nil {
		t.Fatal("expected an active trade")
	}
	if len(notifier.opened) != 1 {
		t.Errorf("opened notifications = %d, want 1", len(notifier.opened))
	}
	if notifier.opened[0]["direction"] != "long" {
		t.Errorf("notification = %v", notifier.opened[0])
	}
}

func TestEngineFillsAndClosesTrade(t *testing.T) {
	eng, mgr, notifier := newTestEngine(t)

	for _, c := range signalSeries() {
		feed(t, eng, mgr, c)
	}

	// Dip fills the ladder, rally tags the 1R target at 123.
	fill := types.Candle{Ts: 12 * 60_000, Open: 104, High: 105, Low: 101, Close: 104, Vol: 1}
	feed(t, eng, mgr, fill)
	if tr := eng.ActiveTrade(); tr == nil || tr.Status != execution.TradeOpen {
		t.Fatalf("trade = %+v, want open", tr)
	}

	target := types.Candle{Ts: 13 * 60_000, Open: 105, High: 124, Low: 104, Close: 108, Vol: 1}
	res := feed(t, eng, mgr, target)
	if res.Reason != "trade_take_profit" {
		t.Fatalf("reason = %s, want trade_take_profit", res.Reason)
	}
	if eng.ActiveTrade() != nil {
		t.Error("trade should be cleared after close")
	}

	closed := eng.ClosedTrades()
	if len(closed) != 1 || closed[0].ExitReason != "take_profit" || closed[0].PnLUSD <= 0 {
		t.Errorf("closed trades = %+v", closed)
	}
	if len(notifier.closed) != 1 {
		t.Errorf("closed notifications = %d, want 1", len(notifier.closed))
	}
}

func TestEngineDoesNotReopenOnSameBreak(t *testing.T) {
	eng, mgr, notifier := newTestEngine(t)

	for _, c := range signalSeries() {
		feed(t, eng, mgr, c)
	}

	fill := types.Candle{Ts: 12 * 60_000, Open: 104, High: 105, Low: 101, Close: 104, Vol: 1}
	feed(t, eng, mgr, fill)

	// The target bar closes well above the broken 110 pivot high, so
	// the old break would re-signal on this and every later bar.
	target := types.Candle{Ts: 13 * 60_000, Open: 105, High: 124, Low: 104, Close: 122, Vol: 1}
	res := feed(t, eng, mgr, target)
	if res.Reason != "trade_take_profit" {
		t.Fatalf("reason = %s, want trade_take_profit", res.Reason)
	}
	if eng.ActiveTrade() != nil {
		t.Fatal("the already-traded break must not open a fresh ladder")
	}

	drift := types.Candle{Ts: 14 * 60_000, Open: 121, High: 123, Low: 118, Close: 121, Vol: 1}
	res = feed(t, eng, mgr, drift)
	if res.Reason != "no_setup" {
		t.Errorf("reason = %s, want no_setup", res.Reason)
	}
	if eng.ActiveTrade() != nil {
		t.Error("the already-traded break must not open a fresh ladder")
	}
	if len(eng.ClosedTrades()) != 1 || len(notifier.opened) != 1 {
		t.Errorf("closed=%d opened=%d, want 1 each",
			len(eng.ClosedTrades()), len(notifier.opened))
	}
}

func TestEngineIgnoresDuplicateSignal(t *testing.T) {
	eng, mgr, _ := newTestEngine(t)

	series := signalSeries()
	for _, c := range series {
		feed(t, eng, mgr, c)
	}
	first := eng.ActiveTrade()
	if first == nil {
		t.Fatal("expected a trade after the signal bar")
	}

	// A flat drifting bar changes nothing: no new signal, same trade.
	quiet := types.Candle{Ts: 12 * 60_000, Open: 110, High: 111, Low: 109, Close: 110, Vol: 1}
	res := feed(t, eng, mgr, quiet)
	if res.Reason == "trade_opened" {
		t.Error("no new trade should open without a fresh signal")
	}
	if eng.ActiveTrade() != first {
		t.Error("active trade must be unchanged")
	}
}

func TestEngineLadderCappedByOrderLimit(t *testing.T) {
	eng, mgr, _ := newTestEngine(t)
	eng.cfg.NumLimitOrders = 1

	for _, c := range signalSeries() {
		feed(t, eng, mgr, c)
	}

	tr := eng.ActiveTrade()
	if tr == nil {
		t.Fatal("expected a trade after the signal bar")
	}
	if len(tr.EntryOrders) != 1 {
		t.Fatalf("entry orders = %d, want capped at 1", len(tr.EntryOrders))
	}
	if !almostEq(tr.EntryOrders[0].Price, 103.5) {
		t.Errorf("entry price = %v, want the 0.5 retracement 103.5", tr.EntryOrders[0].Price)
	}
}

func TestEngineShutdownCancelsPendingLadder(t *testing.T) {
	eng, mgr, _ := newTestEngine(t)

	for _, c := range signalSeries() {
		feed(t, eng, mgr, c)
	}
	tr := eng.ActiveTrade()
	if tr == nil || tr.Status != execution.TradePending {
		t.Fatalf("trade = %+v, want pending", tr)
	}

	eng.Shutdown(context.Background())
	if eng.ActiveTrade() != nil {
		t.Error("shutdown must clear the pending trade")
	}
	if tr.Status != execution.TradeCancelled {
		t.Errorf("status = %s, want cancelled", tr.Status)
	}
}
