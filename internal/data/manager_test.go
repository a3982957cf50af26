package data

import (
	"context"
	"testing"
	"time"

	"crypto-trading-bot/internal/types"
)

type fakeExchange struct {
	candles []types.Candle
	err     error
}

func (f *fakeExchange) Name() string { return "fake" }

func (f *fakeExchange) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.candles) {
		return f.candles[:limit], nil
	}
	return f.candles, nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	return types.OrderResp{OrderID: "SIM-1", Status: "SIMULATED"}, nil
}

func mkCandles(n int) []types.Candle {
	cs := make([]types.Candle, n)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := range cs {
		p := 100.0 + float64(i)
		cs[i] = types.Candle{Ts: base + int64(i)*60_000, Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Vol: 10}
	}
	return cs
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, "BTC/USDT", "5m", 10); err == nil {
		t.Error("expected error for nil exchange")
	}
	if _, err := NewManager(&fakeExchange{}, "BTC/USDT", "5m", 0); err == nil {
		t.Error("expected error for zero maxBars")
	}
	if _, err := NewManager(&fakeExchange{}, "BTC/USDT", "nope", 10); err == nil {
		t.Error("expected error for bad timeframe")
	}
}

func TestRollingWindowEviction(t *testing.T) {
	m, err := NewManager(&fakeExchange{}, "BTC/USDT", "1m", 3)
	if err != nil {
		t.Fatal(err)
	}

	cs := mkCandles(5)
	for _, c := range cs {
		m.UpdateWithClosedCandle(c)
	}

	got := m.ClosedCandles()
	if len(got) != 3 {
		t.Fatalf("window size = %d, want 3", len(got))
	}
	if got[0].Ts != cs[2].Ts {
		t.Errorf("oldest candle Ts = %d, want %d (oldest dropped first)", got[0].Ts, cs[2].Ts)
	}
	if got[2].Ts != cs[4].Ts {
		t.Errorf("newest candle Ts = %d, want %d", got[2].Ts, cs[4].Ts)
	}
}

func TestLoadInitialHistory(t *testing.T) {
	ex := &fakeExchange{candles: mkCandles(10)}
	m, err := NewManager(ex, "BTC/USDT", "1m", 100)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.LoadInitialHistory(context.Background(), 10); err != nil {
		t.Fatalf("LoadInitialHistory: %v", err)
	}
	if m.Len() != 10 {
		t.Errorf("Len = %d, want 10", m.Len())
	}
	if c, ok := m.LastClose(); !ok || c != ex.candles[9].Close {
		t.Errorf("LastClose = %f, want %f", c, ex.candles[9].Close)
	}
}

func TestApplyTradeAggregation(t *testing.T) {
	m, err := NewManager(&fakeExchange{}, "BTC/USDT", "1m", 100)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

	if c := m.ApplyTrade(types.TradePrint{Price: 100, Qty: 1, Timestamp: base + 1000}); c != nil {
		t.Fatal("first trade must not close a candle")
	}
	m.ApplyTrade(types.TradePrint{Price: 105, Qty: 2, Timestamp: base + 20_000})
	m.ApplyTrade(types.TradePrint{Price: 98, Qty: 1, Timestamp: base + 40_000})

	cur := m.CurrentCandle()
	if cur == nil {
		t.Fatal("expected forming candle")
	}
	if cur.Open != 100 || cur.High != 105 || cur.Low != 98 || cur.Close != 98 {
		t.Errorf("forming OHLC = %v/%v/%v/%v, want 100/105/98/98", cur.Open, cur.High, cur.Low, cur.Close)
	}
	if cur.Vol != 4 {
		t.Errorf("forming volume = %v, want 4", cur.Vol)
	}

	// Next interval closes the forming candle.
	closed := m.ApplyTrade(types.TradePrint{Price: 99, Qty: 1, Timestamp: base + 61_000})
	if closed == nil {
		t.Fatal("expected rollover to close the candle")
	}
	if closed.Close != 98 {
		t.Errorf("closed candle close = %v, want 98", closed.Close)
	}
	if m.Len() != 1 {
		t.Errorf("closed window length = %d, want 1", m.Len())
	}

	cur = m.CurrentCandle()
	if cur == nil || cur.Open != 99 {
		t.Errorf("new forming candle open = %+v, want open 99", cur)
	}
}

func TestApplyTradeIgnoresLatePrints(t *testing.T) {
	m, err := NewManager(&fakeExchange{}, "BTC/USDT", "1m", 100)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	m.ApplyTrade(types.TradePrint{Price: 100, Qty: 1, Timestamp: base + 61_000})

	if c := m.ApplyTrade(types.TradePrint{Price: 50, Qty: 1, Timestamp: base}); c != nil {
		t.Error("late print must not close a candle")
	}
	if cur := m.CurrentCandle(); cur.Low != 100 {
		t.Errorf("late print mutated forming candle: low = %v", cur.Low)
	}
}

func TestClosedCandlesReturnsCopy(t *testing.T) {
	m, err := NewManager(&fakeExchange{}, "BTC/USDT", "1m", 10)
	if err != nil {
		t.Fatal(err)
	}
	m.UpdateWithClosedCandle(mkCandles(1)[0])

	got := m.ClosedCandles()
	got[0].Close = -1
	if m.ClosedCandles()[0].Close == -1 {
		t.Error("ClosedCandles must return a copy")
	}
}
