package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crypto-trading-bot/internal/types"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT": "BTCUSDT",
		"eth/usdt": "ETHUSDT",
		"SOLUSDT":  "SOLUSDT",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFetchOHLCV(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[
			[1700000000000,"100.5","101.0","99.5","100.8","12.34",1700000299999,"0",0,"0","0","0"],
			[1700000300000,"100.8","102.0","100.0","101.9","8.00",1700000599999,"0",0,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	c := NewClient(Params{Mode: "DRY_RUN", RestURL: srv.URL})
	candles, err := c.FetchOHLCV(context.Background(), "BTC/USDT", "5m", 2)
	if err != nil {
		t.Fatalf("FetchOHLCV: %v", err)
	}

	if !strings.Contains(gotQuery, "symbol=BTCUSDT") || !strings.Contains(gotQuery, "interval=5m") || !strings.Contains(gotQuery, "limit=2") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(candles) != 2 {
		t.Fatalf("candles = %d, want 2", len(candles))
	}
	first := candles[0]
	if first.Ts != 1700000000000 || first.Open != 100.5 || first.High != 101.0 || first.Low != 99.5 || first.Close != 100.8 || first.Vol != 12.34 {
		t.Errorf("unexpected first candle: %+v", first)
	}
}

func TestFetchOHLCVErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Params{Mode: "DRY_RUN", RestURL: srv.URL})
	if _, err := c.FetchOHLCV(context.Background(), "NOPE/USDT", "5m", 10); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestFetchOHLCVMalformedRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000,"100.5"]]`))
	}))
	defer srv.Close()

	c := NewClient(Params{Mode: "DRY_RUN", RestURL: srv.URL})
	if _, err := c.FetchOHLCV(context.Background(), "BTC/USDT", "5m", 1); err == nil {
		t.Fatal("expected error for short kline row")
	}
}

func TestPlaceOrderDryRun(t *testing.T) {
	c := NewClient(Params{Mode: "DRY_RUN"})
	resp, err := c.PlaceOrder(context.Background(), orderReq())
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !strings.HasPrefix(resp.OrderID, "SIM-") {
		t.Errorf("dry-run order id = %s, want SIM- prefix", resp.OrderID)
	}
	if resp.Status != "SIMULATED" {
		t.Errorf("status = %s, want SIMULATED", resp.Status)
	}
}

func TestPlaceOrderLiveRequiresCredentials(t *testing.T) {
	c := NewClient(Params{Mode: "LIVE"})
	if _, err := c.PlaceOrder(context.Background(), orderReq()); err == nil {
		t.Fatal("expected error without credentials")
	}

	c = NewClient(Params{Mode: "LIVE", APIKey: "k", APISecret: "s"})
	resp, err := c.PlaceOrder(context.Background(), orderReq())
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !strings.HasPrefix(resp.OrderID, "LIVE-") {
		t.Errorf("live order id = %s, want LIVE- prefix", resp.OrderID)
	}
}

func TestParseTradeMessage(t *testing.T) {
	msg := []byte(`{"e":"trade","E":1700000001234,"s":"BTCUSDT","p":"42000.50","q":"0.015","T":1700000001200,"m":false}`)
	p, err := parseTradeMessage(msg)
	if err != nil {
		t.Fatalf("parseTradeMessage: %v", err)
	}
	if p.Price != 42000.50 || p.Qty != 0.015 || !p.IsBuy || p.Timestamp != 1700000001200 {
		t.Errorf("unexpected trade print: %+v", p)
	}

	// Buyer-is-maker means the aggressor sold.
	msg = []byte(`{"p":"42000.50","q":"0.015","T":1700000001200,"m":true}`)
	p, err = parseTradeMessage(msg)
	if err != nil {
		t.Fatal(err)
	}
	if p.IsBuy {
		t.Error("maker-buy print must be flagged as a sell")
	}

	if _, err := parseTradeMessage([]byte(`{"p":"not-a-number"}`)); err == nil {
		t.Error("expected error for bad price")
	}
}

func orderReq() types.OrderReq {
	return types.OrderReq{
		Symbol: "BTC/USDT",
		Side:   "buy",
		Type:   "limit",
		Price:  42000,
		Qty:    0.01,
		Tag:    "trade-1",
	}
}
