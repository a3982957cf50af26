package chart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crypto-trading-bot/internal/backtest"
	"crypto-trading-bot/internal/store"
	"crypto-trading-bot/internal/types"
)

type fixedSource struct {
	closed  []types.Candle
	current *types.Candle
}

func (f *fixedSource) ClosedCandles() []types.Candle { return f.closed }
func (f *fixedSource) CurrentCandle() *types.Candle  { return f.current }

func chartConfig() *store.Config {
	cfg := &store.Config{Symbol: "BTC/USDT", Timeframe: "5m"}
	cfg.Chart.RefreshMs = 500
	return cfg
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, out any) int {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w.Code
}

func TestLiveServerEndpoints(t *testing.T) {
	src := &fixedSource{
		closed: []types.Candle{
			{Ts: 0, Open: 100, High: 101, Low: 99, Close: 100.5, Vol: 1},
			{Ts: 300_000, Open: 100.5, High: 102, Low: 100, Close: 101, Vol: 2},
		},
		current: &types.Candle{Ts: 600_000, Open: 101, High: 101.5, Low: 100.8, Close: 101.2},
	}
	s := NewLiveServer(chartConfig(), src)
	h := s.Handler()

	if code := doJSON(t, h, http.MethodGet, "/health", "", nil); code != http.StatusOK {
		t.Errorf("health = %d", code)
	}

	var meta map[string]any
	doJSON(t, h, http.MethodGet, "/api/meta", "", &meta)
	if meta["symbol"] != "BTC/USDT" || meta["mode"] != "live" {
		t.Errorf("meta = %v", meta)
	}

	var payload candlePayload
	doJSON(t, h, http.MethodGet, "/api/candles", "", &payload)
	if len(payload.Candles) != 2 || payload.Current == nil {
		t.Errorf("candles = %d, current = %v", len(payload.Candles), payload.Current)
	}

	// Replay controls are not available in live mode.
	if code := doJSON(t, h, http.MethodPost, "/api/replay/play", "", nil); code != http.StatusConflict {
		t.Errorf("replay play in live mode = %d, want 409", code)
	}
}

func TestReplayServerEndpoints(t *testing.T) {
	snaps := []backtest.Snapshot{
		{Index: 0, Candle: types.Candle{Ts: 0, Close: 100}, Equity: 2000},
		{Index: 1, Candle: types.Candle{Ts: 60_000, Close: 101}, Equity: 2000, SignalDirection: "long"},
		{Index: 2, Candle: types.Candle{Ts: 120_000, Close: 102}, Equity: 2050},
	}
	s := NewReplayServer(chartConfig(), backtest.NewReplay(snaps), time.Second)
	h := s.Handler()

	var meta map[string]any
	doJSON(t, h, http.MethodGet, "/api/meta", "", &meta)
	if meta["mode"] != "replay" {
		t.Fatalf("mode = %v, want replay", meta["mode"])
	}

	var st backtest.ReplayState
	doJSON(t, h, http.MethodGet, "/api/replay/state", "", &st)
	if st.Total != 3 || st.Playing {
		t.Errorf("state = %+v", st)
	}

	if code := doJSON(t, h, http.MethodPost, "/api/replay/speed", `{"speed":4}`, &st); code != http.StatusOK {
		t.Fatalf("speed = %d", code)
	}
	if st.Speed != 4 {
		t.Errorf("speed = %v, want 4", st.Speed)
	}
	if code := doJSON(t, h, http.MethodPost, "/api/replay/speed", `{}`, nil); code != http.StatusBadRequest {
		t.Errorf("missing speed = %d, want 400", code)
	}

	doJSON(t, h, http.MethodPost, "/api/replay/end", "", &st)
	if !st.AtEnd {
		t.Errorf("end state = %+v", st)
	}

	var payload candlePayload
	doJSON(t, h, http.MethodGet, "/api/candles", "", &payload)
	if len(payload.Candles) != 3 || len(payload.Equity) != 3 {
		t.Errorf("replay payload candles/equity = %d/%d, want 3/3", len(payload.Candles), len(payload.Equity))
	}
	if len(payload.Marks) != 1 || payload.Marks[0].SignalDirection != "long" {
		t.Errorf("marks = %+v", payload.Marks)
	}
}

func TestIndexPageServed(t *testing.T) {
	s := NewLiveServer(chartConfig(), &fixedSource{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("index = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<canvas") {
		t.Error("index page must embed the chart canvas")
	}
}
