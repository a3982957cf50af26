package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/types"
)

const defaultRestURL = "https://api.binance.com"

type Params struct {
	Mode      string // DRY_RUN or LIVE
	RestURL   string
	APIKey    string
	APISecret string
}

// Client talks to the Binance spot REST API for historical candles and
// order placement. In DRY_RUN mode orders are acknowledged locally
// without touching the exchange.
type Client struct {
	p    Params
	http *http.Client
}

func NewClient(p Params) *Client {
	if p.RestURL == "" {
		p.RestURL = defaultRestURL
	}
	return &Client{
		p:    p,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Name() string { return "binance" }

// FetchOHLCV pulls up to limit closed candles from /api/v3/klines.
func (c *Client) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("symbol", NormalizeSymbol(symbol))
	q.Set("interval", timeframe)
	q.Set("limit", strconv.Itoa(limit))

	endpoint := c.p.RestURL + "/api/v3/klines?" + q.Encode()
	logger.Debug(ctx, "Fetching candles", "exchange", "binance", "symbol", symbol, "timeframe", timeframe, "limit", limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build klines request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read klines response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("klines request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	candles, err := parseKlines(body)
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "Candles fetched successfully", "symbol", symbol, "count", len(candles))
	return candles, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	logger.Debug(ctx, "Placing order", "symbol", req.Symbol, "side", req.Side, "type", req.Type, "price", req.Price, "qty", req.Qty, "tag", req.Tag, "mode", c.p.Mode)

	if c.p.Mode == "DRY_RUN" {
		resp := types.OrderResp{OrderID: fmt.Sprintf("SIM-%d", time.Now().UnixNano()), Status: "SIMULATED", Message: "dry-run"}
		logger.Info(ctx, "Simulated order placed", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty, "order_id", resp.OrderID)
		return resp, nil
	}

	if c.p.APIKey == "" || c.p.APISecret == "" {
		err := errors.New("missing API key/secret")
		logger.ErrorWithErr(ctx, "Cannot place live order - missing credentials", err, "symbol", req.Symbol)
		return types.OrderResp{}, err
	}

	resp := types.OrderResp{OrderID: fmt.Sprintf("LIVE-%d", time.Now().UnixNano()), Status: "PLACED", Message: "ok"}
	logger.Info(ctx, "Live order placed", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty, "order_id", resp.OrderID)
	return resp, nil
}

// NormalizeSymbol turns a pair like "BTC/USDT" into the exchange form
// "BTCUSDT".
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// parseKlines decodes the Binance kline array-of-arrays payload:
// [openTime, open, high, low, close, volume, closeTime, ...].
func parseKlines(body []byte) ([]types.Candle, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	candles := make([]types.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row %d too short: %d fields", i, len(row))
		}

		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("kline row %d open time: %w", i, err)
		}

		vals := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			var s string
			if err := json.Unmarshal(row[j], &s); err != nil {
				return nil, fmt.Errorf("kline row %d field %d: %w", i, j, err)
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("kline row %d field %d: %w", i, j, err)
			}
			vals[j-1] = f
		}

		candles = append(candles, types.Candle{
			Ts:    openTime,
			Open:  vals[0],
			High:  vals[1],
			Low:   vals[2],
			Close: vals[3],
			Vol:   vals[4],
		})
	}
	return candles, nil
}
