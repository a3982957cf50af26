package exchangeobs

import (
	"context"
	"fmt"

	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/trace"
	"crypto-trading-bot/internal/types"
)

// observableExchange wraps an Exchange with logging and tracing.
type observableExchange struct {
	exchange interfaces.Exchange
}

var _ interfaces.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange with observability middleware.
func Wrap(exchange interfaces.Exchange) interfaces.Exchange {
	return &observableExchange{exchange: exchange}
}

func (oe *observableExchange) Name() string { return oe.exchange.Name() }

func (oe *observableExchange) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.FetchOHLCV")
	defer span.End()

	candles, err := oe.exchange.FetchOHLCV(ctx, symbol, timeframe, limit)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch candles", err, "symbol", symbol, "timeframe", timeframe, "limit", limit)
		return nil, fmt.Errorf("%s: fetch ohlcv: %w", oe.exchange.Name(), err)
	}

	logger.Debug(ctx, "Candles fetched successfully", "symbol", symbol, "count", len(candles))
	return candles, nil
}

func (oe *observableExchange) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PlaceOrder")
	defer span.End()

	logger.Info(ctx, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side,
		"type", req.Type,
		"price", req.Price,
		"qty", req.Qty,
		"tag", req.Tag,
	)

	resp, err := oe.exchange.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderResp{}, fmt.Errorf("%s: place order: %w", oe.exchange.Name(), err)
	}

	logger.Info(ctx, "Order acknowledged",
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}
