package interfaces

import (
	"context"

	"crypto-trading-bot/internal/types"
)

type Exchange interface {
	Name() string
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
