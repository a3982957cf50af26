package interfaces

import (
	"context"

	"crypto-trading-bot/internal/types"
)

type TradeFeed interface {
	Start(ctx context.Context) error
	Stop()
	Trades() <-chan types.TradePrint
}
