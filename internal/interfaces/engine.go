package interfaces

import (
	"context"

	"crypto-trading-bot/internal/types"
)

type Engine interface {
	OnCandleClose(ctx context.Context, c types.Candle) (*types.StepResult, error)
}
