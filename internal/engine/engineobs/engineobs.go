package engineobs

import (
	"context"
	"time"

	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/trace"
	"crypto-trading-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap adds a span and timing around every candle close.
func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: eng}
}

func (oe *observableEngine) OnCandleClose(ctx context.Context, c types.Candle) (*types.StepResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.OnCandleClose")
	defer span.End()

	start := time.Now()

	result, err := oe.engine.OnCandleClose(ctx, c)
	if err != nil {
		logger.ErrorWithErr(ctx, "Candle close failed", err,
			"ts", c.Ts,
			"close", c.Close,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.Info(ctx, "Candle close handled",
		"ts", c.Ts,
		"close", c.Close,
		"reason", result.Reason,
		"trade_id", result.TradeID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
