package engine

import (
	"context"

	"crypto-trading-bot/internal/data"
	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/logger"
)

// Runner connects the trade feed to the candle manager and dispatches
// closed candles into the engine.
type Runner struct {
	feed   interfaces.TradeFeed
	mgr    *data.Manager
	engine interfaces.Engine
}

func NewRunner(feed interfaces.TradeFeed, mgr *data.Manager, eng interfaces.Engine) *Runner {
	return &Runner{feed: feed, mgr: mgr, engine: eng}
}

// Run blocks consuming the feed until the context is cancelled or the
// feed channel closes.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.feed.Start(ctx); err != nil {
		return err
	}
	defer r.feed.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case print, ok := <-r.feed.Trades():
			if !ok {
				logger.Warn(ctx, "Trade feed closed")
				return nil
			}
			closed := r.mgr.ApplyTrade(print)
			if closed == nil {
				continue
			}
			if _, err := r.engine.OnCandleClose(ctx, *closed); err != nil {
				logger.ErrorWithErr(ctx, "Candle close handling failed", err, "ts", closed.Ts)
			}
		}
	}
}
