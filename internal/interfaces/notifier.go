package interfaces

import "context"

type Notifier interface {
	TradeOpened(ctx context.Context, info map[string]any) error
	TradeClosed(ctx context.Context, info map[string]any) error
	BacktestFinished(ctx context.Context, summary map[string]any) error
}
