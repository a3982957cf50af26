package engine

import (
	"crypto-trading-bot/internal/data"
	"crypto-trading-bot/internal/execution"
	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/news"
	"crypto-trading-bot/internal/store"
)

// New builds the live engine. The news service is optional; pass nil
// to trade without the sentiment filter.
func New(cfg *store.Config, mgr *data.Manager, om *execution.OrderManager, notifier interfaces.Notifier, newsSvc *news.Service) *Engine {
	return newEngine(cfg, mgr, om, notifier, newsSvc)
}
