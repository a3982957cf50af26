package execution

import (
	"context"
	"fmt"
	"time"

	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/types"
)

// OrderManager places and tracks the order ladder of a trade. Orders go
// through the exchange (which simulates acknowledgements in DRY_RUN mode);
// fills and exits are evaluated bar-by-bar against candles, which serves
// both the backtest and the dry-run live loop.
type OrderManager struct {
	exchange interfaces.Exchange
}

func NewOrderManager(exchange interfaces.Exchange) *OrderManager {
	return &OrderManager{exchange: exchange}
}

// PlaceLimitOrdersForTrade creates the scaled entry ladder with a common
// stop-loss and take-profit and submits each order to the exchange.
func (om *OrderManager) PlaceLimitOrdersForTrade(ctx context.Context, trade *Trade, entries, sizes []float64, stopLoss, takeProfit float64) (*Trade, error) {
	if len(entries) != len(sizes) {
		return nil, fmt.Errorf("entries/sizes length mismatch: %d vs %d", len(entries), len(sizes))
	}

	logger.Info(ctx, "Placing limit orders for trade",
		"trade_id", trade.ID,
		"direction", trade.Direction,
		"entries", entries,
		"sizes", sizes,
		"stop_loss", stopLoss,
		"take_profit", takeProfit,
	)

	trade.StopLoss = stopLoss
	trade.TakeProfit = takeProfit

	for i, entry := range entries {
		order := &Order{
			Symbol:    trade.Symbol,
			Side:      trade.entrySide(),
			Type:      TypeLimit,
			Price:     entry,
			Size:      sizes[i],
			Status:    OrderPending,
			CreatedAt: time.Now().UTC(),
		}

		resp, err := om.exchange.PlaceOrder(ctx, types.OrderReq{
			Symbol: trade.Symbol,
			Side:   string(order.Side),
			Type:   string(order.Type),
			Price:  entry,
			Qty:    sizes[i],
			Tag:    trade.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("place entry order %d: %w", i+1, err)
		}
		order.ID = resp.OrderID
		order.Status = OrderOpen
		trade.EntryOrders = append(trade.EntryOrders, order)
	}

	return trade, nil
}

// ProcessCandle advances a trade by one closed candle: fills resting limit
// entries whose price traded, then checks the stop and target. When both
// the stop and the target are inside the same bar the stop wins.
// It returns true when the trade changed state.
func (om *OrderManager) ProcessCandle(trade *Trade, c types.Candle) bool {
	if trade.Status == TradeClosed || trade.Status == TradeCancelled {
		return false
	}

	changed := om.fillEntries(trade, c)

	if trade.Status != TradeOpen {
		return changed
	}

	long := trade.Direction == "long"
	switch {
	case (long && c.Low <= trade.StopLoss) || (!long && c.High >= trade.StopLoss):
		om.closeAt(trade, trade.StopLoss, c.Ts, "stop_loss")
		return true
	case (long && c.High >= trade.TakeProfit) || (!long && c.Low <= trade.TakeProfit):
		om.closeAt(trade, trade.TakeProfit, c.Ts, "take_profit")
		return true
	}

	return changed
}

// CloseTradeAtMarket closes the remaining position at the given price.
func (om *OrderManager) CloseTradeAtMarket(ctx context.Context, trade *Trade, price float64, ts int64) {
	if trade.Status == TradeClosed || trade.Status == TradeCancelled {
		return
	}
	if trade.Status == TradePending {
		om.CancelTrade(trade)
		return
	}

	logger.Info(ctx, "Closing trade at market",
		"trade_id", trade.ID, "price", price, "size", trade.SizeTotal)
	om.closeAt(trade, price, ts, "market_close")
}

// CancelTrade cancels all resting entry orders of a pending trade.
func (om *OrderManager) CancelTrade(trade *Trade) {
	for _, o := range trade.EntryOrders {
		if o.Status == OrderOpen || o.Status == OrderPending {
			o.Status = OrderCancelled
		}
	}
	trade.Status = TradeCancelled
}

func (om *OrderManager) fillEntries(trade *Trade, c types.Candle) bool {
	long := trade.Direction == "long"
	changed := false

	for _, o := range trade.EntryOrders {
		if o.Status != OrderOpen {
			continue
		}
		touched := (long && c.Low <= o.Price) || (!long && c.High >= o.Price)
		if !touched {
			continue
		}

		o.Status = OrderFilled
		o.FilledAt = time.UnixMilli(c.Ts).UTC()

		total := trade.EntryPriceAvg*trade.SizeTotal + o.Price*o.Size
		trade.SizeTotal += o.Size
		trade.EntryPriceAvg = total / trade.SizeTotal
		changed = true

		if trade.Status == TradePending {
			trade.Status = TradeOpen
			trade.OpenedAt = time.UnixMilli(c.Ts).UTC()
		}
	}
	return changed
}

func (om *OrderManager) closeAt(trade *Trade, price float64, ts int64, reason string) {
	for _, o := range trade.EntryOrders {
		if o.Status == OrderOpen {
			o.Status = OrderCancelled
		}
	}

	trade.ExitPrice = price
	trade.ExitReason = reason
	trade.ClosedAt = time.UnixMilli(ts).UTC()
	trade.Status = TradeClosed

	if trade.Direction == "long" {
		trade.PnLUSD = (price - trade.EntryPriceAvg) * trade.SizeTotal
	} else {
		trade.PnLUSD = (trade.EntryPriceAvg - price) * trade.SizeTotal
	}
}
