package execution

import (
	"time"

	"github.com/google/uuid"
)

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

type OrderType string

const (
	TypeLimit  OrderType = "limit"
	TypeMarket OrderType = "market"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderOpen      OrderStatus = "open"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
)

type TradeStatus string

const (
	TradePending   TradeStatus = "pending" // waiting for entry fill
	TradeOpen      TradeStatus = "open"    // entry filled, position live
	TradeClosed    TradeStatus = "closed"
	TradeCancelled TradeStatus = "cancelled"
)

type Order struct {
	ID        string
	Symbol    string
	Side      OrderSide
	Type      OrderType
	Price     float64
	Size      float64
	Status    OrderStatus
	CreatedAt time.Time
	FilledAt  time.Time
}

// Trade is a logical trade made up of one or more entry orders plus the
// shared stop-loss and take-profit levels.
type Trade struct {
	ID        string
	Symbol    string
	Direction string // "long" or "short"
	Status    TradeStatus

	EntryOrders []*Order
	StopLoss    float64
	TakeProfit  float64

	OpenedAt time.Time
	ClosedAt time.Time

	EntryPriceAvg float64
	ExitPrice     float64
	SizeTotal     float64
	PnLUSD        float64
	ExitReason    string
}

func NewTrade(symbol, direction string) *Trade {
	return &Trade{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Direction: direction,
		Status:    TradePending,
	}
}

// Duration returns how long the trade was open; zero until closed.
func (t *Trade) Duration() time.Duration {
	if t.Status != TradeClosed || t.OpenedAt.IsZero() {
		return 0
	}
	return t.ClosedAt.Sub(t.OpenedAt)
}

// entrySide is the order side used for the entry ladder.
func (t *Trade) entrySide() OrderSide {
	if t.Direction == "long" {
		return SideBuy
	}
	return SideSell
}
