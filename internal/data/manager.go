package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/types"
)

// Manager owns the closed-candle history and the current forming candle
// for one symbol/timeframe pair.
//
// Live mode keeps a rolling window of maxBars closed candles, dropping the
// oldest on overflow. Backtests construct the manager with maxBars at least
// as large as the history so nothing is evicted.
type Manager struct {
	exchange  interfaces.Exchange
	symbol    string
	timeframe string
	interval  time.Duration
	maxBars   int

	mu      sync.RWMutex
	closed  []types.Candle
	current *types.Candle
}

func NewManager(exchange interfaces.Exchange, symbol, timeframe string, maxBars int) (*Manager, error) {
	if exchange == nil {
		return nil, fmt.Errorf("exchange is required")
	}
	if maxBars <= 0 {
		return nil, fmt.Errorf("maxBars must be positive, got %d", maxBars)
	}
	interval, err := types.TimeframeDuration(timeframe)
	if err != nil {
		return nil, err
	}
	return &Manager{
		exchange:  exchange,
		symbol:    symbol,
		timeframe: timeframe,
		interval:  interval,
		maxBars:   maxBars,
		closed:    make([]types.Candle, 0, maxBars),
	}, nil
}

func (m *Manager) Symbol() string    { return m.symbol }
func (m *Manager) Timeframe() string { return m.timeframe }

// LoadInitialHistory fetches up to limit closed candles from the exchange
// and seeds the rolling window with them.
func (m *Manager) LoadInitialHistory(ctx context.Context, limit int) error {
	candles, err := m.exchange.FetchOHLCV(ctx, m.symbol, m.timeframe, limit)
	if err != nil {
		return fmt.Errorf("load initial history: %w", err)
	}

	m.mu.Lock()
	m.closed = m.closed[:0]
	m.mu.Unlock()
	for _, c := range candles {
		m.UpdateWithClosedCandle(c)
	}

	logger.Info(ctx, "Initial history loaded",
		"symbol", m.symbol, "timeframe", m.timeframe, "candles", len(candles))
	return nil
}

// UpdateWithClosedCandle appends a closed candle and enforces the rolling
// window.
func (m *Manager) UpdateWithClosedCandle(c types.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = append(m.closed, c)
	if len(m.closed) > m.maxBars {
		m.closed = m.closed[1:]
	}
}

// ApplyTrade folds a live trade print into the forming candle. When the
// print belongs to a new interval, the forming candle is closed, appended
// to the window and returned; otherwise nil.
func (m *Manager) ApplyTrade(p types.TradePrint) *types.Candle {
	bucket := types.BucketStart(p.Timestamp, m.interval)

	m.mu.Lock()

	if m.current == nil {
		m.current = newForming(bucket, p)
		m.mu.Unlock()
		return nil
	}

	switch {
	case bucket == m.current.Ts:
		m.current.Close = p.Price
		if p.Price > m.current.High {
			m.current.High = p.Price
		}
		if p.Price < m.current.Low {
			m.current.Low = p.Price
		}
		m.current.Vol += p.Qty
		m.mu.Unlock()
		return nil

	case bucket > m.current.Ts:
		done := *m.current
		m.current = newForming(bucket, p)
		m.mu.Unlock()

		m.UpdateWithClosedCandle(done)
		return &done

	default:
		// Late print from an already-closed interval.
		m.mu.Unlock()
		return nil
	}
}

// SetCurrentCandle replaces the forming candle wholesale (used when the
// feed delivers pre-aggregated klines rather than raw trades).
func (m *Manager) SetCurrentCandle(c types.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := c
	m.current = &cp
}

// ClosedCandles returns a copy of the closed-candle window.
func (m *Manager) ClosedCandles() []types.Candle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Candle, len(m.closed))
	copy(out, m.closed)
	return out
}

// CurrentCandle returns a copy of the forming candle, or nil when no trade
// has arrived in the current interval yet.
func (m *Manager) CurrentCandle() *types.Candle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// LastClose returns the close of the most recent closed candle.
func (m *Manager) LastClose() (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.closed) == 0 {
		return 0, false
	}
	return m.closed[len(m.closed)-1].Close, true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.closed)
}

func newForming(bucket int64, p types.TradePrint) *types.Candle {
	return &types.Candle{
		Ts:    bucket,
		Open:  p.Price,
		High:  p.Price,
		Low:   p.Price,
		Close: p.Price,
		Vol:   p.Qty,
	}
}
