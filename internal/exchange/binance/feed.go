package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/types"
)

const defaultWsURL = "wss://stream.binance.com:9443"

// TradeFeed streams public trade prints for a single symbol over the
// Binance websocket. The connection is re-dialed with backoff until
// Stop is called or the context is cancelled.
type TradeFeed struct {
	wsURL  string
	symbol string

	out  chan types.TradePrint
	stop chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
	wg   sync.WaitGroup
}

func NewTradeFeed(wsURL, symbol string) *TradeFeed {
	if wsURL == "" {
		wsURL = defaultWsURL
	}
	return &TradeFeed{
		wsURL:  wsURL,
		symbol: symbol,
		out:    make(chan types.TradePrint, 256),
		stop:   make(chan struct{}),
	}
}

func (f *TradeFeed) Trades() <-chan types.TradePrint { return f.out }

// Start begins streaming in the background. The trades channel is
// closed once the feed shuts down.
func (f *TradeFeed) Start(ctx context.Context) error {
	stream := fmt.Sprintf("%s/ws/%s@trade", strings.TrimSuffix(f.wsURL, "/"), strings.ToLower(NormalizeSymbol(f.symbol)))

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer close(f.out)
		f.run(ctx, stream)
	}()
	return nil
}

// Stop tears down the connection and waits for the stream goroutine.
func (f *TradeFeed) Stop() {
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}

	f.mu.Lock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.mu.Unlock()

	f.wg.Wait()
}

func (f *TradeFeed) run(ctx context.Context, stream string) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stop:
			return
		default:
		}

		logger.Info(ctx, "Connecting to trade stream", "url", stream)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, stream, nil)
		if err != nil {
			logger.Warn(ctx, "Trade stream dial failed, retrying", "error", err, "backoff", backoff.String())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			case <-f.stop:
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		logger.Info(ctx, "Trade stream connected", "symbol", f.symbol)

		f.readLoop(ctx, conn)

		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()

		select {
		case <-f.stop:
			return
		default:
		}
	}
}

func (f *TradeFeed) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.stop:
			default:
				logger.Warn(ctx, "Trade stream read error", "error", err)
			}
			return
		}

		p, err := parseTradeMessage(message)
		if err != nil {
			logger.Warn(ctx, "Skipping malformed trade message", "error", err)
			continue
		}

		select {
		case f.out <- p:
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tradeEvent is the @trade stream payload. The m flag is true when the
// buyer is the maker, so the aggressor side is the inverse.
type tradeEvent struct {
	Price    string `json:"p"`
	Quantity string `json:"q"`
	IsMaker  bool   `json:"m"`
	TradeTs  int64  `json:"T"`
}

func parseTradeMessage(message []byte) (types.TradePrint, error) {
	var ev tradeEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		return types.TradePrint{}, fmt.Errorf("decode trade event: %w", err)
	}

	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil {
		return types.TradePrint{}, fmt.Errorf("parse trade price: %w", err)
	}
	qty, err := strconv.ParseFloat(ev.Quantity, 64)
	if err != nil {
		return types.TradePrint{}, fmt.Errorf("parse trade quantity: %w", err)
	}

	return types.TradePrint{
		Price:     price,
		Qty:       qty,
		IsBuy:     !ev.IsMaker,
		Timestamp: ev.TradeTs,
	}, nil
}
