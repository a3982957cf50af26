package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crypto-trading-bot/internal/logger"
)

// Discord posts trade events to a Discord webhook. A missing webhook
// URL downgrades every call to a log line, so the bot never depends on
// the webhook being configured.
type Discord struct {
	webhookURL string
	http       *http.Client
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) TradeOpened(ctx context.Context, info map[string]any) error {
	return d.send(ctx, "Trade opened", info)
}

func (d *Discord) TradeClosed(ctx context.Context, info map[string]any) error {
	return d.send(ctx, "Trade closed", info)
}

func (d *Discord) BacktestFinished(ctx context.Context, summary map[string]any) error {
	return d.send(ctx, "Backtest finished", summary)
}

func (d *Discord) send(ctx context.Context, title string, fields map[string]any) error {
	if d.webhookURL == "" {
		logger.Info(ctx, "Notification (webhook not configured)", "title", title, "fields", fields)
		return nil
	}

	content := formatMessage(title, fields)
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected: status %d", resp.StatusCode)
	}

	logger.Debug(ctx, "Notification sent", "title", title)
	return nil
}

// formatMessage renders a compact fixed-order message so tests and
// humans both get stable output.
func formatMessage(title string, fields map[string]any) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "**%s**\n", title)
	for _, key := range []string{"symbol", "direction", "entries", "stop_loss", "take_profit", "exit_price", "pnl_usd", "exit_reason", "net_profit", "win_rate", "num_trades", "max_drawdown"} {
		if v, ok := fields[key]; ok {
			fmt.Fprintf(&buf, "%s: %v\n", key, v)
		}
	}
	for key, v := range fields {
		if !knownField(key) {
			fmt.Fprintf(&buf, "%s: %v\n", key, v)
		}
	}
	return buf.String()
}

func knownField(key string) bool {
	switch key {
	case "symbol", "direction", "entries", "stop_loss", "take_profit",
		"exit_price", "pnl_usd", "exit_reason", "net_profit", "win_rate",
		"num_trades", "max_drawdown":
		return true
	}
	return false
}
