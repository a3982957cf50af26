package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"crypto-trading-bot/internal/types"
)

type Config struct {
	Symbol         string  `yaml:"symbol"`
	Timeframe      string  `yaml:"timeframe"`
	AccountSize    float64 `yaml:"account_size"`
	RiskPct        float64 `yaml:"risk_pct"`
	LookbackBars   int     `yaml:"lookback_bars"`
	NumLimitOrders int     `yaml:"num_limit_orders"`

	// LiveMode is set by the loader, not the file.
	LiveMode bool `yaml:"-"`

	Exchange struct {
		Name    string `yaml:"name"`
		Mode    string `yaml:"mode"` // DRY_RUN or LIVE
		RestURL string `yaml:"rest_url"`
		WsURL   string `yaml:"ws_url"`
	} `yaml:"exchange"`

	Strategy struct {
		PivotLeft  int       `yaml:"pivot_left"`
		PivotRight int       `yaml:"pivot_right"`
		FibEntries []float64 `yaml:"fib_entries"`
		MinBars    int       `yaml:"min_bars"`
	} `yaml:"strategy"`

	Backtest struct {
		DataFile        string  `yaml:"data_file"`
		StartingBalance float64 `yaml:"starting_balance"`
		PreviewReplay   bool    `yaml:"preview_replay"`
	} `yaml:"backtest"`

	Chart struct {
		ListenAddr string `yaml:"listen_addr"`
		RefreshMs  int    `yaml:"refresh_ms"`
	} `yaml:"chart"`

	Notifications struct {
		Enabled    bool   `yaml:"enabled"`
		WebhookEnv string `yaml:"webhook_env"`
	} `yaml:"notifications"`

	News struct {
		Enabled      bool `yaml:"enabled"`
		MaxArticles  int  `yaml:"max_articles"`
		CacheMinutes int  `yaml:"cache_minutes"`
	} `yaml:"news"`
}

// RiskFraction returns risk_pct as a fraction of account size.
func (c *Config) RiskFraction() float64 {
	return c.RiskPct / 100.0
}

func (c *Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol cannot be empty")
	}
	if _, err := types.TimeframeDuration(c.Timeframe); err != nil {
		return fmt.Errorf("invalid timeframe '%s': %w", c.Timeframe, err)
	}
	if c.AccountSize <= 0 {
		return fmt.Errorf("account_size must be positive, got %.2f", c.AccountSize)
	}
	if c.RiskPct <= 0 || c.RiskPct > 100 {
		return fmt.Errorf("risk_pct must be between 0-100, got %.2f", c.RiskPct)
	}
	if c.LookbackBars <= 0 {
		return fmt.Errorf("lookback_bars must be positive, got %d", c.LookbackBars)
	}
	if c.NumLimitOrders <= 0 {
		return fmt.Errorf("num_limit_orders must be positive, got %d", c.NumLimitOrders)
	}
	if c.Exchange.Mode != "DRY_RUN" && c.Exchange.Mode != "LIVE" {
		return fmt.Errorf("invalid exchange.mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Exchange.Mode)
	}
	for _, lvl := range c.Strategy.FibEntries {
		if lvl <= 0 || lvl >= 1 {
			return fmt.Errorf("strategy.fib_entries must be retracement fractions in (0,1), got %v", lvl)
		}
	}
	return nil
}

// LoadConfig resolves the run configuration for the given mode. The
// returned config is created once per process and treated as immutable.
func LoadConfig(path string, liveMode bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.LiveMode = liveMode
	applyDefaults(&c)

	// Replay preview only makes sense against a finished backtest.
	if liveMode {
		c.Backtest.PreviewReplay = false
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Symbol == "" {
		c.Symbol = "BTC/USDT"
	}
	if c.Timeframe == "" {
		c.Timeframe = "5m"
	}
	if c.AccountSize == 0 {
		c.AccountSize = 2000
	}
	if c.RiskPct == 0 {
		c.RiskPct = 2
	}
	if c.LookbackBars == 0 {
		c.LookbackBars = 1000
	}
	if c.NumLimitOrders == 0 {
		c.NumLimitOrders = 3
	}
	if c.Exchange.Name == "" {
		c.Exchange.Name = "binance"
	}
	if c.Exchange.Mode == "" {
		c.Exchange.Mode = "DRY_RUN"
	}
	if c.Exchange.RestURL == "" {
		c.Exchange.RestURL = "https://api.binance.com"
	}
	if c.Exchange.WsURL == "" {
		c.Exchange.WsURL = "wss://stream.binance.com:9443"
	}
	if c.Strategy.PivotLeft == 0 {
		c.Strategy.PivotLeft = 2
	}
	if c.Strategy.PivotRight == 0 {
		c.Strategy.PivotRight = 2
	}
	if len(c.Strategy.FibEntries) == 0 {
		c.Strategy.FibEntries = []float64{0.5, 0.618}
	}
	if c.Strategy.MinBars == 0 {
		c.Strategy.MinBars = 30
	}
	if c.Backtest.StartingBalance == 0 {
		c.Backtest.StartingBalance = c.AccountSize
	}
	if c.Chart.ListenAddr == "" {
		c.Chart.ListenAddr = ":8050"
	}
	if c.Chart.RefreshMs == 0 {
		c.Chart.RefreshMs = 2000
	}
	if c.Notifications.WebhookEnv == "" {
		c.Notifications.WebhookEnv = "DISCORD_WEBHOOK_URL"
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 12
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 60
	}
}
