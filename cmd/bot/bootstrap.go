package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"crypto-trading-bot/internal/backtest"
	"crypto-trading-bot/internal/chart"
	"crypto-trading-bot/internal/data"
	"crypto-trading-bot/internal/engine"
	"crypto-trading-bot/internal/engine/engineobs"
	"crypto-trading-bot/internal/exchange/binance"
	"crypto-trading-bot/internal/exchange/exchangeobs"
	"crypto-trading-bot/internal/execution"
	"crypto-trading-bot/internal/interfaces"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/news"
	"crypto-trading-bot/internal/notify"
	"crypto-trading-bot/internal/store"
	"crypto-trading-bot/internal/trace"
	"crypto-trading-bot/internal/tradelog"
	"crypto-trading-bot/internal/types"
)

const reportDir = "reports/backtest_reports"

// initializeSystem loads the environment and sets up logging and
// tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// compressOldLogs gzips old tradelog files if retention is configured.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("BOT_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeExchange builds the exchange client with observability.
func initializeExchange(ctx context.Context, cfg *store.Config) interfaces.Exchange {
	client := binance.NewClient(binance.Params{
		Mode:      cfg.Exchange.Mode,
		RestURL:   cfg.Exchange.RestURL,
		APIKey:    os.Getenv("BINANCE_API_KEY"),
		APISecret: os.Getenv("BINANCE_API_SECRET"),
	})

	if cfg.Exchange.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	return exchangeobs.Wrap(client)
}

// initializeNotifier builds the Discord notifier, or nil when
// notifications are disabled.
func initializeNotifier(ctx context.Context, cfg *store.Config) interfaces.Notifier {
	if !cfg.Notifications.Enabled {
		return nil
	}
	webhook := os.Getenv(cfg.Notifications.WebhookEnv)
	if webhook == "" {
		logger.Warn(ctx, "Notifications enabled but webhook env is empty", "env", cfg.Notifications.WebhookEnv)
	}
	return notify.NewDiscord(webhook)
}

// initializeNews builds the sentiment service, or nil when disabled.
func initializeNews(cfg *store.Config) *news.Service {
	if !cfg.News.Enabled {
		return nil
	}
	svcCfg := news.DefaultServiceConfig()
	svcCfg.MaxArticles = cfg.News.MaxArticles
	svcCfg.CacheDuration = time.Duration(cfg.News.CacheMinutes) * time.Minute
	return news.NewService(svcCfg)
}

// runLive streams trades, aggregates candles and trades the strategy
// on each close. The chart server runs alongside.
func runLive(ctx context.Context, cfg *store.Config) error {
	exchange := initializeExchange(ctx, cfg)

	mgr, err := data.NewManager(exchange, cfg.Symbol, cfg.Timeframe, cfg.LookbackBars)
	if err != nil {
		return fmt.Errorf("create candle manager: %w", err)
	}
	if err := mgr.LoadInitialHistory(ctx, cfg.LookbackBars); err != nil {
		return fmt.Errorf("load initial history: %w", err)
	}
	logger.Info(ctx, "Initial history loaded", "symbol", cfg.Symbol, "bars", mgr.Len())

	eng := engine.New(cfg, mgr, execution.NewOrderManager(exchange), initializeNotifier(ctx, cfg), initializeNews(cfg))
	defer eng.Shutdown(context.Background())

	go func() {
		srv := chart.NewLiveServer(cfg, mgr)
		if err := srv.Run(cfg.Chart.ListenAddr); err != nil {
			logger.ErrorWithErr(ctx, "Chart server stopped", err, "addr", cfg.Chart.ListenAddr)
		}
	}()

	feed := binance.NewTradeFeed(cfg.Exchange.WsURL, cfg.Symbol)
	runner := engine.NewRunner(feed, mgr, engineobs.Wrap(eng))
	return runner.Run(ctx)
}

// runBacktest replays historical candles through the strategy and
// writes a report. With preview_replay enabled it then serves the run
// as a step-through chart until interrupted.
func runBacktest(ctx context.Context, cfg *store.Config) error {
	candles, err := loadBacktestCandles(ctx, cfg)
	if err != nil {
		return err
	}

	exchange := initializeExchange(ctx, cfg)
	bt := backtest.NewEngine(cfg, execution.NewOrderManager(exchange))

	result, err := bt.Run(ctx, candles)
	if err != nil {
		return fmt.Errorf("backtest run: %w", err)
	}

	jsonPath, csvPath, err := backtest.WriteReport(reportDir, cfg.Symbol, cfg.Timeframe, cfg.Backtest.StartingBalance, result)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to write report", err)
	} else {
		logger.Info(ctx, "Report written", "summary", jsonPath, "trades", csvPath)
	}

	if notifier := initializeNotifier(ctx, cfg); notifier != nil {
		_ = notifier.BacktestFinished(ctx, map[string]any{
			"symbol":       cfg.Symbol,
			"num_trades":   result.Metrics.NumTrades,
			"net_profit":   result.Metrics.NetProfit,
			"win_rate":     result.Metrics.WinRate,
			"max_drawdown": result.Metrics.MaxDrawdown,
		})
	}

	if !cfg.Backtest.PreviewReplay {
		return nil
	}

	interval, err := types.TimeframeDuration(cfg.Timeframe)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Serving backtest replay", "addr", cfg.Chart.ListenAddr, "bars", len(result.Snapshots))

	srv := chart.NewReplayServer(cfg, backtest.NewReplay(result.Snapshots), interval)
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(cfg.Chart.ListenAddr) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errc:
		return err
	}
}

func loadBacktestCandles(ctx context.Context, cfg *store.Config) ([]types.Candle, error) {
	if cfg.Backtest.DataFile != "" {
		logger.Info(ctx, "Loading candles from data file", "path", cfg.Backtest.DataFile)
		return backtest.LoadCandlesCSV(cfg.Backtest.DataFile)
	}

	logger.Info(ctx, "No data file configured, fetching history from exchange",
		"symbol", cfg.Symbol, "bars", cfg.LookbackBars)
	exchange := initializeExchange(ctx, cfg)
	return exchange.FetchOHLCV(ctx, cfg.Symbol, cfg.Timeframe, cfg.LookbackBars)
}
