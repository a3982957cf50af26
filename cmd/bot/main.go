package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/store"
	"crypto-trading-bot/internal/trace"
)

const (
	ModeLive     = "live"
	ModeBacktest = "backtest"
)

// modeFlag validates the run mode at flag parsing time, so a bad
// --mode value fails before anything else is constructed.
type modeFlag struct {
	value string
}

func (m *modeFlag) String() string { return m.value }

func (m *modeFlag) Set(v string) error {
	if v != ModeLive && v != ModeBacktest {
		return fmt.Errorf("must be %q or %q", ModeLive, ModeBacktest)
	}
	m.value = v
	return nil
}

func main() {
	mode := modeFlag{value: ModeLive}
	flag.Var(&mode, "mode", "run mode: live or backtest")
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	cfg, err := store.LoadConfig(*configPath, mode.value == ModeLive)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", *configPath)
		os.Exit(1)
	}

	compressOldLogs(ctx)

	logger.Info(ctx, "Bot starting",
		"mode", mode.value,
		"symbol", cfg.Symbol,
		"timeframe", cfg.Timeframe,
		"exchange_mode", cfg.Exchange.Mode,
	)

	switch mode.value {
	case ModeBacktest:
		err = runBacktest(ctx, cfg)
	default:
		err = runLive(ctx, cfg)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorWithErr(ctx, "Bot exited with error", err, "mode", mode.value)
		os.Exit(1)
	}
	logger.Info(ctx, "Bot stopped", "mode", mode.value)
}
