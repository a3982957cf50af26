package news

import (
	"context"
	"testing"
	"time"

	"crypto-trading-bot/internal/types"
)

func TestSentimentCache(t *testing.T) {
	cache := newSentimentCache(1 * time.Second)

	symbol := "BTC/USDT"
	sentiment := types.NewsSentiment{
		Symbol:           symbol,
		OverallSentiment: "POSITIVE",
		OverallScore:     0.8,
		Confidence:       0.9,
		Timestamp:        time.Now().Unix(),
	}

	cache.set(symbol, sentiment)

	retrieved, found := cache.get(symbol)
	if !found {
		t.Fatal("Expected to find cached sentiment")
	}
	if retrieved.Symbol != symbol {
		t.Errorf("Expected symbol %s, got %s", symbol, retrieved.Symbol)
	}
	if retrieved.OverallScore != 0.8 {
		t.Errorf("Expected score 0.8, got %f", retrieved.OverallScore)
	}

	// Test expiration
	time.Sleep(2 * time.Second)
	if _, found = cache.get(symbol); found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := DefaultServiceConfig()

	if cfg.MaxArticles != 15 {
		t.Errorf("Expected MaxArticles to be 15, got %d", cfg.MaxArticles)
	}
	if cfg.CacheDuration != 1*time.Hour {
		t.Errorf("Expected CacheDuration to be 1 hour, got %v", cfg.CacheDuration)
	}
	if !cfg.Enabled {
		t.Error("Expected Enabled to be true")
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: false})

	sentiment, err := svc.GetSentiment(context.Background(), "BTC/USDT")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if sentiment.OverallSentiment != "NEUTRAL" {
		t.Errorf("Expected NEUTRAL sentiment when disabled, got %s", sentiment.OverallSentiment)
	}
	if sentiment.Summary != "Sentiment analysis disabled" {
		t.Errorf("Expected disabled message, got %s", sentiment.Summary)
	}
}

func TestCacheCleanup(t *testing.T) {
	cache := newSentimentCache(100 * time.Millisecond)

	symbols := []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"}
	for _, sym := range symbols {
		cache.set(sym, types.NewsSentiment{Symbol: sym, Timestamp: time.Now().Unix()})
	}

	time.Sleep(200 * time.Millisecond)
	cache.cleanup()

	cache.mu.RLock()
	count := len(cache.data)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Expected 0 cache entries after cleanup, got %d", count)
	}
}

func TestClearCache(t *testing.T) {
	svc := NewService(DefaultServiceConfig())
	svc.cache.set("BTC/USDT", types.NewsSentiment{Symbol: "BTC/USDT"})

	svc.ClearCache()

	if _, found := svc.cache.get("BTC/USDT"); found {
		t.Error("Expected cache to be empty after clear")
	}
}

func TestScoreArticle(t *testing.T) {
	a := NewSentimentAnalyzer()

	bullish := types.NewsArticle{
		Title:   "Bitcoin breakout: bulls drive a record rally",
		Content: "Institutional adoption continues as the surge extends.",
	}
	if score := a.ScoreArticle(bullish); score <= 0 {
		t.Errorf("bullish article score = %v, want > 0", score)
	}

	bearish := types.NewsArticle{
		Title:   "Exchange hack triggers crash and mass liquidation",
		Content: "Fear spreads after the exploit; bearish traders dump.",
	}
	if score := a.ScoreArticle(bearish); score >= 0 {
		t.Errorf("bearish article score = %v, want < 0", score)
	}

	neutral := types.NewsArticle{Title: "Weekly market recap", Content: "Prices moved."}
	if score := a.ScoreArticle(neutral); score != 0 {
		t.Errorf("neutral article score = %v, want 0", score)
	}
}

func TestAnalyzeAggregates(t *testing.T) {
	a := NewSentimentAnalyzer()
	ctx := context.Background()

	articles := []types.NewsArticle{
		{Title: "Massive rally as bullish momentum builds"},
		{Title: "Breakout confirmed, record surge"},
		{Title: "Adoption grows after approval"},
	}
	s := a.Analyze(ctx, "BTC/USDT", articles)
	if s.OverallSentiment != "POSITIVE" {
		t.Errorf("sentiment = %s, want POSITIVE", s.OverallSentiment)
	}
	if s.ArticleCount != 3 || s.OverallScore <= 0 {
		t.Errorf("unexpected aggregate: %+v", s)
	}

	empty := a.Analyze(ctx, "BTC/USDT", nil)
	if empty.OverallSentiment != "NEUTRAL" || empty.ArticleCount != 0 {
		t.Errorf("empty aggregate = %+v", empty)
	}
}

func TestBaseAsset(t *testing.T) {
	if got := BaseAsset("BTC/USDT"); got != "BTC" {
		t.Errorf("BaseAsset = %s, want BTC", got)
	}
	if got := BaseAsset("ETHUSDT"); got != "ETHUSDT" {
		t.Errorf("BaseAsset without separator = %s", got)
	}
}
