package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/types"
)

// SentimentAnalyzer scores headlines with a keyword lexicon. Each
// article gets a score in [-1, 1]; the symbol-level sentiment is the
// aggregate over all scored articles.
type SentimentAnalyzer struct {
	positive map[string]float64
	negative map[string]float64
}

func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{
		positive: map[string]float64{
			"rally":         0.6,
			"surge":         0.6,
			"soar":          0.6,
			"bullish":       0.8,
			"breakout":      0.5,
			"adoption":      0.4,
			"approval":      0.5,
			"etf":           0.3,
			"upgrade":       0.4,
			"record":        0.4,
			"gain":          0.3,
			"institutional": 0.3,
			"accumulate":    0.4,
		},
		negative: map[string]float64{
			"crash":       -0.8,
			"plunge":      -0.6,
			"dump":        -0.5,
			"bearish":     -0.8,
			"hack":        -0.7,
			"exploit":     -0.6,
			"ban":         -0.6,
			"lawsuit":     -0.5,
			"sec":         -0.2,
			"liquidation": -0.5,
			"selloff":     -0.5,
			"fear":        -0.4,
			"scam":        -0.7,
		},
	}
}

// ScoreArticle scores one article from its title and content. Title
// hits weigh double since snippets are often truncated.
func (a *SentimentAnalyzer) ScoreArticle(article types.NewsArticle) float64 {
	score := 0.0
	score += 2 * a.scoreText(article.Title)
	score += a.scoreText(article.Content)

	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score
}

func (a *SentimentAnalyzer) scoreText(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	score := 0.0
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;\"'()[]")
		if v, ok := a.positive[w]; ok {
			score += v
		}
		if v, ok := a.negative[w]; ok {
			score += v
		}
	}
	return score
}

// Analyze aggregates article scores into a symbol-level sentiment.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, symbol string, articles []types.NewsArticle) types.NewsSentiment {
	if len(articles) == 0 {
		return types.NewsSentiment{
			Symbol:           symbol,
			OverallSentiment: "NEUTRAL",
			Summary:          "No articles found for analysis",
			Timestamp:        time.Now().Unix(),
		}
	}

	positive, negative, neutral := 0, 0, 0
	total := 0.0
	for _, article := range articles {
		score := a.ScoreArticle(article)
		total += score
		switch {
		case score > 0.1:
			positive++
		case score < -0.1:
			negative++
		default:
			neutral++
		}
	}

	avg := total / float64(len(articles))
	overall := "NEUTRAL"
	if positive > negative*2 {
		overall = "POSITIVE"
	} else if negative > positive*2 {
		overall = "NEGATIVE"
	} else if positive > 0 && negative > 0 {
		overall = "MIXED"
	}

	sentiment := types.NewsSentiment{
		Symbol:           symbol,
		OverallSentiment: overall,
		OverallScore:     avg,
		ArticleCount:     len(articles),
		Confidence:       confidence(len(articles), positive, negative, neutral),
		Summary: fmt.Sprintf("Analyzed %d articles: %d positive, %d negative, %d neutral.",
			len(articles), positive, negative, neutral),
		Timestamp: time.Now().Unix(),
	}

	logger.Info(ctx, "Sentiment analysis completed", "symbol", symbol,
		"overall", sentiment.OverallSentiment, "score", sentiment.OverallScore)
	return sentiment
}

// confidence grows with article count and shrinks when the articles
// disagree.
func confidence(count, positive, negative, neutral int) float64 {
	base := 0.3
	switch {
	case count >= 10:
		base = 0.9
	case count >= 5:
		base = 0.7
	case count >= 3:
		base = 0.5
	}

	maxBucket := positive
	if negative > maxBucket {
		maxBucket = negative
	}
	if neutral > maxBucket {
		maxBucket = neutral
	}
	return base * float64(maxBucket) / float64(count)
}
