package types

type Candle struct {
	Ts    int64   `json:"ts"`
	Open  float64 `json:"o"`
	High  float64 `json:"h"`
	Low   float64 `json:"l"`
	Close float64 `json:"c"`
	Vol   float64 `json:"v"`
}

// Signal is a trade setup produced by the strategy: a ladder of limit
// entries sharing one stop and one target.
type Signal struct {
	Direction  string    `json:"direction"` // "long" or "short"
	Entries    []float64 `json:"entries"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	SignalTs   int64     `json:"signal_ts"`
}

type StepResult struct {
	Symbol  string  `json:"symbol"`
	Signal  *Signal `json:"signal,omitempty"`
	Price   float64 `json:"price"`
	Time    int64   `json:"time"`
	TradeID string  `json:"trade_id,omitempty"`
	Reason  string  `json:"reason"`
}

// TradePrint is a single trade print from the live feed.
type TradePrint struct {
	Price     float64
	Qty       float64
	IsBuy     bool
	Timestamp int64 // unix millis
}

type OrderReq struct {
	Symbol, Side, Type string
	Price              float64
	Qty                float64
	Tag                string
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type NewsArticle struct {
	Title       string
	URL         string
	Content     string
	Source      string
	PublishedAt string
}

type NewsSentiment struct {
	Symbol           string  `json:"symbol"`
	OverallSentiment string  `json:"overall_sentiment"` // POSITIVE, NEGATIVE, NEUTRAL
	OverallScore     float64 `json:"overall_score"`
	Confidence       float64 `json:"confidence"`
	ArticleCount     int     `json:"article_count"`
	Summary          string  `json:"summary"`
	Timestamp        int64   `json:"timestamp"`
}
