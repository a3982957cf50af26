package chart

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"crypto-trading-bot/internal/backtest"
	"crypto-trading-bot/internal/logger"
	"crypto-trading-bot/internal/store"
	"crypto-trading-bot/internal/types"
)

// CandleSource provides the candles rendered on the live chart.
type CandleSource interface {
	ClosedCandles() []types.Candle
	CurrentCandle() *types.Candle
}

// Server renders the price chart and, in backtest preview mode, drives
// the replay of recorded snapshots.
type Server struct {
	cfg         *store.Config
	source      CandleSource
	replay      *backtest.Replay
	barInterval time.Duration
	router      *gin.Engine
}

// NewLiveServer serves the rolling candle window of a live session.
func NewLiveServer(cfg *store.Config, source CandleSource) *Server {
	s := &Server{cfg: cfg, source: source}
	s.buildRouter()
	return s
}

// NewReplayServer serves a finished backtest as a step-through replay.
func NewReplayServer(cfg *store.Config, replay *backtest.Replay, barInterval time.Duration) *Server {
	s := &Server{cfg: cfg, replay: replay, barInterval: barInterval}
	s.buildRouter()
	return s
}

func (s *Server) buildRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.handleIndex)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/meta", s.handleMeta)
		api.GET("/candles", s.handleCandles)

		replay := api.Group("/replay")
		{
			replay.GET("/state", s.replayGuard(s.handleReplayState))
			replay.POST("/play", s.replayGuard(s.handleReplayPlay))
			replay.POST("/pause", s.replayGuard(s.handleReplayPause))
			replay.POST("/speed", s.replayGuard(s.handleReplaySpeed))
			replay.POST("/end", s.replayGuard(s.handleReplayEnd))
		}
	}

	s.router = r
}

// Handler wraps the router with permissive CORS so a locally served
// page or dev frontend can poll the API.
func (s *Server) Handler() http.Handler {
	return cors.Default().Handler(s.router)
}

// Run blocks serving the chart until the listener fails.
func (s *Server) Run(addr string) error {
	logger.Info(context.Background(), "Chart server listening", "addr", addr, "mode", s.mode())
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) mode() string {
	if s.replay != nil {
		return "replay"
	}
	return "live"
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) handleMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbol":     s.cfg.Symbol,
		"timeframe":  s.cfg.Timeframe,
		"mode":       s.mode(),
		"refresh_ms": s.cfg.Chart.RefreshMs,
	})
}

type candlePayload struct {
	Candles []types.Candle      `json:"candles"`
	Current *types.Candle       `json:"current,omitempty"`
	Equity  []float64           `json:"equity,omitempty"`
	Marks   []backtest.Snapshot `json:"marks,omitempty"`
}

func (s *Server) handleCandles(c *gin.Context) {
	if s.replay != nil {
		snaps := s.replay.Visible(time.Now(), s.barInterval)
		payload := candlePayload{
			Candles: make([]types.Candle, 0, len(snaps)),
			Equity:  make([]float64, 0, len(snaps)),
		}
		for _, sn := range snaps {
			payload.Candles = append(payload.Candles, sn.Candle)
			payload.Equity = append(payload.Equity, sn.Equity)
			if sn.SignalDirection != "" {
				payload.Marks = append(payload.Marks, sn)
			}
		}
		c.JSON(http.StatusOK, payload)
		return
	}

	payload := candlePayload{Candles: s.source.ClosedCandles()}
	payload.Current = s.source.CurrentCandle()
	c.JSON(http.StatusOK, payload)
}

func (s *Server) replayGuard(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.replay == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "replay not active"})
			return
		}
		h(c)
	}
}

func (s *Server) handleReplayState(c *gin.Context) {
	c.JSON(http.StatusOK, s.replay.State())
}

func (s *Server) handleReplayPlay(c *gin.Context) {
	s.replay.Play()
	c.JSON(http.StatusOK, s.replay.State())
}

func (s *Server) handleReplayPause(c *gin.Context) {
	s.replay.Pause()
	c.JSON(http.StatusOK, s.replay.State())
}

func (s *Server) handleReplaySpeed(c *gin.Context) {
	var req struct {
		Speed float64 `json:"speed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.replay.SetSpeed(req.Speed)
	c.JSON(http.StatusOK, s.replay.State())
}

func (s *Server) handleReplayEnd(c *gin.Context) {
	s.replay.ToEnd()
	c.JSON(http.StatusOK, s.replay.State())
}
