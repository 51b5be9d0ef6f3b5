// Package api exposes packets over HTTP for consumers that poll instead of
// reading Telegram.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"TickerPacket/internal/resample"
	"TickerPacket/internal/scheduler"
)

// Server serves the packet API.
type Server struct {
	sched  *scheduler.Scheduler
	router *gin.Engine
	http   *http.Server
}

// NewServer builds the router for addr.
func NewServer(addr string, sched *scheduler.Scheduler) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{sched: sched, router: r}
	s.setupRoutes(r)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/watchlist", s.handleWatchlist)
		api.GET("/packets", s.handleRecent)
		api.GET("/packets/:ticker", s.handlePacket)
		api.POST("/runs", s.handleRun)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] http api listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http api: %v", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"watchlist": len(s.sched.Watchlist),
	})
}

func (s *Server) handleWatchlist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": s.sched.Watchlist})
}

type recentLister interface {
	Recent(ctx context.Context) ([]string, error)
}

// handleRecent lists tickers with a cached packet, newest first.
func (s *Server) handleRecent(c *gin.Context) {
	rl, ok := s.sched.Cache.(recentLister)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"tickers": []string{}})
		return
	}
	tickers, err := rl.Recent(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickers": tickers})
}

// handlePacket returns the plain-text packet; ?refresh=true skips the cache.
func (s *Server) handlePacket(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))
	text, err := s.sched.Packet(c.Request.Context(), c.Param("ticker"), refresh)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, text)
}

type runResult struct {
	Ticker     string `json:"ticker"`
	Bars       int    `json:"bars"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// handleRun builds the whole watchlist now.
func (s *Server) handleRun(c *gin.Context) {
	runID, results := s.sched.RunOnce(scheduler.TriggerHTTP)
	out := make([]runResult, len(results))
	for i, r := range results {
		out[i] = runResult{Ticker: r.Ticker, Bars: r.Bars, DurationMS: r.Duration.Milliseconds()}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	c.JSON(http.StatusOK, gin.H{"run_id": runID, "results": out})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		pe *resample.ParseError
		ve *resample.ValidationError
		ce *resample.ConfigError
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ce):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
