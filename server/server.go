// Package server exposes scraping over a single JSON endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	crawlercommon "github.com/researchaccelerator-hub/page-scraper/crawler/common"
	"github.com/researchaccelerator-hub/page-scraper/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Runner executes a scrape request
type Runner interface {
	Run(ctx context.Context, req model.ScrapeRequest) (model.ScrapeResult, error)
}

// StatsProvider is implemented by runners that count finished scrapes
type StatsProvider interface {
	Stats() crawlercommon.Stats
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details string `json:"details,omitempty"`
}

// Server serves the scrape endpoint
type Server struct {
	cfg    config.Config
	runner Runner
	sem    *semaphore.Weighted
	engine *gin.Engine
	http   *http.Server
}

// New creates a server for cfg. The configuration is read only.
func New(cfg config.Config, runner Runner) *Server {
	s := &Server{
		cfg:    cfg,
		runner: runner,
		sem:    semaphore.NewWeighted(cfg.Server.MaxConcurrent),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), s.cors())
	engine.Any(cfg.Server.Path, s.handleScrape)
	if cfg.Server.Path != "/" {
		engine.Any("/", s.handleScrape)
	}
	engine.GET("/healthz", s.handleHealth)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Kind: string(common.KindInvalidRequest)})
	})
	s.engine = engine

	s.http = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	log.Info().Str("addr", s.http.Addr).Str("path", s.cfg.Server.Path).Msg("Starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight scrapes
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

func (s *Server) cors() gin.HandlerFunc {
	cors := s.cfg.CORS
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", cors.AllowOrigin)
		h.Set("Access-Control-Allow-Headers", cors.AllowHeaders)
		h.Set("Access-Control-Allow-Methods", cors.AllowMethods)
		c.Next()
	}
}

func (s *Server) handleScrape(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		c.Header("Allow", s.cfg.CORS.AllowMethods)
		writeError(c, common.InvalidRequest("method "+c.Request.Method+" not allowed"), http.StatusMethodNotAllowed)
		return
	}

	var req model.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.NewError(common.KindInvalidRequest, "invalid JSON body", err), http.StatusBadRequest)
		return
	}

	ctx := c.Request.Context()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		writeError(c, common.AsScrapeError(err, common.KindTargetUnavailable, "waiting for a free scrape slot"), http.StatusInternalServerError)
		return
	}
	defer s.sem.Release(1)

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		se := common.AsScrapeError(err, common.KindTargetUnavailable, "scrape failed")
		writeError(c, se, StatusFor(se.Kind))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok", "backend": s.cfg.Backend}
	if sp, ok := s.runner.(StatsProvider); ok {
		body["stats"] = sp.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// StatusFor maps an error kind to an HTTP status
func StatusFor(kind common.ErrorKind) int {
	if kind == common.KindInvalidRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, se *common.ScrapeError, status int) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   se.Message,
		Kind:    string(se.Kind),
		Details: se.Details(),
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}
