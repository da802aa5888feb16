// Package api serves the dashboard JSON API over gin.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/cryptowatch/internal/bot"
	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// App is the part of the application context the dashboard drives.
type App interface {
	Running() bool
	Status() scheduler.Status
	State() map[string]any
	Prices(ctx context.Context) []bot.AssetPrice
	PriceHistory(ctx context.Context) []bot.AssetHistory
	StartMonitoring(ctx context.Context) error
	StopMonitoring(ctx context.Context) error
	TestTelegram(ctx context.Context) error
	RunCheckCycle(ctx context.Context) error
}

// Server is the dashboard HTTP server.
type Server struct {
	app         App
	cfg         *config.Config
	clock       clockwork.Clock
	newsEnabled bool
	log         *slog.Logger
	engine      *gin.Engine
}

// NewServer builds the router. Call Run to serve it on cfg.HTTP.Addr.
func NewServer(app App, cfg *config.Config, clock clockwork.Clock, newsEnabled bool, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		app:         app,
		cfg:         cfg,
		clock:       clock,
		newsEnabled: newsEnabled,
		log:         log.With("component", "http_api"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.log))
	s.routes(engine)
	s.engine = engine
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.POST("/start", s.postStart)
		api.POST("/stop", s.postStop)
		api.POST("/test-telegram", s.postTestTelegram)
		api.POST("/manual-check", s.postManualCheck)
		api.GET("/price-history", s.getPriceHistory)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Dashboard API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("dashboard API failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Dashboard API forced to shut down", "error", err)
		return err
	}
	s.log.Info("Dashboard API stopped")
	return nil
}

// requestLogger logs failed and slow requests.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("Request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "duration", duration)
		case status >= http.StatusBadRequest || duration > time.Second:
			log.Warn("Request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "duration", duration)
		default:
			log.Debug("Request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "duration", duration)
		}
	}
}
