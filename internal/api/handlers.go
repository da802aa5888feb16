package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgard/cryptowatch/internal/alert"
	"github.com/edgard/cryptowatch/internal/bot"
	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	state := s.app.State()

	lastPrices := make(gin.H, len(s.cfg.Monitor.Assets))
	for _, a := range s.cfg.Monitor.Assets {
		lastPrices[a.ID] = state[store.LastPriceKey(a.ID)]
	}

	c.JSON(http.StatusOK, gin.H{
		"bot_running":       s.app.Running(),
		"current_time":      s.clock.Now().In(s.cfg.Location()).Format(alert.TimestampLayout),
		"prices":            s.app.Prices(ctx),
		"last_prices":       lastPrices,
		"bot_start_time":    state[store.KeyBotStartTime],
		"total_alerts_sent": valueOr(state, store.KeyTotalAlertsSent, 0),
		"total_news_sent":   valueOr(state, store.KeyTotalNewsSent, 0),
		"last_error":        valueOr(state, store.KeyLastError, ""),
		"config": gin.H{
			"price_threshold":    s.cfg.Monitor.PriceChangeThreshold,
			"check_interval":     s.cfg.Monitor.CheckInterval.Seconds(),
			"daily_report_hours": s.cfg.Monitor.DailyReportHours,
			"news_enabled":       s.newsEnabled,
		},
		"scheduler": s.app.Status(),
	})
}

// POST /api/start
func (s *Server) postStart(c *gin.Context) {
	err := s.app.StartMonitoring(c.Request.Context())
	switch {
	case errors.Is(err, bot.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot started successfully"})
	}
}

// POST /api/stop
func (s *Server) postStop(c *gin.Context) {
	err := s.app.StopMonitoring(c.Request.Context())
	switch {
	case errors.Is(err, bot.ErrNotRunning):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, scheduler.ErrStopTimeout):
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot stopped; a running task is still finishing"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot stopped successfully"})
	}
}

// POST /api/test-telegram
func (s *Server) postTestTelegram(c *gin.Context) {
	if err := s.app.TestTelegram(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Failed to send test message: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test message sent successfully"})
}

// POST /api/manual-check
func (s *Server) postManualCheck(c *gin.Context) {
	if err := s.app.RunCheckCycle(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Manual check completed"})
}

// GET /api/price-history
func (s *Server) getPriceHistory(c *gin.Context) {
	assets := s.app.PriceHistory(c.Request.Context())
	for _, a := range assets {
		if a.Error == "" {
			c.JSON(http.StatusOK, gin.H{"assets": assets})
			return
		}
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to fetch price history", "assets": assets})
}

func valueOr(state map[string]any, key string, def any) any {
	if v, ok := state[key]; ok && v != nil {
		return v
	}
	return def
}
