package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/cryptowatch/internal/bot"
	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/logger"
	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeApp struct {
	running  bool
	startErr error
	stopErr  error
	sendErr  error
	checkErr error
	history  []bot.AssetHistory
}

func (a *fakeApp) Running() bool { return a.running }
func (a *fakeApp) Status() scheduler.Status {
	return scheduler.Status{Running: a.running, TotalTasks: 1, Tasks: []scheduler.TaskStatus{{Name: "price_alerts", Kind: scheduler.KindPeriodic}}}
}
func (a *fakeApp) State() map[string]any {
	return map[string]any{
		store.KeyTotalAlertsSent:       int64(3),
		store.KeyLastError:             "",
		store.LastPriceKey("ethereum"): 3000.5,
		store.KeyBotStartTime:          "2024-05-01T08:00:00Z",
	}
}
func (a *fakeApp) Prices(context.Context) []bot.AssetPrice {
	return []bot.AssetPrice{{ID: "ethereum", Symbol: "ETH", Price: 3001, Available: true}}
}
func (a *fakeApp) PriceHistory(context.Context) []bot.AssetHistory { return a.history }
func (a *fakeApp) StartMonitoring(context.Context) error { return a.startErr }
func (a *fakeApp) StopMonitoring(context.Context) error { return a.stopErr }
func (a *fakeApp) TestTelegram(context.Context) error { return a.sendErr }
func (a *fakeApp) RunCheckCycle(context.Context) error { return a.checkErr }

func newTestServer(app App) *Server {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	cfg := config.Default()
	cfg.Scheduler.Timezone = "UTC"
	return NewServer(app, cfg, clock, true, logger.Discard())
}

func do(t *testing.T, s *Server, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
	}
	return w, body
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeApp{running: true})
	w, body := do(t, s, http.MethodGet, "/api/status")

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}
	if body["bot_running"] != true {
		t.Errorf("bot_running = %v", body["bot_running"])
	}
	if body["current_time"] != "2024-05-01 10:00:00" {
		t.Errorf("current_time = %v", body["current_time"])
	}
	if body["total_alerts_sent"] != float64(3) || body["total_news_sent"] != float64(0) {
		t.Errorf("counters = %v / %v", body["total_alerts_sent"], body["total_news_sent"])
	}
	if lp, _ := body["last_prices"].(map[string]any); lp["ethereum"] != 3000.5 || lp["chainlink"] != nil {
		t.Errorf("last_prices = %v", body["last_prices"])
	}
	cfg, _ := body["config"].(map[string]any)
	if cfg["price_threshold"] != 3.0 || cfg["check_interval"] != 30.0 || cfg["news_enabled"] != true {
		t.Errorf("config = %v", cfg)
	}
	if sched, _ := body["scheduler"].(map[string]any); sched["total_tasks"] != 1.0 {
		t.Errorf("scheduler = %v", body["scheduler"])
	}
}

func TestLifecycleEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		app      *fakeApp
		path     string
		wantCode int
		wantOK   bool
	}{
		{name: "start", app: &fakeApp{}, path: "/api/start", wantCode: http.StatusOK, wantOK: true},
		{name: "start while running", app: &fakeApp{startErr: bot.ErrAlreadyRunning}, path: "/api/start", wantCode: http.StatusConflict},
		{name: "start failure", app: &fakeApp{startErr: errors.New("boom")}, path: "/api/start", wantCode: http.StatusInternalServerError},
		{name: "stop", app: &fakeApp{}, path: "/api/stop", wantCode: http.StatusOK, wantOK: true},
		{name: "stop while stopped", app: &fakeApp{stopErr: bot.ErrNotRunning}, path: "/api/stop", wantCode: http.StatusConflict},
		{name: "stop timeout", app: &fakeApp{stopErr: scheduler.ErrStopTimeout}, path: "/api/stop", wantCode: http.StatusOK, wantOK: true},
		{name: "test telegram", app: &fakeApp{}, path: "/api/test-telegram", wantCode: http.StatusOK, wantOK: true},
		{name: "test telegram failure", app: &fakeApp{sendErr: errors.New("chat not found")}, path: "/api/test-telegram", wantCode: http.StatusBadGateway},
		{name: "manual check", app: &fakeApp{}, path: "/api/manual-check", wantCode: http.StatusOK, wantOK: true},
		{name: "manual check failure", app: &fakeApp{checkErr: errors.New("daily_report: boom")}, path: "/api/manual-check", wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, body := do(t, newTestServer(tt.app), http.MethodPost, tt.path)
			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			if body["success"] != tt.wantOK {
				t.Errorf("success = %v, want %v (message %v)", body["success"], tt.wantOK, body["message"])
			}
		})
	}
}

func TestGetPriceHistory(t *testing.T) {
	t.Parallel()

	ok := &fakeApp{history: []bot.AssetHistory{
		{ID: "ethereum", Symbol: "ETH", CurrentPrice: 3030, Price24hAgo: 3000, Change: 30, ChangePercent: 1},
		{ID: "chainlink", Symbol: "LINK", Error: "Unable to fetch price history"},
	}}
	w, body := do(t, newTestServer(ok), http.MethodGet, "/api/price-history")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", w.Code)
	}
	assets, _ := body["assets"].([]any)
	if len(assets) != 2 {
		t.Fatalf("assets = %v", body["assets"])
	}
	if eth := assets[0].(map[string]any); eth["change_percent"] != 1.0 || eth["price_24h_ago"] != 3000.0 {
		t.Errorf("eth = %v", eth)
	}

	failed := &fakeApp{history: []bot.AssetHistory{{ID: "ethereum", Symbol: "ETH", Error: "Unable to fetch price history"}}}
	w, body = do(t, newTestServer(failed), http.MethodGet, "/api/price-history")
	if w.Code != http.StatusBadGateway || body["error"] == nil {
		t.Errorf("all-failed response = %d %v", w.Code, body)
	}
}

func TestRouteNotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeApp{})
	req := httptest.NewRequest(http.MethodGet, "/api/start", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /api/start = %d, want 404", w.Code)
	}
}
