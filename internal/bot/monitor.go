package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edgard/cryptowatch/internal/alert"
	"github.com/edgard/cryptowatch/internal/bot/tasks"
	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

var (
	// ErrAlreadyRunning is returned by StartMonitoring while monitoring is active.
	ErrAlreadyRunning = errors.New("monitoring is already running")
	// ErrNotRunning is returned by StopMonitoring while monitoring is stopped.
	ErrNotRunning = errors.New("monitoring is not running")
)

// AssetPrice is the current quote of one tracked asset.
type AssetPrice struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Cached    bool    `json:"cached"`
	Available bool    `json:"available"`
}

// AssetHistory is the 24h movement of one tracked asset.
type AssetHistory struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	Price24hAgo   float64 `json:"price_24h_ago"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Error         string  `json:"error,omitempty"`
}

// StartMonitoring builds a fresh scheduler from the registered tasks,
// announces the start on Telegram and starts the control loop.
func (b *Bot) StartMonitoring(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sched != nil && b.sched.Running() {
		return ErrAlreadyRunning
	}

	list, err := tasks.RegisterAllTasks(b.deps)
	if err != nil {
		return err
	}
	sched := scheduler.New(b.schedOpts...)
	for _, t := range list {
		if err := sched.Register(t); err != nil {
			return fmt.Errorf("failed to register task %s: %w", t.Name, err)
		}
	}

	now := b.deps.Clock.Now().In(b.cfg.Location())
	if err := b.store.Set(ctx, store.KeyBotStartTime, now.Format(time.RFC3339)); err != nil {
		b.logger.WarnContext(ctx, "Failed to record start time", "error", err)
	}

	newsEnabled := b.deps.News != nil && b.deps.Dedup != nil
	if err := b.deps.Notifier.Send(ctx, tasks.StartupMessage(b.cfg, newsEnabled, now)); err != nil {
		b.logger.WarnContext(ctx, "Failed to send startup message", "error", err)
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	b.sched = sched
	b.logger.InfoContext(ctx, "Monitoring started", "tasks", len(list), "news_enabled", newsEnabled)
	return nil
}

// StopMonitoring stops the control loop and announces the stop. The last
// scheduler is kept so its task status stays visible.
func (b *Bot) StopMonitoring(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sched == nil || !b.sched.Running() {
		return ErrNotRunning
	}

	stopErr := b.sched.Stop()
	if errors.Is(stopErr, scheduler.ErrStopTimeout) {
		b.logger.WarnContext(ctx, "Monitoring stopped with a task still running", "error", stopErr)
	}

	if err := b.deps.Notifier.Send(ctx, tasks.StopMessage()); err != nil {
		b.logger.WarnContext(ctx, "Failed to send stop message", "error", err)
	}
	b.logger.InfoContext(ctx, "Monitoring stopped")
	return stopErr
}

// Running reports whether monitoring is active.
func (b *Bot) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sched != nil && b.sched.Running()
}

// Status returns the scheduler status, or an empty stopped status when
// monitoring was never started.
func (b *Bot) Status() scheduler.Status {
	b.mu.Lock()
	sched := b.sched
	b.mu.Unlock()

	if sched == nil {
		return scheduler.Status{Tasks: []scheduler.TaskStatus{}}
	}
	return sched.Status()
}

// State returns a copy of the persisted state.
func (b *Bot) State() map[string]any {
	return b.store.Snapshot()
}

// RunCheckCycle runs one manual check cycle. It holds the scheduler body
// lock, so it waits for a running tick and never overlaps another cycle.
func (b *Bot) RunCheckCycle(ctx context.Context) error {
	b.bodyMu.Lock()
	defer b.bodyMu.Unlock()
	return tasks.RunCheckCycle(ctx, b.deps)
}

// TestTelegram sends a test message to the configured user.
func (b *Bot) TestTelegram(ctx context.Context) error {
	now := b.deps.Clock.Now().In(b.cfg.Location())
	text := "🧪 <b>Test Message</b>\n\nTelegram connection is working!\n⏰ " + now.Format(alert.TimestampLayout)
	return b.deps.Notifier.Send(ctx, text)
}

// Prices quotes every tracked asset. Assets with no fresh or cached price
// are returned with Available false.
func (b *Bot) Prices(ctx context.Context) []AssetPrice {
	out := make([]AssetPrice, 0, len(b.cfg.Monitor.Assets))
	for _, a := range b.cfg.Monitor.Assets {
		q, ok := b.deps.Prices.Quote(ctx, a.ID)
		out = append(out, AssetPrice{ID: a.ID, Symbol: a.Symbol, Price: q.Value, Cached: q.Cached, Available: ok})
	}
	return out
}

// PriceHistory returns the 24h movement of every tracked asset. A failed
// lookup is reported in the asset's Error field.
func (b *Bot) PriceHistory(ctx context.Context) []AssetHistory {
	out := make([]AssetHistory, 0, len(b.cfg.Monitor.Assets))
	for _, a := range b.cfg.Monitor.Assets {
		h := AssetHistory{ID: a.ID, Symbol: a.Symbol}
		current, dayAgo, err := b.deps.History.History24h(ctx, a.ID)
		switch {
		case err != nil:
			b.logger.WarnContext(ctx, "Failed to fetch price history", "asset", a.ID, "error", err)
			h.Error = "Unable to fetch price history"
		case dayAgo <= 0:
			h.Error = "Unable to fetch price history"
		default:
			cur, ago := decimal.NewFromFloat(current), decimal.NewFromFloat(dayAgo)
			h.CurrentPrice = current
			h.Price24hAgo = dayAgo
			h.Change = cur.Sub(ago).InexactFloat64()
			h.ChangePercent = alert.PercentChange(ago, cur).InexactFloat64()
		}
		out = append(out, h)
	}
	return out
}
