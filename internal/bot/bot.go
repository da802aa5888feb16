// Package bot implements the application context, lifecycle management
// and component orchestration for the crypto monitoring bot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/cryptowatch/internal/bot/tasks"
	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

// Runner is a long-lived component run alongside the bot, such as the
// dashboard HTTP server. Run blocks until ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Bot owns the monitoring scheduler and the Telegram listener.
type Bot struct {
	logger *slog.Logger
	cfg    *config.Config
	store  *store.Store
	deps   tasks.TaskDeps
	tgBot  *tgbot.Bot

	schedOpts []scheduler.Option

	mu    sync.Mutex // guards sched
	sched *scheduler.Scheduler

	// bodyMu is shared by every scheduler the bot starts and by manual
	// check cycles, so task bodies never overlap, even across a restart
	// that follows a timed-out stop.
	bodyMu sync.Mutex
}

// NewBot creates the application context. tgBot may be nil, in which case
// no command listener is started.
func NewBot(logger *slog.Logger, cfg *config.Config, st *store.Store, deps tasks.TaskDeps, tgBot *tgbot.Bot) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bot{
		logger: logger.With("component", "bot_orchestrator"),
		cfg:    cfg,
		store:  st,
		deps:   deps,
		tgBot:  tgBot,
	}
	b.schedOpts = []scheduler.Option{
		scheduler.WithClock(deps.Clock),
		scheduler.WithLocation(cfg.Location()),
		scheduler.WithTick(cfg.Scheduler.Tick),
		scheduler.WithStopTimeout(cfg.Scheduler.StopTimeout),
		scheduler.WithBodyLock(&b.bodyMu),
		scheduler.WithLogger(logger),
	}
	return b
}

// Run starts monitoring, the Telegram listener and every extra runner, and
// blocks until ctx is cancelled or one of them fails. Monitoring is stopped
// before Run returns.
func (b *Bot) Run(ctx context.Context, runners ...Runner) error {
	b.logger.Info("Starting bot orchestrator...")

	if err := b.StartMonitoring(ctx); err != nil {
		return fmt.Errorf("failed to start monitoring: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener...")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped.")

			if gCtx.Err() == nil {
				b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
				return errors.New("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	for _, r := range runners {
		g.Go(func() error { return r.Run(gCtx) })
	}

	g.Go(func() error {
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping monitoring...")

		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.Telegram.RequestTimeout)
		defer cancel()
		if err := b.StopMonitoring(stopCtx); err != nil && !errors.Is(err, ErrNotRunning) {
			b.logger.Error("Error stopping monitoring", "error", err)
		}
		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
