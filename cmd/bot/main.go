// Package main contains the entrypoint for the crypto monitoring bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbot "github.com/go-telegram/bot"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/cryptowatch/internal/alert"
	"github.com/edgard/cryptowatch/internal/api"
	"github.com/edgard/cryptowatch/internal/bot"
	"github.com/edgard/cryptowatch/internal/bot/handlers"
	"github.com/edgard/cryptowatch/internal/bot/tasks"
	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/logger"
	"github.com/edgard/cryptowatch/internal/market"
	"github.com/edgard/cryptowatch/internal/news"
	"github.com/edgard/cryptowatch/internal/notify"
	"github.com/edgard/cryptowatch/internal/store"
	"github.com/edgard/cryptowatch/internal/telegram"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, runs the bot until ctx is cancelled and returns
// the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single check cycle and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON, "version", version)

	st, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Error("Failed to open state store", "driver", cfg.Store.Driver, "path", cfg.Store.Path, "error", err)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close state store", "error", err)
		}
	}()

	clock := clockwork.NewRealClock()
	coingecko := market.NewCoinGecko(cfg.CoinGecko, log)
	prices := market.NewCached(coingecko, st, log)

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, tgbot.WithMiddlewares(logger.Middleware(log)))
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	notifier := notify.NewReporting(telegram.NewNotifier(tg, cfg.Telegram.UserID, cfg.Telegram.RequestTimeout, log), st, log)

	deps := tasks.TaskDeps{
		Logger:   log,
		Config:   cfg,
		Store:    st,
		Clock:    clock,
		Prices:   prices,
		History:  coingecko,
		Notifier: notifier,
		Alerts:   alert.NewEvaluator(st, notifier, cfg.Monitor.PriceChangeThreshold, clock, log),
	}
	newsEnabled := cfg.CryptoPanic.Enabled()
	if newsEnabled {
		deps.News = market.NewCryptoPanic(cfg.CryptoPanic, log)
		deps.Dedup = news.NewDeduplicator(st, notifier, cfg.Monitor.NewsCap, cfg.Monitor.NewsSendGap, log)
	} else {
		log.Info("CryptoPanic API key not configured, news updates disabled")
	}

	if *once {
		if err := tasks.RunCheckCycle(ctx, deps); err != nil {
			log.Error("Check cycle failed", "error", err)
			return 1
		}
		return 0
	}

	app := bot.NewBot(log, cfg, st, deps, tg)

	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Store:   st,
		Monitor: app,
	}
	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	var runners []bot.Runner
	if cfg.HTTP.Enabled {
		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		runners = append(runners, api.NewServer(app, cfg, clock, newsEnabled, log))
	}

	log.Info("Starting bot...")
	runErr := app.Run(ctx, runners...)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
