package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/cryptowatch/internal/bot"
	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

// Monitor is the part of the application context the command handlers drive.
type Monitor interface {
	Running() bool
	Status() scheduler.Status
	Prices(ctx context.Context) []bot.AssetPrice
	RunCheckCycle(ctx context.Context) error
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   *store.Store
	Monitor Monitor
}
