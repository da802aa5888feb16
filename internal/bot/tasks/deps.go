// Package tasks implements the bot's scheduled task bodies: price alerts,
// daily reports, the daily comparison and news forwarding.
package tasks

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/cryptowatch/internal/alert"
	"github.com/edgard/cryptowatch/internal/config"
	"github.com/edgard/cryptowatch/internal/market"
	"github.com/edgard/cryptowatch/internal/news"
	"github.com/edgard/cryptowatch/internal/notify"
	"github.com/edgard/cryptowatch/internal/store"
)

// QuoteSource returns a fresh or cached price. ok is false when neither exists.
type QuoteSource interface {
	Quote(ctx context.Context, assetID string) (q market.Quote, ok bool)
}

// HistorySource returns the latest price and the price 24 hours ago.
type HistorySource interface {
	History24h(ctx context.Context, assetID string) (current, dayAgo float64, err error)
}

// NewsSource returns the latest headlines.
type NewsSource interface {
	FetchRecent(ctx context.Context) ([]news.Item, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
// News and Dedup are nil when news forwarding is disabled.
type TaskDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    *store.Store
	Clock    clockwork.Clock
	Prices   QuoteSource
	History  HistorySource
	News     NewsSource
	Notifier notify.Notifier
	Alerts   *alert.Evaluator
	Dedup    *news.Deduplicator
}
