package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

// ErrNoComparisonPrices is returned when no asset has a price to compare.
// The date is left unmarked so a later tick in the same minute retries.
var ErrNoComparisonPrices = errors.New("no prices available for daily comparison")

// newDailyComparisonTask compares today's prices with the snapshot taken at
// the previous comparison, then snapshots today's prices for tomorrow. The
// snapshot is taken whether or not the message was delivered.
//
// The baseline read on the first attempt of a date is kept in memory, so a
// retry after a failed send still compares against yesterday rather than
// against the snapshot the failed attempt just wrote.
func newDailyComparisonTask(deps TaskDeps) scheduler.RunFunc {
	log := deps.Logger.With("task", TaskDailyComparison)
	loc := deps.Config.Location()

	var (
		mu           sync.Mutex
		baselineDate string
		baselineByID map[string]float64
	)

	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()

		now := deps.Clock.Now().In(loc)
		today := now.Format("2006-01-02")
		if deps.Store.String(store.KeyLastDailyComparison, "") == today {
			log.DebugContext(ctx, "Daily comparison already sent", "date", today)
			return nil
		}

		if baselineDate != today {
			baselineByID = make(map[string]float64, len(deps.Config.Monitor.Assets))
			for _, a := range deps.Config.Monitor.Assets {
				if y, ok := deps.Store.Float(store.YesterdayPriceKey(a.ID)); ok && y > 0 {
					baselineByID[a.ID] = y
				}
			}
			baselineDate = today
		}

		lines := make([]comparisonLine, 0, len(deps.Config.Monitor.Assets))
		snapshot := make(map[string]any, len(deps.Config.Monitor.Assets))
		for _, a := range deps.Config.Monitor.Assets {
			q, ok := deps.Prices.Quote(ctx, a.ID)
			if !ok {
				log.WarnContext(ctx, "No price available, leaving asset out of comparison", "asset", a.ID)
				continue
			}
			lines = append(lines, comparisonLine{symbol: a.Symbol, today: q.Value, yesterday: baselineByID[a.ID]})
			snapshot[store.YesterdayPriceKey(a.ID)] = q.Value
		}

		if len(lines) == 0 {
			return ErrNoComparisonPrices
		}

		sendErr := deps.Notifier.Send(ctx, dailyComparisonMessage(lines, now))
		if sendErr == nil {
			if err := deps.Store.Set(ctx, store.KeyLastDailyComparison, today); err != nil {
				log.WarnContext(ctx, "Failed to store daily comparison marker", "error", err)
			}
			log.InfoContext(ctx, "Daily comparison sent", "date", today)
		}

		if len(snapshot) > 0 {
			if err := deps.Store.Update(ctx, snapshot); err != nil {
				log.WarnContext(ctx, "Failed to store price snapshot", "error", err)
			}
		}

		if sendErr != nil {
			return fmt.Errorf("send daily comparison: %w", sendErr)
		}
		return nil
	}
}
