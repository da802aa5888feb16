package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

// newDailyReportTask sends the report asset's price at each report hour.
// The last_daily_report marker ("<date>-<hour>") makes the report
// idempotent across restarts. Callers must not run two bodies at once: the
// marker is read before the send and written after it.
func newDailyReportTask(deps TaskDeps) scheduler.RunFunc {
	log := deps.Logger.With("task", TaskDailyReport)
	mon := deps.Config.Monitor
	loc := deps.Config.Location()

	return func(ctx context.Context) error {
		now := deps.Clock.Now().In(loc)
		if !slices.Contains(mon.DailyReportHours, now.Hour()) {
			return nil
		}
		marker := fmt.Sprintf("%s-%d", now.Format("2006-01-02"), now.Hour())
		if deps.Store.String(store.KeyLastDailyReport, "") == marker {
			log.DebugContext(ctx, "Daily report already sent", "slot", marker)
			return nil
		}

		asset, _ := mon.AssetByID(mon.ReportAsset)
		q, ok := deps.Prices.Quote(ctx, asset.ID)
		if !ok {
			log.WarnContext(ctx, "No price available for daily report", "asset", asset.ID)
			return nil
		}

		var change *change24h
		if current, dayAgo, err := deps.History.History24h(ctx, asset.ID); err != nil {
			log.WarnContext(ctx, "Failed to fetch 24h history, sending report without it", "asset", asset.ID, "error", err)
		} else {
			change = &change24h{current: current, dayAgo: dayAgo}
		}

		if err := deps.Notifier.Send(ctx, dailyReportMessage(asset.Symbol, q.Value, change, now)); err != nil {
			return fmt.Errorf("send daily report: %w", err)
		}
		if err := deps.Store.Set(ctx, store.KeyLastDailyReport, marker); err != nil {
			log.WarnContext(ctx, "Failed to store daily report marker", "error", err)
		}
		log.InfoContext(ctx, "Daily report sent", "slot", marker, "cached_price", q.Cached)
		return nil
	}
}
