package tasks

import (
	"context"
	"errors"

	"github.com/edgard/cryptowatch/internal/scheduler"
)

// newPriceAlertTask checks every tracked asset against its last price.
// Cached quotes are never evaluated, so a stale price cannot fire or move
// the baseline.
func newPriceAlertTask(deps TaskDeps) scheduler.RunFunc {
	log := deps.Logger.With("task", TaskPriceAlerts)

	return func(ctx context.Context) error {
		var errs []error
		for _, asset := range deps.Config.Monitor.Assets {
			q, ok := deps.Prices.Quote(ctx, asset.ID)
			if !ok {
				log.WarnContext(ctx, "No price available, skipping asset", "asset", asset.ID)
				continue
			}
			if q.Cached {
				log.InfoContext(ctx, "Only a cached price is available, skipping alert check", "asset", asset.ID, "price", q.Value)
				continue
			}

			if _, err := deps.Alerts.Check(ctx, asset, q.Value); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
