package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/cryptowatch/internal/scheduler"
	"github.com/edgard/cryptowatch/internal/store"
)

type cycleStep struct {
	name string
	run  scheduler.RunFunc
}

// RunCheckCycle runs price alerts, the daily report and (when enabled) news
// once, outside the scheduler. The daily report still honours its marker and
// only fires during a report hour. When every step succeeds any stale
// last_error is cleared.
func RunCheckCycle(ctx context.Context, deps TaskDeps) error {
	log := deps.Logger.With("task", "check_cycle")
	log.InfoContext(ctx, "Running check cycle", "at", deps.Clock.Now().Format("2006-01-02 15:04:05"))

	steps := []cycleStep{
		{TaskPriceAlerts, newPriceAlertTask(deps)},
		{TaskDailyReport, newDailyReportTask(deps)},
	}
	if deps.News != nil && deps.Dedup != nil {
		steps = append(steps, cycleStep{TaskNewsUpdates, newNewsTask(deps)})
	}

	var errs []error
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		log.ErrorContext(ctx, "Check cycle finished with errors", "error", err)
		return err
	}

	if deps.Store.String(store.KeyLastError, "") != "" {
		if err := deps.Store.Set(ctx, store.KeyLastError, ""); err != nil {
			log.WarnContext(ctx, "Failed to clear last error", "error", err)
		}
	}
	log.InfoContext(ctx, "Check cycle finished")
	return nil
}
