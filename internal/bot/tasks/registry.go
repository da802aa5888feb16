package tasks

import (
	"fmt"

	"github.com/edgard/cryptowatch/internal/scheduler"
)

// Task names, used in logs and the scheduler status.
const (
	TaskPriceAlerts     = "price_alerts"
	TaskDailyReport     = "daily_report"
	TaskDailyComparison = "daily_comparison"
	TaskNewsUpdates     = "news_updates"
)

// RegisterAllTasks builds every scheduled task in the order the scheduler
// should run them within a tick. The news task is included only when a news
// source is configured.
func RegisterAllTasks(deps TaskDeps) ([]*scheduler.Task, error) {
	mon := deps.Config.Monitor
	var out []*scheduler.Task

	add := func(t *scheduler.Task, err error) error {
		if err != nil {
			return err
		}
		out = append(out, t)
		return nil
	}

	if err := add(scheduler.NewPeriodic(TaskPriceAlerts, mon.CheckInterval, newPriceAlertTask(deps))); err != nil {
		return nil, fmt.Errorf("failed to build %s task: %w", TaskPriceAlerts, err)
	}
	if err := add(scheduler.NewHourly(TaskDailyReport, mon.DailyReportHours, mon.DailyReportMinute, newDailyReportTask(deps))); err != nil {
		return nil, fmt.Errorf("failed to build %s task: %w", TaskDailyReport, err)
	}
	if err := add(scheduler.NewDaily(TaskDailyComparison, mon.DailyComparisonHour, mon.DailyComparisonMinute, newDailyComparisonTask(deps))); err != nil {
		return nil, fmt.Errorf("failed to build %s task: %w", TaskDailyComparison, err)
	}
	if deps.News != nil && deps.Dedup != nil {
		if err := add(scheduler.NewPeriodic(TaskNewsUpdates, mon.NewsInterval, newNewsTask(deps))); err != nil {
			return nil, fmt.Errorf("failed to build %s task: %w", TaskNewsUpdates, err)
		}
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(out))
	return out, nil
}
