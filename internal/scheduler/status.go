package scheduler

import (
	"fmt"
	"slices"
	"time"
)

// Status is a point-in-time view of the scheduler for dashboards.
type Status struct {
	Running    bool         `json:"running"`
	TotalTasks int          `json:"total_tasks"`
	Tasks      []TaskStatus `json:"tasks"`
}

// TaskStatus describes one task. Which fields are set depends on Kind.
type TaskStatus struct {
	Name string `json:"name"`
	Kind Kind   `json:"type"`

	// Periodic
	Interval string     `json:"interval,omitempty"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`

	// Daily
	Time        string `json:"time,omitempty"`
	LastRunDate string `json:"last_run_date,omitempty"`

	// Hourly
	Hours     []int `json:"hours,omitempty"`
	Minute    int   `json:"minute,omitempty"`
	RunsToday int   `json:"runs_today,omitempty"`
}

// Status snapshots every registered task.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	tasks := append([]*Task(nil), s.tasks...)
	s.mu.Unlock()

	today := s.clock.Now().In(s.loc).Format(dateLayout)

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	out := Status{
		Running:    s.running.Load(),
		TotalTasks: len(tasks),
		Tasks:      make([]TaskStatus, 0, len(tasks)),
	}
	for _, t := range tasks {
		ts := TaskStatus{Name: t.Name, Kind: t.Trigger.Kind()}
		switch tr := t.Trigger.(type) {
		case *Periodic:
			ts.Interval = tr.Interval.String()
			if !tr.LastRun.IsZero() {
				last := tr.LastRun
				next := last.Add(tr.Interval)
				ts.LastRun, ts.NextRun = &last, &next
			}
		case *Daily:
			ts.Time = fmt.Sprintf("%02d:%02d", tr.Hour, tr.Minute)
			ts.LastRunDate = tr.LastRunDate
			if ts.LastRunDate == "" {
				ts.LastRunDate = "never"
			}
		case *Hourly:
			ts.Hours = slices.Clone(tr.Hours)
			ts.Minute = tr.Minute
			ts.RunsToday = tr.runsOn(today)
		default:
			panic(fmt.Sprintf("scheduler: unhandled trigger %T", t.Trigger))
		}
		out.Tasks = append(out.Tasks, ts)
	}
	return out
}
