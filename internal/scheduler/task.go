package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// dateLayout keys Daily and Hourly run markers by calendar date.
const dateLayout = "2006-01-02"

// hourlyRetentionDays is how many calendar days of Hourly run markers are kept.
const hourlyRetentionDays = 7

// Kind names a trigger shape.
type Kind string

const (
	KindPeriodic Kind = "periodic"
	KindDaily    Kind = "daily"
	KindHourly   Kind = "hourly"
)

// RunFunc is a task body. A nil return commits the task's run marker.
type RunFunc func(ctx context.Context) error

// Trigger decides when a task is due. The set of triggers is closed:
// Periodic, Daily and Hourly are the only implementations.
type Trigger interface {
	Kind() Kind
	sealed()
}

// Periodic fires once Interval has elapsed since the last successful run,
// and immediately when the task has never succeeded.
type Periodic struct {
	Interval time.Duration
	LastRun  time.Time
}

// Daily fires during the minute Hour:Minute at most once per calendar date.
type Daily struct {
	Hour        int
	Minute      int
	LastRunDate string
}

// Hourly fires during minute Minute of every hour listed in Hours, at most
// once per (date, hour).
type Hourly struct {
	Hours  []int
	Minute int

	seen map[slot]time.Time
}

type slot struct {
	date string
	hour int
}

func (*Periodic) Kind() Kind { return KindPeriodic }
func (*Daily) Kind() Kind    { return KindDaily }
func (*Hourly) Kind() Kind   { return KindHourly }

func (*Periodic) sealed() {}
func (*Daily) sealed()    {}
func (*Hourly) sealed()   {}

// Task is a named body plus the trigger that schedules it.
type Task struct {
	Name    string
	Run     RunFunc
	Trigger Trigger
}

var errInvalidTask = errors.New("invalid task")

// NewPeriodic builds a task that runs every interval.
func NewPeriodic(name string, interval time.Duration, run RunFunc) (*Task, error) {
	if err := validateBase(name, run); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w %q: interval must be positive, got %s", errInvalidTask, name, interval)
	}
	return &Task{Name: name, Run: run, Trigger: &Periodic{Interval: interval}}, nil
}

// NewDaily builds a task that runs once a day at hour:minute.
func NewDaily(name string, hour, minute int, run RunFunc) (*Task, error) {
	if err := validateBase(name, run); err != nil {
		return nil, err
	}
	if err := validateTime(name, hour, minute); err != nil {
		return nil, err
	}
	return &Task{Name: name, Run: run, Trigger: &Daily{Hour: hour, Minute: minute}}, nil
}

// NewHourly builds a task that runs at minute past each of hours.
// Duplicate hours are collapsed.
func NewHourly(name string, hours []int, minute int, run RunFunc) (*Task, error) {
	if err := validateBase(name, run); err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("%w %q: hours must not be empty", errInvalidTask, name)
	}
	for _, h := range hours {
		if err := validateTime(name, h, minute); err != nil {
			return nil, err
		}
	}
	sorted := slices.Clone(hours)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	return &Task{
		Name:    name,
		Run:     run,
		Trigger: &Hourly{Hours: sorted, Minute: minute, seen: make(map[slot]time.Time)},
	}, nil
}

func validateBase(name string, run RunFunc) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", errInvalidTask)
	}
	if run == nil {
		return fmt.Errorf("%w %q: body must not be nil", errInvalidTask, name)
	}
	return nil
}

func validateTime(name string, hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w %q: hour %d out of range 0-23", errInvalidTask, name, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w %q: minute %d out of range 0-59", errInvalidTask, name, minute)
	}
	return nil
}

// due reports whether t should run at now.
func due(t Trigger, now time.Time) bool {
	switch tr := t.(type) {
	case *Periodic:
		return tr.LastRun.IsZero() || now.Sub(tr.LastRun) >= tr.Interval
	case *Daily:
		return now.Hour() == tr.Hour && now.Minute() == tr.Minute && tr.LastRunDate != now.Format(dateLayout)
	case *Hourly:
		if now.Minute() != tr.Minute || !slices.Contains(tr.Hours, now.Hour()) {
			return false
		}
		_, done := tr.seen[slot{date: now.Format(dateLayout), hour: now.Hour()}]
		return !done
	default:
		panic(fmt.Sprintf("scheduler: unhandled trigger %T", t))
	}
}

// commit records a successful run. tickAt is the time the task was found due
// and keys the Daily and Hourly markers; finishedAt stamps Periodic runs.
func commit(t Trigger, tickAt, finishedAt time.Time) {
	switch tr := t.(type) {
	case *Periodic:
		tr.LastRun = finishedAt
	case *Daily:
		tr.LastRunDate = tickAt.Format(dateLayout)
	case *Hourly:
		if tr.seen == nil {
			tr.seen = make(map[slot]time.Time)
		}
		tr.seen[slot{date: tickAt.Format(dateLayout), hour: tickAt.Hour()}] = finishedAt
		tr.prune(tickAt)
	default:
		panic(fmt.Sprintf("scheduler: unhandled trigger %T", t))
	}
}

// prune drops markers dated more than the retention window before now.
func (h *Hourly) prune(now time.Time) {
	cutoff := now.AddDate(0, 0, -hourlyRetentionDays).Format(dateLayout)
	for s := range h.seen {
		if s.date < cutoff {
			delete(h.seen, s)
		}
	}
}

// runsOn counts markers recorded for date.
func (h *Hourly) runsOn(date string) int {
	n := 0
	for s := range h.seen {
		if s.date == date {
			n++
		}
	}
	return n
}
