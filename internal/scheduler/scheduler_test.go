package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/cryptowatch/internal/logger"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newTestScheduler(t *testing.T, start time.Time) (*Scheduler, fakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(start)
	s := New(WithClock(clock), WithLocation(time.UTC), WithLogger(logger.Discard()))
	return s, clock
}

func counting(n *atomic.Int32) RunFunc {
	return func(context.Context) error {
		n.Add(1)
		return nil
	}
}

func mustRegister(t *testing.T, s *Scheduler, task *Task, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("building task: %v", err)
	}
	if err := s.Register(task); err != nil {
		t.Fatalf("Register(%s) error = %v", task.Name, err)
	}
}

func TestPeriodicInterval(t *testing.T) {
	t.Parallel()

	s, clock := newTestScheduler(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	var runs atomic.Int32
	task, err := NewPeriodic("price_alerts", 30*time.Second, counting(&runs))
	mustRegister(t, s, task, err)
	ctx := context.Background()

	s.RunNow(ctx)
	if got := runs.Load(); got != 1 {
		t.Fatalf("runs at t=0 = %d, want 1", got)
	}

	clock.Advance(29 * time.Second)
	s.RunNow(ctx)
	if got := runs.Load(); got != 1 {
		t.Fatalf("runs at t=29s = %d, want 1", got)
	}

	clock.Advance(2 * time.Second)
	s.RunNow(ctx)
	if got := runs.Load(); got != 2 {
		t.Fatalf("runs at t=31s = %d, want 2", got)
	}
}

func TestDailyRunsOncePerDate(t *testing.T) {
	t.Parallel()

	s, clock := newTestScheduler(t, time.Date(2024, 5, 1, 7, 59, 0, 0, time.UTC))
	var runs atomic.Int32
	task, err := NewDaily("daily_comparison", 8, 0, counting(&runs))
	mustRegister(t, s, task, err)
	ctx := context.Background()

	steps := []struct {
		advance time.Duration
		want    int32
	}{
		{advance: 0, want: 0},                          // 07:59:00
		{advance: time.Minute, want: 1},                // 08:00:00
		{advance: 30 * time.Second, want: 1},           // 08:00:30
		{advance: 30 * time.Second, want: 1},           // 08:01:00
		{advance: 24*time.Hour - time.Minute, want: 2}, // next day 08:00:00
		{advance: 59 * time.Second, want: 2},           // next day 08:00:59
	}
	for i, step := range steps {
		clock.Advance(step.advance)
		s.RunNow(ctx)
		if got := runs.Load(); got != step.want {
			t.Fatalf("step %d at %s: runs = %d, want %d", i, clock.Now().Format(time.TimeOnly), got, step.want)
		}
	}
}

func TestHourlyRunsOncePerListedHourOverTwoDays(t *testing.T) {
	t.Parallel()

	s, clock := newTestScheduler(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	var runs atomic.Int32
	task, err := NewHourly("daily_report", []int{8, 12, 16, 20}, 0, counting(&runs))
	mustRegister(t, s, task, err)
	ctx := context.Background()

	for range 2 * 24 * 60 {
		s.RunNow(ctx)
		clock.Advance(30 * time.Second)
		s.RunNow(ctx)
		clock.Advance(30 * time.Second)
	}

	if got := runs.Load(); got != 8 {
		t.Errorf("runs over two days = %d, want 8", got)
	}
}

func TestHourlyPrunesOldMarkers(t *testing.T) {
	t.Parallel()

	task, err := NewHourly("daily_report", []int{8}, 0, func(context.Context) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	h := task.Trigger.(*Hourly)
	day := func(d int) time.Time { return time.Date(2024, 5, d, 8, 0, 0, 0, time.UTC) }

	commit(h, day(1), day(1))
	commit(h, day(8), day(8))
	if len(h.seen) != 2 {
		t.Fatalf("markers after 7 days = %d, want 2 (day 1 still within window)", len(h.seen))
	}

	commit(h, day(9), day(9))
	if len(h.seen) != 2 {
		t.Fatalf("markers after 8 days = %d, want 2", len(h.seen))
	}
	if _, ok := h.seen[slot{date: "2024-05-01", hour: 8}]; ok {
		t.Error("marker for 2024-05-01 not pruned")
	}
}

func TestFailedRunIsRetried(t *testing.T) {
	t.Parallel()

	s, clock := newTestScheduler(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	var calls atomic.Int32
	task, err := NewDaily("daily_comparison", 8, 0, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("telegram unavailable")
		}
		return nil
	})
	mustRegister(t, s, task, err)
	ctx := context.Background()

	s.RunNow(ctx)
	if got := task.Trigger.(*Daily).LastRunDate; got != "" {
		t.Fatalf("LastRunDate after failure = %q, want empty", got)
	}

	clock.Advance(20 * time.Second)
	s.RunNow(ctx)
	if got := task.Trigger.(*Daily).LastRunDate; got != "2024-05-01" {
		t.Fatalf("LastRunDate after success = %q, want 2024-05-01", got)
	}

	clock.Advance(20 * time.Second)
	s.RunNow(ctx)
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestPanicIsIsolated(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	bad, err := NewPeriodic("bad", time.Minute, func(context.Context) error { panic("boom") })
	mustRegister(t, s, bad, err)
	var runs atomic.Int32
	good, err := NewPeriodic("good", time.Minute, counting(&runs))
	mustRegister(t, s, good, err)

	s.RunNow(context.Background())

	if got := runs.Load(); got != 1 {
		t.Errorf("task after panicking task ran %d times, want 1", got)
	}
	if !bad.Trigger.(*Periodic).LastRun.IsZero() {
		t.Error("panicking task marker committed")
	}
	if err := s.execute(context.Background(), bad); !errors.Is(err, ErrTaskPanic) {
		t.Errorf("execute(panicking) error = %v, want ErrTaskPanic", err)
	}
}

func TestConstructorValidation(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	tests := []struct {
		name  string
		build func() (*Task, error)
	}{
		{"empty name", func() (*Task, error) { return NewPeriodic("", time.Second, noop) }},
		{"nil body", func() (*Task, error) { return NewPeriodic("x", time.Second, nil) }},
		{"zero interval", func() (*Task, error) { return NewPeriodic("x", 0, noop) }},
		{"hour 24", func() (*Task, error) { return NewDaily("x", 24, 0, noop) }},
		{"minute 60", func() (*Task, error) { return NewDaily("x", 8, 60, noop) }},
		{"no hours", func() (*Task, error) { return NewHourly("x", nil, 0, noop) }},
		{"negative hour", func() (*Task, error) { return NewHourly("x", []int{8, -1}, 0, noop) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := tt.build(); !errors.Is(err, errInvalidTask) {
				t.Errorf("error = %v, want errInvalidTask", err)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	noop := func(context.Context) error { return nil }
	p, err := NewPeriodic("price_alerts", 30*time.Second, noop)
	mustRegister(t, s, p, err)
	d, err := NewDaily("daily_comparison", 8, 0, noop)
	mustRegister(t, s, d, err)
	h, err := NewHourly("daily_report", []int{20, 8, 8}, 0, noop)
	mustRegister(t, s, h, err)

	s.RunNow(context.Background())
	st := s.Status()

	if st.Running || st.TotalTasks != 3 {
		t.Fatalf("Status = running %v, total %d; want false, 3", st.Running, st.TotalTasks)
	}
	if got := st.Tasks[0]; got.Kind != KindPeriodic || got.NextRun == nil || got.NextRun.Sub(*got.LastRun) != 30*time.Second {
		t.Errorf("periodic status = %+v", got)
	}
	if got := st.Tasks[1]; got.Time != "08:00" || got.LastRunDate != "2024-05-01" {
		t.Errorf("daily status = %+v", got)
	}
	if got := st.Tasks[2]; got.RunsToday != 1 || len(got.Hours) != 2 || got.Hours[0] != 8 {
		t.Errorf("hourly status = %+v", got)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	t.Parallel()

	s := New(WithTick(100*time.Millisecond), WithLogger(logger.Discard()))
	ran := make(chan struct{}, 1)
	task, err := NewPeriodic("heartbeat", time.Hour, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	mustRegister(t, s, task, err)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
	extra, _ := NewPeriodic("late", time.Minute, func(context.Context) error { return nil })
	if err := s.Register(extra); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Register after Start error = %v, want ErrAlreadyStarted", err)
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run after Start")
	}
	if !s.Running() {
		t.Error("Running() = false after Start")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.Running() {
		t.Error("Running() = true after Stop")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}

func TestStopTimesOutOnStuckBody(t *testing.T) {
	t.Parallel()

	s := New(WithTick(100*time.Millisecond), WithStopTimeout(200*time.Millisecond), WithLogger(logger.Discard()))
	entered := make(chan context.Context, 1)
	release := make(chan struct{})
	task, err := NewPeriodic("stuck", time.Hour, func(ctx context.Context) error {
		entered <- ctx
		<-release
		return nil
	})
	mustRegister(t, s, task, err)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	var bodyCtx context.Context
	select {
	case bodyCtx = <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not start")
	}

	err = s.Stop()
	if !errors.Is(err, ErrStopTimeout) {
		t.Errorf("Stop() error = %v, want ErrStopTimeout", err)
	}
	if bodyCtx.Err() != nil {
		t.Error("body context cancelled while the body was still running")
	}

	close(release)
	select {
	case <-bodyCtx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("body context not cancelled after the timed-out body returned")
	}
}

func TestSharedBodyLockSerializesSchedulers(t *testing.T) {
	t.Parallel()

	var lock sync.Mutex
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	first := New(WithClock(clockwork.NewFakeClockAt(start)), WithBodyLock(&lock), WithLogger(logger.Discard()))
	second := New(WithClock(clockwork.NewFakeClockAt(start)), WithBodyLock(&lock), WithLogger(logger.Discard()))

	entered := make(chan struct{})
	release := make(chan struct{})
	slow, err := NewPeriodic("slow", time.Hour, func(context.Context) error {
		close(entered)
		<-release
		return nil
	})
	mustRegister(t, first, slow, err)

	var fastRuns atomic.Int32
	fast, err := NewPeriodic("fast", time.Hour, counting(&fastRuns))
	mustRegister(t, second, fast, err)

	ctx := context.Background()
	firstDone := make(chan struct{})
	go func() {
		first.RunNow(ctx)
		close(firstDone)
	}()
	<-entered

	secondDone := make(chan struct{})
	go func() {
		second.RunNow(ctx)
		close(secondDone)
	}()

	select {
	case <-secondDone:
		t.Fatal("second scheduler ticked while the first was running a body")
	case <-time.After(100 * time.Millisecond):
	}
	if got := fastRuns.Load(); got != 0 {
		t.Fatalf("fast runs while locked = %d, want 0", got)
	}

	close(release)
	<-firstDone
	select {
	case <-secondDone:
	case <-time.After(5 * time.Second):
		t.Fatal("second scheduler did not tick after the lock was released")
	}
	if got := fastRuns.Load(); got != 1 {
		t.Errorf("fast runs = %d, want 1", got)
	}
}
