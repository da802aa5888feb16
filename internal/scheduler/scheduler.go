// Package scheduler runs the bot's periodic, daily and hourly tasks from a
// single control loop.
//
// Every tick the loop evaluates each task's trigger against the current
// wall-clock time and runs due bodies one after another in registration
// order. A task's run marker is committed only when its body returns nil, so
// a failed run is retried the next time its trigger matches. Errors and
// panics from a body are logged and never reach the loop or other tasks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/cryptowatch/internal/logger"
)

var (
	// ErrAlreadyStarted is returned when registering or starting after Start.
	ErrAlreadyStarted = errors.New("scheduler already started")
	// ErrStopTimeout is returned by Stop when the running tick did not finish in time.
	ErrStopTimeout = errors.New("scheduler stop timed out")
	// ErrTaskPanic wraps a panic recovered from a task body.
	ErrTaskPanic = errors.New("task panicked")
)

const (
	defaultTick        = time.Second
	defaultStopTimeout = 5 * time.Second
)

// Scheduler owns the task registry and the control loop.
type Scheduler struct {
	clock       clockwork.Clock
	loc         *time.Location
	tick        time.Duration
	stopTimeout time.Duration
	log         *slog.Logger

	// mu serializes Register, Start and Stop.
	mu      sync.Mutex
	tasks   []*Task
	started bool
	cron    gocron.Scheduler
	cancel  context.CancelFunc

	// stateMu guards trigger markers. bodyMu serializes ticks and may be
	// shared with other schedulers and callers outside the loop.
	stateMu sync.Mutex
	bodyMu  sync.Locker
	running atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLocation sets the time zone triggers are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithTick sets the control loop period.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithStopTimeout bounds how long Stop waits for a running tick.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// WithBodyLock makes ticks hold l instead of a private mutex. Schedulers and
// callers sharing l never run task bodies at the same time.
func WithBodyLock(l sync.Locker) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.bodyMu = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a stopped scheduler with no tasks.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:       clockwork.NewRealClock(),
		loc:         time.Local,
		tick:        defaultTick,
		stopTimeout: defaultStopTimeout,
		log:         slog.Default(),
		bodyMu:      &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "scheduler")
	return s
}

// Register adds a task. Tasks can only be added before Start.
func (s *Scheduler) Register(task *Task) error {
	if task == nil || task.Trigger == nil || task.Run == nil {
		return fmt.Errorf("%w: task, trigger and body are required", errInvalidTask)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	for _, t := range s.tasks {
		if t.Name == task.Name {
			return fmt.Errorf("%w: duplicate task name %q", errInvalidTask, task.Name)
		}
	}

	s.tasks = append(s.tasks, task)
	s.log.Debug("Registered task", "task", task.Name, "kind", task.Trigger.Kind())
	return nil
}

// Start launches the control loop. The first tick runs immediately.
// The loop keeps running until Stop is called; ctx is handed to task bodies
// and is cancelled on Stop only after the running tick has finished.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	cron, err := gocron.NewScheduler(
		gocron.WithClock(s.clock),
		gocron.WithLocation(s.loc),
		gocron.WithLogger(logger.NewGocronLogger(s.log)),
		gocron.WithStopTimeout(s.stopTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	_, err = cron.NewJob(
		gocron.DurationJob(s.tick),
		gocron.NewTask(func() { s.runTick(runCtx) }),
		gocron.WithName("control-loop"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = cron.Shutdown()
		return fmt.Errorf("failed to schedule control loop: %w", err)
	}

	s.cron = cron
	s.cancel = cancel
	s.started = true
	s.running.Store(true)
	cron.Start()

	s.log.Info("Scheduler started", "tasks", len(s.tasks), "tick", s.tick, "location", s.loc.String())
	return nil
}

// Stop ends the control loop and waits up to the stop timeout for the
// running tick. A body still running after the timeout is left to finish on
// its own, its context is cancelled once it returns, and ErrStopTimeout is
// returned. Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Swap(false) {
		return nil
	}

	s.log.Debug("Stopping scheduler...")
	err := s.cron.Shutdown()
	if err != nil {
		if errors.Is(err, gocron.ErrStopJobsTimedOut) ||
			errors.Is(err, gocron.ErrStopExecutorTimedOut) ||
			errors.Is(err, gocron.ErrStopSchedulerTimedOut) {
			s.log.Warn("Scheduler stop timed out, running task left to finish", "timeout", s.stopTimeout)
			go s.cancelAfterTick(s.cancel)
			return fmt.Errorf("%w after %s", ErrStopTimeout, s.stopTimeout)
		}
		s.cancel()
		s.log.Error("Error during scheduler shutdown", "error", err)
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	s.cancel()
	s.log.Info("Scheduler stopped")
	return nil
}

// cancelAfterTick waits for the tick holding the body lock, then cancels.
func (s *Scheduler) cancelAfterTick(cancel context.CancelFunc) {
	s.bodyMu.Lock()
	s.bodyMu.Unlock()
	cancel()
	s.log.Debug("Timed out task finished, run context cancelled")
}

// Running reports whether the control loop is active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// RunNow performs one synchronous tick regardless of whether the loop is
// running.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.tickOnce(ctx, false)
}

// runTick is the control loop body.
func (s *Scheduler) runTick(ctx context.Context) {
	if !s.running.Load() {
		return
	}
	s.tickOnce(ctx, true)
}

func (s *Scheduler) tickOnce(ctx context.Context, fromLoop bool) {
	s.bodyMu.Lock()
	defer s.bodyMu.Unlock()

	s.mu.Lock()
	tasks := append([]*Task(nil), s.tasks...)
	s.mu.Unlock()

	now := s.clock.Now().In(s.loc)
	for _, task := range tasks {
		if fromLoop && !s.running.Load() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		s.stateMu.Lock()
		isDue := due(task.Trigger, now)
		s.stateMu.Unlock()
		if !isDue {
			continue
		}

		if err := s.execute(ctx, task); err != nil {
			continue
		}

		s.stateMu.Lock()
		commit(task.Trigger, now, s.clock.Now().In(s.loc))
		s.stateMu.Unlock()
	}
}

// execute runs one body, converting a panic into ErrTaskPanic.
func (s *Scheduler) execute(ctx context.Context, task *Task) (err error) {
	log := s.log.With("task", task.Name)
	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
			log.Error("Task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	log.Debug("Running task")
	if err = task.Run(ctx); err != nil {
		log.Error("Task failed", "error", err, "duration", s.clock.Since(start))
		return err
	}
	log.Debug("Finished task", "duration", s.clock.Since(start))
	return nil
}
