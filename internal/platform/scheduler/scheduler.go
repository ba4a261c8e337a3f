// Package scheduler runs recurring background sweeps with a single-flight
// guard: a tick that fires while the previous run is still going is skipped,
// never queued.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Func is one run of a task. It must honour ctx cancellation.
type Func func(ctx context.Context) error

// Observer receives run and skip notifications; *metrics.Metrics satisfies it.
type Observer interface {
	IncTaskSkipped(task string)
	ObserveTask(task string, d time.Duration)
}

type Task struct {
	name     string
	interval time.Duration
	fn       Func
	logger   *slog.Logger
	observer Observer

	running atomic.Bool
	skipped atomic.Int64
	runs    atomic.Int64
	wg      sync.WaitGroup
}

type Option func(*Task)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Task) { t.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(t *Task) { t.observer = o }
}

func New(name string, interval time.Duration, fn Func, opts ...Option) *Task {
	t := &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Task) Name() string { return t.name }

// Skipped returns how many ticks were dropped because a run was in flight.
func (t *Task) Skipped() int64 { return t.skipped.Load() }

// Runs returns how many runs started.
func (t *Task) Runs() int64 { return t.runs.Load() }

// Run ticks until ctx is cancelled, then waits for an in-flight run to
// observe the cancellation and return. It always returns nil so it can sit
// in an errgroup without tearing the process down on shutdown.
func (t *Task) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.InfoContext(ctx, "scheduler started", "task", t.name, "interval", t.interval.String())
	for {
		select {
		case <-ctx.Done():
			t.wg.Wait()
			t.logger.InfoContext(context.WithoutCancel(ctx), "scheduler stopped", "task", t.name)
			return nil
		case <-ticker.C:
			if !t.running.CompareAndSwap(false, true) {
				t.skip(ctx)
				continue
			}
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				defer t.running.Store(false)
				t.execute(ctx)
			}()
		}
	}
}

// TryRun executes one run synchronously under the same guard the ticker
// uses. It reports false when another run was already in flight.
func (t *Task) TryRun(ctx context.Context) bool {
	ran, _ := t.Exclusive(ctx, t.fn)
	return ran
}

// Exclusive runs fn in place of the task's own function, under the guard
// the ticker uses, and returns its error. ran is false, and fn is not
// called, when another run was already in flight.
func (t *Task) Exclusive(ctx context.Context, fn Func) (ran bool, err error) {
	if !t.running.CompareAndSwap(false, true) {
		t.skip(ctx)
		return false, nil
	}
	defer t.running.Store(false)
	return true, t.measure(ctx, fn)
}

func (t *Task) skip(ctx context.Context) {
	t.skipped.Add(1)
	if t.observer != nil {
		t.observer.IncTaskSkipped(t.name)
	}
	t.logger.WarnContext(ctx, "scheduler run skipped, previous run still active", "task", t.name)
}

func (t *Task) execute(ctx context.Context) {
	_ = t.measure(ctx, t.fn)
}

func (t *Task) measure(ctx context.Context, fn Func) error {
	t.runs.Add(1)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if t.observer != nil {
		t.observer.ObserveTask(t.name, elapsed)
	}
	if err != nil && ctx.Err() == nil {
		t.logger.ErrorContext(ctx, "scheduled run failed",
			"task", t.name,
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
		)
		return err
	}
	t.logger.DebugContext(ctx, "scheduled run finished",
		"task", t.name,
		"duration_ms", elapsed.Milliseconds(),
	)
	return err
}
