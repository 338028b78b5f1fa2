package concurrency

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"keel/internal/events"
	"keel/pkg/logging"
)

var (
	tracer = otel.Tracer("keel.concurrency")
	meter  = otel.Meter("keel.concurrency")
)

// ErrDependencyFailed is the error recorded for a skipped task.
var ErrDependencyFailed = errors.New("dependency did not succeed")

// Config configures a Scheduler.
type Config struct {
	// MaxWorkers caps the number of tasks running at once across every
	// process of the scheduler. Zero selects GOMAXPROCS.
	MaxWorkers int

	// Sink receives process and task events. Nil discards them.
	Sink events.Sink
}

// Scheduler executes processes wave by wave.
type Scheduler struct {
	sem        *semaphore.Weighted
	maxWorkers int
	sink       events.Sink

	metricsOnce    sync.Once
	taskLatency    metric.Float64Histogram
	taskOutcomes   metric.Int64Counter
	activeTasks    metric.Int64UpDownCounter
	processLatency metric.Float64Histogram
}

// NewScheduler returns a scheduler configured by cfg.
func NewScheduler(cfg Config) *Scheduler {
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Discard
	}
	return &Scheduler{
		sem:        semaphore.NewWeighted(int64(workers)),
		maxWorkers: workers,
		sink:       sink,
	}
}

// MaxWorkers returns the concurrency limit.
func (s *Scheduler) MaxWorkers() int {
	return s.maxWorkers
}

func (s *Scheduler) initMetrics() {
	s.metricsOnce.Do(func() {
		var initErrors []error
		var err error

		s.taskLatency, err = meter.Float64Histogram("keel_task_duration_seconds",
			metric.WithDescription("Time spent executing each task"),
			metric.WithUnit("s"),
		)
		initErrors = append(initErrors, err)

		s.taskOutcomes, err = meter.Int64Counter("keel_task_outcomes_total",
			metric.WithDescription("Number of finished tasks by outcome"),
		)
		initErrors = append(initErrors, err)

		s.activeTasks, err = meter.Int64UpDownCounter("keel_active_tasks",
			metric.WithDescription("Number of currently executing tasks"),
		)
		initErrors = append(initErrors, err)

		s.processLatency, err = meter.Float64Histogram("keel_process_duration_seconds",
			metric.WithDescription("Total process execution time"),
			metric.WithUnit("s"),
		)
		initErrors = append(initErrors, err)

		if err := errors.Join(initErrors...); err != nil {
			logging.Error("Scheduler", err, "Failed to initialize some scheduler metrics")
		}
	})
}

// Submit starts p in the background and returns its future.
func (s *Scheduler) Submit(ctx context.Context, p *Process) *Future {
	ctx, cancel := context.WithCancel(ctx)
	f := newFuture(cancel)

	s.sink.Dispatch(events.KindProcessSubmitted, events.ProcessPayload{
		ProcessID: p.ID(),
		Name:      p.Name(),
		Tasks:     p.Graph().Len(),
	})

	go func() {
		defer cancel()
		f.complete(s.Run(ctx, p))
	}()
	return f
}

// Run executes p and blocks until every launched task has finished.
func (s *Scheduler) Run(ctx context.Context, p *Process) *ProcessResult {
	s.initMetrics()
	start := time.Now()
	result := newProcessResult(p)

	ctx, span := tracer.Start(ctx, "concurrency.Process",
		trace.WithAttributes(
			attribute.String("process.id", p.ID()),
			attribute.String("process.name", p.Name()),
			attribute.Int("process.task_count", p.Graph().Len()),
		),
	)
	defer span.End()

	waves, err := p.Graph().Waves()
	if err != nil {
		result.Status = ProcessFailed
		result.Cause = err
	} else {
		result.Waves = len(waves)
		s.runWaves(ctx, p, waves, result)
	}
	result.Duration = time.Since(start)

	if s.processLatency != nil {
		s.processLatency.Record(ctx, result.Duration.Seconds(),
			metric.WithAttributes(attribute.String("status", string(result.Status))),
		)
	}
	span.SetAttributes(attribute.String("process.status", string(result.Status)))
	if result.Succeeded() {
		span.SetStatus(codes.Ok, "")
		logging.Info("Scheduler", "Process %s (%s) succeeded: %d tasks in %d waves", p.Name(), p.ID(), p.Graph().Len(), result.Waves)
	} else {
		perr := result.Err()
		span.RecordError(perr)
		span.SetStatus(codes.Error, string(result.Status))
		logging.Error("Scheduler", perr, "Process %s (%s) finished with status %s", p.Name(), p.ID(), result.Status)
	}

	s.sink.Dispatch(events.KindProcessCompleted, events.ProcessPayload{
		ProcessID: p.ID(),
		Name:      p.Name(),
		Status:    string(result.Status),
		Tasks:     p.Graph().Len(),
		Err:       result.Err(),
	})
	return result
}

func (s *Scheduler) runWaves(ctx context.Context, p *Process, waves [][]*Task, result *ProcessResult) {
	aborted, cancelled := false, false
	for i, wave := range waves {
		if !aborted && ctx.Err() != nil {
			cancelled = true
			result.Cause = ctx.Err()
		}
		if aborted || cancelled {
			outcome := OutcomeNotStarted
			if cancelled {
				outcome = OutcomeCancelled
			}
			for _, t := range wave {
				result.record(&TaskResult{Task: t, Wave: i, Outcome: outcome})
			}
			continue
		}
		logging.Debug("Scheduler", "Process %s: launching wave %d/%d with %d tasks", p.ID(), i+1, len(waves), len(wave))
		aborted = s.runWave(ctx, p, i, wave, result)
	}
	result.finish(cancelled)
}

// runWave launches every runnable task of one wave and waits for all of
// them. It reports whether an unrecoverable failure occurred.
func (s *Scheduler) runWave(ctx context.Context, p *Process, index int, wave []*Task, result *ProcessResult) bool {
	var (
		mu      sync.Mutex
		g       errgroup.Group
		aborted atomic.Bool
	)

	for _, t := range wave {
		mu.Lock()
		blocker := failedDependency(p.Graph(), t, result)
		if blocker != nil {
			result.record(&TaskResult{
				Task:    t,
				Wave:    index,
				Outcome: OutcomeSkipped,
				Err:     fmt.Errorf("%w: %s", ErrDependencyFailed, blocker.Name()),
			})
		}
		mu.Unlock()

		if blocker != nil {
			logging.Warn("Scheduler", "Skipping task %s: dependency %s did not succeed", t.Name(), blocker.Name())
			s.dispatchTask(p, t, string(OutcomeSkipped), nil)
			continue
		}

		g.Go(func() error {
			tr := s.runTask(ctx, p, index, t, &aborted)
			mu.Lock()
			defer mu.Unlock()
			result.record(tr)
			if tr.Outcome == OutcomeFailed && StatusOf(tr.Err) == StatusUnrecoverable {
				aborted.Store(true)
			}
			return nil
		})
	}

	_ = g.Wait()
	return aborted.Load()
}

func failedDependency(tg *TaskGraph, t *Task, result *ProcessResult) *Task {
	for _, dep := range tg.Dependencies(t) {
		if result.Outcome(dep) != OutcomeSucceeded {
			return dep
		}
	}
	return nil
}

// runTask runs t once a worker is free. A task still waiting for a worker
// when a sibling fails unrecoverably is not started.
func (s *Scheduler) runTask(ctx context.Context, p *Process, wave int, t *Task, aborted *atomic.Bool) *TaskResult {
	tr := &TaskResult{Task: t, Wave: wave}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		tr.Outcome = OutcomeCancelled
		tr.Err = err
		s.dispatchTask(p, t, string(tr.Outcome), err)
		return tr
	}
	defer s.sem.Release(1)

	if aborted.Load() {
		tr.Outcome = OutcomeNotStarted
		logging.Debug("Scheduler", "Not starting task %s: process %s is aborting", t.Name(), p.ID())
		s.dispatchTask(p, t, string(tr.Outcome), nil)
		return tr
	}

	ctx, span := tracer.Start(ctx, t.Name(),
		trace.WithAttributes(
			attribute.String("task.name", t.Name()),
			attribute.String("process.id", p.ID()),
			attribute.Int("task.wave", wave),
		),
	)
	defer span.End()

	if s.activeTasks != nil {
		s.activeTasks.Add(ctx, 1)
		defer s.activeTasks.Add(ctx, -1)
	}

	s.dispatchTask(p, t, "Running", nil)
	start := time.Now()
	value, err := t.Run(ctx, p.Scope())
	tr.Duration = time.Since(start)

	if s.taskLatency != nil {
		s.taskLatency.Record(ctx, tr.Duration.Seconds(),
			metric.WithAttributes(attribute.String("task", t.Name())),
		)
	}

	switch {
	case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// The task gave up because the process was cancelled.
		tr.Outcome = OutcomeCancelled
		tr.Err = err
		span.SetStatus(codes.Error, err.Error())
		logging.Debug("Scheduler", "Task %s cancelled: %v", t.Name(), err)
	case err != nil:
		tr.Outcome = OutcomeFailed
		tr.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if IsRecoverable(err) {
			logging.Warn("Scheduler", "Task %s failed, skipping its dependents: %v", t.Name(), err)
		} else {
			logging.Error("Scheduler", err, "Task %s failed, aborting process %s", t.Name(), p.ID())
		}
	default:
		tr.Outcome = OutcomeSucceeded
		tr.Value = value
		span.SetStatus(codes.Ok, "")
	}

	if s.taskOutcomes != nil {
		s.taskOutcomes.Add(ctx, 1,
			metric.WithAttributes(attribute.String("outcome", string(tr.Outcome))),
		)
	}
	s.dispatchTask(p, t, string(tr.Outcome), err)
	return tr
}

func (s *Scheduler) dispatchTask(p *Process, t *Task, status string, err error) {
	s.sink.Dispatch(events.KindTaskStatusChanged, events.TaskPayload{
		ProcessID: p.ID(),
		Task:      t.Name(),
		Status:    status,
		Err:       err,
	})
}
