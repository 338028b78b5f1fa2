package orchestrator

import (
	"context"
	"sync"

	"keel/internal/concurrency"
	"keel/internal/coordinate"
)

// ChangeGroup is a prepared batch. Commit runs it; Process exposes the
// graph for inspection before or after.
type ChangeGroup struct {
	requests  Batch
	process   *concurrency.Process
	scheduler *concurrency.Scheduler
	tasks     map[taskKey]*concurrency.Task

	once   sync.Once
	future *concurrency.Future
}

// Commit submits the process. Calling it again returns the same future.
func (g *ChangeGroup) Commit(ctx context.Context) *concurrency.Future {
	g.once.Do(func() {
		g.future = g.scheduler.Submit(ctx, g.process)
	})
	return g.future
}

// Process returns the process built for the batch.
func (g *ChangeGroup) Process() *concurrency.Process {
	return g.process
}

// Requests returns the batch the group was prepared from.
func (g *ChangeGroup) Requests() Batch {
	return append(Batch(nil), g.requests...)
}

// Task returns the task of the given kind for c, if the batch created one.
func (g *ChangeGroup) Task(kind Kind, c coordinate.Coordinate) (*concurrency.Task, bool) {
	t, ok := g.tasks[taskKey{kind: kind, coordinate: c}]
	return t, ok
}

// Waves returns the task graph leveled into waves.
func (g *ChangeGroup) Waves() ([][]*concurrency.Task, error) {
	return g.process.Graph().Waves()
}
