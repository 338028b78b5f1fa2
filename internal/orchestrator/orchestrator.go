package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"keel/internal/concurrency"
	"keel/internal/coordinate"
	"keel/internal/dag"
	"keel/internal/dependency"
	"keel/internal/module"
	"keel/pkg/logging"
)

// ProcessName is the name of every lifecycle change process.
const ProcessName = "module:lifecycle:change"

// Parameter keys set on every lifecycle task.
const (
	ParamCoordinate = "coordinate"
	ParamKind       = "kind"
)

var (
	// ErrEmptyBatch is returned for a batch without requests.
	ErrEmptyBatch = errors.New("empty change batch")

	// ErrMixedActions is returned when a batch mixes start and stop
	// family actions.
	ErrMixedActions = errors.New("change batch mixes start and stop actions")

	// ErrNotResolved is returned when activation is requested for a module
	// whose dependencies have not been resolved.
	ErrNotResolved = errors.New("module is not resolved")
)

// Actions performs the work behind each task kind. Implementations decide
// the severity of failures by returning concurrency.Recoverable errors
// where dependents should merely be skipped.
type Actions interface {
	ResolveModule(ctx context.Context, c coordinate.Coordinate) error
	StartModule(ctx context.Context, c coordinate.Coordinate) error
	StopModule(ctx context.Context, c coordinate.Coordinate) error
	RemoveModule(ctx context.Context, c coordinate.Coordinate) error
}

// Orchestrator builds change groups against a dependency graph.
type Orchestrator struct {
	graph     *dependency.Graph
	actions   Actions
	scheduler *concurrency.Scheduler
}

// New returns an orchestrator. Every collaborator is required.
func New(graph *dependency.Graph, actions Actions, scheduler *concurrency.Scheduler) *Orchestrator {
	return &Orchestrator{graph: graph, actions: actions, scheduler: scheduler}
}

// Prepare expands batch into a task graph wrapped in a process. Nothing
// runs until ChangeGroup.Commit.
func (o *Orchestrator) Prepare(batch Batch) (*ChangeGroup, error) {
	family, err := batch.Family()
	if err != nil {
		return nil, err
	}
	for _, r := range batch {
		m, ok := o.graph.Get(r.Coordinate)
		if !ok {
			return nil, fmt.Errorf("%w: %s", dependency.ErrNotFound, r.Coordinate)
		}
		if r.Action == module.ActionActivate && !m.State().IsResolved() {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotResolved, r.Coordinate, m.State())
		}
	}

	b := &builder{
		o:     o,
		graph: concurrency.NewTaskGraph(),
		tasks: make(map[taskKey]*concurrency.Task),
	}

	switch family {
	case module.FamilyStop:
		for _, r := range batch {
			if r.Action.IsAtLeast(module.ActionStop) {
				if err := b.materialize(KindStop, o.graph.Reverse(r.Coordinate, dependency.IsResolved)); err != nil {
					return nil, err
				}
			}
		}
		if err := b.removals(batch); err != nil {
			return nil, err
		}
	case module.FamilyStart:
		if err := b.resolutions(batch); err != nil {
			return nil, err
		}
		for _, r := range batch {
			if r.Action == module.ActionActivate {
				if err := b.materialize(KindStart, o.graph.Forward(r.Coordinate, dependency.IsResolved)); err != nil {
					return nil, err
				}
			}
		}
	}

	process := concurrency.NewProcess(ProcessName, b.graph)
	logging.Debug("Orchestrator", "Prepared process %s for [%s]: %d tasks", process.ID(), batch, b.graph.Len())

	return &ChangeGroup{
		requests:  append(Batch(nil), batch...),
		process:   process,
		scheduler: o.scheduler,
		tasks:     b.tasks,
	}, nil
}

type taskKey struct {
	kind       Kind
	coordinate coordinate.Coordinate
}

type builder struct {
	o     *Orchestrator
	graph *concurrency.TaskGraph
	tasks map[taskKey]*concurrency.Task
}

// task returns the task for (kind, c), creating it on first use.
func (b *builder) task(kind Kind, c coordinate.Coordinate) *concurrency.Task {
	key := taskKey{kind: kind, coordinate: c}
	if t, ok := b.tasks[key]; ok {
		return t
	}
	t := concurrency.NewTask(TaskName(kind, c), func(ctx context.Context, scope *concurrency.Scope) (concurrency.Value, error) {
		return nil, b.o.execute(ctx, kind, c)
	})
	t.SetParam(ParamCoordinate, c)
	t.SetParam(ParamKind, kind)
	b.tasks[key] = t
	b.graph.Add(t)
	return t
}

// materialize creates one task per vertex of closure, visiting waves in
// order, and connects each task to the tasks of the vertices it runs after.
func (b *builder) materialize(kind Kind, closure *dag.Digraph[coordinate.Coordinate]) error {
	waves, err := dag.Schedule(closure, nil, nil)
	if err != nil {
		return err
	}
	for _, wave := range waves {
		for _, v := range wave {
			t := b.task(kind, v)
			for _, after := range closure.Successors(v) {
				if err := b.graph.Connect(t, b.task(kind, after)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// removals adds a remove task per delete target, after its stop task, and
// orders removals so that a dependency is removed after its dependents.
func (b *builder) removals(batch Batch) error {
	targets := make(map[coordinate.Coordinate]bool)
	for _, r := range batch {
		if r.Action.IsAtLeast(module.ActionDelete) {
			targets[r.Coordinate] = true
		}
	}
	for _, r := range batch {
		if !targets[r.Coordinate] {
			continue
		}
		remove := b.task(KindRemove, r.Coordinate)
		if stop, ok := b.tasks[taskKey{kind: KindStop, coordinate: r.Coordinate}]; ok {
			if err := b.graph.Connect(remove, stop); err != nil {
				return err
			}
		}
		for _, dependent := range b.o.graph.GetDependents(r.Coordinate) {
			if targets[dependent] && dependent != r.Coordinate {
				if err := b.graph.Connect(remove, b.task(KindRemove, dependent)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// resolutions adds a resolve task per resolve target, after the resolve
// tasks of any targeted dependency.
func (b *builder) resolutions(batch Batch) error {
	targets := make(map[coordinate.Coordinate]bool)
	for _, r := range batch {
		if r.Action == module.ActionResolve {
			targets[r.Coordinate] = true
		}
	}
	for _, r := range batch {
		if !targets[r.Coordinate] {
			continue
		}
		t := b.task(KindResolve, r.Coordinate)
		m, _ := b.o.graph.Get(r.Coordinate)
		for _, dep := range m.Dependencies {
			for _, other := range batch {
				if targets[other.Coordinate] && other.Coordinate != r.Coordinate && other.Coordinate.Matches(dep) {
					if err := b.graph.Connect(t, b.task(KindResolve, other.Coordinate)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// execute is the single dispatch point for every task kind.
func (o *Orchestrator) execute(ctx context.Context, kind Kind, c coordinate.Coordinate) error {
	logging.Debug("Orchestrator", "Executing %s", TaskName(kind, c))
	switch kind {
	case KindResolve:
		return o.actions.ResolveModule(ctx, c)
	case KindStart:
		return o.actions.StartModule(ctx, c)
	case KindStop:
		return o.actions.StopModule(ctx, c)
	case KindRemove:
		return o.actions.RemoveModule(ctx, c)
	default:
		return concurrency.Unrecoverable(fmt.Errorf("unknown task kind %s", kind))
	}
}
