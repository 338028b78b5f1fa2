package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"keel/internal/concurrency"
	"keel/internal/coordinate"
	"keel/internal/dependency"
	"keel/internal/events"
	"keel/internal/module"
	"keel/internal/orchestrator"
	"keel/pkg/logging"
)

// Config holds the collaborators of a Manager. Nil fields get defaults:
// an empty registry, a discarding sink, a scheduler with default limits and
// no metrics registration.
type Config struct {
	Registry   *Registry
	Sink       events.Sink
	Scheduler  *concurrency.Scheduler
	Registerer prometheus.Registerer
}

// Manager installs modules and drives their lifecycle.
type Manager struct {
	mu           sync.Mutex
	graph        *dependency.Graph
	registry     *Registry
	sink         events.Sink
	orchestrator *orchestrator.Orchestrator
	metrics      *stateMetrics
}

// NewManager returns a manager with an empty dependency graph.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Sink == nil {
		cfg.Sink = events.Discard
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = concurrency.NewScheduler(concurrency.Config{Sink: cfg.Sink})
	}
	metrics, err := newStateMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register kernel metrics: %w", err)
	}

	mgr := &Manager{
		graph:    dependency.New(),
		registry: cfg.Registry,
		sink:     cfg.Sink,
		metrics:  metrics,
	}
	mgr.orchestrator = orchestrator.New(mgr.graph, mgr, cfg.Scheduler)
	return mgr, nil
}

// Registry returns the capability registry.
func (mgr *Manager) Registry() *Registry {
	return mgr.registry
}

// Open creates a module backed by the first resource provider able to
// open c. Without any provider the module has no backing resource.
func (mgr *Manager) Open(c coordinate.Coordinate, typ module.Type, deps ...coordinate.Coordinate) (*module.Module, error) {
	providers := mgr.registry.resourceProviders()
	if len(providers) == 0 {
		return module.New(c, typ, nil, deps...), nil
	}
	var errs []error
	for _, p := range providers {
		res, err := p.Open(c)
		if err == nil {
			return module.New(c, typ, res, deps...), nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("failed to open resource for %s: %w", c, errors.Join(errs...))
}

// Install adds mods to the graph. Missing dependencies are tolerated and
// reported; they are wired when the dependency is installed later. A batch
// that would introduce a cycle is rejected as a whole, and the resources of
// all its modules are released, not only those inside cyclic components.
func (mgr *Manager) Install(ctx context.Context, mods ...*module.Module) ([]dependency.UnsatisfiedDependencySet, error) {
	coords := coordinatesOf(mods)
	mgr.sink.Dispatch(events.KindModuleSetInstallationInitiated, events.ModuleSetPayload{Coordinates: coords})

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if err := mgr.checkCycles(mods); err != nil {
		mgr.sink.Dispatch(events.KindModuleSetInstallationFailed, events.ModuleSetPayload{Coordinates: coords, Err: err})
		return nil, err
	}
	unsatisfied := mgr.commit(mods)
	for _, s := range unsatisfied {
		logging.Info("Kernel", "Installed %s with missing dependencies: %s", s.Source, s)
	}

	mgr.sink.Dispatch(events.KindModuleSetInstallationCompleted, events.ModuleSetPayload{Coordinates: coords})
	return unsatisfied, nil
}

// InstallSet installs mods all-or-nothing and resolves them. Every
// dependency must be satisfied by the graph or the set itself; otherwise
// the resources of every module in the set are released and an
// UnresolvedDependencyError is returned.
func (mgr *Manager) InstallSet(ctx context.Context, mods []*module.Module) error {
	coords := coordinatesOf(mods)
	mgr.sink.Dispatch(events.KindModuleSetInstallationInitiated, events.ModuleSetPayload{Coordinates: coords})

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	fail := func(err error) error {
		mgr.sink.Dispatch(events.KindModuleSetInstallationFailed, events.ModuleSetPayload{Coordinates: coords, Err: err})
		return err
	}

	if unresolved := mgr.graph.GetUnresolvedDependencies(mods...); len(unresolved) > 0 {
		err := &dependency.UnresolvedDependencyError{Message: "unresolved dependencies detected", Sets: unresolved}
		mgr.rejectAll(mods, err)
		return fail(err)
	}
	if err := mgr.checkCycles(mods); err != nil {
		return fail(err)
	}

	mgr.commit(mods)
	for _, m := range mods {
		if current, ok := mgr.graph.Get(m.Coordinate); ok && !current.State().IsResolved() {
			if err := current.Lifecycle().Transition(module.StateResolved); err != nil {
				return fail(err)
			}
		}
	}

	mgr.sink.Dispatch(events.KindModuleSetInstallationCompleted, events.ModuleSetPayload{Coordinates: coords})
	return nil
}

// Resolve re-evaluates the dependencies of the given modules. Satisfied
// modules become Resolved; the others become Failed and are reported in a
// single UnresolvedDependencyError. Their resources are kept so they can be
// resolved again once the dependency arrives. Only the presence of each
// dependency is checked: a dependency that is itself Installed or Failed
// still satisfies it.
func (mgr *Manager) Resolve(ctx context.Context, coords ...coordinate.Coordinate) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	var unresolved []dependency.UnsatisfiedDependencySet
	for _, c := range coords {
		m, ok := mgr.graph.Get(c)
		if !ok {
			return fmt.Errorf("%w: %s", dependency.ErrNotFound, c)
		}
		if m.State().IsResolved() {
			continue
		}
		set := mgr.graph.ResolveDependencies(m)[0]
		if !set.IsSatisfied() {
			unresolved = append(unresolved, set)
			if err := m.Lifecycle().Transition(module.StateFailed); err != nil {
				return err
			}
			continue
		}
		if err := m.Lifecycle().Transition(module.StateResolved); err != nil {
			return err
		}
	}

	if len(unresolved) > 0 {
		err := &dependency.UnresolvedDependencyError{Message: "unable to resolve", Sets: unresolved}
		logging.Warn("Kernel", "%v", err)
		return err
	}
	return nil
}

// Prepare builds the change group for batch.
func (mgr *Manager) Prepare(batch orchestrator.Batch) (*orchestrator.ChangeGroup, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.orchestrator.Prepare(batch)
}

// Apply prepares batch, commits it and waits for the result.
func (mgr *Manager) Apply(ctx context.Context, batch orchestrator.Batch) (*concurrency.ProcessResult, error) {
	group, err := mgr.Prepare(batch)
	if err != nil {
		return nil, err
	}
	return group.Commit(ctx).Wait(ctx)
}

// StopAll stops every active module, dependents first.
func (mgr *Manager) StopAll(ctx context.Context) (*concurrency.ProcessResult, error) {
	var active []coordinate.Coordinate
	for _, s := range mgr.Modules() {
		if s.State == module.StateActive {
			active = append(active, s.Coordinate)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	return mgr.Apply(ctx, orchestrator.NewBatch(module.ActionStop, active...))
}

// checkCycles adds mods to a clone of the graph and rejects the batch if
// any of them ends up in a cyclic component.
func (mgr *Manager) checkCycles(mods []*module.Module) error {
	trial := mgr.graph.Clone()
	trial.AddAll(mods)
	cycles := dependency.CyclesFor(trial.ComputeCycles(), mods)
	if len(cycles) == 0 {
		return nil
	}

	err := &dependency.CyclicDependencyError{Cycles: cycles}
	mgr.rejectAll(mods, err)
	return err
}

// commit adds mods to the real graph and starts tracking their state.
func (mgr *Manager) commit(mods []*module.Module) []dependency.UnsatisfiedDependencySet {
	var fresh []*module.Module
	seen := make(map[coordinate.Coordinate]*module.Module, len(mods))
	for _, m := range mods {
		mgr.sink.Dispatch(events.KindModuleInstallationInitiated, events.ModulePayload{Coordinate: m.Coordinate})
		existing, ok := mgr.graph.Get(m.Coordinate)
		if !ok {
			existing, ok = seen[m.Coordinate]
		}
		if ok {
			if existing != m {
				logging.Warn("Kernel", "Module %s is already installed, keeping the existing one", m.Coordinate)
				if err := m.Release(); err != nil {
					logging.Error("Kernel", err, "Failed to release duplicate %s", m.Coordinate)
				}
			}
			continue
		}
		seen[m.Coordinate] = m
		fresh = append(fresh, m)
	}

	unsatisfied := mgr.graph.AddAll(fresh)
	for _, m := range fresh {
		mgr.track(m)
		mgr.sink.Dispatch(events.KindModuleInstallationCompleted, events.ModulePayload{
			Coordinate: m.Coordinate,
			To:         string(m.State()),
		})
	}
	return unsatisfied
}

func (mgr *Manager) track(m *module.Module) {
	mgr.metrics.installed()
	m.Lifecycle().SetStateChangeCallback(func(from, to module.State) {
		mgr.metrics.transition(from, to)
		logging.Debug("Kernel", "Module %s: %s -> %s", m.Coordinate, from, to)
		mgr.sink.Dispatch(lifecycleEvent(from, to), events.ModulePayload{
			Coordinate: m.Coordinate,
			From:       string(from),
			To:         string(to),
		})
	})
}

// reject releases the resource of a module that will not be installed.
func (mgr *Manager) reject(m *module.Module, cause error) {
	if err := m.Release(); err != nil {
		logging.Error("Kernel", err, "Failed to release resource of %s", m.Coordinate)
	}
	mgr.sink.Dispatch(events.KindModuleInstallationFailed, events.ModulePayload{Coordinate: m.Coordinate, Err: cause})
}

// rejectAll rejects every module of a refused batch. Modules that are
// already installed keep their resources.
func (mgr *Manager) rejectAll(mods []*module.Module, cause error) {
	for _, m := range mods {
		if existing, ok := mgr.graph.Get(m.Coordinate); ok && existing == m {
			continue
		}
		mgr.reject(m, cause)
	}
}

func lifecycleEvent(from, to module.State) events.Kind {
	switch to {
	case module.StateResolved:
		if from == module.StateStopping {
			return events.KindModuleStopped
		}
		return events.KindModuleResolved
	case module.StateStarting:
		return events.KindModuleStarting
	case module.StateActive:
		return events.KindModuleStarted
	case module.StateStopping:
		return events.KindModuleStopping
	case module.StateRemoved:
		return events.KindModuleRemoved
	default:
		return events.KindModuleFailed
	}
}

func coordinatesOf(mods []*module.Module) []coordinate.Coordinate {
	res := make([]coordinate.Coordinate, len(mods))
	for i, m := range mods {
		res[i] = m.Coordinate
	}
	return res
}
