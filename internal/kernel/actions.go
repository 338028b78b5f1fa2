package kernel

import (
	"context"
	"fmt"

	"keel/internal/concurrency"
	"keel/internal/coordinate"
	"keel/internal/dependency"
	"keel/internal/module"
	"keel/pkg/logging"
)

// ResolveModule is the resolve task body. An unresolvable module is a
// recoverable failure.
func (mgr *Manager) ResolveModule(ctx context.Context, c coordinate.Coordinate) error {
	if err := mgr.Resolve(ctx, c); err != nil {
		return concurrency.Recoverable(err)
	}
	return nil
}

// StartModule is the start task body. Starting an active module does
// nothing. Modules without a supporting activator only change state.
func (mgr *Manager) StartModule(ctx context.Context, c coordinate.Coordinate) error {
	m, err := mgr.lookup(c)
	if err != nil {
		return concurrency.Recoverable(err)
	}
	if m.State() == module.StateActive {
		return nil
	}
	if err := m.Lifecycle().Transition(module.StateStarting); err != nil {
		return concurrency.Recoverable(err)
	}

	if a := mgr.registry.activatorFor(m); a != nil {
		if err := a.Start(ctx, m); err != nil {
			logging.Error("Kernel", err, "Failed to start %s", c)
			if terr := m.Lifecycle().Transition(module.StateFailed); terr != nil {
				return concurrency.Unrecoverable(terr)
			}
			return concurrency.Recoverable(fmt.Errorf("start %s: %w", c, err))
		}
	}

	if err := m.Lifecycle().Transition(module.StateActive); err != nil {
		return concurrency.Unrecoverable(err)
	}
	logging.Info("Kernel", "Started %s", c)
	return nil
}

// StopModule is the stop task body. Modules that are not active are left
// alone.
func (mgr *Manager) StopModule(ctx context.Context, c coordinate.Coordinate) error {
	m, err := mgr.lookup(c)
	if err != nil {
		return concurrency.Recoverable(err)
	}
	if m.State() != module.StateActive {
		return nil
	}
	if err := m.Lifecycle().Transition(module.StateStopping); err != nil {
		return concurrency.Recoverable(err)
	}

	if a := mgr.registry.activatorFor(m); a != nil {
		if err := a.Stop(ctx, m); err != nil {
			logging.Error("Kernel", err, "Failed to stop %s", c)
			if terr := m.Lifecycle().Transition(module.StateFailed); terr != nil {
				return concurrency.Unrecoverable(terr)
			}
			return concurrency.Recoverable(fmt.Errorf("stop %s: %w", c, err))
		}
	}

	if err := m.Lifecycle().Transition(module.StateResolved); err != nil {
		return concurrency.Unrecoverable(err)
	}
	logging.Info("Kernel", "Stopped %s", c)
	return nil
}

// RemoveModule is the remove task body. It refuses while other modules
// still depend on c, then releases the module's resource.
func (mgr *Manager) RemoveModule(ctx context.Context, c coordinate.Coordinate) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	m, ok := mgr.graph.Get(c)
	if !ok {
		return nil
	}
	if !module.CanTransition(m.State(), module.StateRemoved) {
		return concurrency.Recoverable(fmt.Errorf("%w: cannot remove %s while %s", module.ErrIllegalTransition, c, m.State()))
	}
	if _, err := mgr.graph.Remove(c); err != nil {
		return concurrency.Recoverable(err)
	}
	if err := m.Lifecycle().Transition(module.StateRemoved); err != nil {
		return concurrency.Unrecoverable(err)
	}
	if err := m.Release(); err != nil {
		logging.Error("Kernel", err, "Failed to release resource of %s", c)
	}
	logging.Info("Kernel", "Removed %s", c)
	return nil
}

func (mgr *Manager) lookup(c coordinate.Coordinate) (*module.Module, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m, ok := mgr.graph.Get(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dependency.ErrNotFound, c)
	}
	return m, nil
}
