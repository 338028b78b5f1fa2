package kernel

import (
	"keel/internal/coordinate"
	"keel/internal/dependency"
	"keel/internal/module"
)

// ModuleStatus is a point-in-time view of one installed module.
type ModuleStatus struct {
	Coordinate   coordinate.Coordinate
	Type         module.Type
	State        module.State
	Dependencies []coordinate.Coordinate
	Dependents   []coordinate.Coordinate
}

// Report lists every consistency problem of the installed graph.
type Report struct {
	Unresolved []dependency.UnsatisfiedDependencySet
	Cycles     []dependency.CyclicDependencySet
}

// OK reports whether the graph has neither unresolved dependencies nor
// cycles.
func (r Report) OK() bool {
	return len(r.Unresolved) == 0 && len(r.Cycles) == 0
}

// Module returns the status of the module at exactly c.
func (mgr *Manager) Module(c coordinate.Coordinate) (ModuleStatus, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m, ok := mgr.graph.Get(c)
	if !ok {
		return ModuleStatus{}, false
	}
	return mgr.status(m), true
}

// Modules returns the status of every installed module in install order.
func (mgr *Manager) Modules() []ModuleStatus {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mods := mgr.graph.Modules()
	res := make([]ModuleStatus, len(mods))
	for i, m := range mods {
		res[i] = mgr.status(m)
	}
	return res
}

// Check reports unresolved dependencies and cycles across every installed
// module without changing anything.
func (mgr *Manager) Check() Report {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mods := mgr.graph.Modules()
	return Report{
		Unresolved: mgr.graph.GetUnresolvedDependencies(mods...),
		Cycles:     dependency.CyclesFor(mgr.graph.ComputeCycles(), mods),
	}
}

func (mgr *Manager) status(m *module.Module) ModuleStatus {
	return ModuleStatus{
		Coordinate:   m.Coordinate,
		Type:         m.Type,
		State:        m.State(),
		Dependencies: mgr.graph.GetDependencies(m.Coordinate),
		Dependents:   mgr.graph.GetDependents(m.Coordinate),
	}
}
