package module

import (
	"io"
	"sync"

	"keel/internal/coordinate"
)

// Type classifies a module. It is informational; the kernel treats every
// type alike.
type Type string

const (
	TypeLibrary Type = "library"
	TypePlugin  Type = "plugin"
)

// Module is an installable unit: a coordinate, its declared dependencies
// and the backing resource the module owns.
type Module struct {
	Coordinate   coordinate.Coordinate
	Type         Type
	Dependencies []coordinate.Coordinate

	lifecycle   *Lifecycle
	releaseOnce sync.Once

	mu         sync.Mutex
	resource   io.Closer
	released   bool
	releaseErr error
}

// New returns a module in StateInstalled. resource may be nil.
func New(c coordinate.Coordinate, typ Type, resource io.Closer, deps ...coordinate.Coordinate) *Module {
	return &Module{
		Coordinate:   c,
		Type:         typ,
		Dependencies: deps,
		lifecycle:    NewLifecycle(),
		resource:     resource,
	}
}

// Lifecycle returns the module's state machine.
func (m *Module) Lifecycle() *Lifecycle {
	return m.lifecycle
}

// State is shorthand for m.Lifecycle().State().
func (m *Module) State() State {
	return m.lifecycle.State()
}

// Resource returns the backing resource, or nil once released.
func (m *Module) Resource() io.Closer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	return m.resource
}

// Release closes the backing resource. Only the first call closes it;
// later calls return the first call's result.
func (m *Module) Release() error {
	m.releaseOnce.Do(func() {
		m.mu.Lock()
		m.released = true
		m.mu.Unlock()
		if m.resource != nil {
			m.releaseErr = m.resource.Close()
		}
	})
	return m.releaseErr
}

// Released reports whether Release has been called.
func (m *Module) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *Module) String() string {
	return m.Coordinate.String()
}
