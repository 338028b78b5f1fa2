package kernel

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"keel/internal/coordinate"
	"keel/internal/module"
)

// Capability names a kind of provider held in a Registry.
type Capability string

const (
	// CapabilityActivator providers implement Activator.
	CapabilityActivator Capability = "activator"

	// CapabilityResources providers implement ResourceProvider.
	CapabilityResources Capability = "resources"
)

// Activator starts and stops the modules it supports.
type Activator interface {
	Supports(m *module.Module) bool
	Start(ctx context.Context, m *module.Module) error
	Stop(ctx context.Context, m *module.Module) error
}

// ResourceProvider opens the backing resource of a module.
type ResourceProvider interface {
	Open(c coordinate.Coordinate) (io.Closer, error)
}

type registration struct {
	provider any
	priority int
	seq      int
}

// Registry maps capabilities to providers ordered by priority.
type Registry struct {
	mu        sync.RWMutex
	providers map[Capability][]registration
	seq       int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Capability][]registration)}
}

// Register adds provider under capability. Higher priority providers are
// located first; equal priorities keep registration order.
func (r *Registry) Register(capability Capability, provider any, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs := append(r.providers[capability], registration{provider: provider, priority: priority, seq: r.seq})
	r.seq++
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority > regs[j].priority
		}
		return regs[i].seq < regs[j].seq
	})
	r.providers[capability] = regs
}

// Locate returns every provider registered for capability.
func (r *Registry) Locate(capability Capability) []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	regs := r.providers[capability]
	res := make([]any, len(regs))
	for i, reg := range regs {
		res[i] = reg.provider
	}
	return res
}

func (r *Registry) activatorFor(m *module.Module) Activator {
	for _, p := range r.Locate(CapabilityActivator) {
		if a, ok := p.(Activator); ok && a.Supports(m) {
			return a
		}
	}
	return nil
}

func (r *Registry) resourceProviders() []ResourceProvider {
	var res []ResourceProvider
	for _, p := range r.Locate(CapabilityResources) {
		if rp, ok := p.(ResourceProvider); ok {
			res = append(res, rp)
		}
	}
	return res
}

// DirectoryResources opens <Root>/<group>/<name>/<version> as the backing
// resource of a module.
type DirectoryResources struct {
	Root string
}

// Open returns the directory handle for c.
func (d DirectoryResources) Open(c coordinate.Coordinate) (io.Closer, error) {
	f, err := os.Open(d.Path(c))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns the directory for c.
func (d DirectoryResources) Path(c coordinate.Coordinate) string {
	return filepath.Join(d.Root, c.Group, c.Name, c.Version)
}
