package dependency

import (
	"errors"
	"fmt"

	"keel/internal/coordinate"
	"keel/internal/dag"
	"keel/internal/module"
)

var (
	// ErrNotFound is returned when a coordinate is not in the graph.
	ErrNotFound = errors.New("module not found")

	// ErrHasDependents is returned by Remove when other modules still
	// depend on the one being removed.
	ErrHasDependents = errors.New("module has dependents")
)

// Graph maps exact coordinates to modules and records their dependency
// edges. The zero value is not usable; call New.
type Graph struct {
	g       *dag.Digraph[coordinate.Coordinate]
	modules map[coordinate.Coordinate]*module.Module
	// versions indexes present coordinates by group:name.
	versions map[string][]coordinate.Coordinate
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		g:        dag.New[coordinate.Coordinate](),
		modules:  make(map[coordinate.Coordinate]*module.Module),
		versions: make(map[string][]coordinate.Coordinate),
	}
}

// Add inserts m and returns its unsatisfied dependencies, if any. Adding a
// coordinate that is already present keeps the original module.
func (g *Graph) Add(m *module.Module) []UnsatisfiedDependencySet {
	return g.AddAll([]*module.Module{m})
}

// AddAll inserts a batch. Dependencies are evaluated against the union of
// present modules and the batch, so batch members can satisfy each other.
// Only unsatisfied sets are returned.
func (g *Graph) AddAll(mods []*module.Module) []UnsatisfiedDependencySet {
	var added []*module.Module
	for _, m := range mods {
		if g.insert(m) {
			added = append(added, m)
		}
	}
	for _, m := range added {
		g.link(g.modules[m.Coordinate])
	}
	// Present modules that were waiting on one of the new arrivals.
	if len(added) > 0 {
		for _, c := range g.g.Vertices() {
			if waitsOn(g.modules[c], added) {
				g.link(g.modules[c])
			}
		}
	}

	var res []UnsatisfiedDependencySet
	for _, m := range mods {
		if s := g.unsatisfied(g.modules[m.Coordinate], nil); !s.IsSatisfied() {
			res = append(res, s)
		}
	}
	return res
}

// GetUnresolvedDependencies reports the unsatisfied dependencies of mods
// without mutating the graph. Dependencies are evaluated against the union
// of present modules and mods. Only unsatisfied sets are returned.
func (g *Graph) GetUnresolvedDependencies(mods ...*module.Module) []UnsatisfiedDependencySet {
	var res []UnsatisfiedDependencySet
	for _, m := range mods {
		if s := g.unsatisfied(m, mods); !s.IsSatisfied() {
			res = append(res, s)
		}
	}
	return res
}

// ResolveDependencies wires any dependency of mods that became satisfiable
// since they were added, and returns one set per module describing what is
// still missing. Modules not in the graph are evaluated as if absent
// dependencies were missing.
func (g *Graph) ResolveDependencies(mods ...*module.Module) []UnsatisfiedDependencySet {
	res := make([]UnsatisfiedDependencySet, 0, len(mods))
	for _, m := range mods {
		if present, ok := g.modules[m.Coordinate]; ok {
			g.link(present)
			m = present
		}
		res = append(res, g.unsatisfied(m, nil))
	}
	return res
}

// Remove deletes the module at c. It refuses with ErrHasDependents while
// any other module still depends on c.
func (g *Graph) Remove(c coordinate.Coordinate) (*module.Module, error) {
	m, ok := g.modules[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, c)
	}
	var dependents []coordinate.Coordinate
	for _, d := range g.g.Predecessors(c) {
		if d != c {
			dependents = append(dependents, d)
		}
	}
	if len(dependents) > 0 {
		return nil, fmt.Errorf("%w: %s is required by %v", ErrHasDependents, c, dependents)
	}

	g.g.RemoveVertex(c)
	delete(g.modules, c)
	siblings := g.versions[c.Key()]
	for i, v := range siblings {
		if v == c {
			siblings = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	if len(siblings) == 0 {
		delete(g.versions, c.Key())
	} else {
		g.versions[c.Key()] = siblings
	}
	return m, nil
}

// Get returns the module at exactly c.
func (g *Graph) Get(c coordinate.Coordinate) (*module.Module, bool) {
	m, ok := g.modules[c]
	return m, ok
}

// Contains reports whether exactly c is present.
func (g *Graph) Contains(c coordinate.Coordinate) bool {
	_, ok := g.modules[c]
	return ok
}

// Size returns the number of modules.
func (g *Graph) Size() int {
	return len(g.modules)
}

// Modules returns every module in insertion order.
func (g *Graph) Modules() []*module.Module {
	vs := g.g.Vertices()
	res := make([]*module.Module, 0, len(vs))
	for _, c := range vs {
		res = append(res, g.modules[c])
	}
	return res
}

// GetDependents returns the modules that directly depend on c.
func (g *Graph) GetDependents(c coordinate.Coordinate) []coordinate.Coordinate {
	return g.g.Predecessors(c)
}

// GetDependencies returns the modules c directly depends on.
func (g *Graph) GetDependencies(c coordinate.Coordinate) []coordinate.Coordinate {
	return g.g.Successors(c)
}

// Latest returns the highest version present for c's group:name.
func (g *Graph) Latest(c coordinate.Coordinate) (*module.Module, bool) {
	return g.FirstOfLevel(coordinate.New(c.Group, c.Name, coordinate.AnyVersion), coordinate.Compare)
}

// Earliest returns the lowest version present for c's group:name.
func (g *Graph) Earliest(c coordinate.Coordinate) (*module.Module, bool) {
	return g.FirstOfLevel(coordinate.New(c.Group, c.Name, coordinate.AnyVersion), func(a, b coordinate.Coordinate) int {
		return coordinate.Compare(b, a)
	})
}

// FirstOfLevel returns the greatest module under cmp among those sharing
// c's group:name whose version satisfies c's version as a range.
func (g *Graph) FirstOfLevel(c coordinate.Coordinate, cmp func(a, b coordinate.Coordinate) int) (*module.Module, bool) {
	best, ok := g.match(c, cmp, nil)
	if !ok {
		return nil, false
	}
	return g.modules[best], true
}

// ComputeCycles partitions the graph into strongly connected components.
func (g *Graph) ComputeCycles() *dag.Partition[coordinate.Coordinate] {
	return dag.StronglyConnected(g.g)
}

// Clone returns a copy whose structure can be changed without affecting
// g. Module values are shared.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		g:        g.g.Clone(),
		modules:  make(map[coordinate.Coordinate]*module.Module, len(g.modules)),
		versions: make(map[string][]coordinate.Coordinate, len(g.versions)),
	}
	for k, m := range g.modules {
		c.modules[k] = m
	}
	for k, vs := range g.versions {
		c.versions[k] = append([]coordinate.Coordinate(nil), vs...)
	}
	return c
}

// Forward returns the closure of everything root depends on, restricted to
// modules accepted by pred.
func (g *Graph) Forward(root coordinate.Coordinate, pred func(*module.Module) bool) *dag.Digraph[coordinate.Coordinate] {
	return dag.Reachable(g.g, root, dag.AllEdges[coordinate.Coordinate], g.vertexPredicate(pred))
}

// Reverse returns the closure of everything depending on root, restricted
// to modules accepted by pred, oriented so that dependents level first.
func (g *Graph) Reverse(root coordinate.Coordinate, pred func(*module.Module) bool) *dag.Digraph[coordinate.Coordinate] {
	return dag.ReverseReachable(g.g, root, dag.AllEdges[coordinate.Coordinate], g.vertexPredicate(pred))
}

// IsResolved is the vertex predicate used for lifecycle closures.
func IsResolved(m *module.Module) bool {
	return m.State().IsResolved()
}

func (g *Graph) vertexPredicate(pred func(*module.Module) bool) dag.VertexPredicate[coordinate.Coordinate] {
	return func(c coordinate.Coordinate) bool {
		m, ok := g.modules[c]
		return ok && (pred == nil || pred(m))
	}
}

func (g *Graph) insert(m *module.Module) bool {
	if _, ok := g.modules[m.Coordinate]; ok {
		return false
	}
	g.g.AddVertex(m.Coordinate)
	g.modules[m.Coordinate] = m
	g.versions[m.Coordinate.Key()] = append(g.versions[m.Coordinate.Key()], m.Coordinate)
	return true
}

// link connects m to the best present match of every declaration that is
// not wired yet.
func (g *Graph) link(m *module.Module) {
	for _, dep := range m.Dependencies {
		if g.wired(m.Coordinate, dep) {
			continue
		}
		if target, ok := g.match(dep, coordinate.Compare, nil); ok {
			g.g.Connect(m.Coordinate, target)
		}
	}
}

func (g *Graph) wired(from, dep coordinate.Coordinate) bool {
	for _, s := range g.g.Successors(from) {
		if s.Matches(dep) {
			return true
		}
	}
	return false
}

// match returns the greatest coordinate under cmp that satisfies dep,
// looking at present modules and extra.
func (g *Graph) match(dep coordinate.Coordinate, cmp func(a, b coordinate.Coordinate) int, extra []*module.Module) (coordinate.Coordinate, bool) {
	var (
		best  coordinate.Coordinate
		found bool
	)
	consider := func(c coordinate.Coordinate) {
		if !c.Matches(dep) {
			return
		}
		if !found || cmp(c, best) > 0 {
			best, found = c, true
		}
	}
	for _, c := range g.versions[dep.Key()] {
		consider(c)
	}
	for _, m := range extra {
		consider(m.Coordinate)
	}
	return best, found
}

func (g *Graph) unsatisfied(m *module.Module, extra []*module.Module) UnsatisfiedDependencySet {
	s := UnsatisfiedDependencySet{Source: m.Coordinate}
	for _, dep := range m.Dependencies {
		if _, ok := g.match(dep, coordinate.Compare, extra); !ok {
			s.Missing = append(s.Missing, dep)
		}
	}
	return s
}

func waitsOn(m *module.Module, added []*module.Module) bool {
	for _, dep := range m.Dependencies {
		for _, a := range added {
			if a.Coordinate != m.Coordinate && a.Coordinate.Matches(dep) {
				return true
			}
		}
	}
	return false
}
