// Package dependency maintains the graph of installed modules and the
// "depends on" edges between them.
//
// Vertices are exact coordinates. Several versions of the same group:name
// may coexist as distinct vertices. A declared dependency is a coordinate
// whose version may be a range; it is wired to the highest present version
// that satisfies the range. Declarations nothing satisfies yet produce an
// UnsatisfiedDependencySet instead of an edge, and are wired later when a
// matching module arrives. The graph is eventually consistent: a module can
// be added before its dependencies.
//
// # Transactional installs
//
// Cycle detection never mutates the graph. Callers that need all-or-nothing
// semantics clone the graph, add the prospective batch to the clone, call
// ComputeCycles and only repeat the add on the real graph when no batch
// module sits in a cyclic component:
//
//	trial := g.Clone()
//	trial.AddAll(batch)
//	if cycles := dependency.CyclesFor(trial.ComputeCycles(), batch); len(cycles) > 0 {
//	    return &dependency.CyclicDependencyError{Cycles: cycles}
//	}
//	g.AddAll(batch)
//
// # Thread Safety
//
// Graph is not thread-safe. The kernel serializes every access.
package dependency
