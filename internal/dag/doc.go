// Package dag provides a small generic directed graph together with the
// algorithms keel needs on top of it: strongly connected component
// partitioning, reachability closures and wave leveling.
//
// # Edge direction
//
// An edge u → v always means "u depends on v" (u must run after v). The
// leveler places vertices without outgoing edges in the first wave, so
// leveling a dependency graph yields dependencies first. ReverseReachable
// returns its closure with edges flipped so that the same leveler yields
// dependents first.
//
// # Determinism
//
// Vertices remember their insertion order. Every query that returns a
// collection returns it in that order, which keeps leveling and task graph
// construction reproducible across runs.
//
// # Thread Safety
//
// Digraph is not thread-safe. Callers serialize access.
package dag
