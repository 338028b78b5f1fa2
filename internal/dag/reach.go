package dag

// EdgeFilter decides whether an edge is followed.
type EdgeFilter[V comparable] func(from, to V) bool

// VertexPredicate decides whether a vertex is admitted.
type VertexPredicate[V comparable] func(v V) bool

// AllEdges accepts every edge.
func AllEdges[V comparable](V, V) bool { return true }

// AllVertices accepts every vertex.
func AllVertices[V comparable](V) bool { return true }

// Reachable returns the subgraph of everything root transitively depends
// on, following successors. Only edges accepted by filter and vertices
// accepted by pred are included; an inadmissible root yields an empty graph.
func Reachable[V comparable](g *Digraph[V], root V, filter EdgeFilter[V], pred VertexPredicate[V]) *Digraph[V] {
	return closure(g, root, filter, pred, g.Successors, false)
}

// ReverseReachable returns the subgraph of everything that transitively
// depends on root, following predecessors. Edges in the result point from a
// vertex to the dependents that must be handled before it, so leveling the
// result yields dependents first. The filter is applied to edges in their
// original orientation.
func ReverseReachable[V comparable](g *Digraph[V], root V, filter EdgeFilter[V], pred VertexPredicate[V]) *Digraph[V] {
	return closure(g, root, filter, pred, g.Predecessors, true)
}

func closure[V comparable](g *Digraph[V], root V, filter EdgeFilter[V], pred VertexPredicate[V], next func(V) []V, reversed bool) *Digraph[V] {
	if filter == nil {
		filter = AllEdges[V]
	}
	if pred == nil {
		pred = AllVertices[V]
	}

	res := New[V]()
	if !g.ContainsVertex(root) || !pred(root) {
		return res
	}
	res.AddVertex(root)

	queue := []V{root}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range next(v) {
			from, to := v, w
			if reversed {
				from, to = w, v
			}
			if !filter(from, to) || !pred(w) {
				continue
			}
			if res.AddVertex(w) {
				queue = append(queue, w)
			}
			// The result keeps the "runs after" orientation: a dependency
			// edge as-is, a dependents edge flipped.
			res.Connect(v, w)
		}
	}
	return res
}
