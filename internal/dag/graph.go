package dag

import "sort"

// Digraph is a directed graph over comparable vertices, with forward and
// reverse adjacency kept in step.
type Digraph[V comparable] struct {
	seq  map[V]uint64
	next uint64
	out  map[V]map[V]struct{}
	in   map[V]map[V]struct{}
}

// New returns an empty graph.
func New[V comparable]() *Digraph[V] {
	return &Digraph[V]{
		seq: make(map[V]uint64),
		out: make(map[V]map[V]struct{}),
		in:  make(map[V]map[V]struct{}),
	}
}

// AddVertex inserts v. It reports false when v was already present.
func (g *Digraph[V]) AddVertex(v V) bool {
	if _, ok := g.seq[v]; ok {
		return false
	}
	g.seq[v] = g.next
	g.next++
	g.out[v] = make(map[V]struct{})
	g.in[v] = make(map[V]struct{})
	return true
}

// RemoveVertex deletes v and every edge touching it.
func (g *Digraph[V]) RemoveVertex(v V) bool {
	if _, ok := g.seq[v]; !ok {
		return false
	}
	for s := range g.out[v] {
		delete(g.in[s], v)
	}
	for p := range g.in[v] {
		delete(g.out[p], v)
	}
	delete(g.out, v)
	delete(g.in, v)
	delete(g.seq, v)
	return true
}

// Connect adds the edge from → to, inserting missing vertices. It reports
// false when the edge already existed.
func (g *Digraph[V]) Connect(from, to V) bool {
	g.AddVertex(from)
	g.AddVertex(to)
	if _, ok := g.out[from][to]; ok {
		return false
	}
	g.out[from][to] = struct{}{}
	g.in[to][from] = struct{}{}
	return true
}

// Disconnect removes the edge from → to.
func (g *Digraph[V]) Disconnect(from, to V) bool {
	if _, ok := g.out[from][to]; !ok {
		return false
	}
	delete(g.out[from], to)
	delete(g.in[to], from)
	return true
}

// ContainsVertex reports whether v is in the graph.
func (g *Digraph[V]) ContainsVertex(v V) bool {
	_, ok := g.seq[v]
	return ok
}

// ContainsEdge reports whether the edge from → to is in the graph.
func (g *Digraph[V]) ContainsEdge(from, to V) bool {
	_, ok := g.out[from][to]
	return ok
}

// Successors returns the direct targets of v's outgoing edges.
func (g *Digraph[V]) Successors(v V) []V {
	return g.ordered(g.out[v])
}

// Predecessors returns the direct sources of v's incoming edges.
func (g *Digraph[V]) Predecessors(v V) []V {
	return g.ordered(g.in[v])
}

// OutDegree returns the number of outgoing edges of v.
func (g *Digraph[V]) OutDegree(v V) int {
	return len(g.out[v])
}

// InDegree returns the number of incoming edges of v.
func (g *Digraph[V]) InDegree(v V) int {
	return len(g.in[v])
}

// Vertices returns every vertex in insertion order.
func (g *Digraph[V]) Vertices() []V {
	set := make(map[V]struct{}, len(g.seq))
	for v := range g.seq {
		set[v] = struct{}{}
	}
	return g.ordered(set)
}

// Len returns the number of vertices.
func (g *Digraph[V]) Len() int {
	return len(g.seq)
}

// EdgeCount returns the number of edges.
func (g *Digraph[V]) EdgeCount() int {
	n := 0
	for _, targets := range g.out {
		n += len(targets)
	}
	return n
}

// Clone returns an independent copy. Vertex values are copied, not deep
// cloned.
func (g *Digraph[V]) Clone() *Digraph[V] {
	c := &Digraph[V]{
		seq:  make(map[V]uint64, len(g.seq)),
		next: g.next,
		out:  make(map[V]map[V]struct{}, len(g.out)),
		in:   make(map[V]map[V]struct{}, len(g.in)),
	}
	for v, s := range g.seq {
		c.seq[v] = s
	}
	for v, targets := range g.out {
		c.out[v] = copySet(targets)
	}
	for v, sources := range g.in {
		c.in[v] = copySet(sources)
	}
	return c
}

// Reverse returns a copy with every edge flipped.
func (g *Digraph[V]) Reverse() *Digraph[V] {
	r := g.Clone()
	r.out, r.in = r.in, r.out
	return r
}

func (g *Digraph[V]) ordered(set map[V]struct{}) []V {
	if len(set) == 0 {
		return nil
	}
	res := make([]V, 0, len(set))
	for v := range set {
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return g.seq[res[i]] < g.seq[res[j]] })
	return res
}

func copySet[V comparable](src map[V]struct{}) map[V]struct{} {
	dst := make(map[V]struct{}, len(src))
	for v := range src {
		dst[v] = struct{}{}
	}
	return dst
}
