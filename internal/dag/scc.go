package dag

// Component is one strongly connected component.
type Component[V comparable] struct {
	Vertices []V
	cyclic   bool
}

// Cyclic reports whether the component has more than one vertex or a
// self-loop.
func (c Component[V]) Cyclic() bool {
	return c.cyclic
}

// Contains reports whether v belongs to the component.
func (c Component[V]) Contains(v V) bool {
	for _, x := range c.Vertices {
		if x == v {
			return true
		}
	}
	return false
}

// Partition is the decomposition of a graph into strongly connected
// components.
type Partition[V comparable] struct {
	Components []Component[V]
	index      map[V]int
}

// Cyclic returns only the cyclic components.
func (p *Partition[V]) Cyclic() []Component[V] {
	var res []Component[V]
	for _, c := range p.Components {
		if c.cyclic {
			res = append(res, c)
		}
	}
	return res
}

// HasCycles reports whether any component is cyclic.
func (p *Partition[V]) HasCycles() bool {
	for _, c := range p.Components {
		if c.cyclic {
			return true
		}
	}
	return false
}

// ComponentOf returns the component containing v.
func (p *Partition[V]) ComponentOf(v V) (Component[V], bool) {
	i, ok := p.index[v]
	if !ok {
		return Component[V]{}, false
	}
	return p.Components[i], true
}

// StronglyConnected partitions g using Tarjan's algorithm. Components are
// emitted in reverse topological order: a component appears after every
// component it has edges into.
func StronglyConnected[V comparable](g *Digraph[V]) *Partition[V] {
	t := tarjan[V]{
		g:       g,
		index:   make(map[V]int, g.Len()),
		lowlink: make(map[V]int, g.Len()),
		onStack: make(map[V]bool, g.Len()),
		part:    &Partition[V]{index: make(map[V]int, g.Len())},
	}
	for _, v := range g.Vertices() {
		if _, seen := t.index[v]; !seen {
			t.connect(v)
		}
	}
	return t.part
}

type tarjan[V comparable] struct {
	g       *Digraph[V]
	counter int
	index   map[V]int
	lowlink map[V]int
	onStack map[V]bool
	stack   []V
	part    *Partition[V]
}

func (t *tarjan[V]) connect(v V) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.Successors(v) {
		if _, seen := t.index[w]; !seen {
			t.connect(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack[w] {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}

	var members []V
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		members = append(members, w)
		if w == v {
			break
		}
	}
	// Restore discovery order within the component.
	for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
		members[i], members[j] = members[j], members[i]
	}
	c := Component[V]{
		Vertices: members,
		cyclic:   len(members) > 1 || t.g.ContainsEdge(v, v),
	}
	for _, m := range members {
		t.part.index[m] = len(t.part.Components)
	}
	t.part.Components = append(t.part.Components, c)
}
