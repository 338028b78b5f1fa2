package dag

import (
	"errors"
	"fmt"
)

// ErrCycle is returned when a graph handed to Schedule is not acyclic.
var ErrCycle = errors.New("graph contains a cycle")

// Schedule partitions g into waves. Every vertex lands in exactly one wave,
// strictly after every vertex it depends on, and as early as that allows.
// Vertices rejected by pred are left out, as are edges rejected by filter.
// Within a wave vertices keep insertion order.
func Schedule[V comparable](g *Digraph[V], filter EdgeFilter[V], pred VertexPredicate[V]) ([][]V, error) {
	if filter == nil {
		filter = AllEdges[V]
	}
	if pred == nil {
		pred = AllVertices[V]
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[V]int, g.Len())
	level := make(map[V]int, g.Len())

	var visit func(v V) error
	visit = func(v V) error {
		switch state[v] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: at %v", ErrCycle, v)
		}
		state[v] = visiting
		depth := 0
		for _, s := range g.Successors(v) {
			if !pred(s) || !filter(v, s) {
				continue
			}
			if err := visit(s); err != nil {
				return err
			}
			depth = max(depth, level[s]+1)
		}
		level[v] = depth
		state[v] = done
		return nil
	}

	vertices := g.Vertices()
	waves := 0
	for _, v := range vertices {
		if !pred(v) {
			continue
		}
		if err := visit(v); err != nil {
			return nil, err
		}
		waves = max(waves, level[v]+1)
	}

	res := make([][]V, waves)
	for _, v := range vertices {
		if !pred(v) {
			continue
		}
		res[level[v]] = append(res[level[v]], v)
	}
	return res, nil
}

// WaveIndex returns a lookup from vertex to its wave number.
func WaveIndex[V comparable](waves [][]V) map[V]int {
	idx := make(map[V]int)
	for i, wave := range waves {
		for _, v := range wave {
			idx[v] = i
		}
	}
	return idx
}
