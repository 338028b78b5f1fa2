package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleChain(t *testing.T) {
	g := chain()

	forward, err := Schedule(Reachable(g, "a", AllEdges[string], AllVertices[string]), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c"}, {"b"}, {"a"}}, forward)

	reverse, err := Schedule(ReverseReachable(g, "c", AllEdges[string], AllVertices[string]), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, reverse)
}

func TestScheduleDiamond(t *testing.T) {
	g := diamond()
	sub := Reachable(g, "a", nil, nil)

	waves, err := Schedule(sub, nil, nil)
	require.NoError(t, err)
	require.Len(t, waves, 3)
	assert.Equal(t, []string{"d"}, waves[0])
	assert.ElementsMatch(t, []string{"b", "c"}, waves[1])
	assert.Equal(t, []string{"a"}, waves[2])

	// b and c share a wave and must stay unordered with respect to each other.
	assert.False(t, sub.ContainsEdge("b", "c"))
	assert.False(t, sub.ContainsEdge("c", "b"))
}

func TestScheduleMinimalLevels(t *testing.T) {
	// a depends on b (long path through c) and directly on d.
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("b", "c")
	g.Connect("c", "d")
	g.Connect("a", "d")
	g.AddVertex("lonely")

	waves, err := Schedule(g, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"d", "lonely"}, {"c"}, {"b"}, {"a"}}, waves)
}

func TestScheduleFilters(t *testing.T) {
	g := chain()

	waves, err := Schedule(g, nil, func(v string) bool { return v != "b" })
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "c"}}, waves)

	waves, err = Schedule(g, func(from, to string) bool { return from != "a" }, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "c"}, {"b"}}, waves)
}

func TestScheduleCycle(t *testing.T) {
	g := chain()
	g.Connect("c", "a")

	_, err := Schedule(g, nil, nil)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestScheduleEmpty(t *testing.T) {
	waves, err := Schedule(New[int](), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, waves)
}

func TestWaveIndex(t *testing.T) {
	idx := WaveIndex([][]string{{"c"}, {"a", "b"}})
	assert.Equal(t, map[string]int{"c": 0, "a": 1, "b": 1}, idx)
}

func TestReachablePredicate(t *testing.T) {
	g := diamond()
	resolved := func(v string) bool { return v != "c" }

	sub := Reachable(g, "a", AllEdges[string], resolved)
	assert.ElementsMatch(t, []string{"a", "b", "d"}, sub.Vertices())
	assert.True(t, sub.ContainsEdge("a", "b"))
	assert.True(t, sub.ContainsEdge("b", "d"))

	assert.Zero(t, Reachable(g, "c", nil, resolved).Len())
	assert.Zero(t, Reachable(g, "missing", nil, nil).Len())
}

func TestReverseReachable(t *testing.T) {
	g := diamond()
	sub := ReverseReachable(g, "d", nil, nil)

	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, sub.Vertices())
	assert.True(t, sub.ContainsEdge("d", "b"))
	assert.True(t, sub.ContainsEdge("b", "a"))

	waves, err := Schedule(sub, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, waves[0])
	assert.ElementsMatch(t, []string{"b", "c"}, waves[1])
	assert.Equal(t, []string{"d"}, waves[2])

	leaf := ReverseReachable(g, "a", nil, nil)
	assert.Equal(t, []string{"a"}, leaf.Vertices())
}
