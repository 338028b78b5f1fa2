package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds a → b → c.
func chain() *Digraph[string] {
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("b", "c")
	return g
}

// diamond builds a → {b, c} → d.
func diamond() *Digraph[string] {
	g := New[string]()
	g.Connect("a", "b")
	g.Connect("a", "c")
	g.Connect("b", "d")
	g.Connect("c", "d")
	return g
}

func TestDigraphBasics(t *testing.T) {
	g := New[string]()
	assert.True(t, g.AddVertex("a"))
	assert.False(t, g.AddVertex("a"))
	assert.True(t, g.Connect("a", "b"))
	assert.False(t, g.Connect("a", "b"))

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.ContainsEdge("a", "b"))
	assert.False(t, g.ContainsEdge("b", "a"))
	assert.Equal(t, []string{"b"}, g.Successors("a"))
	assert.Equal(t, []string{"a"}, g.Predecessors("b"))
	assert.Equal(t, 1, g.OutDegree("a"))
	assert.Equal(t, 1, g.InDegree("b"))

	assert.True(t, g.Disconnect("a", "b"))
	assert.False(t, g.Disconnect("a", "b"))
	assert.Zero(t, g.EdgeCount())
}

func TestDigraphRemoveVertex(t *testing.T) {
	g := diamond()
	require.True(t, g.RemoveVertex("b"))
	assert.False(t, g.RemoveVertex("b"))

	assert.False(t, g.ContainsVertex("b"))
	assert.Equal(t, []string{"c"}, g.Successors("a"))
	assert.Equal(t, []string{"c"}, g.Predecessors("d"))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestDigraphInsertionOrder(t *testing.T) {
	g := New[string]()
	for _, v := range []string{"z", "m", "a", "q"} {
		g.AddVertex(v)
	}
	g.Connect("z", "q")
	g.Connect("z", "a")
	g.Connect("z", "m")

	assert.Equal(t, []string{"z", "m", "a", "q"}, g.Vertices())
	assert.Equal(t, []string{"m", "a", "q"}, g.Successors("z"))
}

func TestDigraphCloneIsolation(t *testing.T) {
	g := chain()
	c := g.Clone()

	c.Connect("c", "d")
	c.RemoveVertex("a")
	c.Disconnect("b", "c")

	assert.Equal(t, 3, g.Len())
	assert.True(t, g.ContainsVertex("a"))
	assert.False(t, g.ContainsVertex("d"))
	assert.True(t, g.ContainsEdge("b", "c"))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestDigraphReverse(t *testing.T) {
	r := chain().Reverse()
	assert.True(t, r.ContainsEdge("b", "a"))
	assert.True(t, r.ContainsEdge("c", "b"))
	assert.False(t, r.ContainsEdge("a", "b"))
	assert.Equal(t, []string{"b"}, r.Predecessors("a"))
}
