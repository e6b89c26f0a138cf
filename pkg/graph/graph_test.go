package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndRemove(t *testing.T) {
	g := New[string]()
	require.True(t, g.IsVerticesEmpty())
	assert.True(t, g.IsDirected())
	assert.False(t, g.AllowParallelEdges())

	assert.True(t, g.AddVertex("a"))
	assert.True(t, g.AddVertex("b"))
	assert.False(t, g.AddVertex("a"))

	assert.True(t, g.AddEdge(NewEdge("a", "b")))
	assert.False(t, g.AddEdge(NewEdge("a", "b")), "parallel edge")
	assert.False(t, g.AddEdge(NewEdge("a", "x")), "unknown target")
	assert.True(t, g.AddEdge(NewEdge("b", "b")))

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 3, g.Degree("b"))
	e, ok := g.TryGetEdge("b", "b")
	require.True(t, ok)
	assert.True(t, e.IsSelfEdge())

	assert.True(t, g.RemoveVertex("b"))
	assert.False(t, g.RemoveVertex("b"))
	assert.True(t, g.IsEdgesEmpty())
	assert.Empty(t, g.OutEdges("a"))
	assert.Nil(t, g.InEdges("b"))
}

func TestRemoveEdge(t *testing.T) {
	g := New[int]()
	g.AddVertex(1)
	g.AddVertex(2)
	g.AddEdge(NewEdge(1, 2))
	g.AddEdge(NewEdge(2, 1))

	assert.True(t, g.RemoveEdge(NewEdge(1, 2)))
	assert.False(t, g.RemoveEdge(NewEdge(1, 2)))
	assert.Equal(t, []Edge[int]{{Source: 2, Target: 1}}, g.Edges())
	assert.Equal(t, 0, g.OutDegree(1))
	assert.Equal(t, 1, g.InDegree(1))
}

func TestCloneIsIndependent(t *testing.T) {
	g := New[string]()
	g.EdgeCapacity = 4
	g.AddVertex("a")
	g.AddVertex("b")
	g.AddEdge(NewEdge("a", "b"))

	c := g.Clone()
	c.RemoveVertex("a")
	c.AddVertex("z")

	assert.Equal(t, []string{"a", "b"}, g.Vertices())
	assert.True(t, g.ContainsEdge(NewEdge("a", "b")))
	assert.Equal(t, []string{"b", "z"}, c.Vertices())
	assert.Equal(t, 4, c.EdgeCapacity)
	assert.Equal(t, 0, c.InDegree("b"))
	assert.Equal(t, 1, g.InDegree("b"))
}

func TestClear(t *testing.T) {
	g := New[int]()
	g.EdgeCapacity = 2
	g.AddVertex(1)
	g.AddVertex(2)
	g.AddEdge(NewEdge(1, 2))

	g.Clear()
	assert.True(t, g.IsVerticesEmpty())
	assert.True(t, g.IsEdgesEmpty())
	assert.False(t, g.ContainsVertex(1))
	assert.Equal(t, 2, g.EdgeCapacity)
	assert.True(t, g.AddVertex(1))
}
