// ABOUTME: In-memory bidirectional directed graph
// ABOUTME: Keeps in and out edges per vertex, iteration follows insertion order

package graph

import "slices"

// Edge is a directed edge from Source to Target.
type Edge[V comparable] struct {
	Source V
	Target V
}

// NewEdge creates an edge from source to target.
func NewEdge[V comparable](source, target V) Edge[V] {
	return Edge[V]{Source: source, Target: target}
}

// IsSelfEdge reports whether the edge starts and ends at the same vertex.
func (e Edge[V]) IsSelfEdge() bool {
	return e.Source == e.Target
}

type adjacency[V comparable] struct {
	in  []Edge[V]
	out []Edge[V]
}

// Bidirectional is a directed graph that tracks both the in-edges and the
// out-edges of every vertex. Parallel edges are not allowed.
type Bidirectional[V comparable] struct {
	vertices []V
	adj      map[V]*adjacency[V]
	edges    []Edge[V]
	edgeSet  map[Edge[V]]struct{}

	// EdgeCapacity is a sizing hint for the edge storage of new vertices.
	EdgeCapacity int
}

// New creates an empty graph.
func New[V comparable]() *Bidirectional[V] {
	return &Bidirectional[V]{
		adj:     make(map[V]*adjacency[V]),
		edgeSet: make(map[Edge[V]]struct{}),
	}
}

// Clone returns a deep copy of g.
func (g *Bidirectional[V]) Clone() *Bidirectional[V] {
	c := &Bidirectional[V]{
		vertices:     slices.Clone(g.vertices),
		adj:          make(map[V]*adjacency[V], len(g.adj)),
		edges:        slices.Clone(g.edges),
		edgeSet:      make(map[Edge[V]]struct{}, len(g.edgeSet)),
		EdgeCapacity: g.EdgeCapacity,
	}
	for v, a := range g.adj {
		c.adj[v] = &adjacency[V]{in: slices.Clone(a.in), out: slices.Clone(a.out)}
	}
	for e := range g.edgeSet {
		c.edgeSet[e] = struct{}{}
	}
	return c
}

// IsDirected is always true.
func (g *Bidirectional[V]) IsDirected() bool { return true }

// AllowParallelEdges is always false.
func (g *Bidirectional[V]) AllowParallelEdges() bool { return false }

// VertexCount returns the number of vertices.
func (g *Bidirectional[V]) VertexCount() int { return len(g.vertices) }

// EdgeCount returns the number of edges.
func (g *Bidirectional[V]) EdgeCount() int { return len(g.edges) }

// IsVerticesEmpty reports whether the graph has no vertices.
func (g *Bidirectional[V]) IsVerticesEmpty() bool { return len(g.vertices) == 0 }

// IsEdgesEmpty reports whether the graph has no edges.
func (g *Bidirectional[V]) IsEdgesEmpty() bool { return len(g.edges) == 0 }

// Vertices returns the vertices in insertion order.
func (g *Bidirectional[V]) Vertices() []V { return slices.Clone(g.vertices) }

// Edges returns the edges in insertion order.
func (g *Bidirectional[V]) Edges() []Edge[V] { return slices.Clone(g.edges) }

// ContainsVertex reports whether v is in the graph.
func (g *Bidirectional[V]) ContainsVertex(v V) bool {
	_, ok := g.adj[v]
	return ok
}

// ContainsEdge reports whether e is in the graph.
func (g *Bidirectional[V]) ContainsEdge(e Edge[V]) bool {
	_, ok := g.edgeSet[e]
	return ok
}

// AddVertex adds v and reports whether it was not yet present.
func (g *Bidirectional[V]) AddVertex(v V) bool {
	if g.ContainsVertex(v) {
		return false
	}
	a := &adjacency[V]{}
	if g.EdgeCapacity > 0 {
		a.in = make([]Edge[V], 0, g.EdgeCapacity)
		a.out = make([]Edge[V], 0, g.EdgeCapacity)
	}
	g.adj[v] = a
	g.vertices = append(g.vertices, v)
	return true
}

// RemoveVertex removes v together with its edges and reports whether it was present.
func (g *Bidirectional[V]) RemoveVertex(v V) bool {
	a, ok := g.adj[v]
	if !ok {
		return false
	}
	for _, e := range slices.Concat(a.in, a.out) {
		g.RemoveEdge(e)
	}
	delete(g.adj, v)
	g.vertices = slices.DeleteFunc(g.vertices, func(x V) bool { return x == v })
	return true
}

// AddEdge adds e and reports whether it was added. Both end points must
// already be vertices of the graph.
func (g *Bidirectional[V]) AddEdge(e Edge[V]) bool {
	src, ok := g.adj[e.Source]
	if !ok {
		return false
	}
	dst, ok := g.adj[e.Target]
	if !ok {
		return false
	}
	if g.ContainsEdge(e) {
		return false
	}

	src.out = append(src.out, e)
	dst.in = append(dst.in, e)
	g.edges = append(g.edges, e)
	g.edgeSet[e] = struct{}{}
	return true
}

// RemoveEdge removes e and reports whether it was present.
func (g *Bidirectional[V]) RemoveEdge(e Edge[V]) bool {
	if !g.ContainsEdge(e) {
		return false
	}
	match := func(x Edge[V]) bool { return x == e }
	if src, ok := g.adj[e.Source]; ok {
		src.out = slices.DeleteFunc(src.out, match)
	}
	if dst, ok := g.adj[e.Target]; ok {
		dst.in = slices.DeleteFunc(dst.in, match)
	}
	g.edges = slices.DeleteFunc(g.edges, match)
	delete(g.edgeSet, e)
	return true
}

// InEdges returns the edges that end at v.
func (g *Bidirectional[V]) InEdges(v V) []Edge[V] {
	if a, ok := g.adj[v]; ok {
		return slices.Clone(a.in)
	}
	return nil
}

// OutEdges returns the edges that start at v.
func (g *Bidirectional[V]) OutEdges(v V) []Edge[V] {
	if a, ok := g.adj[v]; ok {
		return slices.Clone(a.out)
	}
	return nil
}

// InDegree returns the number of edges that end at v.
func (g *Bidirectional[V]) InDegree(v V) int {
	if a, ok := g.adj[v]; ok {
		return len(a.in)
	}
	return 0
}

// OutDegree returns the number of edges that start at v.
func (g *Bidirectional[V]) OutDegree(v V) int {
	if a, ok := g.adj[v]; ok {
		return len(a.out)
	}
	return 0
}

// Degree returns the number of edges incident to v.
func (g *Bidirectional[V]) Degree(v V) int {
	return g.InDegree(v) + g.OutDegree(v)
}

// TryGetEdge returns the edge from source to target if there is one.
func (g *Bidirectional[V]) TryGetEdge(source, target V) (Edge[V], bool) {
	e := NewEdge(source, target)
	return e, g.ContainsEdge(e)
}

// Clear removes every vertex and edge.
func (g *Bidirectional[V]) Clear() {
	g.vertices = nil
	g.edges = nil
	g.adj = make(map[V]*adjacency[V])
	g.edgeSet = make(map[Edge[V]]struct{})
}
