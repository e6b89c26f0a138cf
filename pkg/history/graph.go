// ABOUTME: History container for a bidirectional directed graph
// ABOUTME: Vertex and edge edits are replayed onto a cloned snapshot

package history

import (
	"github.com/nainya/timestore/pkg/graph"
)

// GraphHistory tracks a directed graph with vertices of type E over time. The
// vertices are stored internally as S.
type GraphHistory[E, S comparable] struct {
	snapshotStore[*graph.Bidirectional[S]]

	toStorage  func(E) S
	toExternal func(S) E
}

// NewGraph creates a history container for a graph of plain vertices.
func NewGraph[V comparable](opts ...Option) *GraphHistory[V, V] {
	identity := func(v V) V { return v }
	return newGraphHistory(identity, identity, opts)
}

// NewObjectGraph creates a history container for a graph whose vertices are
// history-enabled objects. Only the IDs are stored.
func NewObjectGraph[T Ref](lookup func(ID) T, opts ...Option) *GraphHistory[T, ID] {
	return newGraphHistory(idOf[T], lookup, opts)
}

func newGraphHistory[E, S comparable](toStorage func(E) S, toExternal func(S) E, opts []Option) *GraphHistory[E, S] {
	clone := func(old *graph.Bidirectional[S], ok bool) *graph.Bidirectional[S] {
		if !ok || old == nil {
			return graph.New[S]()
		}
		return old.Clone()
	}
	return &GraphHistory[E, S]{
		snapshotStore: newSnapshotStore(clone, opts),
		toStorage:     toStorage,
		toExternal:    toExternal,
	}
}

func (h *GraphHistory[E, S]) edgeToStorage(e graph.Edge[E]) graph.Edge[S] {
	return graph.NewEdge(h.toStorage(e.Source), h.toStorage(e.Target))
}

func (h *GraphHistory[E, S]) edgeToExternal(e graph.Edge[S]) graph.Edge[E] {
	return graph.NewEdge(h.toExternal(e.Source), h.toExternal(e.Target))
}

func (h *GraphHistory[E, S]) edgesToExternal(edges []graph.Edge[S]) []graph.Edge[E] {
	result := make([]graph.Edge[E], len(edges))
	for i, e := range edges {
		result[i] = h.edgeToExternal(e)
	}
	return result
}

// VertexCount returns the number of vertices.
func (h *GraphHistory[E, S]) VertexCount() int { return h.current.VertexCount() }

// EdgeCount returns the number of edges.
func (h *GraphHistory[E, S]) EdgeCount() int { return h.current.EdgeCount() }

// IsVerticesEmpty reports whether the graph has no vertices.
func (h *GraphHistory[E, S]) IsVerticesEmpty() bool { return h.current.IsVerticesEmpty() }

// IsEdgesEmpty reports whether the graph has no edges.
func (h *GraphHistory[E, S]) IsEdgesEmpty() bool { return h.current.IsEdgesEmpty() }

// Vertices returns the vertices in insertion order.
func (h *GraphHistory[E, S]) Vertices() []E {
	stored := h.current.Vertices()
	result := make([]E, len(stored))
	for i, v := range stored {
		result[i] = h.toExternal(v)
	}
	return result
}

// Edges returns the edges in insertion order.
func (h *GraphHistory[E, S]) Edges() []graph.Edge[E] {
	return h.edgesToExternal(h.current.Edges())
}

// ContainsVertex reports whether v is in the graph.
func (h *GraphHistory[E, S]) ContainsVertex(v E) bool {
	return h.current.ContainsVertex(h.toStorage(v))
}

// ContainsEdge reports whether there is an edge from source to target.
func (h *GraphHistory[E, S]) ContainsEdge(source, target E) bool {
	_, ok := h.current.TryGetEdge(h.toStorage(source), h.toStorage(target))
	return ok
}

// InEdges returns the edges that end at v.
func (h *GraphHistory[E, S]) InEdges(v E) []graph.Edge[E] {
	return h.edgesToExternal(h.current.InEdges(h.toStorage(v)))
}

// OutEdges returns the edges that start at v.
func (h *GraphHistory[E, S]) OutEdges(v E) []graph.Edge[E] {
	return h.edgesToExternal(h.current.OutEdges(h.toStorage(v)))
}

// InDegree returns the number of edges that end at v.
func (h *GraphHistory[E, S]) InDegree(v E) int { return h.current.InDegree(h.toStorage(v)) }

// OutDegree returns the number of edges that start at v.
func (h *GraphHistory[E, S]) OutDegree(v E) int { return h.current.OutDegree(h.toStorage(v)) }

// Degree returns the number of edges incident to v.
func (h *GraphHistory[E, S]) Degree(v E) int { return h.current.Degree(h.toStorage(v)) }

// EdgeCapacity returns the edge sizing hint.
func (h *GraphHistory[E, S]) EdgeCapacity() int { return h.current.EdgeCapacity }

// SetEdgeCapacity changes the edge sizing hint.
func (h *GraphHistory[E, S]) SetEdgeCapacity(capacity int) {
	if capacity == h.current.EdgeCapacity {
		return
	}
	h.current.EdgeCapacity = capacity
	h.record(edgeCapacityChange[S]{capacity: capacity})
}

// AddVertex adds v and reports whether it was not yet present.
func (h *GraphHistory[E, S]) AddVertex(v E) bool {
	stored := h.toStorage(v)
	if !h.current.AddVertex(stored) {
		return false
	}
	h.record(addVertexChange[S]{vertex: stored})
	return true
}

// AddVertexRange adds every vertex and returns the number that were added.
func (h *GraphHistory[E, S]) AddVertexRange(vertices []E) int {
	count := 0
	for _, v := range vertices {
		if h.AddVertex(v) {
			count++
		}
	}
	return count
}

// RemoveVertex removes v and its edges and reports whether it was present.
func (h *GraphHistory[E, S]) RemoveVertex(v E) bool {
	return h.removeStoredVertex(h.toStorage(v))
}

func (h *GraphHistory[E, S]) removeStoredVertex(stored S) bool {
	if !h.current.RemoveVertex(stored) {
		return false
	}
	h.record(removeVertexChange[S]{vertex: stored})
	return true
}

// RemoveVertexIf removes every vertex matching pred and returns the number
// that were removed. Vertices are matched on their external form and removed
// by their stored form, so a vertex whose object no longer resolves is still
// removed.
func (h *GraphHistory[E, S]) RemoveVertexIf(pred func(E) bool) int {
	var remove []S
	for _, v := range h.current.Vertices() {
		if pred(h.toExternal(v)) {
			remove = append(remove, v)
		}
	}
	count := 0
	for _, v := range remove {
		if h.removeStoredVertex(v) {
			count++
		}
	}
	return count
}

// AddEdge adds an edge between two existing vertices and reports whether it was added.
func (h *GraphHistory[E, S]) AddEdge(e graph.Edge[E]) bool {
	stored := h.edgeToStorage(e)
	if !h.current.AddEdge(stored) {
		return false
	}
	h.record(addEdgeChange[S]{edge: stored})
	return true
}

// AddEdgeRange adds every edge and returns the number that were added.
func (h *GraphHistory[E, S]) AddEdgeRange(edges []graph.Edge[E]) int {
	count := 0
	for _, e := range edges {
		if h.AddEdge(e) {
			count++
		}
	}
	return count
}

// AddVerticesAndEdge adds both end points when missing, then the edge.
func (h *GraphHistory[E, S]) AddVerticesAndEdge(e graph.Edge[E]) bool {
	h.AddVertex(e.Source)
	h.AddVertex(e.Target)
	return h.AddEdge(e)
}

// AddVerticesAndEdgeRange calls AddVerticesAndEdge for every edge.
func (h *GraphHistory[E, S]) AddVerticesAndEdgeRange(edges []graph.Edge[E]) int {
	count := 0
	for _, e := range edges {
		if h.AddVerticesAndEdge(e) {
			count++
		}
	}
	return count
}

// RemoveEdge removes e and reports whether it was present.
func (h *GraphHistory[E, S]) RemoveEdge(e graph.Edge[E]) bool {
	return h.removeStoredEdge(h.edgeToStorage(e))
}

func (h *GraphHistory[E, S]) removeStoredEdge(stored graph.Edge[S]) bool {
	if !h.current.RemoveEdge(stored) {
		return false
	}
	h.record(removeEdgeChange[S]{edge: stored})
	return true
}

func (h *GraphHistory[E, S]) removeEdgesIf(edges []graph.Edge[S], pred func(graph.Edge[E]) bool) int {
	var remove []graph.Edge[S]
	for _, e := range edges {
		if pred(h.edgeToExternal(e)) {
			remove = append(remove, e)
		}
	}
	count := 0
	for _, e := range remove {
		if h.removeStoredEdge(e) {
			count++
		}
	}
	return count
}

// RemoveEdgeIf removes every edge matching pred and returns the count.
func (h *GraphHistory[E, S]) RemoveEdgeIf(pred func(graph.Edge[E]) bool) int {
	return h.removeEdgesIf(h.current.Edges(), pred)
}

// RemoveInEdgeIf removes the in-edges of v matching pred.
func (h *GraphHistory[E, S]) RemoveInEdgeIf(v E, pred func(graph.Edge[E]) bool) int {
	return h.removeEdgesIf(h.current.InEdges(h.toStorage(v)), pred)
}

// RemoveOutEdgeIf removes the out-edges of v matching pred.
func (h *GraphHistory[E, S]) RemoveOutEdgeIf(v E, pred func(graph.Edge[E]) bool) int {
	return h.removeEdgesIf(h.current.OutEdges(h.toStorage(v)), pred)
}

func all[E comparable](graph.Edge[E]) bool { return true }

// ClearEdges removes every edge incident to v.
func (h *GraphHistory[E, S]) ClearEdges(v E) {
	h.RemoveInEdgeIf(v, all[E])
	h.RemoveOutEdgeIf(v, all[E])
}

// ClearInEdges removes every edge that ends at v.
func (h *GraphHistory[E, S]) ClearInEdges(v E) {
	h.RemoveInEdgeIf(v, all[E])
}

// ClearOutEdges removes every edge that starts at v.
func (h *GraphHistory[E, S]) ClearOutEdges(v E) {
	h.RemoveOutEdgeIf(v, all[E])
}

// Clear removes every vertex and edge. Pending vertex and edge edits are
// superseded, pending capacity edits are kept.
func (h *GraphHistory[E, S]) Clear() {
	kept := h.pending[:0]
	for _, c := range h.pending {
		if gc, ok := c.(graphChange); ok && gc.affectedByClear() {
			continue
		}
		kept = append(kept, c)
	}
	h.pending = kept

	h.current.Clear()
	h.record(clearGraphChange[S]{})
}

// MergeVertex removes v and connects each of its in-edge sources to each of
// its out-edge targets with edges built by factory. Self edges of v are dropped.
func (h *GraphHistory[E, S]) MergeVertex(v E, factory func(source, target E) graph.Edge[E]) {
	h.mergeStoredVertex(h.toStorage(v), factory)
}

func (h *GraphHistory[E, S]) mergeStoredVertex(stored S, factory func(source, target E) graph.Edge[E]) bool {
	in := h.current.InEdges(stored)
	out := h.current.OutEdges(stored)
	if !h.removeStoredVertex(stored) {
		return false
	}

	for _, ie := range in {
		if ie.Source == stored {
			continue
		}
		for _, oe := range out {
			if oe.Target == stored {
				continue
			}
			h.AddEdge(factory(h.toExternal(ie.Source), h.toExternal(oe.Target)))
		}
	}
	return true
}

// MergeVertexIf merges every vertex matching pred and returns the number that
// were merged.
func (h *GraphHistory[E, S]) MergeVertexIf(pred func(E) bool, factory func(source, target E) graph.Edge[E]) int {
	var merge []S
	for _, v := range h.current.Vertices() {
		if pred(h.toExternal(v)) {
			merge = append(merge, v)
		}
	}
	count := 0
	for _, v := range merge {
		if h.mergeStoredVertex(v, factory) {
			count++
		}
	}
	return count
}

// Clone returns a copy of the current graph in storage form.
func (h *GraphHistory[E, S]) Clone() *graph.Bidirectional[S] {
	return h.current.Clone()
}

type graphChange interface {
	affectedByClear() bool
}

type edgeCapacityChange[S comparable] struct {
	capacity int
}

func (c edgeCapacityChange[S]) Apply(g *graph.Bidirectional[S]) *graph.Bidirectional[S] {
	g.EdgeCapacity = c.capacity
	return g
}

func (edgeCapacityChange[S]) affectedByClear() bool { return false }

type addVertexChange[S comparable] struct {
	vertex S
}

func (c addVertexChange[S]) Apply(g *graph.Bidirectional[S]) *graph.Bidirectional[S] {
	g.AddVertex(c.vertex)
	return g
}

func (addVertexChange[S]) affectedByClear() bool { return true }

type removeVertexChange[S comparable] struct {
	vertex S
}

func (c removeVertexChange[S]) Apply(g *graph.Bidirectional[S]) *graph.Bidirectional[S] {
	g.RemoveVertex(c.vertex)
	return g
}

func (removeVertexChange[S]) affectedByClear() bool { return true }

type addEdgeChange[S comparable] struct {
	edge graph.Edge[S]
}

func (c addEdgeChange[S]) Apply(g *graph.Bidirectional[S]) *graph.Bidirectional[S] {
	g.AddEdge(c.edge)
	return g
}

func (addEdgeChange[S]) affectedByClear() bool { return true }

type removeEdgeChange[S comparable] struct {
	edge graph.Edge[S]
}

func (c removeEdgeChange[S]) Apply(g *graph.Bidirectional[S]) *graph.Bidirectional[S] {
	g.RemoveEdge(c.edge)
	return g
}

func (removeEdgeChange[S]) affectedByClear() bool { return true }

type clearGraphChange[S comparable] struct{}

func (clearGraphChange[S]) Apply(g *graph.Bidirectional[S]) *graph.Bidirectional[S] {
	g.Clear()
	return g
}

func (clearGraphChange[S]) affectedByClear() bool { return true }
