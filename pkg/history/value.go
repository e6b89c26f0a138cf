// ABOUTME: History container for a single value
// ABOUTME: Object values are stored by ID and resolved on read

package history

// ValueHistory tracks a single value of type E over time. The value is held
// internally as S; for plain values E and S are the same type, for
// history-enabled objects S is the object ID.
type ValueHistory[E, S any] struct {
	snapshotStore[S]

	toStorage  func(E) S
	toExternal func(S) E
}

// NewValue creates a history container for a plain value.
func NewValue[T any](opts ...Option) *ValueHistory[T, T] {
	identity := func(v T) T { return v }
	return newValueHistory(identity, identity, opts)
}

// NewObjectValue creates a history container that refers to a
// history-enabled object. Only the ID is stored; lookup resolves it to the
// instance that is current when the value is read.
func NewObjectValue[T Ref](lookup func(ID) T, opts ...Option) *ValueHistory[T, ID] {
	toExternal := func(id ID) T {
		if !id.IsValid() {
			var zero T
			return zero
		}
		return lookup(id)
	}
	return newValueHistory(idOf[T], toExternal, opts)
}

func newValueHistory[E, S any](toStorage func(E) S, toExternal func(S) E, opts []Option) *ValueHistory[E, S] {
	clone := func(v S, _ bool) S { return v }
	return &ValueHistory[E, S]{
		snapshotStore: newSnapshotStore(clone, opts),
		toStorage:     toStorage,
		toExternal:    toExternal,
	}
}

// Value returns the current value.
func (h *ValueHistory[E, S]) Value() E {
	return h.toExternal(h.current)
}

// Set replaces the current value.
func (h *ValueHistory[E, S]) Set(v E) {
	stored := h.toStorage(v)
	h.current = stored
	h.record(assignValue[S]{value: stored})
}

type assignValue[S any] struct {
	value S
}

func (c assignValue[S]) Apply(S) S {
	return c.value
}
