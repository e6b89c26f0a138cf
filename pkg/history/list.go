// ABOUTME: History container for an ordered list
// ABOUTME: Every edit is recorded as a minimal insert/remove/update/clear change

package history

import (
	"fmt"
	"slices"
)

// ListHistory tracks an ordered list of E over time, stored internally as a
// slice of S.
type ListHistory[E any, S comparable] struct {
	snapshotStore[[]S]

	toStorage  func(E) S
	toExternal func(S) E
}

// NewList creates a history container for a list of plain values.
func NewList[T comparable](opts ...Option) *ListHistory[T, T] {
	identity := func(v T) T { return v }
	return newListHistory(identity, identity, opts)
}

// NewObjectList creates a history container for a list of history-enabled
// objects. Only the IDs are stored.
func NewObjectList[T Ref](lookup func(ID) T, opts ...Option) *ListHistory[T, ID] {
	return newListHistory(idOf[T], lookup, opts)
}

func newListHistory[E any, S comparable](toStorage func(E) S, toExternal func(S) E, opts []Option) *ListHistory[E, S] {
	clone := func(old []S, ok bool) []S {
		if !ok || old == nil {
			return []S{}
		}
		return slices.Clone(old)
	}
	return &ListHistory[E, S]{
		snapshotStore: newSnapshotStore(clone, opts),
		toStorage:     toStorage,
		toExternal:    toExternal,
	}
}

// Len returns the number of items.
func (h *ListHistory[E, S]) Len() int {
	return len(h.current)
}

// Get returns the item at index.
func (h *ListHistory[E, S]) Get(index int) (E, error) {
	if index < 0 || index >= len(h.current) {
		var zero E
		return zero, fmt.Errorf("get %d of %d: %w", index, len(h.current), ErrIndexOutOfRange)
	}
	return h.toExternal(h.current[index]), nil
}

// Set replaces the item at index.
func (h *ListHistory[E, S]) Set(index int, v E) error {
	if index < 0 || index >= len(h.current) {
		return fmt.Errorf("set %d of %d: %w", index, len(h.current), ErrIndexOutOfRange)
	}
	stored := h.toStorage(v)
	h.current[index] = stored
	h.record(updateListItem[S]{index: index, value: stored})
	return nil
}

// Add appends v.
func (h *ListHistory[E, S]) Add(v E) {
	stored := h.toStorage(v)
	h.current = append(h.current, stored)
	h.record(insertListItem[S]{index: len(h.current) - 1, value: stored})
}

// Insert places v at index, shifting later items up.
func (h *ListHistory[E, S]) Insert(index int, v E) error {
	if index < 0 || index > len(h.current) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(h.current), ErrIndexOutOfRange)
	}
	stored := h.toStorage(v)
	h.current = slices.Insert(h.current, index, stored)
	h.record(insertListItem[S]{index: index, value: stored})
	return nil
}

// Remove removes the first occurrence of v and reports whether it was found.
func (h *ListHistory[E, S]) Remove(v E) bool {
	index := h.IndexOf(v)
	if index < 0 {
		return false
	}
	return h.RemoveAt(index) == nil
}

// RemoveAt removes the item at index.
func (h *ListHistory[E, S]) RemoveAt(index int) error {
	if index < 0 || index >= len(h.current) {
		return fmt.Errorf("remove at %d of %d: %w", index, len(h.current), ErrIndexOutOfRange)
	}
	h.current = slices.Delete(h.current, index, index+1)
	h.record(removeListItem[S]{index: index})
	return nil
}

// Clear removes all items. Edits made since the last store are superseded.
func (h *ListHistory[E, S]) Clear() {
	h.current = []S{}
	h.pending = h.pending[:0]
	h.record(clearList[S]{})
}

// IndexOf returns the index of the first occurrence of v, or -1.
func (h *ListHistory[E, S]) IndexOf(v E) int {
	return slices.Index(h.current, h.toStorage(v))
}

// Contains reports whether v is in the list.
func (h *ListHistory[E, S]) Contains(v E) bool {
	return h.IndexOf(v) >= 0
}

// Items returns a copy of the current items.
func (h *ListHistory[E, S]) Items() []E {
	items := make([]E, len(h.current))
	for i, s := range h.current {
		items[i] = h.toExternal(s)
	}
	return items
}

type insertListItem[S any] struct {
	index int
	value S
}

func (c insertListItem[S]) Apply(list []S) []S {
	return slices.Insert(list, c.index, c.value)
}

type removeListItem[S any] struct {
	index int
}

func (c removeListItem[S]) Apply(list []S) []S {
	return slices.Delete(list, c.index, c.index+1)
}

type updateListItem[S any] struct {
	index int
	value S
}

func (c updateListItem[S]) Apply(list []S) []S {
	list[c.index] = c.value
	return list
}

type clearList[S any] struct{}

func (clearList[S]) Apply([]S) []S {
	return []S{}
}
