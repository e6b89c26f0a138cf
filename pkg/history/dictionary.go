// ABOUTME: History container for a key/value mapping
// ABOUTME: Object values are stored by ID and resolved on read

package history

import (
	"fmt"
	"maps"
)

// DictionaryHistory tracks a mapping from K to E over time, storing the
// values internally as S.
type DictionaryHistory[K comparable, E, S any] struct {
	snapshotStore[map[K]S]

	toStorage  func(E) S
	toExternal func(S) E
}

// NewDictionary creates a history container for a mapping of plain values.
func NewDictionary[K comparable, V any](opts ...Option) *DictionaryHistory[K, V, V] {
	identity := func(v V) V { return v }
	return newDictionaryHistory[K](identity, identity, opts)
}

// NewObjectDictionary creates a history container for a mapping onto
// history-enabled objects. Only the IDs are stored.
func NewObjectDictionary[K comparable, T Ref](lookup func(ID) T, opts ...Option) *DictionaryHistory[K, T, ID] {
	return newDictionaryHistory[K](idOf[T], lookup, opts)
}

func newDictionaryHistory[K comparable, E, S any](toStorage func(E) S, toExternal func(S) E, opts []Option) *DictionaryHistory[K, E, S] {
	clone := func(old map[K]S, ok bool) map[K]S {
		if !ok || old == nil {
			return make(map[K]S)
		}
		return maps.Clone(old)
	}
	return &DictionaryHistory[K, E, S]{
		snapshotStore: newSnapshotStore(clone, opts),
		toStorage:     toStorage,
		toExternal:    toExternal,
	}
}

// Len returns the number of entries.
func (h *DictionaryHistory[K, E, S]) Len() int {
	return len(h.current)
}

// Add inserts a new entry. It fails if key is already present.
func (h *DictionaryHistory[K, E, S]) Add(key K, v E) error {
	if _, ok := h.current[key]; ok {
		return fmt.Errorf("add %v: %w", key, ErrDuplicateKey)
	}
	stored := h.toStorage(v)
	h.current[key] = stored
	h.record(setDictionaryItem[K, S]{key: key, value: stored})
	return nil
}

// Set inserts or replaces the entry for key.
func (h *DictionaryHistory[K, E, S]) Set(key K, v E) {
	stored := h.toStorage(v)
	h.current[key] = stored
	h.record(setDictionaryItem[K, S]{key: key, value: stored})
}

// Remove deletes the entry for key and reports whether it existed.
func (h *DictionaryHistory[K, E, S]) Remove(key K) bool {
	if _, ok := h.current[key]; !ok {
		return false
	}
	delete(h.current, key)
	h.record(removeDictionaryItem[K, S]{key: key})
	return true
}

// Clear removes all entries. Edits made since the last store are superseded.
func (h *DictionaryHistory[K, E, S]) Clear() {
	changed := len(h.current) > 0 || len(h.pending) > 0
	h.current = make(map[K]S)
	h.pending = h.pending[:0]
	if changed {
		h.record(clearDictionary[K, S]{})
	}
}

// Get returns the value for key.
func (h *DictionaryHistory[K, E, S]) Get(key K) (E, bool) {
	stored, ok := h.current[key]
	if !ok {
		var zero E
		return zero, false
	}
	return h.toExternal(stored), true
}

// ContainsKey reports whether key is present.
func (h *DictionaryHistory[K, E, S]) ContainsKey(key K) bool {
	_, ok := h.current[key]
	return ok
}

// Keys returns the keys in unspecified order.
func (h *DictionaryHistory[K, E, S]) Keys() []K {
	keys := make([]K, 0, len(h.current))
	for k := range h.current {
		keys = append(keys, k)
	}
	return keys
}

// Values returns the values in unspecified order.
func (h *DictionaryHistory[K, E, S]) Values() []E {
	values := make([]E, 0, len(h.current))
	for _, s := range h.current {
		values = append(values, h.toExternal(s))
	}
	return values
}

// Range calls fn for every entry until fn returns false.
func (h *DictionaryHistory[K, E, S]) Range(fn func(K, E) bool) {
	for k, s := range h.current {
		if !fn(k, h.toExternal(s)) {
			return
		}
	}
}

type setDictionaryItem[K comparable, S any] struct {
	key   K
	value S
}

func (c setDictionaryItem[K, S]) Apply(m map[K]S) map[K]S {
	m[c.key] = c.value
	return m
}

type removeDictionaryItem[K comparable, S any] struct {
	key K
}

func (c removeDictionaryItem[K, S]) Apply(m map[K]S) map[K]S {
	delete(m, c.key)
	return m
}

type clearDictionary[K comparable, S any] struct{}

func (clearDictionary[K, S]) Apply(map[K]S) map[K]S {
	return make(map[K]S)
}
