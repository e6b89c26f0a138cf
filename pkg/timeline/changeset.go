// ABOUTME: Scoped unit of work that is either marked as a whole or discarded
// ABOUTME: Closing an unstored change-set rolls the timeline back to its current marker

package timeline

import (
	"fmt"

	"github.com/nainya/timestore/pkg/history"
)

// ChangeSet groups the edits made between its creation and Close.
type ChangeSet struct {
	timeline *Timeline
	name     string
	deps     []Dependency

	store  bool
	closed bool
	marker history.Marker
}

// RecordHistory opens a change-set. The name is used for the mark when the
// change-set is stored and may be empty.
func (t *Timeline) RecordHistory(name string) *ChangeSet {
	return &ChangeSet{timeline: t, name: name}
}

// SetName changes the name used for the mark.
func (c *ChangeSet) SetName(name string) error {
	if c.closed {
		return ErrChangeSetClosed
	}
	c.name = name
	return nil
}

// AddDependency attaches a veto to the mark this change-set will create.
func (c *ChangeSet) AddDependency(d Dependency) error {
	if c.closed {
		return ErrChangeSetClosed
	}
	c.deps = append(c.deps, d)
	return nil
}

// StoreChanges makes Close mark the timeline instead of discarding the edits.
func (c *ChangeSet) StoreChanges() {
	c.store = true
}

// Close marks or discards the edits. A second Close returns ErrChangeSetClosed.
func (c *ChangeSet) Close() error {
	if c.closed {
		return ErrChangeSetClosed
	}
	c.closed = true

	t := c.timeline
	if c.store {
		previous := t.Current()
		m, err := t.Mark(c.name, c.deps...)
		if err != nil {
			return fmt.Errorf("store change-set: %w", err)
		}
		if m.After(previous) {
			c.marker = m
		}
		return nil
	}
	if err := t.RollBackTo(t.Current()); err != nil {
		return fmt.Errorf("discard change-set: %w", err)
	}
	return nil
}

// Marker returns the marker created by Close. It reports false when the
// change-set was discarded or had nothing to store.
func (c *ChangeSet) Marker() (history.Marker, bool) {
	return c.marker, c.closed && c.store && !c.marker.IsBeginningOfTime()
}

// Record runs fn inside a change-set and stores it only when fn succeeds.
func (t *Timeline) Record(name string, fn func(*ChangeSet) error) (history.Marker, error) {
	cs := t.RecordHistory(name)
	if err := fn(cs); err != nil {
		if closeErr := cs.Close(); closeErr != nil {
			return history.BeginningOfTime, fmt.Errorf("%w (discard: %v)", err, closeErr)
		}
		return history.BeginningOfTime, err
	}
	cs.StoreChanges()
	if err := cs.Close(); err != nil {
		return history.BeginningOfTime, err
	}
	if m, ok := cs.Marker(); ok {
		return m, nil
	}
	return t.Current(), nil
}
