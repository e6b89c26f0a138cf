// ABOUTME: Lifecycle tracker that binds one object identity to its member histories
// ABOUTME: Tracks creation and deletion markers and rebuilds instances on resurrection

package timeline

import (
	"errors"
	"fmt"

	"github.com/nainya/timestore/pkg/history"
)

// tracker follows one object identity through time. The instance is nil
// whenever the object is not alive at the current marker.
type tracker struct {
	id      history.ID
	bp      *blueprint
	members Members

	created    history.Marker
	hasCreated bool
	deleted    history.Marker
	hasDeleted bool

	instance history.Object

	onRolled func(id history.ID, rollBack bool)
}

func newTracker(id history.ID, bp *blueprint, c *Catalog, r Resolver) (*tracker, error) {
	members := make(Members, 0, len(bp.members))
	for _, spec := range bp.members {
		storage, err := c.Build(spec.Type, r)
		if err != nil {
			return nil, fmt.Errorf("%s member %q: %w", bp.name, spec.Name, err)
		}
		members = append(members, Member{MemberSpec: spec, Storage: storage})
	}
	return &tracker{id: id, bp: bp, members: members}, nil
}

func (tr *tracker) isAlive() bool {
	return tr.instance != nil
}

func (tr *tracker) isAtStartOfTime() bool {
	for _, m := range tr.members {
		if !m.Storage.IsAtBeginOfTime() {
			return false
		}
	}
	return true
}

func (tr *tracker) resurrect() error {
	obj, err := tr.bp.build(tr.id, tr.members)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", tr.bp.name, tr.id, err)
	}
	tr.instance = obj
	return nil
}

// cleanup drops the live instance.
func (tr *tracker) cleanup() {
	if tr.instance == nil {
		return
	}
	if r, ok := tr.instance.(Removable); ok {
		r.BeforeRemoval()
	}
	tr.instance = nil
}

// addToTimeline materializes the object for the first time.
func (tr *tracker) addToTimeline() error {
	if tr.isAlive() || !tr.isAtStartOfTime() {
		return fmt.Errorf("%s: %w", tr.id, ErrAlreadyCreated)
	}
	if tr.hasCreated {
		for _, m := range tr.members {
			m.Storage.ForgetAllHistory()
		}
	}
	if err := tr.resurrect(); err != nil {
		return err
	}
	tr.hasCreated = false
	tr.hasDeleted = false
	return nil
}

// deleteFromTimeline drops the instance. The deletion marker is assigned by
// the next mark.
func (tr *tracker) deleteFromTimeline() error {
	if !tr.isAlive() {
		return fmt.Errorf("%s: %w", tr.id, ErrAlreadyRemoved)
	}
	tr.cleanup()
	if tr.hasCreated {
		for _, m := range tr.members {
			m.Storage.ForgetTheFuture()
		}
		tr.hasDeleted = false
	}
	return nil
}

// rollBackTo moves the members to m. Members of an object that did not exist
// yet at m are left where they are; the next roll that reaches the object
// positions them again.
func (tr *tracker) rollBackTo(m history.Marker) error {
	if !tr.hasCreated {
		return nil
	}

	var err error
	switch {
	case tr.hasDeleted && !m.Before(tr.deleted):
		tr.cleanup()
	case m.Before(tr.created):
		tr.cleanup()
	default:
		for _, member := range tr.members {
			member.Storage.RollBackTo(m)
		}
		if !tr.isAlive() {
			err = tr.resurrect()
		}
	}

	tr.raiseRolled(true)
	return err
}

func (tr *tracker) rollForwardTo(m history.Marker) error {
	if !tr.hasCreated {
		return nil
	}

	var err error
	switch {
	case tr.hasDeleted && !m.Before(tr.deleted):
		for _, member := range tr.members {
			member.Storage.RollForwardTo(tr.deleted)
		}
		tr.cleanup()
	case m.Before(tr.created):
		tr.cleanup()
	default:
		for _, member := range tr.members {
			member.Storage.RollForwardTo(m)
		}
		if !tr.isAlive() {
			err = tr.resurrect()
		}
	}

	tr.raiseRolled(false)
	return err
}

func (tr *tracker) raiseRolled(rollBack bool) {
	if tr.onRolled != nil {
		tr.onRolled(tr.id, rollBack)
	}
}

// setCurrentAsDefault seeds every member with its current state and places
// the creation of the object at the beginning of time.
func (tr *tracker) setCurrentAsDefault() error {
	if !tr.isAlive() {
		return fmt.Errorf("%s: %w", tr.id, ErrObjectNeverCreated)
	}

	var errs []error
	for _, m := range tr.members {
		if err := m.Storage.StoreCurrentAsDefault(); err != nil {
			errs = append(errs, fmt.Errorf("member %q: %w", m.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if !tr.hasCreated {
		tr.created = history.BeginningOfTime
		tr.hasCreated = true
	}
	tr.hasDeleted = false
	return nil
}

// hasPendingChanges reports whether the next mark has anything to store for
// this object: member edits of a live object, or a deletion still waiting for
// its marker.
func (tr *tracker) hasPendingChanges() bool {
	if !tr.isAlive() {
		return tr.hasCreated && !tr.hasDeleted
	}
	if !tr.hasCreated {
		return true
	}
	for _, m := range tr.members {
		if m.Storage.HasPendingChanges() {
			return true
		}
	}
	return false
}

// mark stores the member edits of a live object at m. A dead object that has
// no deletion marker yet receives m as its deletion marker.
func (tr *tracker) mark(m history.Marker) error {
	if !tr.isAlive() {
		if tr.hasCreated && !tr.hasDeleted {
			tr.deleted = m
			tr.hasDeleted = true
		}
		return nil
	}

	for _, member := range tr.members {
		if err := member.Storage.StoreCurrent(m); err != nil {
			return fmt.Errorf("store %s member %q: %w", tr.id, member.Name, err)
		}
	}
	if !tr.hasCreated {
		tr.created = m
		tr.hasCreated = true
	}
	tr.hasDeleted = false
	return nil
}
