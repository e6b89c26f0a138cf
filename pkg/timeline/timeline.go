// ABOUTME: Timeline coordinator that orders marks and moves every enrolled object through time
// ABOUTME: Owns the creation ledger, the dependency ledger, mark names and all trackers

package timeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/nainya/timestore/pkg/history"
)

// Option configures a Timeline.
type Option func(*Timeline)

// WithLogger sets the logger used for mark and roll events.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Timeline) {
		t.log = l
	}
}

// Stats is a point-in-time summary of the timeline.
type Stats struct {
	Current   history.Marker
	Latest    history.Marker
	Committed int
	Future    int
	Pending   int
	Alive     int
}

type events struct {
	mark           []func(history.Marker)
	rollingBack    []func(from, to history.Marker)
	rolledBack     []func(from, to history.Marker)
	rollingForward []func(from, to history.Marker)
	rolledForward  []func(from, to history.Marker)
	objectRolled   []func(id history.ID, rollBack bool)
}

// Timeline coordinates the history of a set of objects. It is not safe for
// concurrent use; callers serialize marks, rolls and object edits.
type Timeline struct {
	catalog *Catalog
	log     zerolog.Logger

	current history.Marker
	latest  history.Marker

	// created records, per mark, the IDs first committed at that mark
	created *history.Archive[[]history.ID]
	deps    *history.Archive[[]Dependency]
	names   map[string]history.Marker

	committed    map[history.ID]*tracker
	future       map[history.ID]*tracker
	pending      map[history.ID]*tracker
	pendingOrder []history.ID

	events events
}

// New creates an empty timeline positioned at the beginning of time.
func New(c *Catalog, opts ...Option) *Timeline {
	t := &Timeline{
		catalog: c,
		log:     zerolog.Nop(),
	}
	t.init()
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Timeline) init() {
	t.current = history.BeginningOfTime
	t.latest = history.BeginningOfTime
	t.created = history.NewArchive[[]history.ID]()
	t.deps = history.NewArchive[[]Dependency]()
	t.names = make(map[string]history.Marker)
	t.committed = make(map[history.ID]*tracker)
	t.future = make(map[history.ID]*tracker)
	t.pending = make(map[history.ID]*tracker)
	t.pendingOrder = nil
}

// Add creates a new object from d. The object is alive immediately but only
// becomes part of history at the next mark.
func Add[T history.Object](t *Timeline, d *Definition[T]) (T, error) {
	var zero T
	id := history.NewID()
	tr, err := newTracker(id, d.bp, t.catalog, t)
	if err != nil {
		return zero, err
	}
	tr.onRolled = t.raiseObjectRolled
	if err := tr.addToTimeline(); err != nil {
		return zero, err
	}

	obj, ok := tr.instance.(T)
	if !ok {
		built := tr.instance
		tr.cleanup()
		return zero, fmt.Errorf("%s built as %T: %w", d.name, built, ErrObjectTypeMismatch)
	}
	t.pending[id] = tr
	t.pendingOrder = append(t.pendingOrder, id)

	t.log.Debug().Str("id", id.String()).Str("type", d.name).Msg("object added")
	return obj, nil
}

// Lookup returns the current instance of id. The zero value is returned when
// the object exists on the timeline but is not alive at the current marker.
func Lookup[T history.Object](t *Timeline, id history.ID) (T, error) {
	var zero T
	tr, ok := t.tracker(id)
	if !ok {
		if _, inFuture := t.future[id]; inFuture {
			return zero, nil
		}
		return zero, fmt.Errorf("lookup %s: %w", id, ErrUnknownToTimeline)
	}
	if tr.instance == nil {
		return zero, nil
	}
	obj, ok := tr.instance.(T)
	if !ok {
		return zero, fmt.Errorf("lookup %s as %T: %w", id, zero, ErrObjectTypeMismatch)
	}
	return obj, nil
}

func (t *Timeline) tracker(id history.ID) (*tracker, bool) {
	if tr, ok := t.committed[id]; ok {
		return tr, true
	}
	tr, ok := t.pending[id]
	return tr, ok
}

// Resolve returns the live instance of id or nil.
func (t *Timeline) Resolve(id history.ID) history.Object {
	tr, ok := t.tracker(id)
	if !ok || tr.instance == nil {
		return nil
	}
	return tr.instance
}

// RemoveFromTimeline deletes the object. A committed object is tombstoned at
// the next mark, an object that was never marked is dropped outright.
func (t *Timeline) RemoveFromTimeline(id history.ID) error {
	if tr, ok := t.committed[id]; ok {
		if err := tr.deleteFromTimeline(); err != nil {
			return err
		}
		t.log.Debug().Str("id", id.String()).Msg("object removed")
		return nil
	}
	if tr, ok := t.pending[id]; ok {
		tr.cleanup()
		t.dropPending(id)
		t.log.Debug().Str("id", id.String()).Msg("pending object dropped")
		return nil
	}
	if _, ok := t.future[id]; ok {
		return fmt.Errorf("remove %s: %w", id, ErrAlreadyRemoved)
	}
	return fmt.Errorf("remove %s: %w", id, ErrUnknownToTimeline)
}

func (t *Timeline) dropPending(id history.ID) {
	delete(t.pending, id)
	t.pendingOrder = slices.DeleteFunc(t.pendingOrder, func(x history.ID) bool { return x == id })
}

// DoesObjectExistCurrently reports whether id is alive at the current marker.
func (t *Timeline) DoesObjectExistCurrently(id history.ID) bool {
	tr, ok := t.tracker(id)
	return ok && tr.isAlive()
}

// HasObjectEverExisted reports whether id is known anywhere on the timeline.
func (t *Timeline) HasObjectEverExisted(id history.ID) bool {
	if _, ok := t.tracker(id); ok {
		return true
	}
	_, ok := t.future[id]
	return ok
}

// LiveIDs returns the IDs of every object alive at the current marker in
// ascending order.
func (t *Timeline) LiveIDs() []history.ID {
	var ids []history.ID
	for id, tr := range t.committed {
		if tr.isAlive() {
			ids = append(ids, id)
		}
	}
	for id, tr := range t.pending {
		if tr.isAlive() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// SetCurrentAsDefault stores the current state of a new object as its
// default and commits it as existing since the beginning of time.
func (t *Timeline) SetCurrentAsDefault(id history.ID) error {
	if !t.current.IsBeginningOfTime() {
		return fmt.Errorf("default %s at %s: %w", id, t.current, history.ErrCannotSetDefaultAfterStart)
	}
	tr, ok := t.tracker(id)
	if !ok {
		return fmt.Errorf("default %s: %w", id, ErrUnknownToTimeline)
	}
	if err := tr.setCurrentAsDefault(); err != nil {
		return err
	}
	if _, isPending := t.pending[id]; isPending {
		t.dropPending(id)
		t.committed[id] = tr
	}
	return nil
}

// Current returns the marker the timeline is positioned at.
func (t *Timeline) Current() history.Marker { return t.current }

// Latest returns the most recent marker that can be rolled forward to.
func (t *Timeline) Latest() history.Marker { return t.latest }

// CanRollBack reports whether the timeline is past the beginning of time.
func (t *Timeline) CanRollBack() bool {
	return t.current.After(history.BeginningOfTime)
}

// CanRollForward reports whether there are marks after the current one.
func (t *Timeline) CanRollForward() bool {
	return t.current.Before(t.latest)
}

// MarkerByName returns the marker registered under name.
func (t *Timeline) MarkerByName(name string) (history.Marker, error) {
	m, ok := t.names[name]
	if !ok {
		return history.BeginningOfTime, fmt.Errorf("marker %q: %w", name, ErrUnknownTimeMarker)
	}
	return m, nil
}

// FindMarker returns the recorded marker at position pos.
func (t *Timeline) FindMarker(pos uint64) (history.Marker, error) {
	if pos == 0 {
		return history.BeginningOfTime, nil
	}
	var found history.Marker
	ok := false
	visit := func(m history.Marker, _ []history.ID) bool {
		if m.Position() == pos {
			found, ok = m, true
			return false
		}
		return true
	}
	t.created.TrackBackwardsInTime(visit)
	if !ok {
		t.created.TrackForwardsInTime(visit)
	}
	if !ok {
		return history.BeginningOfTime, fmt.Errorf("marker %d: %w", pos, ErrUnknownTimeMarker)
	}
	return found, nil
}

// Names returns a copy of the name table.
func (t *Timeline) Names() map[string]history.Marker {
	names := make(map[string]history.Marker, len(t.names))
	for k, v := range t.names {
		names[k] = v
	}
	return names
}

// Stats returns counts of the trackers in each state.
func (t *Timeline) Stats() Stats {
	s := Stats{
		Current:   t.current,
		Latest:    t.latest,
		Committed: len(t.committed),
		Future:    len(t.future),
		Pending:   len(t.pending),
	}
	for _, tr := range t.committed {
		if tr.isAlive() {
			s.Alive++
		}
	}
	s.Alive += len(t.pending)
	return s
}

// Mark commits every edit made since the previous mark at a new marker. The
// name is optional; deps are checked by later rolls that cross this marker.
// The returned marker is valid even when some member fails to store.
//
// An unnamed mark without edits or dependencies stores nothing and returns
// the current marker.
func (t *Timeline) Mark(name string, deps ...Dependency) (history.Marker, error) {
	if name != "" {
		if existing, ok := t.names[name]; ok && !existing.After(t.current) {
			return history.BeginningOfTime, fmt.Errorf("mark %q already names %s: %w", name, existing, ErrDuplicateMarkName)
		}
	}
	if name == "" && len(deps) == 0 && !t.hasPendingChanges() {
		t.log.Debug().Str("marker", t.current.String()).Msg("mark without changes")
		return t.current, nil
	}

	newIDs := make([]history.ID, 0, len(t.pendingOrder))
	for _, id := range t.pendingOrder {
		t.committed[id] = t.pending[id]
		newIDs = append(newIDs, id)
	}
	clear(t.pending)
	t.pendingOrder = nil

	if pruned := len(t.future); pruned > 0 {
		clear(t.future)
		t.log.Debug().Int("pruned", pruned).Msg("forgot objects of the discarded future")
	}

	previous := t.current
	if name != "" {
		t.current = previous.NextNamed(name)
	} else {
		t.current = previous.Next()
	}
	t.created.StoreCurrent(t.current, newIDs)

	var errs []error
	for _, tr := range t.committed {
		if err := tr.mark(t.current); err != nil {
			errs = append(errs, err)
		}
	}

	t.deps.ForgetTheFuture()
	if len(deps) > 0 {
		t.deps.StoreCurrent(t.current, slices.Clone(deps))
	}

	for n, m := range t.names {
		if m.After(previous) {
			delete(t.names, n)
		}
	}
	if name != "" {
		t.names[name] = t.current
	}

	t.latest = t.current
	t.log.Debug().
		Str("marker", t.current.String()).
		Int("created", len(newIDs)).
		Int("dependencies", len(deps)).
		Msg("mark")

	for _, fn := range t.events.mark {
		fn(t.current)
	}
	return t.current, errors.Join(errs...)
}

func (t *Timeline) hasPendingChanges() bool {
	if len(t.pendingOrder) > 0 {
		return true
	}
	for _, tr := range t.committed {
		if tr.hasPendingChanges() {
			return true
		}
	}
	return false
}

// RollBackTo moves the timeline back to m. The roll is refused without any
// change when a dependency recorded after m vetoes it.
func (t *Timeline) RollBackTo(m history.Marker, travellers ...Traveller) error {
	if m.After(t.current) {
		return fmt.Errorf("roll back from %s to %s: %w", t.current, m, ErrInvalidTimeMarker)
	}
	if err := t.verifyRollBack(m); err != nil {
		return err
	}

	from := t.current
	t.raiseTravel(t.events.rollingBack, from, m)

	if !t.deps.IsAtBeginOfTime() {
		_, _ = t.deps.RollBackTo(m, nil)
	}

	var errs []error
	moved := make(map[history.ID]struct{})
	if !t.created.IsAtBeginOfTime() {
		_, _ = t.created.RollBackTo(m, func(_ history.Marker, ids []history.ID) {
			for _, id := range ids {
				tr, ok := t.committed[id]
				if !ok {
					continue
				}
				errs = append(errs, tr.rollBackTo(m))
				t.future[id] = tr
				delete(t.committed, id)
				moved[id] = struct{}{}
			}
		})
	}
	for _, tr := range t.committed {
		errs = append(errs, tr.rollBackTo(m))
	}

	t.discardPending()
	t.current = m
	t.deliver(travellers)

	t.log.Debug().
		Str("from", from.String()).
		Str("to", m.String()).
		Int("uncreated", len(moved)).
		Msg("rolled back")
	t.raiseTravel(t.events.rolledBack, from, m)
	return errors.Join(errs...)
}

// RollBackToName moves the timeline back to the marker registered as name.
func (t *Timeline) RollBackToName(name string, travellers ...Traveller) error {
	m, err := t.MarkerByName(name)
	if err != nil {
		return err
	}
	return t.RollBackTo(m, travellers...)
}

// RollForwardTo moves the timeline forward to m, which must not be after
// Latest.
func (t *Timeline) RollForwardTo(m history.Marker, travellers ...Traveller) error {
	if m.Before(t.current) || m.After(t.latest) {
		return fmt.Errorf("roll forward from %s to %s (latest %s): %w", t.current, m, t.latest, ErrInvalidTimeMarker)
	}
	if err := t.verifyRollForward(m); err != nil {
		return err
	}

	from := t.current
	t.raiseTravel(t.events.rollingForward, from, m)

	if !t.deps.IsAtEndOfTime() {
		_, _ = t.deps.RollForwardTo(m, nil)
	}

	var errs []error
	moved := make(map[history.ID]struct{})
	if !t.created.IsAtEndOfTime() {
		_, _ = t.created.RollForwardTo(m, func(_ history.Marker, ids []history.ID) {
			for _, id := range ids {
				tr, ok := t.future[id]
				if !ok {
					continue
				}
				errs = append(errs, tr.rollForwardTo(m))
				t.committed[id] = tr
				delete(t.future, id)
				moved[id] = struct{}{}
			}
		})
	}
	for id, tr := range t.committed {
		if _, ok := moved[id]; ok {
			continue
		}
		errs = append(errs, tr.rollForwardTo(m))
	}

	t.discardPending()
	t.current = m
	t.deliver(travellers)

	t.log.Debug().
		Str("from", from.String()).
		Str("to", m.String()).
		Int("created", len(moved)).
		Msg("rolled forward")
	t.raiseTravel(t.events.rolledForward, from, m)
	return errors.Join(errs...)
}

// RollForwardToName moves the timeline forward to the marker registered as name.
func (t *Timeline) RollForwardToName(name string, travellers ...Traveller) error {
	m, err := t.MarkerByName(name)
	if err != nil {
		return err
	}
	return t.RollForwardTo(m, travellers...)
}

func (t *Timeline) verifyRollBack(m history.Marker) error {
	var blockedAt history.Marker
	blocked := false
	t.deps.TrackBackwardsInTime(func(at history.Marker, deps []Dependency) bool {
		if !at.After(m) {
			return false
		}
		for _, d := range deps {
			if d.vetoes(true) {
				blockedAt, blocked = at, true
				return false
			}
		}
		return true
	})
	if blocked {
		t.log.Debug().Str("to", m.String()).Str("blocked_at", blockedAt.String()).Msg("roll back vetoed")
		return fmt.Errorf("roll back to %s across %s: %w", m, blockedAt, ErrRollBackBlocked)
	}
	return nil
}

func (t *Timeline) verifyRollForward(m history.Marker) error {
	var blockedAt history.Marker
	blocked := false
	t.deps.TrackForwardsInTime(func(at history.Marker, deps []Dependency) bool {
		if at.After(m) {
			return false
		}
		for _, d := range deps {
			if d.vetoes(false) {
				blockedAt, blocked = at, true
				return false
			}
		}
		return true
	})
	if blocked {
		t.log.Debug().Str("to", m.String()).Str("blocked_at", blockedAt.String()).Msg("roll forward vetoed")
		return fmt.Errorf("roll forward to %s across %s: %w", m, blockedAt, ErrRollForwardBlocked)
	}
	return nil
}

// discardPending drops every object created since the last mark.
func (t *Timeline) discardPending() {
	for _, id := range t.pendingOrder {
		t.pending[id].cleanup()
	}
	clear(t.pending)
	t.pendingOrder = nil
}

func (t *Timeline) deliver(travellers []Traveller) {
	for _, tv := range travellers {
		tr, ok := t.committed[tv.Owner]
		if !ok || tr.instance == nil {
			continue
		}
		if r, ok := tr.instance.(TravellerReceiver); ok {
			r.ReceiveTraveller(tv)
		}
	}
}

// Reset drops every object and all history and returns to the beginning of time.
func (t *Timeline) Reset() {
	for _, tr := range t.committed {
		tr.cleanup()
	}
	for _, id := range t.pendingOrder {
		t.pending[id].cleanup()
	}
	t.init()
	t.log.Debug().Msg("timeline reset")
}

// OnMark registers fn to be called after every mark.
func (t *Timeline) OnMark(fn func(history.Marker)) {
	t.events.mark = append(t.events.mark, fn)
}

// OnRollingBack registers fn to be called before a roll-back changes state.
func (t *Timeline) OnRollingBack(fn func(from, to history.Marker)) {
	t.events.rollingBack = append(t.events.rollingBack, fn)
}

// OnRolledBack registers fn to be called after a roll-back.
func (t *Timeline) OnRolledBack(fn func(from, to history.Marker)) {
	t.events.rolledBack = append(t.events.rolledBack, fn)
}

// OnRollingForward registers fn to be called before a roll-forward changes state.
func (t *Timeline) OnRollingForward(fn func(from, to history.Marker)) {
	t.events.rollingForward = append(t.events.rollingForward, fn)
}

// OnRolledForward registers fn to be called after a roll-forward.
func (t *Timeline) OnRolledForward(fn func(from, to history.Marker)) {
	t.events.rolledForward = append(t.events.rolledForward, fn)
}

// OnObjectRolled registers fn to be called for every object that is rolled.
func (t *Timeline) OnObjectRolled(fn func(id history.ID, rollBack bool)) {
	t.events.objectRolled = append(t.events.objectRolled, fn)
}

func (t *Timeline) raiseTravel(fns []func(from, to history.Marker), from, to history.Marker) {
	for _, fn := range fns {
		fn(from, to)
	}
}

func (t *Timeline) raiseObjectRolled(id history.ID, rollBack bool) {
	for _, fn := range t.events.objectRolled {
		fn(id, rollBack)
	}
}
