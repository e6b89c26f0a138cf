// ABOUTME: Snapshot plus change-set storage shared by all field history containers
// ABOUTME: Replay cost is bounded by the distance to the nearest snapshot

package history

// DefaultSnapshotInterval is the number of change-sets recorded after a
// snapshot before the next store takes a new snapshot.
const DefaultSnapshotInterval = 20

// Storage is the timeline contract implemented by every field history
// container.
type Storage interface {
	// IsAtBeginOfTime reports whether nothing is stored in the past.
	IsAtBeginOfTime() bool

	// IsAtEndOfTime reports whether nothing is stored in the future.
	IsAtEndOfTime() bool

	// RollBackTo restores the state that was stored at or before m.
	RollBackTo(m Marker)

	// RollBackToStart restores the default state.
	RollBackToStart()

	// RollForwardTo restores the state that was stored at or before m.
	RollForwardTo(m Marker)

	// HasPendingChanges reports whether edits were made since the last store
	// or roll.
	HasPendingChanges() bool

	// StoreCurrent records the edits made since the last store at m.
	StoreCurrent(m Marker) error

	// StoreCurrentAsDefault records the current state at BeginningOfTime.
	StoreCurrentAsDefault() error

	// ForgetAllHistory removes the stored history and resets the state.
	ForgetAllHistory()

	// ForgetTheFuture removes everything stored after the current position.
	ForgetTheFuture()

	// OnValueChanged registers fn to be called after every roll.
	OnValueChanged(fn func())
}

// Change is a single replayable edit of a materialized state. Apply returns
// the edited state which may be the same value as the input.
type Change[T any] interface {
	Apply(state T) T
}

// Option configures a history container.
type Option func(*options)

type options struct {
	snapshotInterval int
}

// WithSnapshotInterval sets the number of change-sets between snapshots.
// Values below one are ignored.
func WithSnapshotInterval(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.snapshotInterval = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{snapshotInterval: DefaultSnapshotInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// snapshotStore holds the working state of a container together with its
// snapshot and change-set archives. The working state is replaced, never
// edited in place, whenever the store is rolled.
type snapshotStore[T any] struct {
	snapshots *Archive[T]
	changes   *Archive[[]Change[T]]

	// clone copies a state, an absent state is copied into an empty one
	clone func(state T, ok bool) T

	current T
	pending []Change[T]

	interval  int
	listeners []func()
}

func newSnapshotStore[T any](clone func(state T, ok bool) T, opts []Option) snapshotStore[T] {
	var zero T
	return snapshotStore[T]{
		snapshots: NewArchive[T](),
		changes:   NewArchive[[]Change[T]](),
		clone:     clone,
		current:   clone(zero, false),
		interval:  buildOptions(opts).snapshotInterval,
	}
}

// record registers an edit that has already been applied to the working state.
func (s *snapshotStore[T]) record(c Change[T]) {
	s.pending = append(s.pending, c)
}

func (s *snapshotStore[T]) IsAtBeginOfTime() bool {
	return s.snapshots.IsAtBeginOfTime() && s.changes.IsAtBeginOfTime()
}

func (s *snapshotStore[T]) IsAtEndOfTime() bool {
	return s.snapshots.IsAtEndOfTime() && s.changes.IsAtEndOfTime()
}

func (s *snapshotStore[T]) RollBackTo(m Marker) {
	s.moveTo(m)
}

func (s *snapshotStore[T]) RollBackToStart() {
	s.moveTo(BeginningOfTime)
}

func (s *snapshotStore[T]) RollForwardTo(m Marker) {
	s.moveTo(m)
}

// moveTo positions both archives at m and rebuilds the working state from the
// last snapshot at or before m followed by the change-sets stored after it.
func (s *snapshotStore[T]) moveTo(m Marker) {
	s.snapshots.seek(m)
	s.changes.seek(m)

	var base T
	hasBase := !s.snapshots.IsAtBeginOfTime()
	if hasBase {
		base = s.snapshots.LastValue()
	}
	baseTime := s.snapshots.LastTime()

	var replay [][]Change[T]
	s.changes.TrackBackwardsInTime(func(t Marker, set []Change[T]) bool {
		if !t.After(baseTime) {
			return false
		}
		replay = append(replay, set)
		return true
	})

	state := s.clone(base, hasBase)
	for i := len(replay) - 1; i >= 0; i-- {
		for _, c := range replay[i] {
			state = c.Apply(state)
		}
	}

	s.current = state
	s.pending = nil
	s.raiseValueChanged()
}

func (s *snapshotStore[T]) HasPendingChanges() bool {
	return len(s.pending) > 0
}

func (s *snapshotStore[T]) StoreCurrent(m Marker) error {
	if m.IsBeginningOfTime() {
		return ErrCannotStoreAtBeginningOfTime
	}
	if len(s.pending) == 0 {
		return nil
	}

	if s.shouldSnapshot() {
		s.snapshots.StoreCurrent(m, s.clone(s.current, true))
	} else {
		s.changes.StoreCurrent(m, s.pending)
	}

	s.pending = nil
	s.ForgetTheFuture()
	return nil
}

func (s *snapshotStore[T]) shouldSnapshot() bool {
	if s.snapshots.IsAtBeginOfTime() {
		return true
	}

	lastSnapshot := s.snapshots.LastTime()
	count := 0
	s.changes.TrackBackwardsInTime(func(t Marker, _ []Change[T]) bool {
		if !t.After(lastSnapshot) {
			return false
		}
		count++
		return true
	})
	return count >= s.interval
}

func (s *snapshotStore[T]) StoreCurrentAsDefault() error {
	if !s.snapshots.IsAtBeginOfTime() || !s.changes.IsAtBeginOfTime() {
		return ErrCannotSetDefaultAfterStart
	}

	s.snapshots.StoreCurrent(BeginningOfTime, s.clone(s.current, true))
	s.pending = nil
	return nil
}

func (s *snapshotStore[T]) ForgetAllHistory() {
	s.snapshots.ForgetAllHistory()
	s.changes.ForgetAllHistory()

	var zero T
	s.current = s.clone(zero, false)
	s.pending = nil
}

func (s *snapshotStore[T]) ForgetTheFuture() {
	s.snapshots.ForgetTheFuture()
	s.changes.ForgetTheFuture()
}

func (s *snapshotStore[T]) OnValueChanged(fn func()) {
	if fn != nil {
		s.listeners = append(s.listeners, fn)
	}
}

func (s *snapshotStore[T]) raiseValueChanged() {
	for _, fn := range s.listeners {
		fn()
	}
}

// SnapshotCount returns the number of snapshots in the past run.
func (s *snapshotStore[T]) SnapshotCount() int {
	return s.snapshots.PastCount()
}

// ChangeSetCount returns the number of change-sets in the past run.
func (s *snapshotStore[T]) ChangeSetCount() int {
	return s.changes.PastCount()
}
