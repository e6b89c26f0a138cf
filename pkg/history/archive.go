// ABOUTME: Past/future value archive shared by every history container
// ABOUTME: Rolling moves entries between the two runs, storing forgets the future

package history

// Archive stores values at points in time split into a past run and a future
// run. The past is kept oldest first, the future is kept furthest first so that
// the entries closest to the current position sit at the end of both slices.
//
// Rolling to a marker before the earliest stored entry is clamped to the
// earliest entry.
type Archive[T any] struct {
	past   []ValueAtTime[T]
	future []ValueAtTime[T]
}

// NewArchive creates an empty archive.
func NewArchive[T any]() *Archive[T] {
	return &Archive[T]{}
}

// IsAtBeginOfTime reports whether there are no past values.
func (a *Archive[T]) IsAtBeginOfTime() bool {
	return len(a.past) == 0
}

// IsAtEndOfTime reports whether there are no future values.
func (a *Archive[T]) IsAtEndOfTime() bool {
	return len(a.future) == 0
}

// WouldRollBackPastTheBeginningOfTime reports whether rolling back to m would
// move every past value into the future.
func (a *Archive[T]) WouldRollBackPastTheBeginningOfTime(m Marker) bool {
	if a.IsAtBeginOfTime() {
		return true
	}
	return a.past[0].Time.After(m)
}

// LastValue returns the most recent past value, or the zero value if there is none.
func (a *Archive[T]) LastValue() T {
	if len(a.past) == 0 {
		var zero T
		return zero
	}
	return a.past[len(a.past)-1].Value
}

// LastTime returns the marker of the most recent past value, or
// BeginningOfTime if there is none.
func (a *Archive[T]) LastTime() Marker {
	if len(a.past) == 0 {
		return BeginningOfTime
	}
	return a.past[len(a.past)-1].Time
}

// NextTime returns the marker of the nearest future value.
func (a *Archive[T]) NextTime() (Marker, bool) {
	if len(a.future) == 0 {
		return BeginningOfTime, false
	}
	return a.future[len(a.future)-1].Time, true
}

// PastCount returns the number of past values.
func (a *Archive[T]) PastCount() int { return len(a.past) }

// FutureCount returns the number of future values.
func (a *Archive[T]) FutureCount() int { return len(a.future) }

// TrackBackwardsInTime visits the past values, most recent first, until the
// visitor returns false.
func (a *Archive[T]) TrackBackwardsInTime(visitor func(Marker, T) bool) {
	for i := len(a.past) - 1; i >= 0; i-- {
		if !visitor(a.past[i].Time, a.past[i].Value) {
			return
		}
	}
}

// TrackForwardsInTime visits the future values, nearest first, until the
// visitor returns false.
func (a *Archive[T]) TrackForwardsInTime(visitor func(Marker, T) bool) {
	for i := len(a.future) - 1; i >= 0; i-- {
		if !visitor(a.future[i].Time, a.future[i].Value) {
			return
		}
	}
}

// RollBackTo moves every past value stored after m into the future and
// returns the value that is current afterwards. The optional step callback is
// invoked for each moved value, most recent first.
func (a *Archive[T]) RollBackTo(m Marker, step func(Marker, T)) (T, error) {
	if a.IsAtBeginOfTime() {
		var zero T
		return zero, ErrNoPriorValue
	}
	if a.WouldRollBackPastTheBeginningOfTime(m) {
		m = BeginningOfTime
	}

	for len(a.past) > 0 {
		last := a.past[len(a.past)-1]
		if !last.Time.After(m) {
			break
		}
		a.past = a.past[:len(a.past)-1]
		a.future = append(a.future, last)
		if step != nil {
			step(last.Time, last.Value)
		}
	}

	return a.LastValue(), nil
}

// RollBackToStart moves every past value into the future.
func (a *Archive[T]) RollBackToStart(step func(Marker, T)) (T, error) {
	return a.RollBackTo(BeginningOfTime, step)
}

// RollForwardTo moves every future value stored at or before m into the past
// and returns the value that is current afterwards. The optional step callback
// is invoked for each moved value, oldest first.
func (a *Archive[T]) RollForwardTo(m Marker, step func(Marker, T)) (T, error) {
	if a.IsAtEndOfTime() {
		var zero T
		return zero, ErrNoFutureValue
	}

	for len(a.future) > 0 {
		next := a.future[len(a.future)-1]
		if next.Time.After(m) {
			break
		}
		a.future = a.future[:len(a.future)-1]
		a.past = append(a.past, next)
		if step != nil {
			step(next.Time, next.Value)
		}
	}

	return a.LastValue(), nil
}

// StoreCurrent appends value at m to the past and forgets the future.
func (a *Archive[T]) StoreCurrent(m Marker, value T) {
	a.past = append(a.past, ValueAtTime[T]{Time: m, Value: value})
	a.ForgetTheFuture()
}

// ForgetAllHistory removes all past and future values.
func (a *Archive[T]) ForgetAllHistory() {
	a.ForgetThePast()
	a.ForgetTheFuture()
}

// ForgetThePast removes all past values.
func (a *Archive[T]) ForgetThePast() {
	clear(a.past)
	a.past = a.past[:0]
}

// ForgetTheFuture removes all future values.
func (a *Archive[T]) ForgetTheFuture() {
	clear(a.future)
	a.future = a.future[:0]
}

// seek positions the archive so that every value at or before m is in the
// past and every value after m is in the future.
func (a *Archive[T]) seek(m Marker) {
	if !a.IsAtBeginOfTime() && a.LastTime().After(m) {
		a.RollBackTo(m, nil)
		return
	}
	if next, ok := a.NextTime(); ok && !next.After(m) {
		a.RollForwardTo(m, nil)
	}
}
