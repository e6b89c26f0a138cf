package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markers(n int) []Marker {
	result := make([]Marker, n)
	m := BeginningOfTime
	for i := range result {
		m = m.Next()
		result[i] = m
	}
	return result
}

func TestArchiveStoreAndRoll(t *testing.T) {
	m := markers(3)
	a := NewArchive[string]()
	require.True(t, a.IsAtBeginOfTime())
	require.True(t, a.IsAtEndOfTime())

	a.StoreCurrent(m[0], "a")
	a.StoreCurrent(m[1], "b")
	a.StoreCurrent(m[2], "c")
	assert.Equal(t, "c", a.LastValue())
	assert.Equal(t, m[2], a.LastTime())

	var stepped []string
	v, err := a.RollBackTo(m[0], func(_ Marker, s string) { stepped = append(stepped, s) })
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.Equal(t, []string{"c", "b"}, stepped)
	assert.Equal(t, 1, a.PastCount())
	assert.Equal(t, 2, a.FutureCount())

	next, ok := a.NextTime()
	require.True(t, ok)
	assert.Equal(t, m[1], next)

	stepped = nil
	v, err = a.RollForwardTo(m[2], func(_ Marker, s string) { stepped = append(stepped, s) })
	require.NoError(t, err)
	assert.Equal(t, "c", v)
	assert.Equal(t, []string{"b", "c"}, stepped)
	assert.True(t, a.IsAtEndOfTime())
}

func TestArchiveEmptyRunsFail(t *testing.T) {
	a := NewArchive[int]()

	_, err := a.RollBackTo(BeginningOfTime, nil)
	assert.ErrorIs(t, err, ErrNoPriorValue)

	_, err = a.RollForwardTo(BeginningOfTime.Next(), nil)
	assert.ErrorIs(t, err, ErrNoFutureValue)
}

func TestArchiveClampsBeforeEarliest(t *testing.T) {
	m := markers(4)
	a := NewArchive[int]()
	a.StoreCurrent(m[2], 3)
	a.StoreCurrent(m[3], 4)

	assert.True(t, a.WouldRollBackPastTheBeginningOfTime(m[0]))
	_, err := a.RollBackTo(m[0], nil)
	require.NoError(t, err)
	assert.True(t, a.IsAtBeginOfTime())
	assert.Equal(t, 2, a.FutureCount())
}

func TestArchiveStoreForgetsTheFuture(t *testing.T) {
	m := markers(3)
	a := NewArchive[int]()
	a.StoreCurrent(m[0], 1)
	a.StoreCurrent(m[1], 2)

	_, err := a.RollBackTo(m[0], nil)
	require.NoError(t, err)
	a.StoreCurrent(m[2], 3)

	assert.True(t, a.IsAtEndOfTime())
	assert.Equal(t, 2, a.PastCount())
	assert.Equal(t, 3, a.LastValue())
}

func TestArchiveTracking(t *testing.T) {
	m := markers(4)
	a := NewArchive[int]()
	for i, marker := range m {
		a.StoreCurrent(marker, i)
	}
	_, err := a.RollBackTo(m[1], nil)
	require.NoError(t, err)

	var back []int
	a.TrackBackwardsInTime(func(_ Marker, v int) bool {
		back = append(back, v)
		return true
	})
	assert.Equal(t, []int{1, 0}, back)

	var forward []int
	a.TrackForwardsInTime(func(_ Marker, v int) bool {
		forward = append(forward, v)
		return len(forward) < 1
	})
	assert.Equal(t, []int{2}, forward)

	a.ForgetThePast()
	assert.True(t, a.IsAtBeginOfTime())
	assert.Equal(t, 2, a.FutureCount())

	a.ForgetAllHistory()
	assert.True(t, a.IsAtEndOfTime())
}

func TestMarkerOrdering(t *testing.T) {
	m1 := BeginningOfTime.Next()
	m2 := m1.NextNamed("two")

	assert.True(t, m1.After(BeginningOfTime))
	assert.True(t, m1.Before(m2))
	assert.Equal(t, -1, m1.Compare(m2))
	assert.Equal(t, 0, m2.Compare(m1.Next()))
	assert.True(t, m2.Equal(m1.Next()))
	assert.Equal(t, "two", m2.Name())
	assert.Equal(t, "marker[2:two]", m2.String())
	assert.True(t, BeginningOfTime.IsBeginningOfTime())
}

func TestIDs(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.True(t, a.IsValid())
	assert.Greater(t, uint64(b), uint64(a))
	assert.False(t, NoID.IsValid())

	parsed, err := ParseID(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	parsed, err = ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, ID(42), parsed)

	_, err = ParseID("history-x")
	assert.Error(t, err)
}
