package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id   ID
	name string
}

func (i *item) HistoryID() ID { return i.id }

func TestValueRoundTrip(t *testing.T) {
	m := markers(5)
	v := NewValue[int]()
	for i, marker := range m {
		v.Set(i * 10)
		require.NoError(t, v.StoreCurrent(marker))
	}

	for i := range m {
		v.RollBackTo(m[i])
		assert.Equal(t, i*10, v.Value(), "rolled back to %s", m[i])
		v.RollForwardTo(m[len(m)-1])
		assert.Equal(t, 40, v.Value())
	}
}

func TestValueStoreAtBeginningOfTime(t *testing.T) {
	v := NewValue[string]()
	v.Set("x")
	assert.ErrorIs(t, v.StoreCurrent(BeginningOfTime), ErrCannotStoreAtBeginningOfTime)
}

func TestValueIdempotentStore(t *testing.T) {
	m := markers(3)
	v := NewValue[int]()
	v.Set(1)
	require.NoError(t, v.StoreCurrent(m[0]))
	v.Set(2)
	require.NoError(t, v.StoreCurrent(m[1]))

	snapshots, changes := v.SnapshotCount(), v.ChangeSetCount()
	require.NoError(t, v.StoreCurrent(m[2]))
	assert.Equal(t, snapshots, v.SnapshotCount())
	assert.Equal(t, changes, v.ChangeSetCount())
}

func TestValueRollDiscardsPendingEdits(t *testing.T) {
	m := markers(1)
	v := NewValue[int]()
	v.Set(1)
	require.NoError(t, v.StoreCurrent(m[0]))

	v.Set(99)
	v.RollBackTo(m[0])
	assert.Equal(t, 1, v.Value())

	require.NoError(t, v.StoreCurrent(m[0].Next()))
	assert.Equal(t, 0, v.ChangeSetCount())
}

func TestValueRollBeforeFirstStoreResets(t *testing.T) {
	m := markers(2)
	v := NewValue[int]()
	v.Set(7)
	require.NoError(t, v.StoreCurrent(m[1]))

	v.RollBackTo(m[0])
	assert.Equal(t, 0, v.Value())
	assert.True(t, v.IsAtBeginOfTime())
	assert.False(t, v.IsAtEndOfTime())

	v.RollForwardTo(m[1])
	assert.Equal(t, 7, v.Value())
}

func TestValueDefault(t *testing.T) {
	m := markers(2)
	v := NewValue[string]()
	v.Set("default")
	require.NoError(t, v.StoreCurrentAsDefault())

	v.Set("changed")
	require.NoError(t, v.StoreCurrent(m[0]))

	v.RollBackToStart()
	assert.Equal(t, "default", v.Value())

	assert.ErrorIs(t, v.StoreCurrentAsDefault(), ErrCannotSetDefaultAfterStart)
}

func TestValueBranchForgetsFuture(t *testing.T) {
	m := markers(4)
	v := NewValue[int]()
	for i := range 3 {
		v.Set(i + 1)
		require.NoError(t, v.StoreCurrent(m[i]))
	}

	v.RollBackTo(m[0])
	require.False(t, v.IsAtEndOfTime())

	v.Set(100)
	require.NoError(t, v.StoreCurrent(m[3]))
	assert.True(t, v.IsAtEndOfTime())

	v.RollBackTo(m[2])
	assert.Equal(t, 1, v.Value())
	v.RollForwardTo(m[3])
	assert.Equal(t, 100, v.Value())
}

func TestValueChangedListener(t *testing.T) {
	m := markers(1)
	v := NewValue[int]()
	calls := 0
	v.OnValueChanged(func() { calls++ })

	v.Set(1)
	require.NoError(t, v.StoreCurrent(m[0]))
	assert.Equal(t, 0, calls)

	v.RollBackToStart()
	v.RollForwardTo(m[0])
	assert.Equal(t, 2, calls)
}

func TestValueForgetAllHistory(t *testing.T) {
	v := NewValue[int]()
	v.Set(3)
	require.NoError(t, v.StoreCurrent(BeginningOfTime.Next()))

	v.ForgetAllHistory()
	assert.Equal(t, 0, v.Value())
	assert.True(t, v.IsAtBeginOfTime())
	assert.True(t, v.IsAtEndOfTime())
}

func TestObjectValueResolvesThroughLookup(t *testing.T) {
	m := markers(2)
	instances := map[ID]*item{}
	first := &item{id: NewID(), name: "first"}
	instances[first.id] = first

	v := NewObjectValue(func(id ID) *item { return instances[id] })
	assert.Nil(t, v.Value())

	v.Set(first)
	require.NoError(t, v.StoreCurrent(m[0]))
	v.Set(nil)
	require.NoError(t, v.StoreCurrent(m[1]))
	assert.Nil(t, v.Value())

	replacement := &item{id: first.id, name: "resurrected"}
	instances[first.id] = replacement

	v.RollBackTo(m[0])
	require.NotNil(t, v.Value())
	assert.Same(t, replacement, v.Value())
}
