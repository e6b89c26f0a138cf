package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEdits(t *testing.T) {
	l := NewList[string]()
	l.Add("a")
	l.Add("c")
	require.NoError(t, l.Insert(1, "b"))
	assert.Equal(t, []string{"a", "b", "c"}, l.Items())

	require.NoError(t, l.Set(0, "z"))
	v, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "z", v)

	assert.True(t, l.Remove("b"))
	assert.False(t, l.Remove("missing"))
	require.NoError(t, l.RemoveAt(0))
	assert.Equal(t, []string{"c"}, l.Items())
	assert.True(t, l.Contains("c"))
	assert.Equal(t, 0, l.IndexOf("c"))
	assert.Equal(t, 1, l.Len())

	_, err = l.Get(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Set(-1, "x"), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Insert(3, "x"), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.RemoveAt(1), ErrIndexOutOfRange)
}

func TestListReplayMatchesRecordedStates(t *testing.T) {
	m := markers(4)
	l := NewList[int]()

	l.Add(1)
	l.Add(2)
	require.NoError(t, l.StoreCurrent(m[0]))

	require.NoError(t, l.Insert(0, 0))
	require.NoError(t, l.Set(2, 20))
	require.NoError(t, l.StoreCurrent(m[1]))

	l.Clear()
	l.Add(7)
	require.NoError(t, l.StoreCurrent(m[2]))

	require.NoError(t, l.RemoveAt(0))
	require.NoError(t, l.StoreCurrent(m[3]))

	want := [][]int{{1, 2}, {0, 1, 20}, {7}, {}}
	for i := len(m) - 1; i >= 0; i-- {
		l.RollBackTo(m[i])
		assert.Equal(t, want[i], l.Items(), "at %s", m[i])
	}
	for i := range m {
		l.RollForwardTo(m[i])
		assert.Equal(t, want[i], l.Items(), "at %s", m[i])
	}
}

func TestListClearSupersedesPendingEdits(t *testing.T) {
	m := markers(1)
	l := NewList[int]()
	l.Add(1)
	l.Add(2)
	l.Clear()
	l.Add(3)
	require.NoError(t, l.StoreCurrent(m[0]))

	l.RollBackToStart()
	l.RollForwardTo(m[0])
	assert.Equal(t, []int{3}, l.Items())
}

func TestObjectList(t *testing.T) {
	m := markers(1)
	a := &item{id: NewID(), name: "a"}
	b := &item{id: NewID(), name: "b"}
	instances := map[ID]*item{a.id: a, b.id: b}

	l := NewObjectList(func(id ID) *item { return instances[id] })
	l.Add(a)
	l.Add(b)
	require.NoError(t, l.StoreCurrent(m[0]))
	assert.Equal(t, 1, l.IndexOf(b))

	b2 := &item{id: b.id, name: "b again"}
	instances[b.id] = b2
	l.RollBackTo(m[0])

	got, err := l.Get(1)
	require.NoError(t, err)
	assert.Same(t, b2, got)
	assert.True(t, l.Contains(b))
}

type listStep func(l *ListHistory[int, int])

func TestSnapshotIntervalIsTransparent(t *testing.T) {
	steps := []listStep{
		func(l *ListHistory[int, int]) { l.Add(1) },
		func(l *ListHistory[int, int]) { l.Add(2); l.Add(3) },
		func(l *ListHistory[int, int]) { _ = l.Insert(1, 9) },
		func(l *ListHistory[int, int]) { _ = l.RemoveAt(0) },
		func(l *ListHistory[int, int]) { _ = l.Set(0, 4) },
		func(l *ListHistory[int, int]) { l.Clear(); l.Add(5) },
		func(l *ListHistory[int, int]) { l.Add(6) },
		func(l *ListHistory[int, int]) {},
		func(l *ListHistory[int, int]) { l.Remove(5) },
		func(l *ListHistory[int, int]) { _ = l.Insert(0, 8) },
	}
	m := markers(len(steps))

	observe := func(interval int) [][]int {
		l := NewList[int](WithSnapshotInterval(interval))
		for i, step := range steps {
			step(l)
			require.NoError(t, l.StoreCurrent(m[i]))
		}

		var seen [][]int
		for i := len(m) - 1; i >= 0; i-- {
			l.RollBackTo(m[i])
			seen = append(seen, l.Items())
		}
		for i := range m {
			l.RollForwardTo(m[i])
			seen = append(seen, l.Items())
		}
		// zig-zag so that rolls start from mid-history positions
		for i := 0; i+3 < len(m); i += 2 {
			l.RollBackTo(m[i])
			seen = append(seen, l.Items())
			l.RollForwardTo(m[i+3])
			seen = append(seen, l.Items())
		}
		return seen
	}

	reference := observe(DefaultSnapshotInterval)
	for _, interval := range []int{1, 2, 3, 7} {
		assert.Equal(t, reference, observe(interval), "interval %d", interval)
	}
}

func TestSnapshotTakenAtInterval(t *testing.T) {
	m := markers(7)
	v := NewValue[int](WithSnapshotInterval(3))
	for i, marker := range m {
		v.Set(i + 1)
		require.NoError(t, v.StoreCurrent(marker))
	}
	// snapshot, 3 change-sets, snapshot, 2 change-sets
	assert.Equal(t, 2, v.SnapshotCount())
	assert.Equal(t, 5, v.ChangeSetCount())
}
