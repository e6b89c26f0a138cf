package workspace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/timestore/pkg/history"
	"github.com/nainya/timestore/pkg/timeline"
)

type recordingObserver struct {
	marks  int
	rolls  map[Direction]int
	failed int
	alive  int
}

func (o *recordingObserver) ObserveMark(history.Marker) { o.marks++ }

func (o *recordingObserver) ObserveRoll(dir Direction, err error) {
	if o.rolls == nil {
		o.rolls = map[Direction]int{}
	}
	o.rolls[dir]++
	if err != nil {
		o.failed++
	}
}

func (o *recordingObserver) ObserveObjects(alive, _ int) { o.alive = alive }

func newWorkspace(t *testing.T, opts ...Option) *Workspace {
	t.Helper()
	w, err := New(opts...)
	require.NoError(t, err)
	return w
}

func strPtr(s string) *string { return &s }

func TestNoteLifecycle(t *testing.T) {
	w := newWorkspace(t)

	id, err := w.CreateNote("groceries")
	require.NoError(t, err)
	m1, err := w.Mark("created", false)
	require.NoError(t, err)

	require.NoError(t, w.UpdateNote(id, NoteUpdate{
		Title:      strPtr("shopping"),
		AddTags:    []string{"home", "weekly", "home"},
		Attributes: map[string]string{"store": "corner"},
	}))
	_, err = w.Mark("", false)
	require.NoError(t, err)

	view, err := w.GetNote(id)
	require.NoError(t, err)
	assert.Equal(t, "shopping", view.Title)
	assert.Equal(t, []string{"home", "weekly"}, view.Tags)
	assert.Equal(t, map[string]string{"store": "corner"}, view.Attributes)

	status, err := w.RollBack(MarkerRef{Name: "created"})
	require.NoError(t, err)
	assert.True(t, status.Current.Equal(m1))
	assert.True(t, status.CanRollForward)

	view, err = w.GetNote(id)
	require.NoError(t, err)
	assert.Equal(t, "groceries", view.Title)
	assert.Empty(t, view.Tags)
	assert.Empty(t, view.Attributes)

	_, err = w.RollForward(MarkerRef{})
	require.NoError(t, err)
	view, err = w.GetNote(id)
	require.NoError(t, err)
	assert.Equal(t, "shopping", view.Title)
}

func TestDeleteAndUndo(t *testing.T) {
	w := newWorkspace(t)

	a, err := w.CreateNote("a")
	require.NoError(t, err)
	b, err := w.CreateNote("b")
	require.NoError(t, err)
	linked, err := w.LinkNotes(a, b)
	require.NoError(t, err)
	assert.True(t, linked)
	require.NoError(t, w.UpdateNote(a, NoteUpdate{Pinned: boolPtr(true)}))
	_, err = w.Mark("", false)
	require.NoError(t, err)

	require.NoError(t, w.DeleteNote(b))
	_, err = w.Mark("", false)
	require.NoError(t, err)

	_, err = w.GetNote(b)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	view, err := w.GetNote(a)
	require.NoError(t, err)
	assert.Empty(t, view.Links)
	assert.True(t, view.Pinned)

	_, err = w.RollBack(MarkerRef{})
	require.NoError(t, err)
	view, err = w.GetNote(a)
	require.NoError(t, err)
	assert.Equal(t, []history.ID{b}, view.Links)

	notes, err := w.ListNotes()
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "a", notes[0].Title)
	assert.Equal(t, "b", notes[1].Title)
}

func boolPtr(b bool) *bool { return &b }

func TestUnmarkedNotesAreDiscardedByRolls(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.CreateNote("kept")
	require.NoError(t, err)
	m1, err := w.Mark("", false)
	require.NoError(t, err)

	gone, err := w.CreateNote("gone")
	require.NoError(t, err)
	assert.Equal(t, 1, w.Status().Pending)

	_, err = w.RollBack(MarkerRef{Position: m1.Position(), HasPos: true})
	require.NoError(t, err)
	_, err = w.GetNote(gone)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, 1, w.Status().Notes)
}

func TestLockedMarkBlocksRollBack(t *testing.T) {
	obs := &recordingObserver{}
	w := newWorkspace(t, WithObserver(obs))

	_, err := w.CreateNote("draft")
	require.NoError(t, err)
	_, err = w.Mark("", false)
	require.NoError(t, err)
	_, err = w.CreateNote("published")
	require.NoError(t, err)
	locked, err := w.Mark("publish", true)
	require.NoError(t, err)

	status, err := w.RollBack(MarkerRef{})
	require.ErrorIs(t, err, timeline.ErrRollBackBlocked)
	assert.True(t, status.Current.Equal(locked))
	assert.Equal(t, 2, status.Notes)

	require.NoError(t, w.Unlock(locked.Position()))
	_, err = w.RollBack(MarkerRef{})
	require.NoError(t, err)
	assert.Equal(t, 1, w.Status().Notes)

	assert.ErrorIs(t, w.Unlock(99), ErrLockNotFound)
	assert.Equal(t, 2, obs.marks)
	assert.Equal(t, 2, obs.rolls[DirectionBack])
	assert.Equal(t, 1, obs.failed)
	assert.Equal(t, 2, obs.alive)
}

func TestUndoAtBeginningOfTime(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.RollBack(MarkerRef{})
	assert.ErrorIs(t, err, timeline.ErrInvalidTimeMarker)

	_, err = w.RollForward(MarkerRef{})
	assert.ErrorIs(t, err, timeline.ErrUnknownTimeMarker)
}

func TestValidation(t *testing.T) {
	w := newWorkspace(t, WithSnapshotInterval(2))
	_, err := w.CreateNote("")
	assert.ErrorIs(t, err, ErrEmptyTitle)

	id, err := w.CreateNote("x")
	require.NoError(t, err)
	assert.ErrorIs(t, w.UpdateNote(id, NoteUpdate{Title: strPtr("")}), ErrEmptyTitle)
	assert.ErrorIs(t, w.UpdateNote(history.NewID(), NoteUpdate{}), ErrNoteNotFound)

	_, err = w.LinkNotes(id, history.NewID())
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestRemoveTagsAndAttributes(t *testing.T) {
	w := newWorkspace(t)
	id, err := w.CreateNote("x")
	require.NoError(t, err)
	require.NoError(t, w.UpdateNote(id, NoteUpdate{
		AddTags:    []string{"a", "b"},
		Attributes: map[string]string{"k": "v", "j": "w"},
	}))
	require.NoError(t, w.UpdateNote(id, NoteUpdate{
		RemoveTags:       []string{"a"},
		RemoveAttributes: []string{"k"},
	}))

	view, err := w.GetNote(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, view.Tags)
	assert.Equal(t, map[string]string{"j": "w"}, view.Attributes)

	other, err := w.CreateNote("y")
	require.NoError(t, err)
	_, err = w.LinkNotes(id, other)
	require.NoError(t, err)
	removed, err := w.UnlinkNotes(id, other)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestReset(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.CreateNote("x")
	require.NoError(t, err)
	_, err = w.Mark("named", true)
	require.NoError(t, err)

	require.NoError(t, w.Reset())
	status := w.Status()
	assert.True(t, status.Current.IsBeginningOfTime())
	assert.Equal(t, 0, status.Notes)

	_, err = w.RollBack(MarkerRef{Name: "named"})
	assert.ErrorIs(t, err, timeline.ErrUnknownTimeMarker)
}

func TestDiscardDropsUnmarkedEdits(t *testing.T) {
	w := newWorkspace(t)
	id, err := w.CreateNote("kept")
	require.NoError(t, err)
	m1, err := w.Mark("", false)
	require.NoError(t, err)

	require.NoError(t, w.UpdateNote(id, NoteUpdate{Title: strPtr("edited"), AddTags: []string{"x"}}))
	gone, err := w.CreateNote("gone")
	require.NoError(t, err)
	_, err = w.LinkNotes(id, gone)
	require.NoError(t, err)

	status, err := w.Discard()
	require.NoError(t, err)
	assert.True(t, status.Current.Equal(m1))
	assert.Equal(t, 0, status.Pending)
	assert.Equal(t, 1, status.Notes)

	view, err := w.GetNote(id)
	require.NoError(t, err)
	assert.Equal(t, "kept", view.Title)
	assert.Empty(t, view.Tags)
	assert.Empty(t, view.Links)
	_, err = w.GetNote(gone)
	assert.ErrorIs(t, err, ErrNoteNotFound)

	m, err := w.Mark("", false)
	require.NoError(t, err)
	assert.True(t, m.Equal(m1))
}

func TestMarkWithoutEditsKeepsLocks(t *testing.T) {
	obs := &recordingObserver{}
	w := newWorkspace(t, WithObserver(obs))
	_, err := w.CreateNote("x")
	require.NoError(t, err)
	locked, err := w.Mark("", true)
	require.NoError(t, err)

	again, err := w.Mark("", false)
	require.NoError(t, err)
	assert.True(t, again.Equal(locked))
	assert.True(t, w.Status().Latest.Equal(locked))
	assert.Equal(t, 1, obs.marks)

	_, err = w.RollBack(MarkerRef{})
	require.ErrorIs(t, err, timeline.ErrRollBackBlocked)
	require.NoError(t, w.Unlock(locked.Position()))
}

func TestFailedUpdateLeavesNoteUntouched(t *testing.T) {
	w := newWorkspace(t)
	id, err := w.CreateNote("x")
	require.NoError(t, err)
	_, err = w.Mark("", false)
	require.NoError(t, err)

	require.NoError(t, w.tl.RemoveFromTimeline(w.board.id))
	err = w.UpdateNote(id, NoteUpdate{Title: strPtr("y"), AddTags: []string{"t"}, Pinned: boolPtr(true)})
	require.Error(t, err)

	n, err := w.note(id)
	require.NoError(t, err)
	assert.Equal(t, "x", n.Title())
	assert.Empty(t, n.Tags())
}

func TestAbandonDiscardsPartialCommand(t *testing.T) {
	w := newWorkspace(t)
	a, err := w.CreateNote("a")
	require.NoError(t, err)
	b, err := w.CreateNote("b")
	require.NoError(t, err)
	_, err = w.LinkNotes(a, b)
	require.NoError(t, err)
	m1, err := w.Mark("", false)
	require.NoError(t, err)

	w.mu.Lock()
	bd, err := w.currentBoard()
	require.NoError(t, err)
	n, err := w.note(b)
	require.NoError(t, err)
	w.edits()
	bd.links.RemoveVertex(n)
	boom := errors.New("boom")
	assert.ErrorIs(t, w.abandon(boom), boom)
	w.mu.Unlock()

	assert.True(t, w.Status().Current.Equal(m1))
	view, err := w.GetNote(a)
	require.NoError(t, err)
	assert.Equal(t, []history.ID{b}, view.Links)
}
