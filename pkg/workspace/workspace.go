// ABOUTME: Serialized command surface over a timeline of notes
// ABOUTME: Edits accumulate until Mark, rolls move every note and link through time

package workspace

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nainya/timestore/pkg/graph"
	"github.com/nainya/timestore/pkg/history"
	"github.com/nainya/timestore/pkg/timeline"
)

// Direction names a roll direction for observers.
type Direction string

const (
	DirectionBack    Direction = "back"
	DirectionForward Direction = "forward"
)

// Observer receives workspace activity, typically to export metrics.
type Observer interface {
	ObserveMark(m history.Marker)
	ObserveRoll(dir Direction, err error)
	ObserveObjects(alive, pending int)
}

// Option configures a Workspace.
type Option func(*config)

type config struct {
	log      zerolog.Logger
	observer Observer
	history  []history.Option
}

// WithLogger sets the workspace and timeline logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithObserver registers an activity observer.
func WithObserver(o Observer) Option {
	return func(c *config) { c.observer = o }
}

// WithSnapshotInterval sets the snapshot interval of every field history.
func WithSnapshotInterval(n int) Option {
	return func(c *config) { c.history = append(c.history, history.WithSnapshotInterval(n)) }
}

// NoteUpdate describes the edits applied by UpdateNote. Nil and empty fields
// are left untouched.
type NoteUpdate struct {
	Title            *string
	AddTags          []string
	RemoveTags       []string
	Attributes       map[string]string
	RemoveAttributes []string
	Pinned           *bool
}

// MarkerRef selects a marker by name or position. The zero value selects the
// adjacent marker in the direction of the roll.
type MarkerRef struct {
	Name     string
	Position uint64
	HasPos   bool
}

// Status summarizes the timeline.
type Status struct {
	Current        history.Marker
	Latest         history.Marker
	CanRollBack    bool
	CanRollForward bool
	Notes          int
	Pending        int
}

type lock struct {
	held bool
}

// Workspace is safe for concurrent use; all commands are serialized.
type Workspace struct {
	mu sync.Mutex

	tl    *timeline.Timeline
	defs  definitions
	board *board

	locks map[uint64]*lock
	cs    *timeline.ChangeSet

	log      zerolog.Logger
	observer Observer
}

// New creates a workspace with an empty board that exists from the
// beginning of time.
func New(opts ...Option) (*Workspace, error) {
	cfg := config{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	catalog := timeline.NewCatalog(cfg.history...)
	defs, err := define(catalog)
	if err != nil {
		return nil, fmt.Errorf("define workspace types: %w", err)
	}

	w := &Workspace{
		tl:       timeline.New(catalog, timeline.WithLogger(cfg.log)),
		defs:     defs,
		locks:    make(map[uint64]*lock),
		log:      cfg.log,
		observer: cfg.observer,
	}
	if err := w.seed(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workspace) seed() error {
	b, err := timeline.Add(w.tl, w.defs.boards)
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	if err := w.tl.SetCurrentAsDefault(b.id); err != nil {
		return fmt.Errorf("seed board: %w", err)
	}
	w.board = b
	return nil
}

// currentBoard returns the live board. Rolls rebuild the board instance.
func (w *Workspace) currentBoard() (*board, error) {
	b, err := timeline.Lookup[*board](w.tl, w.board.id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("board %s is not alive", w.board.id)
	}
	w.board = b
	return b, nil
}

// edits returns the change-set that collects the edits made since the last
// mark, opening it when needed.
func (w *Workspace) edits() *timeline.ChangeSet {
	if w.cs == nil {
		w.cs = w.tl.RecordHistory("")
	}
	return w.cs
}

// abandon discards every unmarked edit after a command failed half way and
// returns cause.
func (w *Workspace) abandon(cause error) error {
	cs := w.cs
	w.cs = nil
	if cs == nil {
		return cause
	}
	if err := cs.Close(); err != nil {
		return fmt.Errorf("%w (discard: %v)", cause, err)
	}
	w.log.Warn().Err(cause).Msg("unmarked edits discarded")
	w.observeObjects()
	return cause
}

func (w *Workspace) note(id history.ID) (*Note, error) {
	n, err := timeline.Lookup[*Note](w.tl, id)
	if errors.Is(err, timeline.ErrUnknownToTimeline) || (err == nil && n == nil) {
		return nil, fmt.Errorf("note %s: %w", id, ErrNoteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("note %s: %w", id, err)
	}
	return n, nil
}

// CreateNote adds a note. It becomes part of history at the next mark.
func (w *Workspace) CreateNote(title string) (history.ID, error) {
	if title == "" {
		return history.NoID, ErrEmptyTitle
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := w.currentBoard()
	if err != nil {
		return history.NoID, err
	}
	w.edits()
	n, err := timeline.Add(w.tl, w.defs.notes)
	if err != nil {
		return history.NoID, fmt.Errorf("create note: %w", err)
	}
	n.title.Set(title)
	b.links.AddVertex(n)

	w.log.Debug().Str("id", n.id.String()).Str("title", title).Msg("note created")
	w.observeObjects()
	return n.id, nil
}

// UpdateNote applies u to the note.
func (w *Workspace) UpdateNote(id history.ID, u NoteUpdate) error {
	if u.Title != nil && *u.Title == "" {
		return ErrEmptyTitle
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.note(id)
	if err != nil {
		return err
	}
	var b *board
	if u.Pinned != nil {
		if b, err = w.currentBoard(); err != nil {
			return err
		}
	}

	w.edits()
	if u.Title != nil && *u.Title != n.Title() {
		n.title.Set(*u.Title)
	}
	for _, tag := range u.AddTags {
		n.addTag(tag)
	}
	for _, tag := range u.RemoveTags {
		n.tags.Remove(tag)
	}
	for k, v := range u.Attributes {
		if cur, ok := n.attributes.Get(k); !ok || cur != v {
			n.attributes.Set(k, v)
		}
	}
	for _, k := range u.RemoveAttributes {
		n.attributes.Remove(k)
	}
	if b != nil {
		switch pinned := b.pinned.Contains(n); {
		case *u.Pinned && !pinned:
			b.pinned.Add(n)
		case !*u.Pinned && pinned:
			b.pinned.Remove(n)
		}
	}
	return nil
}

// DeleteNote removes the note together with its links.
func (w *Workspace) DeleteNote(id history.ID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.note(id)
	if err != nil {
		return err
	}
	b, err := w.currentBoard()
	if err != nil {
		return err
	}
	w.edits()
	b.links.RemoveVertex(n)
	b.pinned.Remove(n)
	if err := w.tl.RemoveFromTimeline(id); err != nil {
		return w.abandon(fmt.Errorf("delete note %s: %w", id, err))
	}
	w.observeObjects()
	return nil
}

// LinkNotes adds a directed link between two notes. It reports whether the
// link is new.
func (w *Workspace) LinkNotes(from, to history.ID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	src, err := w.note(from)
	if err != nil {
		return false, err
	}
	dst, err := w.note(to)
	if err != nil {
		return false, err
	}
	b, err := w.currentBoard()
	if err != nil {
		return false, err
	}
	w.edits()
	return b.links.AddVerticesAndEdge(graph.NewEdge(src, dst)), nil
}

// UnlinkNotes removes the link and reports whether it existed.
func (w *Workspace) UnlinkNotes(from, to history.ID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	src, err := w.note(from)
	if err != nil {
		return false, err
	}
	dst, err := w.note(to)
	if err != nil {
		return false, err
	}
	b, err := w.currentBoard()
	if err != nil {
		return false, err
	}
	w.edits()
	return b.links.RemoveEdge(graph.NewEdge(src, dst)), nil
}

// GetNote returns a copy of the note.
func (w *Workspace) GetNote(id history.ID) (NoteView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.note(id)
	if err != nil {
		return NoteView{}, err
	}
	b, err := w.currentBoard()
	if err != nil {
		return NoteView{}, err
	}
	return b.view(n), nil
}

// ListNotes returns every note alive at the current marker in creation order.
func (w *Workspace) ListNotes() ([]NoteView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := w.currentBoard()
	if err != nil {
		return nil, err
	}
	var views []NoteView
	for _, id := range w.tl.LiveIDs() {
		if id == b.id {
			continue
		}
		n, err := timeline.Lookup[*Note](w.tl, id)
		if err != nil || n == nil {
			continue
		}
		views = append(views, b.view(n))
	}
	return views, nil
}

// Mark stores the pending edits. A locked mark refuses roll-backs across it
// until it is unlocked. An unnamed, unlocked mark without pending edits
// returns the current marker.
func (w *Workspace) Mark(name string, locked bool) (history.Marker, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cs := w.edits()
	w.cs = nil
	if err := cs.SetName(name); err != nil {
		return history.BeginningOfTime, err
	}
	var l *lock
	if locked {
		l = &lock{held: true}
		err := cs.AddDependency(timeline.Dependency{
			CanExecuteChange: func() bool { return !l.held },
			Blocks:           timeline.BlockRollBack,
		})
		if err != nil {
			return history.BeginningOfTime, err
		}
	}

	cs.StoreChanges()
	if err := cs.Close(); err != nil {
		return history.BeginningOfTime, err
	}
	m, ok := cs.Marker()
	if !ok {
		m = w.tl.Current()
		w.log.Debug().Str("marker", m.String()).Msg("nothing to mark")
		return m, nil
	}

	for pos := range w.locks {
		if pos >= m.Position() {
			delete(w.locks, pos)
		}
	}
	if l != nil {
		w.locks[m.Position()] = l
	}

	w.log.Info().Str("marker", m.String()).Bool("locked", locked).Msg("mark")
	if w.observer != nil {
		w.observer.ObserveMark(m)
	}
	w.observeObjects()
	return m, nil
}

// Discard drops every edit made since the last mark.
func (w *Workspace) Discard() (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cs := w.edits()
	w.cs = nil
	if err := cs.Close(); err != nil {
		return w.status(), err
	}
	w.log.Info().Str("marker", w.tl.Current().String()).Msg("edits discarded")
	w.observeObjects()
	return w.status(), nil
}

// Unlock releases the lock recorded with the marker at pos.
func (w *Workspace) Unlock(pos uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.locks[pos]
	if !ok || !l.held {
		return fmt.Errorf("unlock %d: %w", pos, ErrLockNotFound)
	}
	l.held = false
	return nil
}

func (w *Workspace) resolve(ref MarkerRef, dir Direction) (history.Marker, error) {
	switch {
	case ref.Name != "":
		return w.tl.MarkerByName(ref.Name)
	case ref.HasPos:
		return w.tl.FindMarker(ref.Position)
	}

	cur := w.tl.Current().Position()
	if dir == DirectionBack {
		if cur == 0 {
			return history.BeginningOfTime, fmt.Errorf("undo at the beginning of time: %w", timeline.ErrInvalidTimeMarker)
		}
		return w.tl.FindMarker(cur - 1)
	}
	return w.tl.FindMarker(cur + 1)
}

// RollBack moves the workspace back to ref.
func (w *Workspace) RollBack(ref MarkerRef) (Status, error) {
	return w.roll(ref, DirectionBack)
}

// RollForward moves the workspace forward to ref.
func (w *Workspace) RollForward(ref MarkerRef) (Status, error) {
	return w.roll(ref, DirectionForward)
}

func (w *Workspace) roll(ref MarkerRef, dir Direction) (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, err := w.resolve(ref, dir)
	if err == nil {
		if dir == DirectionBack {
			err = w.tl.RollBackTo(m)
		} else {
			err = w.tl.RollForwardTo(m)
		}
	}

	if w.observer != nil {
		w.observer.ObserveRoll(dir, err)
	}
	if err != nil {
		w.log.Warn().Err(err).Str("direction", string(dir)).Msg("roll refused")
		return w.status(), err
	}
	w.cs = nil

	w.log.Info().Str("direction", string(dir)).Str("marker", m.String()).Msg("rolled")
	w.observeObjects()
	return w.status(), nil
}

// Status returns a summary of the timeline.
func (w *Workspace) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status()
}

func (w *Workspace) status() Status {
	s := w.tl.Stats()
	notes := s.Alive
	if w.tl.DoesObjectExistCurrently(w.board.id) {
		notes--
	}
	return Status{
		Current:        s.Current,
		Latest:         s.Latest,
		CanRollBack:    w.tl.CanRollBack(),
		CanRollForward: w.tl.CanRollForward(),
		Notes:          notes,
		Pending:        s.Pending,
	}
}

func (w *Workspace) observeObjects() {
	if w.observer == nil {
		return
	}
	s := w.tl.Stats()
	w.observer.ObserveObjects(s.Alive, s.Pending)
}

// Reset drops every note and all history.
func (w *Workspace) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tl.Reset()
	w.cs = nil
	clear(w.locks)
	if err := w.seed(); err != nil {
		return err
	}
	w.log.Info().Msg("workspace reset")
	w.observeObjects()
	return nil
}
