// ABOUTME: History-enabled note objects and the board that links them
// ABOUTME: Every field lives in a history container so the timeline can roll it

package workspace

import (
	"slices"

	"github.com/nainya/timestore/pkg/history"
	"github.com/nainya/timestore/pkg/timeline"
)

// Note is a titled note with tags and free-form attributes.
type Note struct {
	id         history.ID
	title      *history.ValueHistory[string, string]
	tags       *history.ListHistory[string, string]
	attributes *history.DictionaryHistory[string, string, string]
}

// HistoryID returns the identity of the note.
func (n *Note) HistoryID() history.ID { return n.id }

// Title returns the current title.
func (n *Note) Title() string { return n.title.Value() }

// Tags returns the tags in insertion order.
func (n *Note) Tags() []string { return n.tags.Items() }

// Attributes returns a copy of the attributes.
func (n *Note) Attributes() map[string]string {
	attrs := make(map[string]string, n.attributes.Len())
	n.attributes.Range(func(k, v string) bool {
		attrs[k] = v
		return true
	})
	return attrs
}

func (n *Note) addTag(tag string) {
	if !n.tags.Contains(tag) {
		n.tags.Add(tag)
	}
}

// board holds the link graph between notes and the pinned notes.
type board struct {
	id     history.ID
	links  *history.GraphHistory[*Note, history.ID]
	pinned *history.ListHistory[*Note, history.ID]
}

func (b *board) HistoryID() history.ID { return b.id }

const (
	memberTitle      = "title"
	memberTags       = "tags"
	memberAttributes = "attributes"
	memberLinks      = "links"
	memberPinned     = "pinned"
)

type definitions struct {
	notes  *timeline.Definition[*Note]
	boards *timeline.Definition[*board]
}

func define(c *timeline.Catalog) (definitions, error) {
	str := timeline.RegisterValue[string](c, "string")
	tags := timeline.RegisterList[string](c, "string")
	attrs := timeline.RegisterDictionary[string, string](c, "string:string")
	links := timeline.RegisterObjectGraph[*Note](c, "note")
	pinned := timeline.RegisterObjectList[*Note](c, "note")

	notes, err := timeline.NewDefinition(c, "note",
		[]timeline.MemberSpec{
			{Name: memberTitle, Type: str},
			{Name: memberTags, Type: tags},
			{Name: memberAttributes, Type: attrs},
		},
		buildNote)
	if err != nil {
		return definitions{}, err
	}

	boards, err := timeline.NewDefinition(c, "board",
		[]timeline.MemberSpec{
			{Name: memberLinks, Type: links},
			{Name: memberPinned, Type: pinned},
		},
		buildBoard)
	if err != nil {
		return definitions{}, err
	}

	return definitions{notes: notes, boards: boards}, nil
}

func buildNote(id history.ID, members timeline.Members) (*Note, error) {
	title, err := timeline.Field[*history.ValueHistory[string, string]](members, memberTitle)
	if err != nil {
		return nil, err
	}
	tags, err := timeline.Field[*history.ListHistory[string, string]](members, memberTags)
	if err != nil {
		return nil, err
	}
	attrs, err := timeline.Field[*history.DictionaryHistory[string, string, string]](members, memberAttributes)
	if err != nil {
		return nil, err
	}
	return &Note{id: id, title: title, tags: tags, attributes: attrs}, nil
}

func buildBoard(id history.ID, members timeline.Members) (*board, error) {
	links, err := timeline.Field[*history.GraphHistory[*Note, history.ID]](members, memberLinks)
	if err != nil {
		return nil, err
	}
	pinned, err := timeline.Field[*history.ListHistory[*Note, history.ID]](members, memberPinned)
	if err != nil {
		return nil, err
	}
	return &board{id: id, links: links, pinned: pinned}, nil
}

// NoteView is a detached copy of a note.
type NoteView struct {
	ID         history.ID
	Title      string
	Tags       []string
	Attributes map[string]string
	Links      []history.ID
	Pinned     bool
}

func (b *board) view(n *Note) NoteView {
	var links []history.ID
	for _, e := range b.links.OutEdges(n) {
		if e.Target != nil {
			links = append(links, e.Target.HistoryID())
		}
	}
	slices.Sort(links)
	return NoteView{
		ID:         n.id,
		Title:      n.Title(),
		Tags:       n.Tags(),
		Attributes: n.Attributes(),
		Links:      links,
		Pinned:     b.pinned.Contains(n),
	}
}
