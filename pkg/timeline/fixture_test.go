package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nainya/timestore/pkg/history"
)

type counter struct {
	id history.ID
	x  *history.ValueHistory[int, int]

	removals   *int
	travellers []Traveller
}

func (c *counter) HistoryID() history.ID { return c.id }

func (c *counter) BeforeRemoval() {
	if c.removals != nil {
		*c.removals++
	}
}

func (c *counter) ReceiveTraveller(tv Traveller) {
	c.travellers = append(c.travellers, tv)
}

type holder struct {
	id  history.ID
	ref *history.ValueHistory[*counter, history.ID]
}

func (h *holder) HistoryID() history.ID { return h.id }

type fixture struct {
	tl       *Timeline
	counters *Definition[*counter]
	holders  *Definition[*holder]
	removals int
}

func newFixture(t *testing.T, opts ...history.Option) *fixture {
	t.Helper()
	f := &fixture{}

	c := NewCatalog(opts...)
	intType := RegisterValue[int](c, "int")
	refType := RegisterObjectValue[*counter](c, "counter")

	var err error
	f.counters, err = NewDefinition(c, "counter", []MemberSpec{{Name: "x", Type: intType}},
		func(id history.ID, members Members) (*counter, error) {
			x, err := Field[*history.ValueHistory[int, int]](members, "x")
			if err != nil {
				return nil, err
			}
			return &counter{id: id, x: x, removals: &f.removals}, nil
		})
	require.NoError(t, err)

	f.holders, err = NewDefinition(c, "holder", []MemberSpec{{Name: "ref", Type: refType}},
		func(id history.ID, members Members) (*holder, error) {
			ref, err := Field[*history.ValueHistory[*counter, history.ID]](members, "ref")
			if err != nil {
				return nil, err
			}
			return &holder{id: id, ref: ref}, nil
		})
	require.NoError(t, err)

	f.tl = New(c)
	return f
}

func (f *fixture) counter(t *testing.T, x int) *counter {
	t.Helper()
	c, err := Add(f.tl, f.counters)
	require.NoError(t, err)
	c.x.Set(x)
	return c
}

func (f *fixture) lookup(t *testing.T, id history.ID) *counter {
	t.Helper()
	c, err := Lookup[*counter](f.tl, id)
	require.NoError(t, err)
	return c
}

func (f *fixture) mark(t *testing.T, name string, deps ...Dependency) history.Marker {
	t.Helper()
	m, err := f.tl.Mark(name, deps...)
	require.NoError(t, err)
	return m
}
