package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nainya/timestore/pkg/graph"
	"github.com/nainya/timestore/pkg/history"
)

type node struct {
	id history.ID
}

func (n *node) HistoryID() history.ID { return n.id }

func TestCatalogBuildsEveryKind(t *testing.T) {
	c := NewCatalog(history.WithSnapshotInterval(5))
	types := []MemberType{
		RegisterValue[string](c, "string"),
		RegisterList[int](c, "int"),
		RegisterDictionary[string, float64](c, "string:float64"),
		RegisterGraph[string](c, "string"),
		RegisterObjectValue[*node](c, "node"),
		RegisterObjectList[*node](c, "node"),
		RegisterObjectDictionary[string, *node](c, "string:node"),
		RegisterObjectGraph[*node](c, "node"),
	}

	kinds := map[Kind]bool{}
	for _, mt := range types {
		assert.True(t, c.Has(mt), mt.String())
		storage, err := c.Build(mt, New(c))
		require.NoError(t, err)
		require.NotNil(t, storage)
		kinds[mt.Kind] = true
	}
	assert.Len(t, kinds, 8)

	s, err := c.Build(MemberType{Kind: KindGraph, Elem: "string"}, nil)
	require.NoError(t, err)
	g, ok := s.(*history.GraphHistory[string, string])
	require.True(t, ok)
	assert.True(t, g.AddVerticesAndEdge(graph.NewEdge("a", "b")))
}

func TestCatalogUnknownType(t *testing.T) {
	c := NewCatalog()
	_, err := c.Build(MemberType{Kind: KindValue, Elem: "int"}, nil)
	assert.ErrorIs(t, err, ErrUnknownHistoryMemberType)

	_, err = NewDefinition(c, "broken", []MemberSpec{{Name: "x", Type: MemberType{Kind: KindList, Elem: "int"}}},
		func(id history.ID, _ Members) (*node, error) { return &node{id: id}, nil })
	assert.ErrorIs(t, err, ErrUnknownHistoryMemberType)
}

func TestDefinitionRejectsDuplicateMembers(t *testing.T) {
	c := NewCatalog()
	intType := RegisterValue[int](c, "int")
	_, err := NewDefinition(c, "dup", []MemberSpec{{Name: "x", Type: intType}, {Name: "x", Type: intType}},
		func(id history.ID, _ Members) (*node, error) { return &node{id: id}, nil })
	assert.Error(t, err)
}

func TestField(t *testing.T) {
	c := NewCatalog()
	intType := RegisterValue[int](c, "int")
	storage, err := c.Build(intType, nil)
	require.NoError(t, err)
	members := Members{{MemberSpec: MemberSpec{Name: "x", Type: intType}, Storage: storage}}

	x, err := Field[*history.ValueHistory[int, int]](members, "x")
	require.NoError(t, err)
	x.Set(1)

	_, err = Field[*history.ListHistory[int, int]](members, "x")
	assert.ErrorIs(t, err, ErrObjectTypeMismatch)
	_, err = Field[*history.ValueHistory[int, int]](members, "y")
	assert.ErrorIs(t, err, ErrUnknownMember)
}

func TestKindAndBlockerNames(t *testing.T) {
	assert.Equal(t, "object-graph", KindObjectGraph.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
	assert.Equal(t, "list<int>", MemberType{Kind: KindList, Elem: "int"}.String())
	assert.Equal(t, "both", BlockBoth.String())
	assert.True(t, BlockBoth.BlocksRollBack())
	assert.True(t, BlockBoth.BlocksRollForward())
	assert.False(t, BlockRollBack.BlocksRollForward())
}

func TestAddFailsWhenBuilderFails(t *testing.T) {
	c := NewCatalog()
	intType := RegisterValue[int](c, "int")
	def, err := NewDefinition(c, "node", []MemberSpec{{Name: "x", Type: intType}},
		func(history.ID, Members) (*node, error) { return nil, assert.AnError })
	require.NoError(t, err)

	tl := New(c)
	_, err = Add(tl, def)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, tl.Stats().Pending)
}
