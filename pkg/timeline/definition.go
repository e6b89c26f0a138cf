// ABOUTME: Static member metadata and builders for history-enabled object types
// ABOUTME: A definition is created once per type and shared by all its instances

package timeline

import (
	"fmt"

	"github.com/nainya/timestore/pkg/history"
)

// MemberSpec declares one history member of an object type.
type MemberSpec struct {
	Name string
	Type MemberType
}

// Member pairs a declared member with the container that holds its history.
type Member struct {
	MemberSpec
	Storage history.Storage
}

// Members is the ordered member list handed to an object builder.
type Members []Member

// Get returns the container for name.
func (m Members) Get(name string) (history.Storage, bool) {
	for _, member := range m {
		if member.Name == name {
			return member.Storage, true
		}
	}
	return nil, false
}

// Field returns the container for name as S.
func Field[S history.Storage](m Members, name string) (S, error) {
	var zero S
	storage, ok := m.Get(name)
	if !ok {
		return zero, fmt.Errorf("member %q: %w", name, ErrUnknownMember)
	}
	typed, ok := storage.(S)
	if !ok {
		return zero, fmt.Errorf("member %q is %T: %w", name, storage, ErrObjectTypeMismatch)
	}
	return typed, nil
}

// Builder creates an instance of an object from its ID and member containers.
// It is called at creation and at every resurrection.
type Builder[T history.Object] func(id history.ID, members Members) (T, error)

// Definition is the static description of a history-enabled object type.
type Definition[T history.Object] struct {
	name    string
	members []MemberSpec
	build   Builder[T]
	bp      *blueprint
}

// NewDefinition validates the member types against the catalog.
func NewDefinition[T history.Object](c *Catalog, name string, members []MemberSpec, build Builder[T]) (*Definition[T], error) {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.Name]; dup {
			return nil, fmt.Errorf("definition %s: member %q declared twice", name, m.Name)
		}
		seen[m.Name] = struct{}{}
		if !c.Has(m.Type) {
			return nil, fmt.Errorf("definition %s: member %q of type %s: %w", name, m.Name, m.Type, ErrUnknownHistoryMemberType)
		}
	}
	d := &Definition[T]{
		name:    name,
		members: append([]MemberSpec(nil), members...),
		build:   build,
	}
	d.bp = &blueprint{
		name:    d.name,
		members: d.members,
		build: func(id history.ID, members Members) (history.Object, error) {
			return d.build(id, members)
		},
	}
	return d, nil
}

// Name returns the type name of the definition.
func (d *Definition[T]) Name() string { return d.name }

// Members returns the declared members in order.
func (d *Definition[T]) Members() []MemberSpec {
	return append([]MemberSpec(nil), d.members...)
}

// blueprint is the type-erased form of a Definition held by trackers.
type blueprint struct {
	name    string
	members []MemberSpec
	build   func(history.ID, Members) (history.Object, error)
}
