// ABOUTME: Catalog of history member types and the storage factories that build them
// ABOUTME: Member types are resolved once at registration, never by reflection

package timeline

import (
	"fmt"

	"github.com/nainya/timestore/pkg/history"
)

// Kind is the container variant of a member.
type Kind int

const (
	KindValue Kind = iota + 1
	KindList
	KindDictionary
	KindGraph
	KindObjectValue
	KindObjectList
	KindObjectDictionary
	KindObjectGraph
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindList:
		return "list"
	case KindDictionary:
		return "dictionary"
	case KindGraph:
		return "graph"
	case KindObjectValue:
		return "object-value"
	case KindObjectList:
		return "object-list"
	case KindObjectDictionary:
		return "object-dictionary"
	case KindObjectGraph:
		return "object-graph"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MemberType is the declared type of a history member: the container variant
// and the name of its element type.
type MemberType struct {
	Kind Kind
	Elem string
}

func (t MemberType) String() string {
	return t.Kind.String() + "<" + t.Elem + ">"
}

// Resolver maps an ID to the instance that is currently alive, or nil.
type Resolver interface {
	Resolve(id history.ID) history.Object
}

// StorageFactory builds an empty container for one member type.
type StorageFactory func(r Resolver, opts ...history.Option) history.Storage

// Catalog maps member types to storage factories.
type Catalog struct {
	factories map[MemberType]StorageFactory
	opts      []history.Option
}

// NewCatalog creates an empty catalog. The options are passed to every
// container it builds.
func NewCatalog(opts ...history.Option) *Catalog {
	return &Catalog{
		factories: make(map[MemberType]StorageFactory),
		opts:      opts,
	}
}

// Register adds or replaces the factory for t.
func (c *Catalog) Register(t MemberType, f StorageFactory) {
	c.factories[t] = f
}

// Has reports whether t can be built.
func (c *Catalog) Has(t MemberType) bool {
	_, ok := c.factories[t]
	return ok
}

// Build creates an empty container for t.
func (c *Catalog) Build(t MemberType, r Resolver) (history.Storage, error) {
	f, ok := c.factories[t]
	if !ok {
		return nil, fmt.Errorf("build %s: %w", t, ErrUnknownHistoryMemberType)
	}
	return f(r, c.opts...), nil
}

func resolveAs[T history.Object](r Resolver) func(history.ID) T {
	return func(id history.ID) T {
		obj, _ := r.Resolve(id).(T)
		return obj
	}
}

// RegisterValue registers a plain value member type.
func RegisterValue[T any](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindValue, Elem: elem}
	c.Register(t, func(_ Resolver, opts ...history.Option) history.Storage {
		return history.NewValue[T](opts...)
	})
	return t
}

// RegisterList registers a list member type.
func RegisterList[T comparable](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindList, Elem: elem}
	c.Register(t, func(_ Resolver, opts ...history.Option) history.Storage {
		return history.NewList[T](opts...)
	})
	return t
}

// RegisterDictionary registers a dictionary member type.
func RegisterDictionary[K comparable, V any](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindDictionary, Elem: elem}
	c.Register(t, func(_ Resolver, opts ...history.Option) history.Storage {
		return history.NewDictionary[K, V](opts...)
	})
	return t
}

// RegisterGraph registers a graph member type.
func RegisterGraph[V comparable](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindGraph, Elem: elem}
	c.Register(t, func(_ Resolver, opts ...history.Option) history.Storage {
		return history.NewGraph[V](opts...)
	})
	return t
}

// RegisterObjectValue registers a value member that refers to another
// timeline object by ID.
func RegisterObjectValue[T history.Ref](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindObjectValue, Elem: elem}
	c.Register(t, func(r Resolver, opts ...history.Option) history.Storage {
		return history.NewObjectValue(resolveAs[T](r), opts...)
	})
	return t
}

// RegisterObjectList registers a list of timeline objects.
func RegisterObjectList[T history.Ref](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindObjectList, Elem: elem}
	c.Register(t, func(r Resolver, opts ...history.Option) history.Storage {
		return history.NewObjectList(resolveAs[T](r), opts...)
	})
	return t
}

// RegisterObjectDictionary registers a dictionary of timeline objects.
func RegisterObjectDictionary[K comparable, T history.Ref](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindObjectDictionary, Elem: elem}
	c.Register(t, func(r Resolver, opts ...history.Option) history.Storage {
		return history.NewObjectDictionary[K](resolveAs[T](r), opts...)
	})
	return t
}

// RegisterObjectGraph registers a graph of timeline objects.
func RegisterObjectGraph[T history.Ref](c *Catalog, elem string) MemberType {
	t := MemberType{Kind: KindObjectGraph, Elem: elem}
	c.Register(t, func(r Resolver, opts ...history.Option) history.Storage {
		return history.NewObjectGraph(resolveAs[T](r), opts...)
	})
	return t
}
