package becs

import (
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultPackedPageSize is the number of component values per payload page
// when neither the type nor the registry configuration say otherwise.
const DefaultPackedPageSize = 1024

// TypeID identifies a component type. It is the xxhash of the fully
// qualified type name, so it is stable across runs.
type TypeID uint64

// TypeInfo bundles a component type's ID, name and reflect.Type.
type TypeInfo struct {
	Type reflect.Type
	Name string
	ID   TypeID
}

func (ti TypeInfo) String() string {
	return ti.Name
}

var typeInfos sync.Map // reflect.Type -> TypeInfo

// TypeOf returns the TypeInfo of T.
func TypeOf[T any]() TypeInfo {
	return typeInfoOf(reflect.TypeFor[T]())
}

func typeInfoOf(t reflect.Type) TypeInfo {
	if ti, ok := typeInfos.Load(t); ok {
		return ti.(TypeInfo)
	}
	name := qualifiedName(t)
	ti := TypeInfo{Type: t, Name: name, ID: TypeID(xxhash.Sum64String(name))}
	actual, _ := typeInfos.LoadOrStore(t, ti)
	return actual.(TypeInfo)
}

// qualifiedName uses the import path for named types so two packages
// declaring the same type name don't share an ID.
func qualifiedName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// PageSizer lets a component type pick its own payload page size. A size of
// zero means the type keeps no payload at all.
type PageSizer interface {
	ComponentPageSize() int
}

// InPlaceDeleter lets a component type ask for pointer stability. Storages of
// such types use the in-place deletion policy, so erasing an entity never
// relocates another entity's value.
type InPlaceDeleter interface {
	InPlaceDelete() bool
}

// NonCopyable marks component types that Registry.CopyTo must not duplicate.
type NonCopyable interface {
	NoCopy()
}

// Cloner is implemented by component types that need a deep copy when they
// are copied to another entity.
type Cloner[T any] interface {
	Clone() T
}

// ComponentTraits describes how a component type is stored.
type ComponentTraits struct {
	// PageSize is the number of values per payload page, 0 for no payload.
	PageSize int
	// InPlaceDelete forces the in-place deletion policy.
	InPlaceDelete bool
	// Copyable is false for types implementing NonCopyable.
	Copyable bool
}

// TraitsOf resolves the traits of T. Methods are looked up on both T and *T.
// Types with no size default to a page size of 0, others to pageSize.
func TraitsOf[T any](pageSize int) ComponentTraits {
	var zero T
	traits := ComponentTraits{PageSize: pageSize, Copyable: true}
	if reflect.TypeFor[T]().Size() == 0 {
		traits.PageSize = 0
	}
	ptr := any(&zero)
	if ps, ok := ptr.(PageSizer); ok {
		traits.PageSize = ps.ComponentPageSize()
	}
	if d, ok := ptr.(InPlaceDeleter); ok {
		traits.InPlaceDelete = d.InPlaceDelete()
	}
	if _, ok := ptr.(NonCopyable); ok {
		traits.Copyable = false
	}
	return traits
}

// cloneValue copies v, deep when T implements Cloner.
func cloneValue[T any](v *T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	return *v
}
