package becs

import (
	"fmt"
	"iter"
	"reflect"
)

// Pool is the type-erased view of a storage the registry keeps per component
// type. Serializers and tools walk pools without knowing component types.
type Pool interface {
	// Type returns the component type stored by the pool.
	Type() TypeInfo
	// Base returns the sparse set indexing the pool. It must be treated as
	// read-only.
	Base() *SparseSet
	Len() int
	Contains(e Entity) bool
	// Remove removes e if present and reports whether it did.
	Remove(e Entity) bool
	// Erase removes e, which must be present.
	Erase(e Entity)
	Clear()
	Compact()
	ShrinkToFit()
	// TryGetAny returns a pointer to the value of e, as an any holding *T.
	TryGetAny(e Entity) (any, bool)
	// EmplaceAny assigns v, a T or a *T, to e.
	EmplaceAny(e Entity, v any) error
	// Traits returns the traits the pool was created with.
	Traits() ComponentTraits

	// copyTo copies the value of src into dst for dstEntity. It reports false
	// when the type cannot be copied.
	copyTo(src Entity, dst Pool, dstEntity Entity) (bool, error)
	// assureIn returns the storage of the same type in r, creating it.
	assureIn(r *Registry) Pool
}

// ComponentStore is the typed contract shared by Storage and Observed.
type ComponentStore[T any] interface {
	Pool
	Emplace(e Entity, v T) *T
	TryEmplace(e Entity, v T) (*T, error)
	Get(e Entity) *T
	TryGet(e Entity) (*T, bool)
	Patch(e Entity, fns ...func(*T)) *T
	Replace(e Entity, v T) *T
	All() iter.Seq2[Entity, *T]
}

// StorageOptions configure a Storage.
type StorageOptions struct {
	// PageSize overrides the payload page size resolved from the traits. A
	// negative value keeps the traits' page size.
	PageSize int
	// SparsePageSize is the sparse page size, 0 for the default.
	SparsePageSize int
	// Limit caps entity indices, 0 for no cap. Positions in the packed array
	// are not capped: in-place tombstones may push them past Limit.
	Limit int
}

// Storage holds the values of one component type. Values live in a paged
// array at the position the sparse set assigns to their entity, so the two
// arrays always have the same length.
type Storage[T any] struct {
	set     SparseSet
	payload pagedVector[T]
	traits  ComponentTraits
	empty   T // shared value for types without payload
}

var _ ComponentStore[struct{}] = (*Storage[struct{}])(nil)

// NewStorage creates a storage for T with default options.
func NewStorage[T any]() *Storage[T] {
	return NewStorageWith[T](StorageOptions{PageSize: -1})
}

// NewStorageWith creates a storage for T. It panics when a page size is not a
// power of two.
func NewStorageWith[T any](opts StorageOptions) *Storage[T] {
	traits := TraitsOf[T](DefaultPackedPageSize)
	if opts.PageSize >= 0 {
		traits.PageSize = opts.PageSize
	}
	assert(traits.PageSize == 0 || isPowerOfTwo(traits.PageSize), ErrInvalidPageSize,
		"payload page size %d for %s", traits.PageSize, TypeOf[T]())
	// a type with state and no payload would share one value across entities
	assert(traits.PageSize != 0 || reflect.TypeFor[T]().Size() == 0, ErrInvalidPageSize,
		"payload page size 0 for non-empty %s", TypeOf[T]())
	policy := SwapAndPop
	if traits.InPlaceDelete {
		policy = InPlace
	}
	s := &Storage[T]{traits: traits}
	s.set.init(TypeOf[T](), policy, opts.SparsePageSize, opts.Limit)
	s.payload = newPagedVector[T](traits.PageSize)
	return s
}

func (s *Storage[T]) Type() TypeInfo { return s.set.info }
func (s *Storage[T]) Base() *SparseSet { return &s.set }
func (s *Storage[T]) Traits() ComponentTraits { return s.traits }
func (s *Storage[T]) Policy() DeletionPolicy { return s.set.policy }
func (s *Storage[T]) Len() int { return s.set.Len() }
func (s *Storage[T]) Empty() bool { return s.set.Empty() }
func (s *Storage[T]) Contains(e Entity) bool { return s.set.Contains(e) }
func (s *Storage[T]) Index(e Entity) int { return s.set.Index(e) }
func (s *Storage[T]) At(pos int) Entity { return s.set.At(pos) }
func (s *Storage[T]) Capacity() int { return s.set.Capacity() }
func (s *Storage[T]) Data() []Entity { return s.set.Data() }
func (s *Storage[T]) Find(e Entity) (int, bool) { return s.set.Find(e) }

// ref returns the value of e, which must be in the storage.
func (s *Storage[T]) ref(e Entity) *T {
	return s.elementAt(s.set.Index(e))
}

func (s *Storage[T]) elementAt(pos int) *T {
	if s.traits.PageSize == 0 {
		return &s.empty
	}
	return s.payload.at(pos)
}

// Reserve makes room for n values. It allocates memory only, so it never
// fails; the entity index limit is checked when values are added.
func (s *Storage[T]) Reserve(n int) {
	s.set.Reserve(n)
	if n > 0 {
		s.payload.assure(n - 1)
	}
}

// TryEmplace assigns v to e. Either both the sparse set and the payload are
// updated, or neither is.
func (s *Storage[T]) TryEmplace(e Entity, v T) (*T, error) {
	// the payload is grown first, so a failure leaves the set untouched
	s.payload.assure(s.set.nextPos(false))
	pos, err := s.set.Insert(e, false)
	if err != nil {
		return nil, err
	}
	elem := s.elementAt(pos)
	*elem = v
	return elem, nil
}

// Emplace assigns v to e and returns a pointer to the stored value. The
// entity must not be in the storage yet.
func (s *Storage[T]) Emplace(e Entity, v T) *T {
	elem, err := s.TryEmplace(e, v)
	if err != nil {
		panic(err)
	}
	return elem
}

// Insert assigns a copy of v to every entity of ents, appending at the back.
// When one of them cannot be added, the ones added before it are dropped
// again and the storage is left as it was.
func (s *Storage[T]) Insert(ents []Entity, v T) error {
	if len(ents) == 0 {
		return nil
	}
	base := s.set.Len()
	s.set.Reserve(base + len(ents))
	s.payload.assure(base + len(ents) - 1)
	for _, e := range ents {
		pos, err := s.set.Insert(e, true)
		if err != nil {
			s.payload.zeroRange(base, s.set.Len())
			s.set.truncate(base)
			return err
		}
		*s.elementAt(pos) = v
	}
	return nil
}

// Get returns the value of e, which must be in the storage.
func (s *Storage[T]) Get(e Entity) *T {
	assert(s.set.Contains(e), ErrNotContained, "get %s of %v", s.set.info, e)
	return s.elementAt(s.set.Index(e))
}

// TryGet returns the value of e if present.
func (s *Storage[T]) TryGet(e Entity) (*T, bool) {
	if !s.set.Contains(e) {
		return nil, false
	}
	return s.elementAt(s.set.Index(e)), true
}

// TryGetAny implements Pool.
func (s *Storage[T]) TryGetAny(e Entity) (any, bool) {
	v, ok := s.TryGet(e)
	if !ok {
		return nil, false
	}
	return v, true
}

// EmplaceAny implements Pool. An existing value is replaced.
func (s *Storage[T]) EmplaceAny(e Entity, v any) error {
	var val T
	switch x := v.(type) {
	case T:
		val = x
	case *T:
		val = *x
	default:
		return fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, s.set.info)
	}
	if cur, ok := s.TryGet(e); ok {
		*cur = val
		return nil
	}
	_, err := s.TryEmplace(e, val)
	return err
}

// Patch applies fns in order to the value of e.
func (s *Storage[T]) Patch(e Entity, fns ...func(*T)) *T {
	elem := s.Get(e)
	for _, fn := range fns {
		fn(elem)
	}
	return elem
}

// Replace overwrites the value of e.
func (s *Storage[T]) Replace(e Entity, v T) *T {
	elem := s.Get(e)
	*elem = v
	return elem
}

// Erase removes e, which must be in the storage.
func (s *Storage[T]) Erase(e Entity) {
	assert(s.set.Contains(e), ErrNotContained, "erase %s of %v", s.set.info, e)
	s.popAt(s.set.Index(e))
}

// Remove removes e if present and reports whether it did.
func (s *Storage[T]) Remove(e Entity) bool {
	if !s.set.Contains(e) {
		return false
	}
	s.popAt(s.set.Index(e))
	return true
}

func (s *Storage[T]) popAt(pos int) {
	if s.set.policy == InPlace {
		s.payload.zero(pos)
		s.set.inPlacePop(pos)
		return
	}
	last := s.set.Len() - 1
	if pos != last {
		s.payload.move(last, pos)
	} else {
		s.payload.zero(pos)
	}
	s.set.swapAndPop(pos)
}

// Clear removes every value.
func (s *Storage[T]) Clear() {
	s.payload.clear(s.set.Len())
	s.set.Clear()
}

// SwapElements swaps the positions of two entities and their values.
func (s *Storage[T]) SwapElements(lhs, rhs Entity) {
	s.set.swapElements(lhs, rhs, &s.payload)
}

// Sort orders the storage so that iteration follows less over entities.
func (s *Storage[T]) Sort(less func(lhs, rhs Entity) bool, algo SortAlgorithm) {
	s.set.sortN(s.set.Len(), less, algo, &s.payload)
}

// SortByValue orders the storage so that iteration follows less over values.
func (s *Storage[T]) SortByValue(less func(lhs, rhs *T) bool, algo SortAlgorithm) {
	s.Sort(func(a, b Entity) bool {
		return less(s.ref(a), s.ref(b))
	}, algo)
}

// SortAs orders the storage like other: entities in both come first, in the
// iteration order of other.
func (s *Storage[T]) SortAs(other *SparseSet) {
	s.Compact()
	pos := s.set.Len() - 1
	for i := len(other.packed) - 1; i >= 0 && pos >= 0; i-- {
		e := other.packed[i]
		if e.IsTombstone() || !s.set.Contains(e) {
			continue
		}
		if at := s.set.packed[pos]; at != e {
			s.SwapElements(at, e)
		}
		pos--
	}
}

// Compact removes the tombstones of an in-place storage.
func (s *Storage[T]) Compact() {
	s.set.compact(&s.payload)
}

// ShrinkToFit compacts the storage and releases unused memory.
func (s *Storage[T]) ShrinkToFit() {
	s.Compact()
	s.set.ShrinkToFit()
	s.payload.release(s.set.Len())
}

// Each calls fn for every entity and its value. fn may remove the entity it
// is given, any other mutation invalidates the iteration.
func (s *Storage[T]) Each(fn func(Entity, *T)) {
	for pos := s.set.Len() - 1; pos >= 0; pos-- {
		if pos >= s.set.Len() {
			continue
		}
		if e := s.set.packed[pos]; !e.IsTombstone() {
			fn(e, s.elementAt(pos))
		}
	}
}

// All returns an iterator over every entity and its value.
func (s *Storage[T]) All() iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		for pos := s.set.Len() - 1; pos >= 0; pos-- {
			if pos >= s.set.Len() {
				continue
			}
			if e := s.set.packed[pos]; !e.IsTombstone() && !yield(e, s.elementAt(pos)) {
				return
			}
		}
	}
}

// Entities returns an iterator over the entities of the storage.
func (s *Storage[T]) Entities() iter.Seq[Entity] {
	return s.set.All()
}

func (s *Storage[T]) assureIn(r *Registry) Pool {
	return assure[T](r)
}

func (s *Storage[T]) copyTo(src Entity, dst Pool, dstEntity Entity) (bool, error) {
	if !s.traits.Copyable {
		return false, nil
	}
	v, ok := s.TryGet(src)
	if !ok {
		return true, nil
	}
	return true, dst.EmplaceAny(dstEntity, cloneValue(v))
}
