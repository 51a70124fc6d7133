package becs

import (
	"fmt"
	"iter"
	"slices"
)

// DefaultSparsePageSize is the number of sparse slots per sparse page.
const DefaultSparsePageSize = 32

// DeletionPolicy selects how a SparseSet removes entities.
type DeletionPolicy uint8

const (
	// SwapAndPop moves the last packed entity into the erased slot. The
	// packed array stays contiguous but the moved entity changes position.
	SwapAndPop DeletionPolicy = iota
	// InPlace leaves a tombstone in the erased slot and links it into a free
	// list. No other entity changes position.
	InPlace
)

func (p DeletionPolicy) String() string {
	switch p {
	case SwapAndPop:
		return "swap_and_pop"
	case InPlace:
		return "in_place"
	}
	return fmt.Sprintf("DeletionPolicy(%d)", uint8(p))
}

// SortAlgorithm selects the algorithm used to sort a set.
type SortAlgorithm uint8

const (
	// QuickSort uses pattern-defeating quicksort. Ties end up in any order.
	QuickSort SortAlgorithm = iota
	// StableSort keeps ties in iteration order.
	StableSort
	// InsertionSort is stable and cheap for sets that are almost sorted, the
	// usual case when a set is re-sorted every frame.
	InsertionSort
)

// payload is what a set keeps in lock-step with its packed array.
type payload interface {
	swap(lhs, rhs int)
	move(from, to int)
}

// SparseSet maps entities to dense positions. Lookups go through a paged
// sparse array indexed by entity ID whose slots hold the packed position and
// the version of the stored entity.
//
// The packed array is traversed back to front by every iteration helper.
// Callers must not rely on any order unless they sort the set.
type SparseSet struct {
	info     TypeInfo
	sparse   [][]Entity
	packed   []Entity
	freeList Entity
	pageSize int
	limit    int
	policy   DeletionPolicy
}

// NewSparseSet creates an empty set. A pageSize of 0 selects
// DefaultSparsePageSize. It panics if pageSize is not a power of two.
func NewSparseSet(policy DeletionPolicy, pageSize int) *SparseSet {
	s := &SparseSet{}
	s.init(TypeInfo{}, policy, pageSize, 0)
	return s
}

func (s *SparseSet) init(info TypeInfo, policy DeletionPolicy, pageSize, limit int) {
	if pageSize == 0 {
		pageSize = DefaultSparsePageSize
	}
	assert(isPowerOfTwo(pageSize), ErrInvalidPageSize, "sparse page size %d", pageSize)
	s.info = info
	s.policy = policy
	s.pageSize = pageSize
	s.limit = limit
	s.freeList = Tombstone
}

func (s *SparseSet) sparsePtr(e Entity) *Entity {
	pos := int(e.ID)
	page := pos / s.pageSize
	if page < len(s.sparse) && s.sparse[page] != nil {
		return &s.sparse[page][pos&(s.pageSize-1)]
	}
	return nil
}

// sparseRef assumes the page of e exists.
func (s *SparseSet) sparseRef(e Entity) *Entity {
	pos := int(e.ID)
	return &s.sparse[pos/s.pageSize][pos&(s.pageSize-1)]
}

func (s *SparseSet) assureAtLeast(e Entity) (*Entity, error) {
	pos := int(e.ID)
	if s.limit > 0 && pos >= s.limit {
		return nil, fmt.Errorf("%w: entity index %d, limit %d", ErrCapacityExceeded, pos, s.limit)
	}
	page := pos / s.pageSize
	if page >= len(s.sparse) {
		s.sparse = extendSlice(s.sparse, page+1-len(s.sparse))
	}
	if s.sparse[page] == nil {
		p := make([]Entity, s.pageSize)
		for i := range p {
			p[i] = Null
		}
		s.sparse[page] = p
	}
	return &s.sparse[page][pos&(s.pageSize-1)], nil
}

// Type returns the component type the set indexes, the zero TypeInfo for a
// bare set.
func (s *SparseSet) Type() TypeInfo { return s.info }

// Policy returns the deletion policy.
func (s *SparseSet) Policy() DeletionPolicy { return s.policy }

// Len returns the length of the packed array. Under the in-place policy it
// counts tombstones too.
func (s *SparseSet) Len() int { return len(s.packed) }

// Empty reports whether the packed array is empty.
func (s *SparseSet) Empty() bool { return len(s.packed) == 0 }

// Capacity returns the capacity of the packed array.
func (s *SparseSet) Capacity() int { return cap(s.packed) }

// Reserve grows the packed array so it can hold n entities without
// reallocating.
func (s *SparseSet) Reserve(n int) {
	s.packed = reserveSlice(s.packed, n)
}

// Data returns the packed array. It may contain tombstones and must be
// treated as read-only.
func (s *SparseSet) Data() []Entity { return s.packed }

// Contains reports whether e is in the set, comparing both index and version.
func (s *SparseSet) Contains(e Entity) bool {
	if e.IsNull() || e.IsTombstone() {
		return false
	}
	slot := s.sparsePtr(e)
	return slot != nil && slot.ID != NullID && slot.Version == e.Version
}

// Current returns the version stored for the index of e, or TombstoneVersion
// when the index is not in the set.
func (s *SparseSet) Current(e Entity) uint16 {
	if slot := s.sparsePtr(e); slot != nil && slot.ID != NullID {
		return slot.Version
	}
	return TombstoneVersion
}

// Index returns the packed position of e. The entity must be in the set.
func (s *SparseSet) Index(e Entity) int {
	return int(s.sparseRef(e).ID)
}

// Find returns the packed position of e and whether it is in the set.
func (s *SparseSet) Find(e Entity) (int, bool) {
	if !s.Contains(e) {
		return 0, false
	}
	return s.Index(e), true
}

// At returns the entity at pos, or Null when pos is out of range.
func (s *SparseSet) At(pos int) Entity {
	if pos < 0 || pos >= len(s.packed) {
		return Null
	}
	return s.packed[pos]
}

// Insert adds e and returns its packed position. Under the in-place policy a
// freed slot is reused unless forceBack is set.
func (s *SparseSet) Insert(e Entity, forceBack bool) (int, error) {
	if e.IsNull() || e.IsTombstone() {
		return 0, fmt.Errorf("%w: cannot insert reserved %v", ErrStaleHandle, e)
	}
	if slot := s.sparsePtr(e); slot != nil && slot.ID != NullID {
		return 0, fmt.Errorf("%w: index %d holds version %d", ErrAlreadyContained, e.ID, slot.Version)
	}
	slot, err := s.assureAtLeast(e)
	if err != nil {
		return 0, err
	}
	if s.freeList.IsNull() || forceBack {
		s.packed = append(s.packed, e)
		pos := len(s.packed) - 1
		*slot = Entity{ID: uint32(pos), Version: e.Version}
		return pos, nil
	}
	pos := int(s.freeList.ID)
	*slot = Entity{ID: uint32(pos), Version: e.Version}
	s.freeList, s.packed[pos] = s.packed[pos], e
	return pos, nil
}

// nextPos returns the position Insert would give the next entity.
func (s *SparseSet) nextPos(forceBack bool) int {
	if s.freeList.IsNull() || forceBack {
		return len(s.packed)
	}
	return int(s.freeList.ID)
}

// Push adds e, panicking if it cannot.
func (s *SparseSet) Push(e Entity) int {
	pos, err := s.Insert(e, false)
	if err != nil {
		panic(err)
	}
	return pos
}

// Erase removes e according to the deletion policy. The entity must be in
// the set.
func (s *SparseSet) Erase(e Entity) {
	assert(s.Contains(e), ErrNotContained, "erase %v", e)
	s.pop(s.Index(e))
}

// Remove removes e if present and reports whether it did.
func (s *SparseSet) Remove(e Entity) bool {
	if !s.Contains(e) {
		return false
	}
	s.pop(s.Index(e))
	return true
}

func (s *SparseSet) pop(pos int) {
	if s.policy == InPlace {
		s.inPlacePop(pos)
	} else {
		s.swapAndPop(pos)
	}
}

func (s *SparseSet) swapAndPop(pos int) {
	e := s.packed[pos]
	lastPos := len(s.packed) - 1
	last := s.packed[lastPos]
	*s.sparseRef(last) = Entity{ID: uint32(pos), Version: last.Version}
	s.packed[pos] = last
	// after the move so that erasing the last element clears its own slot
	*s.sparseRef(e) = Null
	s.packed = s.packed[:lastPos]
}

func (s *SparseSet) inPlacePop(pos int) {
	*s.sparseRef(s.packed[pos]) = Null
	s.packed[pos] = s.freeList
	s.freeList = Entity{ID: uint32(pos), Version: TombstoneVersion}
}

// truncate drops the entities appended at positions n and up. They must have
// been pushed at the back, so none of them is on the free list.
func (s *SparseSet) truncate(n int) {
	for pos := len(s.packed) - 1; pos >= n; pos-- {
		*s.sparseRef(s.packed[pos]) = Null
	}
	s.packed = s.packed[:n]
}

// Clear removes every entity.
func (s *SparseSet) Clear() {
	for _, e := range s.packed {
		if !e.IsTombstone() {
			*s.sparseRef(e) = Null
		}
	}
	s.packed = s.packed[:0]
	s.freeList = Tombstone
}

// bump overwrites the version stored for the index of e and the packed entry
// that goes with it.
func (s *SparseSet) bump(e Entity) {
	slot := s.sparseRef(e)
	slot.Version = e.Version
	s.packed[slot.ID] = e
}

func (s *SparseSet) swapAt(lhs, rhs int) {
	a, b := s.packed[lhs], s.packed[rhs]
	*s.sparseRef(a) = Entity{ID: uint32(rhs), Version: a.Version}
	*s.sparseRef(b) = Entity{ID: uint32(lhs), Version: b.Version}
	s.packed[lhs], s.packed[rhs] = b, a
}

// SwapElements swaps the positions of two entities of the set.
func (s *SparseSet) SwapElements(lhs, rhs Entity) {
	s.swapElements(lhs, rhs, nil)
}

func (s *SparseSet) swapElements(lhs, rhs Entity, p payload) {
	assert(s.Contains(lhs), ErrNotContained, "swap %v", lhs)
	assert(s.Contains(rhs), ErrNotContained, "swap %v", rhs)
	from, to := s.Index(lhs), s.Index(rhs)
	if p != nil {
		p.swap(from, to)
	}
	s.swapAt(from, to)
}

// Sort orders the set so that iteration visits entities in ascending order
// according to less. Tombstones are compacted away first.
func (s *SparseSet) Sort(less func(lhs, rhs Entity) bool, algo SortAlgorithm) {
	s.sortN(len(s.packed), less, algo, nil)
}

// SortN sorts only the first n packed entities.
func (s *SparseSet) SortN(n int, less func(lhs, rhs Entity) bool, algo SortAlgorithm) {
	s.sortN(n, less, algo, nil)
}

func (s *SparseSet) sortN(n int, less func(lhs, rhs Entity) bool, algo SortAlgorithm, p payload) {
	if s.policy == InPlace {
		s.compact(p)
	}
	n = min(n, len(s.packed))
	region := s.packed[:n]
	// iteration runs back to front, so the region is sorted reversed
	slices.Reverse(region)
	switch algo {
	case StableSort:
		slices.SortStableFunc(region, compareBy(less))
	case InsertionSort:
		insertionSort(region, less)
	default:
		slices.SortFunc(region, compareBy(less))
	}
	slices.Reverse(region)

	// The sparse array still points at the old positions, which is where the
	// payload still is. Walk each permutation cycle, moving payload and
	// fixing the sparse slots as we go.
	for pos := range n {
		curr := pos
		next := s.Index(s.packed[curr])
		for curr != next {
			idx := s.Index(s.packed[next])
			e := s.packed[curr]
			if p != nil {
				p.swap(next, idx)
			}
			*s.sparseRef(e) = Entity{ID: uint32(curr), Version: e.Version}
			curr, next = next, idx
		}
	}
}

func compareBy(less func(lhs, rhs Entity) bool) func(a, b Entity) int {
	return func(a, b Entity) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		}
		return 0
	}
}

func insertionSort(s []Entity, less func(lhs, rhs Entity) bool) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i
		for ; j > 0 && less(v, s[j-1]); j-- {
			s[j] = s[j-1]
		}
		s[j] = v
	}
}

// Compact removes the tombstones left by in-place deletion, moving live
// entities from the back into the holes. It is a no-op for swap-and-pop sets.
func (s *SparseSet) Compact() {
	s.compact(nil)
}

func (s *SparseSet) compact(p payload) {
	if s.freeList.IsNull() {
		return
	}
	from := len(s.packed)
	for from > 0 && s.packed[from-1].IsTombstone() {
		from--
	}
	for to := 0; to < from; to++ {
		if !s.packed[to].IsTombstone() {
			continue
		}
		from--
		if p != nil {
			p.move(from, to)
		}
		e := s.packed[from]
		s.packed[to] = e
		*s.sparseRef(e) = Entity{ID: uint32(to), Version: e.Version}
		for from > 0 && s.packed[from-1].IsTombstone() {
			from--
		}
	}
	s.packed = s.packed[:from]
	s.freeList = Tombstone
}

// ShrinkToFit releases the unused capacity of the packed array, and the
// sparse pages when the set is empty.
func (s *SparseSet) ShrinkToFit() {
	s.packed = shrinkSlice(s.packed)
	if len(s.packed) == 0 {
		s.sparse = nil
	}
}

// Each calls fn for every entity, tombstones excluded. fn may remove the
// entity it is given.
func (s *SparseSet) Each(fn func(Entity)) {
	for pos := len(s.packed) - 1; pos >= 0; pos-- {
		if pos >= len(s.packed) {
			continue
		}
		if e := s.packed[pos]; !e.IsTombstone() {
			fn(e)
		}
	}
}

// All returns an iterator over every entity, tombstones excluded.
func (s *SparseSet) All() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for pos := len(s.packed) - 1; pos >= 0; pos-- {
			if pos >= len(s.packed) {
				continue
			}
			if e := s.packed[pos]; !e.IsTombstone() && !yield(e) {
				return
			}
		}
	}
}
