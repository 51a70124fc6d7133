package becs

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// go test -run ^TestSparseSetSwapAndPop$ . -count 1
func TestSparseSetSwapAndPop(t *testing.T) {
	s := NewSparseSet(SwapAndPop, 0)
	e0, e1, e2 := ent(0), ent(1), ent(2)
	require.Equal(t, 0, s.Push(e0))
	require.Equal(t, 1, s.Push(e1))
	require.Equal(t, 2, s.Push(e2))

	require.Equal(t, 3, s.Len())
	require.True(t, s.Contains(e1))
	require.False(t, s.Contains(Entity{ID: 1, Version: 1}), "version must match")
	require.Equal(t, uint16(0), s.Current(Entity{ID: 1, Version: 5}))
	require.Equal(t, TombstoneVersion, s.Current(ent(9)))

	s.Erase(e0)
	require.Equal(t, 2, s.Len())
	require.False(t, s.Contains(e0))
	require.Equal(t, 0, s.Index(e2), "last entity fills the hole")
	checkSetInvariant(t, s)

	require.True(t, s.Remove(e2))
	require.False(t, s.Remove(e2))
	require.Equal(t, []Entity{e1}, s.Data())
	checkSetInvariant(t, s)
}

// go test -run ^TestSparseSetInsertErrors$ . -count 1
func TestSparseSetInsertErrors(t *testing.T) {
	s := NewSparseSet(SwapAndPop, 0)
	s.Push(ent(1))

	_, err := s.Insert(ent(1), false)
	require.ErrorIs(t, err, ErrAlreadyContained)
	_, err = s.Insert(Entity{ID: 1, Version: 3}, false)
	require.ErrorIs(t, err, ErrAlreadyContained, "one version per index")
	_, err = s.Insert(Null, false)
	require.ErrorIs(t, err, ErrStaleHandle)
	_, err = s.Insert(Entity{ID: 2, Version: TombstoneVersion}, false)
	require.ErrorIs(t, err, ErrStaleHandle)

	requirePanicsWith(t, ErrNotContained, func() { s.Erase(ent(7)) })
	requirePanicsWith(t, ErrInvalidPageSize, func() { NewSparseSet(SwapAndPop, 24) })
}

// go test -run ^TestSparseSetInPlace$ . -count 1
func TestSparseSetInPlace(t *testing.T) {
	s := NewSparseSet(InPlace, 0)
	for i := range uint32(3) {
		s.Push(ent(i))
	}

	s.Erase(ent(1))
	require.Equal(t, 3, s.Len(), "tombstones are counted")
	require.True(t, s.At(1).IsTombstone())
	require.Equal(t, 2, s.Index(ent(2)), "nobody moves")

	pos, err := s.Insert(ent(3), true)
	require.NoError(t, err)
	require.Equal(t, 3, pos, "forced to the back")

	require.Equal(t, 1, s.Push(ent(4)), "freed slot is reused")
	checkSetInvariant(t, s)

	var got []Entity
	for e := range s.All() {
		got = append(got, e)
	}
	require.Equal(t, []Entity{ent(3), ent(2), ent(4), ent(0)}, got)
}

// go test -run ^TestSparseSetIterationOrder$ . -count 1
func TestSparseSetIterationOrder(t *testing.T) {
	s := NewSparseSet(SwapAndPop, 0)
	for i := range uint32(3) {
		s.Push(ent(i))
	}
	require.Equal(t, []Entity{ent(2), ent(1), ent(0)}, slices.Collect(s.All()))

	var first []Entity
	for e := range s.All() {
		first = append(first, e)
		break
	}
	require.Equal(t, []Entity{ent(2)}, first)
}

// go test -run ^TestSparseSetRemoveWhileIterating$ . -count 1
func TestSparseSetRemoveWhileIterating(t *testing.T) {
	for _, policy := range []DeletionPolicy{SwapAndPop, InPlace} {
		t.Run(policy.String(), func(t *testing.T) {
			s := NewSparseSet(policy, 0)
			for i := range uint32(10) {
				s.Push(ent(i))
			}
			visited := 0
			s.Each(func(e Entity) {
				visited++
				if e.ID%2 == 0 {
					s.Erase(e)
				}
			})
			require.Equal(t, 10, visited)
			for i := range uint32(10) {
				require.Equal(t, i%2 == 1, s.Contains(ent(i)))
			}
			checkSetInvariant(t, s)
		})
	}
}

// go test -run ^TestSparseSetSort$ . -count 1
func TestSparseSetSort(t *testing.T) {
	for _, algo := range []SortAlgorithm{QuickSort, StableSort, InsertionSort} {
		s := NewSparseSet(SwapAndPop, 0)
		for _, id := range []uint32{3, 1, 4, 0, 2} {
			s.Push(ent(id))
		}
		s.Sort(func(a, b Entity) bool { return a.ID < b.ID }, algo)
		require.Equal(t, []Entity{ent(0), ent(1), ent(2), ent(3), ent(4)}, slices.Collect(s.All()))
		checkSetInvariant(t, s)
	}
}

// go test -run ^TestSparseSetSortN$ . -count 1
func TestSparseSetSortN(t *testing.T) {
	s := NewSparseSet(SwapAndPop, 0)
	for _, id := range []uint32{3, 1, 4, 0, 2} {
		s.Push(ent(id))
	}
	s.SortN(3, func(a, b Entity) bool { return a.ID < b.ID }, QuickSort)
	// only the first three positions (3, 1, 4) are reordered
	require.Equal(t, []Entity{ent(4), ent(3), ent(1), ent(0), ent(2)}, s.Data())
	checkSetInvariant(t, s)
}

// go test -run ^TestSparseSetSortCompactsTombstones$ . -count 1
func TestSparseSetSortCompactsTombstones(t *testing.T) {
	s := NewSparseSet(InPlace, 0)
	for i := range uint32(5) {
		s.Push(ent(i))
	}
	s.Erase(ent(2))
	s.Sort(func(a, b Entity) bool { return a.ID > b.ID }, StableSort)
	require.Equal(t, 4, s.Len())
	require.Equal(t, []Entity{ent(4), ent(3), ent(1), ent(0)}, slices.Collect(s.All()))
	checkSetInvariant(t, s)
}

// go test -run ^TestSparseSetCompact$ . -count 1
func TestSparseSetCompact(t *testing.T) {
	s := NewSparseSet(InPlace, 0)
	for i := range uint32(5) {
		s.Push(ent(i))
	}
	s.Erase(ent(1))
	s.Erase(ent(3))
	s.Compact()

	require.Equal(t, []Entity{ent(0), ent(4), ent(2)}, s.Data())
	checkSetInvariant(t, s)
	require.Equal(t, 3, s.Push(ent(5)), "free list is gone")

	// trailing tombstones only
	s.Erase(ent(5))
	s.Compact()
	require.Equal(t, 3, s.Len())

	sp := NewSparseSet(SwapAndPop, 0)
	sp.Push(ent(0))
	sp.Compact()
	require.Equal(t, 1, sp.Len())
}

// go test -run ^TestSparseSetSwapElements$ . -count 1
func TestSparseSetSwapElements(t *testing.T) {
	s := NewSparseSet(SwapAndPop, 0)
	s.Push(ent(0))
	s.Push(ent(1))
	s.SwapElements(ent(0), ent(1))
	require.Equal(t, []Entity{ent(1), ent(0)}, s.Data())
	checkSetInvariant(t, s)
	requirePanicsWith(t, ErrNotContained, func() { s.SwapElements(ent(0), ent(9)) })
}

// go test -run ^TestSparseSetPaging$ . -count 1
func TestSparseSetPaging(t *testing.T) {
	s := NewSparseSet(SwapAndPop, 8)
	far := ent(1000)
	s.Push(far)
	require.True(t, s.Contains(far))
	require.Equal(t, 0, s.Index(far))
	require.False(t, s.Contains(ent(999)))
	require.False(t, s.Contains(ent(5000)), "no page allocated")

	pos, ok := s.Find(far)
	require.True(t, ok)
	require.Equal(t, 0, pos)
	_, ok = s.Find(ent(3))
	require.False(t, ok)

	require.Equal(t, far, s.At(0))
	require.Equal(t, Null, s.At(1))
	require.Equal(t, Null, s.At(-1))
}

// go test -run ^TestSparseSetClear$ . -count 1
func TestSparseSetClear(t *testing.T) {
	s := NewSparseSet(InPlace, 0)
	for i := range uint32(4) {
		s.Push(ent(i))
	}
	s.Erase(ent(2))
	s.Clear()
	require.True(t, s.Empty())
	for i := range uint32(4) {
		require.False(t, s.Contains(ent(i)))
	}
	require.Equal(t, 0, s.Push(ent(2)), "free list is reset")

	s.Reserve(64)
	require.GreaterOrEqual(t, s.Capacity(), 64)
	s.ShrinkToFit()
	require.Equal(t, 1, s.Capacity())
}
