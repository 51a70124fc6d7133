package becs

// pagedVector stores values in fixed-size pages allocated on demand. Pages
// never move once allocated, so a pointer into a page stays valid until the
// page is released.
type pagedVector[T any] struct {
	pages    [][]T
	pageSize int // power of two, or 0 for a vector that stores nothing
}

func newPagedVector[T any](pageSize int) pagedVector[T] {
	return pagedVector[T]{pageSize: pageSize}
}

// assure makes sure position pos is backed by a page. Positions follow the
// packed array of the owning set, whose entity index limit bounds them under
// swap-and-pop; in-place tombstones may push them past it.
func (v *pagedVector[T]) assure(pos int) {
	if v.pageSize == 0 {
		return
	}
	idx := pos / v.pageSize
	if idx < len(v.pages) {
		return
	}
	v.pages = reserveSlice(v.pages, idx+1)
	for len(v.pages) <= idx {
		v.pages = append(v.pages, make([]T, v.pageSize))
	}
}

func (v *pagedVector[T]) at(pos int) *T {
	return &v.pages[pos/v.pageSize][pos&(v.pageSize-1)]
}

func (v *pagedVector[T]) swap(lhs, rhs int) {
	if v.pageSize == 0 {
		return
	}
	a, b := v.at(lhs), v.at(rhs)
	*a, *b = *b, *a
}

// move relocates the value at from into to and clears from.
func (v *pagedVector[T]) move(from, to int) {
	if v.pageSize == 0 {
		return
	}
	*v.at(to) = *v.at(from)
	v.zero(from)
}

// zero drops the value at pos so the garbage collector can reclaim whatever
// it referenced.
func (v *pagedVector[T]) zero(pos int) {
	if v.pageSize == 0 {
		return
	}
	var empty T
	*v.at(pos) = empty
}

// capacity is the number of elements the allocated pages can hold.
func (v *pagedVector[T]) capacity() int {
	return len(v.pages) * v.pageSize
}

// release frees every page not needed to hold n elements.
func (v *pagedVector[T]) release(n int) {
	if v.pageSize == 0 {
		return
	}
	keep := (n + v.pageSize - 1) / v.pageSize
	for i := keep; i < len(v.pages); i++ {
		v.pages[i] = nil
	}
	if keep < len(v.pages) {
		v.pages = v.pages[:keep]
	}
}

// zeroRange zeroes the elements in [from, to).
func (v *pagedVector[T]) zeroRange(from, to int) {
	for pos := from; pos < to; pos++ {
		v.zero(pos)
	}
}

// clear zeroes the first n elements and keeps the pages for reuse.
func (v *pagedVector[T]) clear(n int) {
	if v.pageSize == 0 {
		return
	}
	for i := 0; i < len(v.pages) && n > 0; i++ {
		clear(v.pages[i][:min(n, v.pageSize)])
		n -= v.pageSize
	}
}
