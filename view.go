package becs

import "iter"

// RuntimeView iterates the entities found in every included set and in none
// of the excluded ones, with the sets picked at run time.
//
// One included set drives the iteration; the others are only probed. The
// driver is the smallest included set when the view is built or refreshed.
// A view borrows its sets and must not outlive them.
type RuntimeView struct {
	pools  []*SparseSet
	filter []*SparseSet
	driver int
}

// NewRuntimeView creates a view over the entities of every set in include
// that belong to no set in exclude.
func NewRuntimeView(include, exclude []*SparseSet) RuntimeView {
	v := RuntimeView{
		pools:  append([]*SparseSet(nil), include...),
		filter: append([]*SparseSet(nil), exclude...),
	}
	v.Refresh()
	return v
}

// RuntimeView builds a view over the storages of the given types. A missing
// included storage yields an empty view, a missing excluded one is ignored.
func (r *Registry) RuntimeView(include []TypeInfo, exclude ...TypeInfo) RuntimeView {
	v := RuntimeView{pools: make([]*SparseSet, 0, len(include))}
	for _, ti := range include {
		p, ok := r.Storage(ti.ID)
		if !ok {
			return RuntimeView{pools: []*SparseSet{NewSparseSet(SwapAndPop, 0)}}
		}
		v.pools = append(v.pools, p.Base())
	}
	for _, ti := range exclude {
		if p, ok := r.Storage(ti.ID); ok {
			v.filter = append(v.filter, p.Base())
		}
	}
	v.Refresh()
	return v
}

// Iterate adds set to the included sets.
func (v *RuntimeView) Iterate(set *SparseSet) *RuntimeView {
	v.pools = append(v.pools, set)
	v.Refresh()
	return v
}

// Exclude adds set to the excluded sets.
func (v *RuntimeView) Exclude(set *SparseSet) *RuntimeView {
	v.filter = append(v.filter, set)
	return v
}

// Refresh picks the smallest included set as the driver again.
func (v *RuntimeView) Refresh() {
	v.driver = 0
	for i, p := range v.pools {
		if p.Len() < v.pools[v.driver].Len() {
			v.driver = i
		}
	}
}

// Use forces the included set at position i to drive the iteration.
func (v *RuntimeView) Use(i int) {
	assert(i >= 0 && i < len(v.pools), ErrNotContained, "view has no set %d", i)
	v.driver = i
}

// Handle returns the set driving the iteration, nil for a view without
// included sets.
func (v *RuntimeView) Handle() *SparseSet {
	if len(v.pools) == 0 {
		return nil
	}
	return v.pools[v.driver]
}

// SizeHint returns an upper bound of the number of entities the view visits.
func (v *RuntimeView) SizeHint() int {
	if d := v.Handle(); d != nil {
		return d.Len()
	}
	return 0
}

// Contains reports whether e is visited by the view.
func (v *RuntimeView) Contains(e Entity) bool {
	if len(v.pools) == 0 {
		return false
	}
	for _, p := range v.pools {
		if !p.Contains(e) {
			return false
		}
	}
	return !v.excluded(e)
}

func (v *RuntimeView) excluded(e Entity) bool {
	for _, f := range v.filter {
		if f.Contains(e) {
			return true
		}
	}
	return false
}

// accepts checks an entity taken from the driver.
func (v *RuntimeView) accepts(e Entity) bool {
	if e.IsTombstone() {
		return false
	}
	for i, p := range v.pools {
		if i != v.driver && !p.Contains(e) {
			return false
		}
	}
	return !v.excluded(e)
}

// Front returns the first entity the view visits, or Null.
func (v *RuntimeView) Front() Entity {
	d := v.Handle()
	if d == nil {
		return Null
	}
	for pos := d.Len() - 1; pos >= 0; pos-- {
		if e := d.packed[pos]; v.accepts(e) {
			return e
		}
	}
	return Null
}

// Back returns the last entity the view visits, or Null.
func (v *RuntimeView) Back() Entity {
	d := v.Handle()
	if d == nil {
		return Null
	}
	for pos := range d.Len() {
		if e := d.packed[pos]; v.accepts(e) {
			return e
		}
	}
	return Null
}

// Each calls fn for every entity of the view. fn may remove the entity it is
// given from any storage, or destroy it.
func (v *RuntimeView) Each(fn func(Entity)) {
	d := v.Handle()
	if d == nil {
		return
	}
	for pos := d.Len() - 1; pos >= 0; pos-- {
		if pos >= d.Len() {
			continue
		}
		if e := d.packed[pos]; v.accepts(e) {
			fn(e)
		}
	}
}

// All returns an iterator over the entities of the view.
func (v *RuntimeView) All() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		d := v.Handle()
		if d == nil {
			return
		}
		for pos := d.Len() - 1; pos >= 0; pos-- {
			if pos >= d.Len() {
				continue
			}
			if e := d.packed[pos]; v.accepts(e) && !yield(e) {
				return
			}
		}
	}
}

// Merge returns a view that includes the sets included by either view and
// excludes the sets excluded by either.
func (v *RuntimeView) Merge(other *RuntimeView) RuntimeView {
	return NewRuntimeView(
		append(append([]*SparseSet(nil), v.pools...), other.pools...),
		append(append([]*SparseSet(nil), v.filter...), other.filter...),
	)
}
