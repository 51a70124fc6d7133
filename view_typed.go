package becs

import "iter"

// Excluded names a component type a view leaves out. Build it with Exclude.
type Excluded struct {
	info   TypeInfo
	assure func(*Registry) Pool
}

// Exclude returns the filter leaving out entities that have a T.
func Exclude[T any]() Excluded {
	return Excluded{
		info:   TypeOf[T](),
		assure: func(r *Registry) Pool { return assure[T](r) },
	}
}

// Type returns the excluded component type.
func (x Excluded) Type() TypeInfo { return x.info }

func excludeSets(r *Registry, exclude []Excluded) []*SparseSet {
	if len(exclude) == 0 {
		return nil
	}
	sets := make([]*SparseSet, len(exclude))
	for i, x := range exclude {
		sets[i] = x.assure(r).Base()
	}
	return sets
}

// View1 iterates the entities that have the component T1
// and none of the excluded types.
type View1[T1 any] struct {
	s1 *Observed[T1]
	rt RuntimeView
}

// NewView1 creates a view over T1. Storages of the included and
// excluded types are created when missing, so the view sees entities added
// later.
//
// Parameters:
//   - r: The registry to query.
//   - exclude: Component types an entity must not have, built with Exclude.
//
// Returns:
//   - A pointer to the newly created View1.
func NewView1[T1 any](r *Registry, exclude ...Excluded) *View1[T1] {
	v := &View1[T1]{
		s1: assure[T1](r),
	}
	v.rt = NewRuntimeView([]*SparseSet{v.s1.Base()}, excludeSets(r, exclude))
	return v
}

// Storage returns the storage of T1.
func (v *View1[T1]) Storage() *Observed[T1] { return v.s1 }

// Runtime returns a copy of the type-erased view.
func (v *View1[T1]) Runtime() RuntimeView { return v.rt }

// Refresh picks the smallest storage as the driver again.
func (v *View1[T1]) Refresh() { v.rt.Refresh() }

// Use makes the i-th included storage drive the iteration.
func (v *View1[T1]) Use(i int) { v.rt.Use(i) }

// SizeHint returns an upper bound of the number of entities visited.
func (v *View1[T1]) SizeHint() int { return v.rt.SizeHint() }

// Contains reports whether e is visited by the view.
func (v *View1[T1]) Contains(e Entity) bool { return v.rt.Contains(e) }

// Front returns the first entity visited, or Null.
func (v *View1[T1]) Front() Entity { return v.rt.Front() }

// Back returns the last entity visited, or Null.
func (v *View1[T1]) Back() Entity { return v.rt.Back() }

// Get returns the components of e, which must have them all. Excluded types
// are not checked.
func (v *View1[T1]) Get(e Entity) *T1 {
	assert(v.s1.Contains(e), ErrNotContained, "view get %s of %v", v.s1.Type(), e)
	return v.s1.ref(e)
}

// Each calls fn with the components of every entity of the view. fn may
// remove the entity it is given, or destroy it.
func (v *View1[T1]) Each(fn func(*T1)) {
	for e := range v.rt.All() {
		fn(v.s1.ref(e))
	}
}

// EachEntity is Each with the entity passed first.
func (v *View1[T1]) EachEntity(fn func(Entity, *T1)) {
	for e := range v.rt.All() {
		fn(e, v.s1.ref(e))
	}
}

// All returns an iterator over the entities of the view and their component.
func (v *View1[T1]) All() iter.Seq2[Entity, *T1] {
	return func(yield func(Entity, *T1) bool) {
		for e := range v.rt.All() {
			if !yield(e, v.s1.ref(e)) {
				return
			}
		}
	}
}

// View2 iterates the entities that have the 2 components T1, T2
// and none of the excluded types.
type View2[T1 any, T2 any] struct {
	s1 *Observed[T1]
	s2 *Observed[T2]
	rt RuntimeView
}

// NewView2 creates a view over T1, T2. Storages of the included and
// excluded types are created when missing, so the view sees entities added
// later.
//
// Parameters:
//   - r: The registry to query.
//   - exclude: Component types an entity must not have, built with Exclude.
//
// Returns:
//   - A pointer to the newly created View2.
func NewView2[T1 any, T2 any](r *Registry, exclude ...Excluded) *View2[T1, T2] {
	v := &View2[T1, T2]{
		s1: assure[T1](r),
		s2: assure[T2](r),
	}
	v.rt = NewRuntimeView([]*SparseSet{v.s1.Base(), v.s2.Base()}, excludeSets(r, exclude))
	return v
}

// Runtime returns a copy of the type-erased view.
func (v *View2[T1, T2]) Runtime() RuntimeView { return v.rt }

// Refresh picks the smallest storage as the driver again.
func (v *View2[T1, T2]) Refresh() { v.rt.Refresh() }

// Use makes the i-th included storage drive the iteration.
func (v *View2[T1, T2]) Use(i int) { v.rt.Use(i) }

// SizeHint returns an upper bound of the number of entities visited.
func (v *View2[T1, T2]) SizeHint() int { return v.rt.SizeHint() }

// Contains reports whether e is visited by the view.
func (v *View2[T1, T2]) Contains(e Entity) bool { return v.rt.Contains(e) }

// Front returns the first entity visited, or Null.
func (v *View2[T1, T2]) Front() Entity { return v.rt.Front() }

// Back returns the last entity visited, or Null.
func (v *View2[T1, T2]) Back() Entity { return v.rt.Back() }

// Get returns the components of e, which must have them all. Excluded types
// are not checked.
func (v *View2[T1, T2]) Get(e Entity) (*T1, *T2) {
	assert(v.s1.Contains(e), ErrNotContained, "view get %s of %v", v.s1.Type(), e)
	assert(v.s2.Contains(e), ErrNotContained, "view get %s of %v", v.s2.Type(), e)
	return v.s1.ref(e), v.s2.ref(e)
}

// Each calls fn with the components of every entity of the view. fn may
// remove the entity it is given, or destroy it.
func (v *View2[T1, T2]) Each(fn func(*T1, *T2)) {
	for e := range v.rt.All() {
		fn(v.s1.ref(e), v.s2.ref(e))
	}
}

// EachEntity is Each with the entity passed first.
func (v *View2[T1, T2]) EachEntity(fn func(Entity, *T1, *T2)) {
	for e := range v.rt.All() {
		fn(e, v.s1.ref(e), v.s2.ref(e))
	}
}

// Row2 holds the components of one entity of a View2.
type Row2[T1 any, T2 any] struct {
	C1 *T1
	C2 *T2
}

// All returns an iterator over the entities of the view and their
// components.
func (v *View2[T1, T2]) All() iter.Seq2[Entity, Row2[T1, T2]] {
	return func(yield func(Entity, Row2[T1, T2]) bool) {
		for e := range v.rt.All() {
			if !yield(e, Row2[T1, T2]{v.s1.ref(e), v.s2.ref(e)}) {
				return
			}
		}
	}
}

// View3 iterates the entities that have the 3 components T1, T2, T3
// and none of the excluded types.
type View3[T1 any, T2 any, T3 any] struct {
	s1 *Observed[T1]
	s2 *Observed[T2]
	s3 *Observed[T3]
	rt RuntimeView
}

// NewView3 creates a view over T1, T2, T3. Storages of the included and
// excluded types are created when missing, so the view sees entities added
// later.
//
// Parameters:
//   - r: The registry to query.
//   - exclude: Component types an entity must not have, built with Exclude.
//
// Returns:
//   - A pointer to the newly created View3.
func NewView3[T1 any, T2 any, T3 any](r *Registry, exclude ...Excluded) *View3[T1, T2, T3] {
	v := &View3[T1, T2, T3]{
		s1: assure[T1](r),
		s2: assure[T2](r),
		s3: assure[T3](r),
	}
	v.rt = NewRuntimeView([]*SparseSet{v.s1.Base(), v.s2.Base(), v.s3.Base()}, excludeSets(r, exclude))
	return v
}

// Runtime returns a copy of the type-erased view.
func (v *View3[T1, T2, T3]) Runtime() RuntimeView { return v.rt }

// Refresh picks the smallest storage as the driver again.
func (v *View3[T1, T2, T3]) Refresh() { v.rt.Refresh() }

// Use makes the i-th included storage drive the iteration.
func (v *View3[T1, T2, T3]) Use(i int) { v.rt.Use(i) }

// SizeHint returns an upper bound of the number of entities visited.
func (v *View3[T1, T2, T3]) SizeHint() int { return v.rt.SizeHint() }

// Contains reports whether e is visited by the view.
func (v *View3[T1, T2, T3]) Contains(e Entity) bool { return v.rt.Contains(e) }

// Front returns the first entity visited, or Null.
func (v *View3[T1, T2, T3]) Front() Entity { return v.rt.Front() }

// Back returns the last entity visited, or Null.
func (v *View3[T1, T2, T3]) Back() Entity { return v.rt.Back() }

// Get returns the components of e, which must have them all. Excluded types
// are not checked.
func (v *View3[T1, T2, T3]) Get(e Entity) (*T1, *T2, *T3) {
	assert(v.s1.Contains(e), ErrNotContained, "view get %s of %v", v.s1.Type(), e)
	assert(v.s2.Contains(e), ErrNotContained, "view get %s of %v", v.s2.Type(), e)
	assert(v.s3.Contains(e), ErrNotContained, "view get %s of %v", v.s3.Type(), e)
	return v.s1.ref(e), v.s2.ref(e), v.s3.ref(e)
}

// Each calls fn with the components of every entity of the view. fn may
// remove the entity it is given, or destroy it.
func (v *View3[T1, T2, T3]) Each(fn func(*T1, *T2, *T3)) {
	for e := range v.rt.All() {
		fn(v.s1.ref(e), v.s2.ref(e), v.s3.ref(e))
	}
}

// EachEntity is Each with the entity passed first.
func (v *View3[T1, T2, T3]) EachEntity(fn func(Entity, *T1, *T2, *T3)) {
	for e := range v.rt.All() {
		fn(e, v.s1.ref(e), v.s2.ref(e), v.s3.ref(e))
	}
}

// Row3 holds the components of one entity of a View3.
type Row3[T1 any, T2 any, T3 any] struct {
	C1 *T1
	C2 *T2
	C3 *T3
}

// All returns an iterator over the entities of the view and their
// components.
func (v *View3[T1, T2, T3]) All() iter.Seq2[Entity, Row3[T1, T2, T3]] {
	return func(yield func(Entity, Row3[T1, T2, T3]) bool) {
		for e := range v.rt.All() {
			if !yield(e, Row3[T1, T2, T3]{v.s1.ref(e), v.s2.ref(e), v.s3.ref(e)}) {
				return
			}
		}
	}
}

// View4 iterates the entities that have the 4 components T1, T2, T3, T4
// and none of the excluded types.
type View4[T1 any, T2 any, T3 any, T4 any] struct {
	s1 *Observed[T1]
	s2 *Observed[T2]
	s3 *Observed[T3]
	s4 *Observed[T4]
	rt RuntimeView
}

// NewView4 creates a view over T1, T2, T3, T4. Storages of the included and
// excluded types are created when missing, so the view sees entities added
// later.
//
// Parameters:
//   - r: The registry to query.
//   - exclude: Component types an entity must not have, built with Exclude.
//
// Returns:
//   - A pointer to the newly created View4.
func NewView4[T1 any, T2 any, T3 any, T4 any](r *Registry, exclude ...Excluded) *View4[T1, T2, T3, T4] {
	v := &View4[T1, T2, T3, T4]{
		s1: assure[T1](r),
		s2: assure[T2](r),
		s3: assure[T3](r),
		s4: assure[T4](r),
	}
	v.rt = NewRuntimeView([]*SparseSet{v.s1.Base(), v.s2.Base(), v.s3.Base(), v.s4.Base()}, excludeSets(r, exclude))
	return v
}

// Runtime returns a copy of the type-erased view.
func (v *View4[T1, T2, T3, T4]) Runtime() RuntimeView { return v.rt }

// Refresh picks the smallest storage as the driver again.
func (v *View4[T1, T2, T3, T4]) Refresh() { v.rt.Refresh() }

// Use makes the i-th included storage drive the iteration.
func (v *View4[T1, T2, T3, T4]) Use(i int) { v.rt.Use(i) }

// SizeHint returns an upper bound of the number of entities visited.
func (v *View4[T1, T2, T3, T4]) SizeHint() int { return v.rt.SizeHint() }

// Contains reports whether e is visited by the view.
func (v *View4[T1, T2, T3, T4]) Contains(e Entity) bool { return v.rt.Contains(e) }

// Front returns the first entity visited, or Null.
func (v *View4[T1, T2, T3, T4]) Front() Entity { return v.rt.Front() }

// Back returns the last entity visited, or Null.
func (v *View4[T1, T2, T3, T4]) Back() Entity { return v.rt.Back() }

// Get returns the components of e, which must have them all. Excluded types
// are not checked.
func (v *View4[T1, T2, T3, T4]) Get(e Entity) (*T1, *T2, *T3, *T4) {
	assert(v.s1.Contains(e), ErrNotContained, "view get %s of %v", v.s1.Type(), e)
	assert(v.s2.Contains(e), ErrNotContained, "view get %s of %v", v.s2.Type(), e)
	assert(v.s3.Contains(e), ErrNotContained, "view get %s of %v", v.s3.Type(), e)
	assert(v.s4.Contains(e), ErrNotContained, "view get %s of %v", v.s4.Type(), e)
	return v.s1.ref(e), v.s2.ref(e), v.s3.ref(e), v.s4.ref(e)
}

// Each calls fn with the components of every entity of the view. fn may
// remove the entity it is given, or destroy it.
func (v *View4[T1, T2, T3, T4]) Each(fn func(*T1, *T2, *T3, *T4)) {
	for e := range v.rt.All() {
		fn(v.s1.ref(e), v.s2.ref(e), v.s3.ref(e), v.s4.ref(e))
	}
}

// EachEntity is Each with the entity passed first.
func (v *View4[T1, T2, T3, T4]) EachEntity(fn func(Entity, *T1, *T2, *T3, *T4)) {
	for e := range v.rt.All() {
		fn(e, v.s1.ref(e), v.s2.ref(e), v.s3.ref(e), v.s4.ref(e))
	}
}

// Row4 holds the components of one entity of a View4.
type Row4[T1 any, T2 any, T3 any, T4 any] struct {
	C1 *T1
	C2 *T2
	C3 *T3
	C4 *T4
}

// All returns an iterator over the entities of the view and their
// components.
func (v *View4[T1, T2, T3, T4]) All() iter.Seq2[Entity, Row4[T1, T2, T3, T4]] {
	return func(yield func(Entity, Row4[T1, T2, T3, T4]) bool) {
		for e := range v.rt.All() {
			if !yield(e, Row4[T1, T2, T3, T4]{v.s1.ref(e), v.s2.ref(e), v.s3.ref(e), v.s4.ref(e)}) {
				return
			}
		}
	}
}

// Join combines two single-type views into one over both types. The result
// excludes what either view excludes.
func Join[T1, T2 any](a *View1[T1], b *View1[T2]) *View2[T1, T2] {
	return &View2[T1, T2]{s1: a.s1, s2: b.s1, rt: a.rt.Merge(&b.rt)}
}
