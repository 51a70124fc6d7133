package becs

import (
	"go.uber.org/zap"
)

// Emplace attaches v to e and returns a pointer to the stored value. e must
// be valid and must not have a T yet.
//
// Parameters:
//   - r: The registry owning e.
//   - e: The entity to attach the component to.
//   - v: The component value.
//
// Returns:
//   - A pointer to the stored value. It stays valid until the storage of T
//     is modified.
func Emplace[T any](r *Registry, e Entity, v T) *T {
	assert(r.Valid(e), ErrStaleHandle, "emplace %s to %v", TypeOf[T](), e)
	return assure[T](r).Emplace(e, v)
}

// TryEmplace is Emplace that reports errors instead of panicking.
func TryEmplace[T any](r *Registry, e Entity, v T) (*T, error) {
	if !r.Valid(e) {
		return nil, fmtStale("emplace", e)
	}
	return assure[T](r).TryEmplace(e, v)
}

// EmplaceOrReplace attaches v to e, or overwrites the T e already has.
func EmplaceOrReplace[T any](r *Registry, e Entity, v T) *T {
	assert(r.Valid(e), ErrStaleHandle, "emplace %s to %v", TypeOf[T](), e)
	s := assure[T](r)
	if s.Contains(e) {
		return s.Replace(e, v)
	}
	return s.Emplace(e, v)
}

// InsertRange attaches a copy of v to every entity of ents. None of them may
// have a T yet.
func InsertRange[T any](r *Registry, ents []Entity, v T) error {
	for _, e := range ents {
		if !r.Valid(e) {
			return fmtStale("insert", e)
		}
	}
	return assure[T](r).Insert(ents, v)
}

// Patch applies fns in order to the T of e and fires update.
func Patch[T any](r *Registry, e Entity, fns ...func(*T)) *T {
	return mustHave[T](r, e).Patch(e, fns...)
}

// Replace overwrites the T of e and fires update.
func Replace[T any](r *Registry, e Entity, v T) *T {
	return mustHave[T](r, e).Replace(e, v)
}

// Remove detaches the T of e if it has one and reports whether it did.
func Remove[T any](r *Registry, e Entity) bool {
	if s := lookup[T](r); s != nil {
		return s.Remove(e)
	}
	return false
}

// Erase detaches the T of e, which must have one.
func Erase[T any](r *Registry, e Entity) {
	mustHave[T](r, e).Erase(e)
}

// RemoveTypes detaches every listed component type from e and returns how
// many were removed.
func (r *Registry) RemoveTypes(e Entity, types ...TypeInfo) int {
	n := 0
	for _, ti := range types {
		if p, ok := r.Storage(ti.ID); ok && p.Remove(e) {
			n++
		}
	}
	return n
}

// EraseTypes detaches every listed component type from e, which must have
// them all.
func (r *Registry) EraseTypes(e Entity, types ...TypeInfo) {
	for _, ti := range types {
		p, ok := r.Storage(ti.ID)
		assert(ok, ErrNotContained, "erase %s of %v", ti, e)
		p.Erase(e)
	}
}

// AllOfTypes reports whether e has every listed component type.
func (r *Registry) AllOfTypes(e Entity, types ...TypeInfo) bool {
	for _, ti := range types {
		if p, ok := r.Storage(ti.ID); !ok || !p.Contains(e) {
			return false
		}
	}
	return true
}

// AnyOfTypes reports whether e has at least one listed component type.
func (r *Registry) AnyOfTypes(e Entity, types ...TypeInfo) bool {
	for _, ti := range types {
		if p, ok := r.Storage(ti.ID); ok && p.Contains(e) {
			return true
		}
	}
	return false
}

func has[T any](r *Registry, e Entity) bool {
	s := lookup[T](r)
	return s != nil && s.Contains(e)
}

// AllOf reports whether e has a T.
func AllOf[T any](r *Registry, e Entity) bool {
	return has[T](r, e)
}

// AllOf2 reports whether e has both an A and a B.
func AllOf2[A, B any](r *Registry, e Entity) bool {
	return has[A](r, e) && has[B](r, e)
}

// AllOf3 reports whether e has an A, a B and a C.
func AllOf3[A, B, C any](r *Registry, e Entity) bool {
	return has[A](r, e) && has[B](r, e) && has[C](r, e)
}

// AnyOf2 reports whether e has an A or a B.
func AnyOf2[A, B any](r *Registry, e Entity) bool {
	return has[A](r, e) || has[B](r, e)
}

// AnyOf3 reports whether e has an A, a B or a C.
func AnyOf3[A, B, C any](r *Registry, e Entity) bool {
	return has[A](r, e) || has[B](r, e) || has[C](r, e)
}

func mustHave[T any](r *Registry, e Entity) *Observed[T] {
	s := lookup[T](r)
	assert(s != nil && s.Contains(e), ErrNotContained, "%s of %v", TypeOf[T](), e)
	return s
}

// Get returns the T of e, which must have one.
func Get[T any](r *Registry, e Entity) *T {
	return mustHave[T](r, e).ref(e)
}

// Get2 returns the A and the B of e, which must have both.
func Get2[A, B any](r *Registry, e Entity) (*A, *B) {
	return Get[A](r, e), Get[B](r, e)
}

// Get3 returns the A, the B and the C of e, which must have all three.
func Get3[A, B, C any](r *Registry, e Entity) (*A, *B, *C) {
	return Get[A](r, e), Get[B](r, e), Get[C](r, e)
}

// TryGet returns the T of e if it has one.
func TryGet[T any](r *Registry, e Entity) (*T, bool) {
	if s := lookup[T](r); s != nil {
		return s.TryGet(e)
	}
	return nil, false
}

// Sort orders the storage of T so that iteration follows less over values.
func Sort[T any](r *Registry, less func(lhs, rhs *T) bool, algo SortAlgorithm) {
	s := assure[T](r)
	s.SortByValue(less, algo)
	r.log.Debug("storage sorted", zap.String("type", s.Type().Name), zap.Int("len", s.Len()))
}

// SortByEntity orders the storage of T so that iteration follows less over
// entities.
func SortByEntity[T any](r *Registry, less func(lhs, rhs Entity) bool, algo SortAlgorithm) {
	s := assure[T](r)
	s.Sort(less, algo)
	r.log.Debug("storage sorted", zap.String("type", s.Type().Name), zap.Int("len", s.Len()))
}

// SortAs orders the storage of To like the storage of From: entities in both
// come first, in the order From iterates them.
func SortAs[To, From any](r *Registry) {
	s := assure[To](r)
	s.SortAs(assure[From](r).Base())
	r.log.Debug("storage sorted", zap.String("type", s.Type().Name), zap.String("as", TypeOf[From]().Name))
}
