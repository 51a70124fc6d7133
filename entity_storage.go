package becs

import "iter"

// EntityStorage allocates and recycles entity handles.
//
// It is a swap-and-pop sparse set of entities whose packed array is split in
// two: positions [0, InUse()) hold the alive entities and the rest holds
// released ones, already carrying the version their next incarnation will
// use. Spawning takes the first released entity or appends a new index.
type EntityStorage struct {
	set       SparseSet
	inUse     int
	owner     *Registry
	construct Signal[Listener]
	destroy   Signal[Listener]
}

// NewEntityStorage creates an empty allocator with no limit.
func NewEntityStorage() *EntityStorage {
	return newEntityStorage(0, 0)
}

func newEntityStorage(pageSize, limit int) *EntityStorage {
	s := &EntityStorage{}
	s.set.init(TypeOf[Entity](), SwapAndPop, pageSize, limit)
	return s
}

// OnConstruct returns the sink of the signal fired after an entity is spawned.
func (s *EntityStorage) OnConstruct() Sink[Listener] { return s.construct.Sink() }

// OnDestroy returns the sink of the signal fired before an entity is
// released.
func (s *EntityStorage) OnDestroy() Sink[Listener] { return s.destroy.Sink() }

func (s *EntityStorage) publish(sig *Signal[Listener], e Entity) {
	for _, c := range sig.calls {
		c.fn(s.owner, e)
	}
}

func (s *EntityStorage) appendNew() (Entity, error) {
	e := Entity{ID: uint32(s.set.Len())}
	if _, err := s.set.Insert(e, true); err != nil {
		return Null, err
	}
	return e, nil
}

// TrySpawn returns a fresh or recycled entity. It fails with
// ErrCapacityExceeded when the index space configured for the storage is
// exhausted.
func (s *EntityStorage) TrySpawn() (Entity, error) {
	var e Entity
	if s.inUse == s.set.Len() {
		var err error
		if e, err = s.appendNew(); err != nil {
			return Null, err
		}
	} else {
		e = s.set.packed[s.inUse]
	}
	s.inUse++
	s.publish(&s.construct, e)
	return e, nil
}

// Spawn is TrySpawn that panics on error.
func (s *EntityStorage) Spawn() Entity {
	e, err := s.TrySpawn()
	if err != nil {
		panic(err)
	}
	return e
}

// SpawnHint tries to return exactly hint. When the index of hint is alive, or
// hint is a reserved value, it behaves like Spawn. Otherwise every index
// below the one of hint is materialized as released and hint is returned
// with its own version.
func (s *EntityStorage) SpawnHint(hint Entity) Entity {
	if hint.IsNull() || hint.IsTombstone() {
		return s.Spawn()
	}
	if s.set.Current(hint) == TombstoneVersion {
		for int(hint.ID) >= s.set.Len() {
			if _, err := s.appendNew(); err != nil {
				panic(err)
			}
		}
	} else if s.set.Index(hint) < s.inUse {
		return s.Spawn()
	}
	s.set.swapAt(s.set.Index(hint), s.inUse)
	s.inUse++
	s.set.bump(hint)
	s.publish(&s.construct, hint)
	return hint
}

// SpawnN fills dst with fresh or recycled entities.
func (s *EntityStorage) SpawnN(dst []Entity) {
	s.set.Reserve(s.inUse + len(dst))
	for i := range dst {
		dst[i] = s.Spawn()
	}
}

// Release kills e, which must be alive, and returns the version its index
// will have on the next spawn.
func (s *EntityStorage) Release(e Entity) uint16 {
	return s.ReleaseVersion(e, NextVersion(e.Version))
}

// ReleaseVersion kills e, which must be alive, and sets the version the index
// will have on the next spawn.
func (s *EntityStorage) ReleaseVersion(e Entity, version uint16) uint16 {
	assert(s.Contains(e), ErrStaleHandle, "release %v", e)
	assert(version != TombstoneVersion, ErrStaleHandle, "release %v with the tombstone version", e)
	s.publish(&s.destroy, e)
	// a destroy listener may have released it already
	if !s.Contains(e) {
		return s.set.Current(e)
	}
	pos := s.set.Index(e)
	s.set.bump(Entity{ID: e.ID, Version: version})
	s.inUse--
	if pos != s.inUse {
		s.set.swapAt(pos, s.inUse)
	}
	return version
}

// Pack moves the alive entities of ents to the end of the alive region,
// keeping the order of ents from the back, and returns how many it moved.
func (s *EntityStorage) Pack(ents []Entity) int {
	n := s.inUse
	for _, e := range ents {
		assert(s.Contains(e), ErrStaleHandle, "pack %v", e)
		s.set.swapAt(s.set.Index(e), n-1)
		n--
	}
	return s.inUse - n
}

// InUse returns the number of alive entities.
func (s *EntityStorage) InUse() int { return s.inUse }

// SetInUse moves the boundary between alive and released entities. It is
// meant for tools restoring a snapshot.
func (s *EntityStorage) SetInUse(n int) {
	assert(n >= 0 && n <= s.set.Len(), ErrCapacityExceeded, "in use %d of %d", n, s.set.Len())
	s.inUse = n
}

// Contains reports whether e is alive.
func (s *EntityStorage) Contains(e Entity) bool {
	return s.set.Contains(e) && s.set.Index(e) < s.inUse
}

// Current returns the version of the index of e, alive or released, or
// TombstoneVersion when the index was never spawned.
func (s *EntityStorage) Current(e Entity) uint16 {
	return s.set.Current(e)
}

// Len returns the number of indices ever spawned, alive or released.
func (s *EntityStorage) Len() int { return s.set.Len() }

// Data returns the packed array, alive entities first. It must be treated as
// read-only.
func (s *EntityStorage) Data() []Entity { return s.set.Data() }

// Base returns the sparse set indexing every spawned index.
func (s *EntityStorage) Base() *SparseSet { return &s.set }

// Reserve makes room for n entities.
func (s *EntityStorage) Reserve(n int) { s.set.Reserve(n) }

// Capacity returns the number of entities the storage holds without
// reallocating.
func (s *EntityStorage) Capacity() int { return s.set.Capacity() }

// Each calls fn for every alive entity. fn may release the entity it is
// given.
func (s *EntityStorage) Each(fn func(Entity)) {
	for pos := s.inUse - 1; pos >= 0; pos-- {
		if pos < s.inUse {
			fn(s.set.packed[pos])
		}
	}
}

// All returns an iterator over the alive entities.
func (s *EntityStorage) All() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for pos := s.inUse - 1; pos >= 0; pos-- {
			if pos < s.inUse && !yield(s.set.packed[pos]) {
				return
			}
		}
	}
}

// Clear releases every alive entity.
func (s *EntityStorage) Clear() {
	for pos := s.inUse - 1; pos >= 0; pos-- {
		if pos < s.inUse {
			s.Release(s.set.packed[pos])
		}
	}
}
