// Package becs provides a sparse-set based Entity-Component-Store.
//
// Entities are generational handles allocated by a Registry. Components live
// in one Storage per type, each an index managed by a SparseSet plus a paged
// payload kept in lock-step with it. Views iterate the intersection of
// several storages, and every storage exposes construct/update/destroy
// signals.
//
// The package is single-threaded: a Registry and everything borrowed from it
// must be used from one goroutine at a time.
package becs

import "fmt"

const (
	// NullID is the index reserved for the null entity.
	NullID uint32 = 0xFFFFFFFF
	// TombstoneVersion is the version reserved for tombstones. It is never
	// handed out for a live entity.
	TombstoneVersion uint16 = 0xFFFF
)

var (
	// Null is an entity that never refers to a live slot.
	Null = Entity{ID: NullID, Version: TombstoneVersion}
	// Tombstone marks a slot released under the in-place deletion policy.
	Tombstone = Entity{ID: NullID, Version: TombstoneVersion}
)

// Entity is an opaque handle made of a slot index and a generation.
type Entity struct {
	// ID is the slot index. It is recycled once the entity is destroyed.
	ID uint32
	// Version is bumped every time the slot is released, so stale handles
	// sharing the same ID stop being valid.
	Version uint16
}

// NewEntity builds an entity from its parts.
func NewEntity(id uint32, version uint16) Entity {
	return Entity{ID: id, Version: version}
}

// Pack encodes the entity into a single integer, index in the low 32 bits
// and version in the next 16.
func Pack(e Entity) uint64 {
	return uint64(e.Version)<<32 | uint64(e.ID)
}

// Unpack decodes a value produced by Pack.
func Unpack(v uint64) Entity {
	return Entity{ID: uint32(v), Version: uint16(v >> 32)}
}

// NextVersion returns the version following v. The tombstone version is
// skipped, so after 0xFFFE the counter wraps to 0. Once a slot has been
// recycled 65535 times an old handle may compare valid again; this is a known
// boundary of the handle width, not something the registry guards against.
func NextVersion(v uint16) uint16 {
	v++
	if v == TombstoneVersion {
		return 0
	}
	return v
}

// Next returns the same index with the following version.
func (e Entity) Next() Entity {
	return Entity{ID: e.ID, Version: NextVersion(e.Version)}
}

// IsNull reports whether the index field is the null index. Only the index is
// compared.
func (e Entity) IsNull() bool {
	return e.ID == NullID
}

// IsTombstone reports whether the version field is the tombstone version. Only
// the version is compared.
func (e Entity) IsTombstone() bool {
	return e.Version == TombstoneVersion
}

func (e Entity) String() string {
	switch {
	case e.IsNull():
		return "entity(null)"
	case e.IsTombstone():
		return fmt.Sprintf("entity(%d:tombstone)", e.ID)
	}
	return fmt.Sprintf("entity(%d:%d)", e.ID, e.Version)
}
