package becs

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleHandle is reported when an entity is not alive anymore.
	ErrStaleHandle = errors.New("becs: stale entity handle")
	// ErrAlreadyContained is reported when emplacing an entity twice.
	ErrAlreadyContained = errors.New("becs: entity already contained")
	// ErrNotContained is reported when an entity is expected in a set but
	// isn't there.
	ErrNotContained = errors.New("becs: entity not contained")
	// ErrTypeMismatch is reported by checked downcasts of type-erased pools.
	ErrTypeMismatch = errors.New("becs: storage type mismatch")
	// ErrTypeCollision is reported when two distinct types hash to the same
	// TypeID.
	ErrTypeCollision = errors.New("becs: type id collision")
	// ErrCapacityExceeded is reported when an entity index is past the
	// configured limit.
	ErrCapacityExceeded = errors.New("becs: capacity exceeded")
	// ErrInvalidPageSize is reported for page sizes that are not a power of
	// two.
	ErrInvalidPageSize = errors.New("becs: page size must be a power of two")
)

// assert panics with err wrapped around the formatted message when cond does
// not hold. It guards caller contracts, it is not a recovery path.
func assert(cond bool, err error, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func fmtStale(op string, e Entity) error {
	return fmt.Errorf("%w: %s %v", ErrStaleHandle, op, e)
}
