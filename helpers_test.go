package becs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// --- Test Components ---
type Position struct{ X, Y float32 }
type Velocity struct{ VX, VY float32 }
type Health struct{ Current, Max int }
type Tag struct{}

// Stable keeps its address while other entities come and go.
type Stable struct{ N int }

func (*Stable) InPlaceDelete() bool { return true }

// Tiny uses small payload pages so tests can cross page boundaries.
type Tiny struct{ N int }

func (*Tiny) ComponentPageSize() int { return 4 }

// Handle refers to something that must not be duplicated.
type Handle struct{ FD int }

func (*Handle) NoCopy() {}

// Inventory owns a slice that copies must not share.
type Inventory struct{ Items []string }

func (i *Inventory) Clone() Inventory {
	return Inventory{Items: append([]string(nil), i.Items...)}
}

// requirePanicsWith runs fn and checks that it panics with an error wrapping
// target.
func requirePanicsWith(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic wrapping %v", target)
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.Is(err, target), "panic %v does not wrap %v", err, target)
	}()
	fn()
}

// checkSetInvariant verifies that every live entity of s sits where the
// sparse array says it does.
func checkSetInvariant(t *testing.T, s *SparseSet) {
	t.Helper()
	for pos, e := range s.Data() {
		if e.IsTombstone() {
			continue
		}
		require.True(t, s.Contains(e), "%v at %d not contained", e, pos)
		require.Equal(t, pos, s.Index(e), "%v", e)
	}
}

func ent(id uint32) Entity { return Entity{ID: id} }
