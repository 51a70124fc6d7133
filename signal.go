package becs

// Listener is the callback type of every storage signal. It receives the
// registry that owns the storage, nil for a standalone storage, and the
// entity the event is about.
type Listener func(r *Registry, e Entity)

type slot[F any] struct {
	id       uint64
	instance any
	fn       F
}

// Signal keeps an ordered list of listeners of type F. Listeners are called
// synchronously in the order they were connected.
//
// The listener slice is copied on every connect and disconnect and never
// written in place, so a publish walks a snapshot: listeners connected or
// disconnected while a signal fires take effect from the next publish.
type Signal[F any] struct {
	calls  []slot[F]
	nextID uint64
}

// Len returns the number of connected listeners.
func (s *Signal[F]) Len() int { return len(s.calls) }

// Empty reports whether no listener is connected.
func (s *Signal[F]) Empty() bool { return len(s.calls) == 0 }

// Publish calls call once per listener, in connection order. A panic in a
// listener propagates to the caller.
func (s *Signal[F]) Publish(call func(F)) {
	for _, c := range s.calls {
		call(c.fn)
	}
}

// Sink returns the connection side of the signal.
func (s *Signal[F]) Sink() Sink[F] {
	return Sink[F]{sig: s}
}

func (s *Signal[F]) connect(instance any, fn F) Connection {
	s.nextID++
	calls := make([]slot[F], len(s.calls), len(s.calls)+1)
	copy(calls, s.calls)
	s.calls = append(calls, slot[F]{id: s.nextID, instance: instance, fn: fn})
	return Connection{owner: s, id: s.nextID}
}

// without replaces the listener slice with a copy holding only the slots
// drop rejects. It returns the number of slots dropped.
func (s *Signal[F]) without(drop func(slot[F]) bool) int {
	n := 0
	for _, c := range s.calls {
		if drop(c) {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	calls := make([]slot[F], 0, len(s.calls)-n)
	for _, c := range s.calls {
		if !drop(c) {
			calls = append(calls, c)
		}
	}
	s.calls = calls
	return n
}

func (s *Signal[F]) disconnect(id uint64) bool {
	return s.without(func(c slot[F]) bool { return c.id == id }) > 0
}

func (s *Signal[F]) connected(id uint64) bool {
	for _, c := range s.calls {
		if c.id == id {
			return true
		}
	}
	return false
}

// Sink connects listeners to a Signal without granting the right to publish.
type Sink[F any] struct {
	sig *Signal[F]
}

// Connect appends fn to the listeners of the signal.
func (k Sink[F]) Connect(fn F) Connection {
	return k.sig.connect(nil, fn)
}

// ConnectInstance appends fn and tags it with instance, so every listener of
// an instance can later be dropped at once. instance must be comparable,
// usually a pointer.
func (k Sink[F]) ConnectInstance(instance any, fn F) Connection {
	return k.sig.connect(instance, fn)
}

// DisconnectInstance drops every listener tagged with instance and returns
// how many were dropped.
func (k Sink[F]) DisconnectInstance(instance any) int {
	if instance == nil {
		return 0
	}
	return k.sig.without(func(c slot[F]) bool { return c.instance == instance })
}

// DisconnectAll drops every listener.
func (k Sink[F]) DisconnectAll() {
	k.sig.calls = nil
}

// Len returns the number of connected listeners.
func (k Sink[F]) Len() int { return k.sig.Len() }

// Empty reports whether no listener is connected.
func (k Sink[F]) Empty() bool { return k.sig.Empty() }

type connectionOwner interface {
	disconnect(id uint64) bool
	connected(id uint64) bool
}

// Connection identifies one connected listener. The zero value is not
// connected to anything.
type Connection struct {
	owner connectionOwner
	id    uint64
}

// Connected reports whether the listener is still connected.
func (c Connection) Connected() bool {
	return c.owner != nil && c.owner.connected(c.id)
}

// Release disconnects the listener. It is safe to call more than once.
func (c *Connection) Release() {
	if c.owner != nil {
		c.owner.disconnect(c.id)
		c.owner = nil
	}
}
