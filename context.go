package becs

// Context holds at most one value per type, for state that belongs to a
// registry rather than to an entity: clocks, configuration, caches.
// Values are stored by pointer, so a pointer returned by GetCtx stays valid
// until the value is erased.
type Context struct {
	items   []any // *T or nil
	types   map[TypeID]int
	freeIDs []int
}

// Len returns the number of values in the context.
func (c *Context) Len() int { return len(c.types) }

// Clear removes every value.
func (c *Context) Clear() {
	clear(c.items)
	c.items = c.items[:0]
	clear(c.types)
	c.freeIDs = c.freeIDs[:0]
}

func (c *Context) slot(ti TypeInfo) (int, bool) {
	i, ok := c.types[ti.ID]
	return i, ok
}

func (c *Context) add(ti TypeInfo, v any) {
	if c.types == nil {
		c.types = make(map[TypeID]int)
	}
	var i int
	if n := len(c.freeIDs); n > 0 {
		i = c.freeIDs[n-1]
		c.freeIDs = c.freeIDs[:n-1]
		c.items[i] = v
	} else {
		c.items = append(c.items, v)
		i = len(c.items) - 1
	}
	c.types[ti.ID] = i
}

// EmplaceCtx stores v unless the context already holds a T, and returns the
// value held.
func EmplaceCtx[T any](c *Context, v T) *T {
	if p, ok := FindCtx[T](c); ok {
		return p
	}
	p := &v
	c.add(TypeOf[T](), p)
	return p
}

// InsertCtx stores v, replacing any T already held.
func InsertCtx[T any](c *Context, v T) *T {
	if p, ok := FindCtx[T](c); ok {
		*p = v
		return p
	}
	p := &v
	c.add(TypeOf[T](), p)
	return p
}

// FindCtx returns the T held by the context.
func FindCtx[T any](c *Context) (*T, bool) {
	i, ok := c.slot(TypeOf[T]())
	if !ok {
		return nil, false
	}
	p, ok := c.items[i].(*T)
	return p, ok
}

// GetCtx returns the T held by the context, which must hold one.
func GetCtx[T any](c *Context) *T {
	p, ok := FindCtx[T](c)
	assert(ok, ErrNotContained, "context has no %s", TypeOf[T]())
	return p
}

// ContainsCtx reports whether the context holds a T.
func ContainsCtx[T any](c *Context) bool {
	_, ok := FindCtx[T](c)
	return ok
}

// EraseCtx removes the T held by the context and reports whether there was
// one. Its slot is reused by the next insertion.
func EraseCtx[T any](c *Context) bool {
	ti := TypeOf[T]()
	i, ok := c.slot(ti)
	if !ok {
		return false
	}
	delete(c.types, ti.ID)
	c.items[i] = nil
	c.freeIDs = append(c.freeIDs, i)
	return true
}
