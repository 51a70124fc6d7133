package becs

import "slices"

// Observed decorates a Storage with construct, update and destroy signals.
// The registry keeps every component type in an Observed storage, so writes
// made through the registry always notify listeners.
//
// Construct fires after the value is in place, update after it changed and
// destroy while the value can still be read.
type Observed[T any] struct {
	*Storage[T]

	owner     *Registry
	construct Signal[Listener]
	update    Signal[Listener]
	destroy   Signal[Listener]
	dying     []Entity // entities whose destroy signal is being published
}

var _ ComponentStore[struct{}] = (*Observed[struct{}])(nil)

// NewObserved wraps s. owner is handed to listeners and may be nil.
func NewObserved[T any](s *Storage[T], owner *Registry) *Observed[T] {
	return &Observed[T]{Storage: s, owner: owner}
}

// OnConstruct returns the sink of the signal fired after a value is added.
func (o *Observed[T]) OnConstruct() Sink[Listener] { return o.construct.Sink() }

// OnUpdate returns the sink of the signal fired after a value is patched or
// replaced.
func (o *Observed[T]) OnUpdate() Sink[Listener] { return o.update.Sink() }

// OnDestroy returns the sink of the signal fired before a value is removed.
// A listener may remove the value it is notified about; the signal does not
// fire a second time for it.
func (o *Observed[T]) OnDestroy() Sink[Listener] { return o.destroy.Sink() }

func (o *Observed[T]) publish(sig *Signal[Listener], e Entity) {
	for _, c := range sig.calls {
		c.fn(o.owner, e)
	}
}

// TryEmplace assigns v to e and fires construct. The returned pointer is nil
// when a listener removed the value again.
func (o *Observed[T]) TryEmplace(e Entity, v T) (*T, error) {
	if _, err := o.Storage.TryEmplace(e, v); err != nil {
		return nil, err
	}
	o.publish(&o.construct, e)
	elem, _ := o.Storage.TryGet(e)
	return elem, nil
}

// Emplace is TryEmplace that panics on error.
func (o *Observed[T]) Emplace(e Entity, v T) *T {
	elem, err := o.TryEmplace(e, v)
	if err != nil {
		panic(err)
	}
	return elem
}

// Insert assigns a copy of v to every entity of ents, then fires construct
// once per entity. Nothing is added and nothing fires when one of them
// cannot be added.
func (o *Observed[T]) Insert(ents []Entity, v T) error {
	if err := o.Storage.Insert(ents, v); err != nil {
		return err
	}
	for _, e := range ents {
		o.publish(&o.construct, e)
	}
	return nil
}

// EmplaceAny implements Pool. It fires update when e already had a value and
// construct otherwise.
func (o *Observed[T]) EmplaceAny(e Entity, v any) error {
	had := o.Storage.Contains(e)
	if err := o.Storage.EmplaceAny(e, v); err != nil {
		return err
	}
	if had {
		o.publish(&o.update, e)
	} else {
		o.publish(&o.construct, e)
	}
	return nil
}

// Patch applies fns to the value of e and fires update.
func (o *Observed[T]) Patch(e Entity, fns ...func(*T)) *T {
	elem := o.Storage.Patch(e, fns...)
	o.publish(&o.update, e)
	return elem
}

// Replace overwrites the value of e and fires update.
func (o *Observed[T]) Replace(e Entity, v T) *T {
	elem := o.Storage.Replace(e, v)
	o.publish(&o.update, e)
	return elem
}

// Erase fires destroy and removes e, which must be in the storage.
func (o *Observed[T]) Erase(e Entity) {
	assert(o.Storage.Contains(e), ErrNotContained, "erase %s of %v", o.Type(), e)
	o.remove(e)
}

// Remove fires destroy and removes e if present.
func (o *Observed[T]) Remove(e Entity) bool {
	if !o.Storage.Contains(e) {
		return false
	}
	o.remove(e)
	return true
}

func (o *Observed[T]) remove(e Entity) {
	o.publishDestroy(e)
	// a listener may have removed it already
	o.Storage.Remove(e)
}

// publishDestroy fires destroy for e unless it is already firing for it.
func (o *Observed[T]) publishDestroy(e Entity) {
	if o.destroy.Empty() || slices.Contains(o.dying, e) {
		return
	}
	o.dying = append(o.dying, e)
	defer func() { o.dying = o.dying[:len(o.dying)-1] }()
	o.publish(&o.destroy, e)
}

// Clear fires destroy for every entity, then removes them all.
func (o *Observed[T]) Clear() {
	if !o.destroy.Empty() {
		for pos := o.Storage.Len() - 1; pos >= 0; pos-- {
			if pos >= o.Storage.Len() {
				continue
			}
			if e := o.Storage.At(pos); !e.IsTombstone() {
				o.publishDestroy(e)
			}
		}
	}
	o.Storage.Clear()
}
