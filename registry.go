package becs

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/edwinsyarief/becs/config"
	"go.uber.org/zap"
)

// Registry owns the entity allocator and one storage per component type.
//
// Storages are created the first time a component type is used and live as
// long as the registry. They are kept in creation order, which is the order
// Storages walks them in; Destroy walks them backwards.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	entities *EntityStorage
	pools    []Pool
	index    map[TypeID]int
	cfg      config.RegistryConfig
	log      *zap.Logger
	ctx      Context
	dying    []Entity // entities whose storages are being emptied by Destroy
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithConfig replaces the storage settings.
func WithConfig(cfg config.RegistryConfig) Option {
	return func(r *Registry) {
		r.cfg = cfg
		r.cfg.PageSizes = maps.Clone(cfg.PageSizes)
	}
}

// WithPageSize sets the payload page size of the component type called name,
// as reported by TypeInfo.Name. A size of 0 is only valid for empty types.
func WithPageSize(name string, n int) Option {
	return func(r *Registry) {
		if r.cfg.PageSizes == nil {
			r.cfg.PageSizes = make(map[string]int)
		}
		r.cfg.PageSizes[name] = n
	}
}

// NewRegistry creates an empty registry. It panics when the options yield an
// invalid configuration.
//
// Parameters:
//   - opts: Options applied in order on top of config.DefaultRegistry.
//
// Returns:
//   - The newly created Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		index: make(map[TypeID]int, 16),
		cfg:   config.DefaultRegistry(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.cfg.Validate(); err != nil {
		panic(fmt.Errorf("%w: %w", ErrInvalidPageSize, err))
	}
	r.entities = newEntityStorage(r.cfg.SparsePageSize, r.cfg.MaxEntities)
	r.entities.owner = r
	if r.cfg.InitialCapacity > 0 {
		r.entities.Reserve(r.cfg.InitialCapacity)
	}
	return r
}

// FromConfig builds a registry and its logger from a loaded configuration.
func FromConfig(cfg *config.Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return NewRegistry(WithConfig(cfg.Registry), WithLogger(log)), nil
}

// Logger returns the logger of the registry.
func (r *Registry) Logger() *zap.Logger { return r.log }

// Config returns the storage settings of the registry.
func (r *Registry) Config() config.RegistryConfig { return r.cfg }

// lookup returns the storage of T, nil when it does not exist yet.
func lookup[T any](r *Registry) *Observed[T] {
	ti := TypeOf[T]()
	i, ok := r.index[ti.ID]
	if !ok {
		return nil
	}
	return mustObserved[T](r.pools[i], ti)
}

func mustObserved[T any](p Pool, ti TypeInfo) *Observed[T] {
	o, ok := p.(*Observed[T])
	if !ok {
		panic(fmt.Errorf("%w: %v and %v hash to %#x", ErrTypeCollision, p.Type().Type, ti.Type, uint64(ti.ID)))
	}
	return o
}

// assure returns the storage of T, creating it on first use.
func assure[T any](r *Registry) *Observed[T] {
	ti := TypeOf[T]()
	if i, ok := r.index[ti.ID]; ok {
		return mustObserved[T](r.pools[i], ti)
	}

	opts := StorageOptions{
		PageSize:       TraitsOf[T](r.cfg.PackedPageSize).PageSize,
		SparsePageSize: r.cfg.SparsePageSize,
		Limit:          r.cfg.MaxEntities,
	}
	if n, ok := r.cfg.PageSizeOf(ti.Name); ok {
		opts.PageSize = n
	}
	o := NewObserved(NewStorageWith[T](opts), r)
	r.index[ti.ID] = len(r.pools)
	r.pools = append(r.pools, o)
	r.log.Debug("storage created",
		zap.String("type", ti.Name),
		zap.Int("page_size", o.Traits().PageSize),
		zap.Stringer("policy", o.Policy()))
	return o
}

// Create returns a fresh or recycled entity. It panics when MaxEntities is
// reached.
func (r *Registry) Create() Entity {
	return r.entities.Spawn()
}

// TryCreate is Create that reports ErrCapacityExceeded instead of panicking.
func (r *Registry) TryCreate() (Entity, error) {
	return r.entities.TrySpawn()
}

// CreateHint returns hint itself when its index is free, a regular entity
// otherwise.
func (r *Registry) CreateHint(hint Entity) Entity {
	return r.entities.SpawnHint(hint)
}

// CreateN fills dst with new entities.
func (r *Registry) CreateN(dst []Entity) {
	r.entities.SpawnN(dst)
}

// Destroy removes every component of e, then releases it. It returns the
// version the index of e will be reused with. e must be valid.
//
// Destroy listeners of every storage still see the values of e.
func (r *Registry) Destroy(e Entity) uint16 {
	return r.DestroyVersion(e, NextVersion(e.Version))
}

// DestroyVersion is Destroy with an explicit version for the next
// incarnation of the index.
//
// A destroy listener may destroy the entity it is notified about. That call
// returns at once and the outer one finishes the job.
func (r *Registry) DestroyVersion(e Entity, version uint16) uint16 {
	assert(r.Valid(e), ErrStaleHandle, "destroy %v", e)
	if slices.Contains(r.dying, e) {
		return version
	}
	r.removeAll(e)
	return r.entities.ReleaseVersion(e, version)
}

// TryDestroy destroys e if it is valid and reports ErrStaleHandle otherwise.
func (r *Registry) TryDestroy(e Entity) (uint16, error) {
	if !r.Valid(e) {
		return 0, fmtStale("destroy", e)
	}
	return r.Destroy(e), nil
}

// removeAll walks the storages backwards. A listener creating a storage
// appends it past the cursor, so the walk never skips an existing one.
func (r *Registry) removeAll(e Entity) {
	r.dying = append(r.dying, e)
	defer func() { r.dying = r.dying[:len(r.dying)-1] }()
	for i := len(r.pools) - 1; i >= 0; i-- {
		r.pools[i].Remove(e)
	}
}

// DestroyAll destroys every entity of ents. They must all be valid.
func (r *Registry) DestroyAll(ents []Entity) {
	for _, e := range ents {
		assert(r.Valid(e), ErrStaleHandle, "destroy %v", e)
		r.removeAll(e)
	}
	// packed at the end of the alive region, releasing them moves nothing else
	r.entities.Pack(ents)
	for _, e := range ents {
		r.entities.Release(e)
	}
}

// Release releases e without touching storages. e must be valid and own no
// component.
func (r *Registry) Release(e Entity) uint16 {
	assert(r.Orphan(e), ErrAlreadyContained, "release %v which still has components", e)
	return r.entities.Release(e)
}

// Orphan reports whether e has no component at all.
func (r *Registry) Orphan(e Entity) bool {
	for _, p := range r.pools {
		if p.Contains(e) {
			return false
		}
	}
	return true
}

// Valid reports whether e is alive.
func (r *Registry) Valid(e Entity) bool {
	return r.entities.Contains(e)
}

// Current returns the version currently stored for the index of e, or
// TombstoneVersion when the index was never used.
func (r *Registry) Current(e Entity) uint16 {
	return r.entities.Current(e)
}

// Size returns the number of indices ever handed out.
func (r *Registry) Size() int { return r.entities.Len() }

// Alive returns the number of alive entities.
func (r *Registry) Alive() int { return r.entities.InUse() }

// Empty reports whether no entity is alive.
func (r *Registry) Empty() bool { return r.entities.InUse() == 0 }

// Reserve makes room for n entities.
func (r *Registry) Reserve(n int) { r.entities.Reserve(n) }

// Capacity returns the number of entities the registry holds without
// reallocating.
func (r *Registry) Capacity() int { return r.entities.Capacity() }

// Each calls fn for every alive entity. fn may destroy the entity it is
// given; entities created by fn may or may not be visited.
func (r *Registry) Each(fn func(Entity)) {
	r.entities.Each(fn)
}

// Entities returns the entity allocator. Spawning or releasing through it
// bypasses the component cleanup Destroy performs.
func (r *Registry) Entities() *EntityStorage { return r.entities }

// Storages returns an iterator over every storage in creation order.
func (r *Registry) Storages() iter.Seq2[TypeID, Pool] {
	return func(yield func(TypeID, Pool) bool) {
		for _, p := range r.pools {
			if !yield(p.Type().ID, p) {
				return
			}
		}
	}
}

// Storage returns the storage of the component type id.
func (r *Registry) Storage(id TypeID) (Pool, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.pools[i], true
}

// StorageCount returns the number of storages, one per component type used
// so far.
func (r *Registry) StorageCount() int { return len(r.pools) }

// StorageFor returns the storage of T, creating it on first use.
func StorageFor[T any](r *Registry) *Observed[T] {
	return assure[T](r)
}

// StorageAs converts a pool back to its typed storage.
func StorageAs[T any](p Pool) (*Observed[T], error) {
	o, ok := p.(*Observed[T])
	if !ok {
		return nil, fmt.Errorf("%w: pool of %s is not %s", ErrTypeMismatch, p.Type(), TypeOf[T]())
	}
	return o, nil
}

// OnConstruct returns the sink fired after a T is attached to an entity.
func OnConstruct[T any](r *Registry) Sink[Listener] { return assure[T](r).OnConstruct() }

// OnUpdate returns the sink fired after the T of an entity is patched or
// replaced.
func OnUpdate[T any](r *Registry) Sink[Listener] { return assure[T](r).OnUpdate() }

// OnDestroy returns the sink fired before a T is removed from an entity.
func OnDestroy[T any](r *Registry) Sink[Listener] { return assure[T](r).OnDestroy() }

// Clear removes every component, then releases every entity.
func (r *Registry) Clear() {
	for i := len(r.pools) - 1; i >= 0; i-- {
		r.pools[i].Clear()
	}
	r.entities.Clear()
	r.log.Debug("registry cleared", zap.Int("storages", len(r.pools)))
}

// ClearTypes removes every component of the given types. Entities stay
// alive.
func (r *Registry) ClearTypes(types ...TypeInfo) {
	for _, ti := range types {
		if p, ok := r.Storage(ti.ID); ok {
			p.Clear()
			r.log.Debug("storage cleared", zap.String("type", ti.Name))
		}
	}
}

// Compact removes the tombstones of the given storages, or of every storage
// when types is empty.
func (r *Registry) Compact(types ...TypeInfo) {
	if len(types) == 0 {
		for _, p := range r.pools {
			p.Compact()
		}
		r.log.Debug("storages compacted", zap.Int("storages", len(r.pools)))
		return
	}
	for _, ti := range types {
		if p, ok := r.Storage(ti.ID); ok {
			p.Compact()
			r.log.Debug("storage compacted", zap.String("type", ti.Name))
		}
	}
}

// Ctx returns the context variables of the registry.
func (r *Registry) Ctx() *Context { return &r.ctx }

// CopyTo copies every component of src, except the excluded types, to
// dstEntity of dst. Storages missing in dst are created. Values of types
// implementing Cloner are deep-copied.
//
// Parameters:
//   - src: The entity to copy from, valid in r.
//   - dst: The destination registry, which may be r itself.
//   - dstEntity: The entity to copy to, valid in dst.
//   - exclude: Component types to leave out.
//
// Returns:
//   - The types that were skipped because they implement NonCopyable.
//   - An error when an entity is not valid or a value cannot be stored.
func (r *Registry) CopyTo(src Entity, dst *Registry, dstEntity Entity, exclude ...TypeInfo) ([]TypeInfo, error) {
	if !r.Valid(src) {
		return nil, fmtStale("copy from", src)
	}
	if !dst.Valid(dstEntity) {
		return nil, fmtStale("copy to", dstEntity)
	}
	var skipped []TypeInfo
	// listeners in dst may create storages in r when dst == r
	for i, n := 0, len(r.pools); i < n; i++ {
		p := r.pools[i]
		ti := p.Type()
		if !p.Contains(src) || excluded(ti, exclude) {
			continue
		}
		if !p.Traits().Copyable {
			skipped = append(skipped, ti)
			r.log.Warn("component not copied", zap.String("type", ti.Name), zap.Stringer("entity", src))
			continue
		}
		if _, err := p.copyTo(src, p.assureIn(dst), dstEntity); err != nil {
			return skipped, fmt.Errorf("copy %s: %w", ti, err)
		}
	}
	return skipped, nil
}

func excluded(ti TypeInfo, exclude []TypeInfo) bool {
	for _, x := range exclude {
		if x.ID == ti.ID {
			return true
		}
	}
	return false
}
