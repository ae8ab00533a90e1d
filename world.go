package hibana

import (
	"fmt"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// SystemID identifies a system spawned into a World. It combines a 32-bit
// ID with a 32-bit version so that recycled IDs are not confused with new
// systems.
type SystemID struct {
	// ID is the recyclable slot of the system.
	ID uint32
	// Version is a generation counter, incremented every time a slot is
	// reused. A zero version never names a live system.
	Version uint32
}

// SystemDespawned is published on the World's EventBus when a system
// spawned with DespawnWhenDone finished and was removed.
type SystemDespawned struct {
	System System
	ID     SystemID
}

// systemMeta holds the World's bookkeeping for one slot.
type systemMeta struct {
	sys             System
	events          *EventLog
	transform       Transform
	parent          SystemID
	version         uint32 // 0 if the slot is free
	hasParent       bool
	dirty           bool
	despawnWhenDone bool
}

// systemRegistry stores system slots and recycles the IDs of despawned
// systems.
type systemRegistry struct {
	freeIDs  []uint32 // stack of recycled IDs
	metas    []systemMeta
	owners   map[*Arena]uint32 // arena of every live system to its slot
	capacity int
	nextVer  uint32
	live     int
}

// World owns a set of particle systems and drives them frame by frame.
//
// Update runs in two sweeps. The base sweep updates every system on its
// own, spread over a bounded number of goroutines. After a barrier, the
// hierarchy sweep feeds every sub-system from its parent's records and
// every event-system from its parent's death events, sequentially.
//
// A World is not safe for concurrent use.
type World struct {
	bus     EventBus
	systems systemRegistry
	tasks   []uint32
	frame   uint64
	workers int
}

// NewWorld creates a World with room for initialCapacity systems. The
// registry grows on demand.
//
// Parameters:
//   - initialCapacity: The number of system slots to pre-allocate.
//
// Returns:
//   - The newly created World.
func NewWorld(initialCapacity int) *World {
	w := &World{
		systems: systemRegistry{
			capacity: initialCapacity,
			freeIDs:  make([]uint32, initialCapacity),
			metas:    make([]systemMeta, initialCapacity),
			owners:   make(map[*Arena]uint32, initialCapacity),
			nextVer:  1,
		},
		workers: runtime.GOMAXPROCS(0),
	}
	for i := range w.systems.freeIDs {
		w.systems.freeIDs[i] = uint32(initialCapacity - 1 - i)
	}
	return w
}

// SpawnOption configures a system as it is added to a World.
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	parent    *SystemID
	transform *Transform
	events    bool
	despawn   bool
}

// WithParent connects a SubSystem or EventSystem to its parent.
func WithParent(parent SystemID) SpawnOption {
	return func(c *spawnConfig) {
		c.parent = &parent
	}
}

// WithEvents makes the system log an Event for every record that dies.
// It is implied for parents of event-systems.
func WithEvents() SpawnOption {
	return func(c *spawnConfig) {
		c.events = true
	}
}

// WithTransform sets the system's initial host transform.
func WithTransform(t Transform) SpawnOption {
	return func(c *spawnConfig) {
		c.transform = &t
	}
}

// DespawnWhenDone removes the system once it has spawned at least one
// record and became quiescent.
func DespawnWhenDone() SpawnOption {
	return func(c *spawnConfig) {
		c.despawn = true
	}
}

// expand grows the registry when no free slot is left.
func (w *World) expand(additional int) {
	oldCap := w.systems.capacity
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = 1
	}
	if newCap < oldCap+additional {
		newCap = oldCap + additional
	}
	delta := newCap - oldCap
	w.systems.metas = append(w.systems.metas, make([]systemMeta, delta)...)
	for i := range delta {
		w.systems.freeIDs = append(w.systems.freeIDs, uint32(newCap-1-i))
	}
	w.systems.capacity = newCap
}

// Spawn adds a system to the World and returns its handle.
//
// It panics if sys is nil, if sys is already spawned in this World, or if
// a WithParent option names an unknown system or a system that cannot be a
// parent of sys. Nothing is registered when it panics.
func (w *World) Spawn(sys System, opts ...SpawnOption) SystemID {
	if sys == nil {
		panic("hibana: cannot spawn a nil system")
	}
	var cfg spawnConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if id, ok := w.systems.owners[sys.Arena()]; ok {
		panic(fmt.Sprintf("hibana: %s is already spawned in slot %d", sys, id))
	}
	if cfg.parent != nil {
		if !w.IsValid(*cfg.parent) {
			panic(fmt.Sprintf("hibana: unknown parent system %v", *cfg.parent))
		}
		w.checkParent(sys, *cfg.parent)
	}
	if len(w.systems.freeIDs) == 0 {
		w.expand(1)
	}
	last := len(w.systems.freeIDs) - 1
	id := w.systems.freeIDs[last]
	w.systems.freeIDs = w.systems.freeIDs[:last]

	meta := &w.systems.metas[id]
	*meta = systemMeta{
		sys:             sys,
		transform:       Identity,
		version:         w.systems.nextVer,
		despawnWhenDone: cfg.despawn,
	}
	w.systems.nextVer++
	w.systems.live++
	w.systems.owners[sys.Arena()] = id
	if cfg.events {
		meta.events = &EventLog{}
	}
	if cfg.transform != nil {
		meta.transform = *cfg.transform
		meta.dirty = true
	}
	sid := SystemID{ID: id, Version: meta.version}
	if cfg.parent != nil {
		w.SetParent(sid, *cfg.parent)
	}
	return sid
}

// IsValid reports whether id names a live system of this World.
func (w *World) IsValid(id SystemID) bool {
	if int(id.ID) >= len(w.systems.metas) {
		return false
	}
	meta := &w.systems.metas[id.ID]
	return meta.version != 0 && meta.version == id.Version
}

// SetParent connects child to parent. The parent of an event-system gets an
// event log if it did not have one.
//
// It panics if child is parent, if either handle is stale, if child is
// neither a SubSystem nor an EventSystem, or if a SubSystem's parent stores
// another record type than the one it reads.
func (w *World) SetParent(child, parent SystemID) {
	if child == parent {
		panic("hibana: system cannot be its own parent")
	}
	if !w.IsValid(child) {
		panic(fmt.Sprintf("hibana: unknown child system %v", child))
	}
	if !w.IsValid(parent) {
		panic(fmt.Sprintf("hibana: unknown parent system %v", parent))
	}
	meta := &w.systems.metas[child.ID]
	w.checkParent(meta.sys, parent)
	if _, ok := meta.sys.(EventSystem); ok {
		pm := &w.systems.metas[parent.ID]
		if pm.events == nil {
			pm.events = &EventLog{}
		}
	}
	meta.parent = parent
	meta.hasParent = true
}

// checkParent panics unless the live system parent can drive child.
func (w *World) checkParent(child System, parent SystemID) {
	switch c := child.(type) {
	case SubSystem:
		want, got := c.ParentType(), w.systems.metas[parent.ID].sys.Type()
		if want != got {
			panic(fmt.Sprintf("hibana: %s reads parent records of type %s, parent stores %s", child, want, got))
		}
	case EventSystem:
	default:
		panic(fmt.Sprintf("hibana: %s cannot have a parent", child))
	}
}

// ClearParent disconnects child from its parent. Stale handles are ignored.
func (w *World) ClearParent(child SystemID) {
	if !w.IsValid(child) {
		return
	}
	meta := &w.systems.metas[child.ID]
	meta.parent = SystemID{}
	meta.hasParent = false
}

// Parent returns child's parent, if any.
func (w *World) Parent(child SystemID) (SystemID, bool) {
	if !w.IsValid(child) {
		return SystemID{}, false
	}
	meta := &w.systems.metas[child.ID]
	return meta.parent, meta.hasParent
}

// Despawn removes a system. Children of the removed system stop spawning.
// Stale handles are ignored.
func (w *World) Despawn(id SystemID) {
	if !w.IsValid(id) {
		return
	}
	delete(w.systems.owners, w.systems.metas[id.ID].sys.Arena())
	w.systems.metas[id.ID] = systemMeta{}
	w.systems.freeIDs = append(w.systems.freeIDs, id.ID)
	w.systems.live--
}

// Clear removes every system, keeping the registry's allocation.
func (w *World) Clear() {
	w.systems.freeIDs = w.systems.freeIDs[:0]
	clear(w.systems.owners)
	for i := range w.systems.metas {
		w.systems.metas[i] = systemMeta{}
	}
	for i := w.systems.capacity - 1; i >= 0; i-- {
		w.systems.freeIDs = append(w.systems.freeIDs, uint32(i))
	}
	w.systems.live = 0
}

// System returns the system named by id, or nil if the handle is stale.
func (w *World) System(id SystemID) System {
	if !w.IsValid(id) {
		return nil
	}
	return w.systems.metas[id.ID].sys
}

// Events returns the event log of a system, or nil if it does not log
// events or the handle is stale.
func (w *World) Events(id SystemID) *EventLog {
	if !w.IsValid(id) {
		return nil
	}
	return w.systems.metas[id.ID].events
}

// SetTransform records the host pose of a system. World-space systems get
// it through SyncPosition once, on the next Update. It reports false for
// a stale handle.
func (w *World) SetTransform(id SystemID, t Transform) bool {
	if !w.IsValid(id) {
		return false
	}
	meta := &w.systems.metas[id.ID]
	meta.transform = t
	meta.dirty = true
	return true
}

// Transform returns the host pose of a system.
func (w *World) Transform(id SystemID) (Transform, bool) {
	if !w.IsValid(id) {
		return Transform{}, false
	}
	return w.systems.metas[id.ID].transform, true
}

// Apply delivers a command to a system's spawner. It reports false if the
// handle is stale or the spawner ignored the command.
func (w *World) Apply(id SystemID, cmd Command) bool {
	if !w.IsValid(id) {
		return false
	}
	return w.systems.metas[id.ID].sys.Apply(cmd)
}

// Len returns the number of live systems.
func (w *World) Len() int {
	return w.systems.live
}

// Frame returns the number of completed updates.
func (w *World) Frame() uint64 {
	return w.frame
}

// Bus returns the World's event bus.
func (w *World) Bus() *EventBus {
	return &w.bus
}

// SetWorkers bounds the number of goroutines used by the base sweep. A
// value below 2 runs the sweep on the calling goroutine.
func (w *World) SetWorkers(n int) {
	w.workers = n
}

// Each calls fn for every live system in slot order until fn returns
// false.
func (w *World) Each(fn func(SystemID, System) bool) {
	for i := range w.systems.metas {
		meta := &w.systems.metas[i]
		if meta.version == 0 {
			continue
		}
		if !fn(SystemID{ID: uint32(i), Version: meta.version}, meta.sys) {
			return
		}
	}
}

// Extract appends every live particle of every system to dst.
func (w *World) Extract(dst []ExtractedParticle, billboard *mgl32.Quat) []ExtractedParticle {
	for i := range w.systems.metas {
		meta := &w.systems.metas[i]
		if meta.version == 0 {
			continue
		}
		dst = meta.sys.Extract(dst, ExtractOptions{Transform: meta.transform, Billboard: billboard})
	}
	return dst
}

// ExtractSystem appends the live particles of one system to dst.
func (w *World) ExtractSystem(id SystemID, dst []ExtractedParticle, billboard *mgl32.Quat) []ExtractedParticle {
	if !w.IsValid(id) {
		return dst
	}
	meta := &w.systems.metas[id.ID]
	return meta.sys.Extract(dst, ExtractOptions{Transform: meta.transform, Billboard: billboard})
}

// sweepPanic carries a panic out of a base-sweep goroutine.
type sweepPanic struct {
	value any
}

func (p *sweepPanic) Error() string {
	return fmt.Sprint(p.value)
}

// Update advances every system by dt seconds.
//
// A panic raised by a system in the base sweep is re-raised on the calling
// goroutine after every other system finished its update.
func (w *World) Update(dt float32) {
	metas := w.systems.metas
	w.tasks = w.tasks[:0]
	for i := range metas {
		meta := &metas[i]
		if meta.version == 0 {
			continue
		}
		if meta.events != nil {
			meta.events.Clear()
		}
		if meta.dirty {
			if meta.sys.WorldSpace() {
				meta.sys.SyncPosition(meta.transform)
			}
			meta.dirty = false
		}
		w.tasks = append(w.tasks, uint32(i))
	}

	w.baseSweep(dt)
	w.hierarchySweep(dt)

	// Handlers may spawn systems and grow the registry.
	for _, i := range w.tasks {
		meta := &w.systems.metas[i]
		if meta.version == 0 || !meta.despawnWhenDone {
			continue
		}
		if meta.sys.Spawned() && meta.sys.Quiescent() {
			id := SystemID{ID: i, Version: meta.version}
			sys := meta.sys
			w.Despawn(id)
			Publish(&w.bus, SystemDespawned{ID: id, System: sys})
		}
	}
	w.frame++
}

func (w *World) baseSweep(dt float32) {
	metas := w.systems.metas
	if w.workers < 2 || len(w.tasks) < 2 {
		for _, i := range w.tasks {
			metas[i].sys.Update(dt, metas[i].events)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(w.workers)
	for _, i := range w.tasks {
		meta := &metas[i]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &sweepPanic{value: r}
				}
			}()
			meta.sys.Update(dt, meta.events)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if p, ok := err.(*sweepPanic); ok {
			panic(p.value)
		}
		panic(err)
	}
}

func (w *World) hierarchySweep(dt float32) {
	metas := w.systems.metas
	for _, i := range w.tasks {
		meta := &metas[i]
		if !meta.hasParent {
			continue
		}
		if meta.parent.ID == i {
			panic("hibana: system cannot be its own parent")
		}
		if !w.IsValid(meta.parent) {
			continue
		}
		parent := &metas[meta.parent.ID]
		switch child := meta.sys.(type) {
		case SubSystem:
			child.SpawnFromParent(dt, parent.sys)
		case EventSystem:
			child.SpawnOnEvents(parent.events)
		}
	}
}
