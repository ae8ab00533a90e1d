package hibana

import (
	"fmt"
	"math/rand/v2"
	"reflect"
)

// System is a type-erased particle system: one spawner, one arena of its
// records, and optionally a pool of detached trails. Systems of different
// record types are driven through this interface.
type System interface {
	// Update runs one frame of the system. If events is non-nil, every
	// record that dies during this frame appends one Event to it.
	Update(dt float32, events *EventLog)
	// Arena returns the system's storage. It is uninitialized until the
	// first update.
	Arena() *Arena
	// Strategy returns the cleanup strategy of the system's arena.
	Strategy() Strategy
	// WorldSpace reports whether records live in world space.
	WorldSpace() bool
	// SyncPosition forwards the host pose to the spawner.
	SyncPosition(t Transform)
	// Apply forwards a command to the spawner and reports whether it was
	// understood.
	Apply(cmd Command) bool
	// Extract appends one record per live particle to dst.
	Extract(dst []ExtractedParticle, opts ExtractOptions) []ExtractedParticle
	// VisitTrails calls fn for every drawable trail, live ones first, until
	// fn returns false.
	VisitTrails(fn func(TrailBuffer) bool)
	// HasTrails reports whether the system was created with trails.
	HasTrails() bool
	// Detached returns the number of trails in the detached pool.
	Detached() int
	// Len returns the number of live records.
	Len() int
	// Quiescent reports whether nothing is left to simulate or draw.
	Quiescent() bool
	// Spawned reports whether the system ever stored a record.
	Spawned() bool
	// Reset drops every record and detached trail.
	Reset()
	// Spawner returns the concrete spawner.
	Spawner() any
	// Type returns the record type stored by the system.
	Type() reflect.Type
	String() string
}

// Option configures a system created by NewSystem and its variants.
type Option[P any] func(*options[P])

type options[P any] struct {
	trails   trails[P]
	rng      *rand.Rand
	strategy *Strategy
}

// WithTrails enables trail handling for records of type P that own a trail
// of type T.
//
// Example:
//
//	sys := hibana.NewSystem[Rocket](spawner, hibana.WithTrails[Rocket, RocketTrail]())
func WithTrails[P, T any, PP TrailedPtr[P, T], TP TrailPtr[T]]() Option[P] {
	return func(o *options[P]) {
		o.trails = &trailPool[P, T, PP, TP]{}
	}
}

// WithRand sets the generator seeds are drawn from. Spawners implementing
// SeedSource take precedence. Without either, seeds come from the
// math/rand/v2 global generator.
func WithRand[P any](r *rand.Rand) Option[P] {
	return func(o *options[P]) {
		o.rng = r
	}
}

// WithStrategy overrides the strategy reported by the spawner.
func WithStrategy[P any](s Strategy) Option[P] {
	return func(o *options[P]) {
		o.strategy = &s
	}
}

type system[P any, PP ParticlePtr[P]] struct {
	spawner  Spawner[P]
	seeds    SeedSource
	rng      *rand.Rand
	trails   trails[P]
	arena    Arena
	strategy Strategy
	world    bool
	spawned  bool
}

// NewSystem wraps a spawner into a System.
//
// Parameters:
//   - spawner: Decides how many records of type P to create and builds them.
//   - opts: Optional trail, random generator and strategy settings.
//
// Returns:
//   - A System whose arena is created on its first update.
func NewSystem[P any, PP ParticlePtr[P]](spawner Spawner[P], opts ...Option[P]) System {
	return newSystem[P, PP](spawner, opts)
}

func newSystem[P any, PP ParticlePtr[P]](spawner Spawner[P], opts []Option[P]) *system[P, PP] {
	if spawner == nil {
		panic("hibana: nil spawner")
	}
	var o options[P]
	for _, opt := range opts {
		opt(&o)
	}
	s := &system[P, PP]{
		spawner: spawner,
		rng:     o.rng,
		trails:  o.trails,
	}
	if ss, ok := spawner.(StrategySpawner); ok {
		s.strategy = ss.Strategy()
	}
	if o.strategy != nil {
		s.strategy = *o.strategy
	}
	if ws, ok := spawner.(WorldSpaceSpawner); ok {
		s.world = ws.WorldSpace()
	}
	if src, ok := spawner.(SeedSource); ok {
		s.seeds = src
	}
	return s
}

func (s *system[P, PP]) initArena() {
	if s.arena.IsUninit() {
		s.arena.init(reflect.TypeFor[P](), s.spawner.Capacity(), s.strategy)
	}
}

func (s *system[P, PP]) seed() float32 {
	if s.seeds != nil {
		return s.seeds.NextSeed()
	}
	if s.rng != nil {
		return s.rng.Float32()
	}
	return rand.Float32()
}

// store appends a freshly built record. It reports false if the record
// was dropped.
//
// A full ring overwrites the slot under its cursor; when that slot still
// holds an alive record the live count stays the same.
func (s *system[P, PP]) store(p P) bool {
	a := &s.arena
	evictsAlive := false
	if a.kind == arenaRing && a.capacity > 0 && a.highWater == a.capacity {
		old := &slots[P](a, a.capacity)[a.cursor]
		evictsAlive = !PP(old).Expiration().Expired()
	}
	live := a.live
	if !push(a, p) {
		return false
	}
	if evictsAlive {
		a.live = live
	}
	s.spawned = true
	return true
}

func (s *system[P, PP]) Update(dt float32, events *EventLog) {
	s.initArena()
	ring := s.arena.kind == arenaRing
	// Detached trails age before this frame's deaths join them.
	if s.trails != nil && !ring {
		s.trails.update(dt)
	}

	buf := slots[P](&s.arena, s.arena.visible())
	alive := 0
	for i := range buf {
		p := PP(&buf[i])
		var was Expiration
		if events != nil {
			was = p.Expiration()
		}
		p.Update(dt)
		exp := p.Expiration()
		if !exp.Expired() {
			alive++
			continue
		}
		if events != nil && !was.Expired() {
			events.Push(eventOf(exp, p))
		}
	}

	if !ring && alive != len(buf) {
		partition[P, PP](buf)
		dead := buf[alive:]
		if s.trails != nil {
			s.trails.detach(dead)
		}
		clear(dead)
	}
	s.arena.live = alive

	n := s.spawner.SpawnStep(dt)
	for range n {
		if s.arena.full() {
			break
		}
		s.store(s.spawner.Build(s.seed()))
	}

	if hook, ok := s.spawner.(UpdateHook); ok {
		hook.OnUpdate(dt)
	}
}

// partition moves alive records in front of expired ones with a single
// pass of swaps. Order is not preserved.
func partition[P any, PP ParticlePtr[P]](buf []P) {
	i, j := 0, len(buf)-1
	for i < j {
		if !PP(&buf[i]).Expiration().Expired() {
			i++
			continue
		}
		if PP(&buf[j]).Expiration().Expired() {
			j--
			continue
		}
		buf[i], buf[j] = buf[j], buf[i]
		i++
		j--
	}
}

func (s *system[P, PP]) Arena() *Arena {
	return &s.arena
}

func (s *system[P, PP]) Strategy() Strategy {
	return s.strategy
}

func (s *system[P, PP]) WorldSpace() bool {
	return s.world
}

func (s *system[P, PP]) SyncPosition(t Transform) {
	if ps, ok := s.spawner.(PositionSyncer); ok {
		ps.SyncPosition(t)
	}
}

func (s *system[P, PP]) Apply(cmd Command) bool {
	if c, ok := s.spawner.(Commander); ok {
		return c.Apply(cmd)
	}
	return false
}

func (s *system[P, PP]) Extract(dst []ExtractedParticle, opts ExtractOptions) []ExtractedParticle {
	if s.arena.IsUninit() {
		return dst
	}
	ring := s.arena.kind == arenaRing
	buf := slots[P](&s.arena, s.arena.visible())
	for i := range buf {
		p := PP(&buf[i])
		if ring && p.Expiration().Expired() {
			continue
		}
		dst = append(dst, extractParticle(p, s.world, &opts))
	}
	return dst
}

func (s *system[P, PP]) VisitTrails(fn func(TrailBuffer) bool) {
	if s.trails == nil || s.arena.IsUninit() {
		return
	}
	buf := slots[P](&s.arena, s.arena.visible())
	for i := range buf {
		p := &buf[i]
		if s.arena.kind == arenaRing && s.trails.expired(p) {
			continue
		}
		if !s.trails.visit(p, fn) {
			return
		}
	}
	s.trails.visitDetached(fn)
}

func (s *system[P, PP]) HasTrails() bool {
	return s.trails != nil
}

func (s *system[P, PP]) Detached() int {
	if s.trails == nil {
		return 0
	}
	return s.trails.detached()
}

func (s *system[P, PP]) Len() int {
	return s.arena.Len()
}

func (s *system[P, PP]) Quiescent() bool {
	if s.arena.kind != arenaRing {
		return s.arena.IsEmpty() && s.Detached() == 0
	}
	if !s.arena.IsEmpty() {
		return false
	}
	if s.trails == nil {
		return true
	}
	buf := slots[P](&s.arena, s.arena.visible())
	for i := range buf {
		if !s.trails.expired(&buf[i]) {
			return false
		}
	}
	return true
}

func (s *system[P, PP]) Spawned() bool {
	return s.spawned
}

func (s *system[P, PP]) Reset() {
	s.arena.Reset()
	if s.trails != nil {
		s.trails.reset()
	}
}

func (s *system[P, PP]) Spawner() any {
	return s.spawner
}

func (s *system[P, PP]) Type() reflect.Type {
	return reflect.TypeFor[P]()
}

func (s *system[P, PP]) String() string {
	return fmt.Sprintf("System[%s, %s]", reflect.TypeFor[P](), s.strategy)
}
