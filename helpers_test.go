package hibana

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// --- Test Particles ---

// mote lives for a fixed time and sits at x = index.
type mote struct {
	seed    float32
	age     float32
	life    float32
	index   uint32
	explode bool
}

func (m *mote) Seed() float32 { return m.seed }
func (m *mote) Lifetime() float32 { return m.age }
func (m *mote) Index() uint32 { return m.index }
func (m *mote) Update(dt float32) { m.age += dt }

func (m *mote) Transform() Transform {
	return FromXYZ(float32(m.index), 0, 0)
}

func (m *mote) Expiration() Expiration {
	if m.age < m.life {
		return ExpirationNone
	}
	if m.explode {
		return ExpirationExplode
	}
	return ExpirationFizzle
}

// moteSpawner emits motes at a rate, plus queued bursts.
type moteSpawner struct {
	acc        Accumulator
	cap        int
	life       float32
	pending    int
	next       uint32
	strategy   Strategy
	explode    bool
	worldSpace bool
	updates    int
	syncs      []Transform
}

func newMoteSpawner(capacity int, rate, life float32) *moteSpawner {
	return &moteSpawner{acc: Accumulator{Rate: rate}, cap: capacity, life: life}
}

func (s *moteSpawner) Capacity() int { return s.cap }
func (s *moteSpawner) Strategy() Strategy { return s.strategy }
func (s *moteSpawner) WorldSpace() bool { return s.worldSpace }
func (s *moteSpawner) OnUpdate(float32) { s.updates++ }
func (s *moteSpawner) SyncPosition(t Transform) {
	s.syncs = append(s.syncs, t)
}

func (s *moteSpawner) SpawnStep(dt float32) int {
	n := s.acc.Step(dt) + s.pending
	s.pending = 0
	return n
}

func (s *moteSpawner) Build(seed float32) mote {
	m := mote{seed: seed, life: s.life, index: s.next, explode: s.explode}
	s.next++
	return m
}

// countTrail expires after a fixed time.
type countTrail struct {
	left float32
}

func (c *countTrail) Update(dt float32) { c.left -= dt }
func (c *countTrail) Expired() bool { return c.left <= 0 }

func (c *countTrail) Points(yield func(TrailPoint) bool) {
	if !yield(TrailPoint{Width: c.left}) {
		return
	}
	yield(TrailPoint{Position: mgl32.Vec3{0, 1, 0}, Width: c.left})
}

// streak is a mote dragging a countTrail.
type streak struct {
	mote
	trail countTrail
}

func (s *streak) Trail() *countTrail { return &s.trail }

func (s *streak) Update(dt float32) {
	s.mote.Update(dt)
	s.trail.Update(dt)
}

type streakSpawner struct {
	cap       int
	life      float32
	trailLife float32
	pending   int
	strategy  Strategy
}

func (s *streakSpawner) Capacity() int { return s.cap }
func (s *streakSpawner) Strategy() Strategy { return s.strategy }

func (s *streakSpawner) SpawnStep(float32) int {
	n := s.pending
	s.pending = 0
	return n
}

func (s *streakSpawner) Build(seed float32) streak {
	return streak{
		mote:  mote{seed: seed, life: s.life},
		trail: countTrail{left: s.trailLife},
	}
}

func newStreakSystem(s *streakSpawner) System {
	return NewSystem[streak](s, WithTrails[streak, countTrail]())
}

// child is spawned from a parent mote and remembers its index.
type child struct {
	mote
	parent uint32
}

// childSpawner spawns perParent children from every parent mote.
type childSpawner struct {
	cap       int
	perParent int
	calls     int
}

func (s *childSpawner) Capacity() int { return s.cap }
func (s *childSpawner) SpawnStep(float32) int { return 0 }
func (s *childSpawner) Build(seed float32) child {
	return child{mote: mote{seed: seed, life: 1}}
}

func (s *childSpawner) SpawnStepSub(parent *mote, dt float32) int {
	s.calls++
	return s.perParent
}

func (s *childSpawner) BuildFromParent(parent *mote, seed float32) child {
	return child{mote: mote{seed: seed, life: 1}, parent: parent.index}
}

// shardSpawner spawns perExplode records for every exploding death.
type shardSpawner struct {
	cap        int
	perExplode int
}

func (s *shardSpawner) Capacity() int { return s.cap }
func (s *shardSpawner) SpawnStep(float32) int { return 0 }
func (s *shardSpawner) Build(seed float32) mote {
	return mote{seed: seed, life: 1}
}

func (s *shardSpawner) SpawnOnEvent(e Event) int {
	if e.Kind != ExpirationExplode {
		return 0
	}
	return s.perExplode
}

func (s *shardSpawner) BuildFromEvent(e Event, seed float32) mote {
	return mote{seed: seed, life: 1, index: e.Index}
}

// seqSeeds hands out 0, 0.25, 0.5 and so on.
type seqSeeds struct {
	moteSpawner
	n int
}

func (s *seqSeeds) NextSeed() float32 {
	v := float32(s.n) * 0.25
	s.n++
	return v
}

// update runs n frames of dt on sys.
func update(sys System, n int, dt float32) {
	for range n {
		sys.Update(dt, nil)
	}
}

func expectPanic(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}
