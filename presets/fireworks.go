package presets

import (
	"math"

	"github.com/edwinsyarief/hibana"
	"github.com/go-gl/mathgl/mgl32"
)

var up = mgl32.Vec3{0, 1, 0}

// Rocket climbs on a curved path and explodes when its fuse runs out. It
// owns an exponential-decay trail that keeps fading after the explosion.
type Rocket struct {
	trail   hibana.ExpDecayTrail
	seed    float32
	age     float32
	fuse    float32
	sparkle float32
}

// rocketPath is the rocket's position after t seconds.
func rocketPath(seed, t float32) mgl32.Vec3 {
	xz := hibana.RandomCircle(seed * 2).Mul(t)
	return mgl32.Vec3{xz[0], t*8 - t*t, xz[1]}
}

func (r *Rocket) Seed() float32 { return r.seed }
func (r *Rocket) Lifetime() float32 { return r.age }
func (r *Rocket) Fac() float32 { return r.age / r.fuse }
func (r *Rocket) Trail() *hibana.ExpDecayTrail { return &r.trail }
func (r *Rocket) Position() mgl32.Vec3 { return rocketPath(r.seed, r.age) }
func (r *Rocket) Expiration() hibana.Expiration { return hibana.ExplodeIf(r.age > r.fuse) }

func (r *Rocket) Tangent() mgl32.Vec3 {
	return rocketPath(r.seed, r.age+0.001).Sub(r.Position())
}

func (r *Rocket) Transform() hibana.Transform {
	return hibana.TransformFromDerivative(func(t float32) mgl32.Vec3 {
		return rocketPath(r.seed, t)
	}, r.age)
}

func (r *Rocket) Color() hibana.Color {
	return hibana.RGBA(1, 0.8, 0.4, 1)
}

// Update moves the rocket and drags its trail head along. Once dead the
// rocket stops, so the trail collapses onto the explosion point.
func (r *Rocket) Update(dt float32) {
	if r.Expiration() == hibana.ExpirationNone {
		r.age += dt
		r.trail.SetHead(r.Position())
	}
	r.trail.Update(dt)
}

// RocketLauncher launches rockets at a steady rate.
type RocketLauncher struct {
	acc hibana.Accumulator
	// Cap is the nominal arena capacity.
	Cap int
	// Fuse is the minimum flight time; every rocket adds up to one second.
	Fuse float32
	// TrailLength is the number of trail samples, at most
	// hibana.MaxTrailSamples.
	TrailLength int
}

// NewRocketLauncher returns a launcher firing rate rockets per second.
func NewRocketLauncher(rate float32) *RocketLauncher {
	return &RocketLauncher{
		acc:         hibana.Accumulator{Rate: rate},
		Cap:         60,
		Fuse:        2.5,
		TrailLength: 16,
	}
}

func (l *RocketLauncher) Capacity() int { return l.Cap }

func (l *RocketLauncher) SpawnStep(dt float32) int {
	return l.acc.Step(dt)
}

func (l *RocketLauncher) Build(seed float32) Rocket {
	r := Rocket{
		seed:  seed,
		fuse:  l.Fuse + seed,
		trail: hibana.NewExpDecayTrail(l.TrailLength, rocketPath(seed, 0)),
	}
	r.trail.Curve = func(fac float32) float32 { return 0.2 * (1 - fac) }
	return r
}

func (l *RocketLauncher) Apply(cmd hibana.Command) bool {
	switch c := cmd.(type) {
	case hibana.SetRate:
		l.acc.Rate = c.PerSecond
	default:
		return false
	}
	return true
}

// Spark is emitted backwards from a flying rocket.
type Spark struct {
	origin hibana.Transform
	seed   float32
	age    float32
}

func (s *Spark) Seed() float32 { return s.seed }
func (s *Spark) Lifetime() float32 { return s.age }
func (s *Spark) Fac() float32 { return s.age / sparkLife }
func (s *Spark) Update(dt float32) { s.age += dt }

const sparkLife = 0.6

func (s *Spark) Transform() hibana.Transform {
	p := s.origin.TransformPoint(hibana.RandomCircle(s.seed).Vec3(2).Mul(s.age))
	return s.origin.WithTranslation(p)
}

func (s *Spark) Color() hibana.Color {
	return hibana.RGBA(1, 1, 0.6, 1).Lerp(hibana.RGBA(1, 0.2, 0, 0), s.Fac())
}

func (s *Spark) Expiration() hibana.Expiration {
	return hibana.FizzleIf(s.age > sparkLife)
}

// SparkStream spawns sparks from every live rocket. Each rocket carries
// its own spawn remainder so the rate holds per rocket.
type SparkStream struct {
	// Rate is the number of sparks per rocket per second.
	Rate float32
	// Cap is the nominal arena capacity.
	Cap int
}

// NewSparkStream returns a stream emitting rate sparks per rocket per
// second.
func NewSparkStream(rate float32) *SparkStream {
	return &SparkStream{Rate: rate, Cap: 4096}
}

func (s *SparkStream) Capacity() int { return s.Cap }
func (s *SparkStream) Strategy() hibana.Strategy { return hibana.StrategyRing }
func (s *SparkStream) SpawnStep(float32) int { return 0 }

func (s *SparkStream) Build(seed float32) Spark {
	return Spark{origin: hibana.Identity, seed: seed}
}

func (s *SparkStream) SpawnStepSub(parent *Rocket, dt float32) int {
	return hibana.SpawnAccum(&parent.sparkle, s.Rate, dt)
}

func (s *SparkStream) BuildFromParent(parent *Rocket, seed float32) Spark {
	origin := hibana.FromTranslation(parent.Position()).LookingTo(parent.Tangent().Mul(-1), up)
	return Spark{origin: origin, seed: seed}
}

// Debris is thrown out of an exploding rocket.
type Debris struct {
	origin mgl32.Vec3
	color  hibana.Color
	seed   float32
	age    float32
}

const debrisLife = 1.0

func (d *Debris) Seed() float32 { return d.seed }
func (d *Debris) Lifetime() float32 { return d.age }
func (d *Debris) Fac() float32 { return d.age / debrisLife }
func (d *Debris) Update(dt float32) { d.age += dt }
func (d *Debris) Color() hibana.Color { return d.color }

func (d *Debris) Transform() hibana.Transform {
	dir := hibana.RandomSphere(d.seed)
	p := d.origin.Add(dir.Mul(d.age * 4))
	p[1] -= 0.5 * Gravity * d.age * d.age
	return hibana.FromTranslation(p)
}

func (d *Debris) Expiration() hibana.Expiration {
	return hibana.FizzleIf(d.age > debrisLife)
}

// DebrisBurst reacts to exploding rockets with a burst of debris.
type DebrisBurst struct {
	// Count is the number of debris per explosion.
	Count int
	// Cap is the nominal arena capacity.
	Cap int
}

// NewDebrisBurst returns a burst of count debris per explosion.
func NewDebrisBurst(count int) *DebrisBurst {
	return &DebrisBurst{Count: count, Cap: 4096}
}

func (b *DebrisBurst) Capacity() int { return b.Cap }
func (b *DebrisBurst) SpawnStep(float32) int { return 0 }

func (b *DebrisBurst) Build(seed float32) Debris {
	return Debris{seed: seed, color: hibana.White}
}

func (b *DebrisBurst) SpawnOnEvent(e hibana.Event) int {
	if e.Kind != hibana.ExpirationExplode {
		return 0
	}
	return b.Count
}

func (b *DebrisBurst) BuildFromEvent(e hibana.Event, seed float32) Debris {
	hue := float64(e.Seed) * 2 * math.Pi
	return Debris{
		origin: e.Position,
		seed:   seed,
		color: hibana.RGBA(
			0.5+0.5*float32(math.Cos(hue)),
			0.5+0.5*float32(math.Cos(hue+2*math.Pi/3)),
			0.5+0.5*float32(math.Cos(hue+4*math.Pi/3)),
			1,
		),
	}
}

// Fireworks holds the handles of a fireworks scene.
type Fireworks struct {
	Rockets hibana.SystemID
	Sparks  hibana.SystemID
	Debris  hibana.SystemID
}

// NewFireworks spawns a rocket system with trails, a spark sub-system and
// a debris event-system into w.
func NewFireworks(w *hibana.World, rate float32) Fireworks {
	rockets := w.Spawn(hibana.NewSystem[Rocket](
		NewRocketLauncher(rate),
		hibana.WithTrails[Rocket, hibana.ExpDecayTrail](),
	))
	sparks := w.Spawn(
		hibana.NewSubSystem[Spark, Rocket](NewSparkStream(60)),
		hibana.WithParent(rockets),
	)
	debris := w.Spawn(
		hibana.NewEventSystem[Debris](NewDebrisBurst(24)),
		hibana.WithParent(rockets),
	)
	return Fireworks{Rockets: rockets, Sparks: sparks, Debris: debris}
}
