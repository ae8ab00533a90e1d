// Package presets contains ready-made spawners: a world-space fountain
// driven by commands, and a fireworks scene built from a rocket system with
// trails, a spark sub-system and a debris event-system.
package presets

import (
	"github.com/edwinsyarief/hibana"
	"github.com/go-gl/mathgl/mgl32"
)

// Gravity is the downward acceleration applied to falling records.
const Gravity = 9.8

// Drop is one water drop of a Fountain. Drops live in world space: they
// keep the emitter position they were spawned at.
type Drop struct {
	origin   mgl32.Vec3
	velocity mgl32.Vec3
	seed     float32
	age      float32
	life     float32
	index    uint32
}

func (d *Drop) Seed() float32 { return d.seed }
func (d *Drop) Lifetime() float32 { return d.age }
func (d *Drop) Index() uint32 { return d.index }
func (d *Drop) Fac() float32 { return d.age / d.life }

func (d *Drop) Position() mgl32.Vec3 {
	p := d.origin.Add(d.velocity.Mul(d.age))
	p[1] -= 0.5 * Gravity * d.age * d.age
	return p
}

func (d *Drop) Tangent() mgl32.Vec3 {
	v := d.velocity
	v[1] -= Gravity * d.age
	return v
}

func (d *Drop) Transform() hibana.Transform {
	return hibana.FromTranslation(d.Position()).LookingTo(d.Tangent(), mgl32.Vec3{0, 1, 0})
}

func (d *Drop) Color() hibana.Color {
	c := hibana.RGBA(0.4, 0.7, 1, 1)
	c.A = 1 - d.Fac()
	return c
}

func (d *Drop) Update(dt float32) {
	d.age += dt
}

func (d *Drop) Expiration() hibana.Expiration {
	return hibana.FizzleIf(d.age >= d.life)
}

// Fountain emits drops upward in a cone around the emitter's up axis.
//
// It understands every command: SetTransform moves the emitter, SetRate
// changes the emission rate, SetEnabled pauses it and Burst queues extra
// drops for the next frame.
type Fountain struct {
	emitter hibana.Transform
	acc     hibana.Accumulator
	// Cap is the nominal arena capacity.
	Cap int
	// Speed is the launch speed of every drop.
	Speed float32
	// Spread is the half-angle of the launch cone, in radians.
	Spread float32
	// Life is how long a drop lives, in seconds.
	Life     float32
	burst    int
	next     uint32
	disabled bool
}

// NewFountain returns a fountain emitting rate drops per second.
func NewFountain(rate float32) *Fountain {
	return &Fountain{
		emitter: hibana.Identity,
		acc:     hibana.Accumulator{Rate: rate},
		Cap:     2048,
		Speed:   8,
		Spread:  0.3,
		Life:    1.6,
	}
}

// Rate returns the emission rate in drops per second.
func (f *Fountain) Rate() float32 { return f.acc.Rate }

// Enabled reports whether the fountain emits.
func (f *Fountain) Enabled() bool { return !f.disabled }

// Emitter returns the current emitter pose.
func (f *Fountain) Emitter() hibana.Transform { return f.emitter }

func (f *Fountain) Capacity() int { return f.Cap }
func (f *Fountain) WorldSpace() bool { return true }

func (f *Fountain) SpawnStep(dt float32) int {
	n := f.acc.Step(dt)
	if f.disabled {
		n = 0
	}
	n += f.burst
	f.burst = 0
	return n
}

func (f *Fountain) Build(seed float32) Drop {
	dir := hibana.RandomCone(f.emitter.Up(), f.Spread, seed)
	d := Drop{
		origin:   f.emitter.Translation,
		velocity: dir.Mul(f.Speed),
		seed:     seed,
		life:     f.Life * (0.8 + 0.4*seed),
		index:    f.next,
	}
	f.next++
	return d
}

func (f *Fountain) SyncPosition(t hibana.Transform) {
	f.emitter = t
}

func (f *Fountain) Apply(cmd hibana.Command) bool {
	switch c := cmd.(type) {
	case hibana.SetTransform:
		f.emitter = c.Transform
	case hibana.SetRate:
		f.acc.Rate = c.PerSecond
	case hibana.SetEnabled:
		f.disabled = !c.Enabled
	case hibana.Burst:
		f.burst += c.Count
	default:
		return false
	}
	return true
}

// NewFountainSystem wraps a fountain into a System.
func NewFountainSystem(f *Fountain) hibana.System {
	return hibana.NewSystem[Drop](f)
}
