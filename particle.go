// Package hibana is a particle simulation engine: type-erased particle
// arenas, a per-frame update algorithm with compacting or ring cleanup,
// hierarchical spawning (sub-systems and event-systems) and detachable
// trails.
//
// A particle is a small copyable record implementing [Particle] on its
// pointer type. A spawner implements [Spawner] and decides how many records
// are created per frame and how they are initialized. [NewSystem] erases the
// pair into a [System] so heterogeneous systems can be stored and driven
// together by a [World].
package hibana

import "github.com/go-gl/mathgl/mgl32"

// Expiration classifies whether and how a particle died this frame.
type Expiration uint8

const (
	// ExpirationNone means the particle is alive.
	ExpirationNone Expiration = iota
	// ExpirationFizzle means the particle faded out quietly.
	ExpirationFizzle
	// ExpirationExplode means the particle died violently. Event-systems
	// usually branch on this to spawn debris.
	ExpirationExplode
)

// ExpirationFadeOut is an alias of ExpirationFizzle.
const ExpirationFadeOut = ExpirationFizzle

// Expired reports whether the classification means the particle is dead.
func (e Expiration) Expired() bool {
	return e != ExpirationNone
}

// String returns the name of the classification.
func (e Expiration) String() string {
	switch e {
	case ExpirationNone:
		return "none"
	case ExpirationFizzle:
		return "fizzle"
	case ExpirationExplode:
		return "explode"
	}
	return "unknown"
}

// FizzleIf returns ExpirationFizzle if cond holds, ExpirationNone otherwise.
func FizzleIf(cond bool) Expiration {
	if cond {
		return ExpirationFizzle
	}
	return ExpirationNone
}

// ExplodeIf returns ExpirationExplode if cond holds, ExpirationNone otherwise.
func ExplodeIf(cond bool) Expiration {
	if cond {
		return ExpirationExplode
	}
	return ExpirationNone
}

// Particle is the behaviour every particle record implements, usually on
// its pointer type. The record itself must be a plain value: it is copied
// into arenas, swapped during compaction and copied out into detached
// trail pools.
//
// Optional accessors ([Indexed], [Phased], [Positioned], [Tangented],
// [Colored]) refine the defaults used by extraction and event logging.
type Particle interface {
	// Seed returns the seed the particle was built from.
	Seed() float32
	// Lifetime returns how long the particle has been alive.
	Lifetime() float32
	// Transform returns the particle's local (or world) transform.
	Transform() Transform
	// Update advances the particle by dt seconds.
	Update(dt float32)
	// Expiration classifies whether the particle is dead.
	Expiration() Expiration
}

// ParticlePtr constrains P's pointer type to implement Particle.
type ParticlePtr[P any] interface {
	*P
	Particle
}

// Indexed particles report an insertion index. Defaults to 0.
type Indexed interface {
	Index() uint32
}

// Phased particles report a normalized phase, usually lifetime mapped into
// 0..1. Defaults to the lifetime.
type Phased interface {
	Fac() float32
}

// Positioned particles report their position without building a full
// transform. Defaults to the transform's translation.
type Positioned interface {
	Position() mgl32.Vec3
}

// Tangented particles report their direction of travel. Defaults to the
// transform's forward vector.
type Tangented interface {
	Tangent() mgl32.Vec3
}

// Colored particles report a color. Defaults to white.
type Colored interface {
	Color() Color
}

// IndexOf returns p's index, or 0 if p is not Indexed.
func IndexOf(p Particle) uint32 {
	if ip, ok := p.(Indexed); ok {
		return ip.Index()
	}
	return 0
}

// FacOf returns p's phase, or its lifetime if p is not Phased.
func FacOf(p Particle) float32 {
	if fp, ok := p.(Phased); ok {
		return fp.Fac()
	}
	return p.Lifetime()
}

// PositionOf returns p's position, or its transform's translation.
func PositionOf(p Particle) mgl32.Vec3 {
	if pp, ok := p.(Positioned); ok {
		return pp.Position()
	}
	return p.Transform().Translation
}

// TangentOf returns p's tangent, or its transform's forward vector.
func TangentOf(p Particle) mgl32.Vec3 {
	if tp, ok := p.(Tangented); ok {
		return tp.Tangent()
	}
	return p.Transform().Forward()
}

// ColorOf returns p's color, or White.
func ColorOf(p Particle) Color {
	if cp, ok := p.(Colored); ok {
		return cp.Color()
	}
	return White
}

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// White is the default particle color.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// RGBA builds a Color.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Vec4 returns the color as an RGBA vector.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// Lerp interpolates between c and o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}
