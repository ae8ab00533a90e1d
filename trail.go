package hibana

import "github.com/go-gl/mathgl/mgl32"

// TrailPoint is one sample of a trail curve.
type TrailPoint struct {
	Position mgl32.Vec3
	Tangent  mgl32.Vec3
	Width    float32
}

// TrailBuffer is a bounded history of points behind a particle.
//
// A trail is updated by its owning particle while the particle is alive.
// Once the particle dies the trail is either left in its ring slot, where
// the dead particle keeps updating it, or copied into the system's detached
// pool, which updates it every frame until it expires.
type TrailBuffer interface {
	// Update ages the trail by dt seconds.
	Update(dt float32)
	// Expired reports whether nothing is left to draw.
	Expired() bool
	// Points yields the samples from head to tail.
	Points(yield func(TrailPoint) bool)
}

// TrailedPtr constrains a particle pointer that owns a trail of type T.
type TrailedPtr[P, T any] interface {
	*P
	Particle
	Trail() *T
}

// TrailPtr constrains T's pointer type to implement TrailBuffer.
type TrailPtr[T any] interface {
	*T
	TrailBuffer
}

// trails is the type-erased view a system has of its trail storage.
type trails[P any] interface {
	detach(dead []P)
	update(dt float32)
	detached() int
	expired(p *P) bool
	visit(p *P, fn func(TrailBuffer) bool) bool
	visitDetached(fn func(TrailBuffer) bool) bool
	reset()
}

// trailPool holds the trails of particles that died in a retain arena.
type trailPool[P, T any, PP TrailedPtr[P, T], TP TrailPtr[T]] struct {
	items []T
}

func (tp *trailPool[P, T, PP, TP]) detach(dead []P) {
	for i := range dead {
		trail := PP(&dead[i]).Trail()
		if TP(trail).Expired() {
			continue
		}
		tp.items = append(tp.items, *trail)
	}
}

// update ages every detached trail and drops the expired ones, keeping
// the survivors in detachment order.
func (tp *trailPool[P, T, PP, TP]) update(dt float32) {
	n := 0
	for i := range tp.items {
		TP(&tp.items[i]).Update(dt)
		if TP(&tp.items[i]).Expired() {
			continue
		}
		if n != i {
			tp.items[n] = tp.items[i]
		}
		n++
	}
	clear(tp.items[n:])
	tp.items = tp.items[:n]
}

func (tp *trailPool[P, T, PP, TP]) detached() int {
	return len(tp.items)
}

func (tp *trailPool[P, T, PP, TP]) expired(p *P) bool {
	return TP(PP(p).Trail()).Expired()
}

func (tp *trailPool[P, T, PP, TP]) visit(p *P, fn func(TrailBuffer) bool) bool {
	return fn(TP(PP(p).Trail()))
}

func (tp *trailPool[P, T, PP, TP]) visitDetached(fn func(TrailBuffer) bool) bool {
	for i := range tp.items {
		if !fn(TP(&tp.items[i])) {
			return false
		}
	}
	return true
}

func (tp *trailPool[P, T, PP, TP]) reset() {
	clear(tp.items)
	tp.items = tp.items[:0]
}
