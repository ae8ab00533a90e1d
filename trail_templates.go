package hibana

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// WidthMode selects how ExpDecayTrail computes sample widths.
type WidthMode uint8

const (
	// WidthByFac maps the sample's position along the trail, 0 at the head
	// and 1 at the tail, through the curve.
	WidthByFac WidthMode = iota
	// WidthByDistance maps the distance travelled from the head, divided
	// by MaxDistance, through the curve.
	WidthByDistance
)

// ExpDecayTrail is a trail whose samples chase each other: every update
// each sample moves toward its predecessor by an exponential decay, so the
// tail collapses onto the head once the head stops moving.
type ExpDecayTrail struct {
	// Curve maps a fac or a relative distance to a width. Nil means a
	// constant width of 1.
	Curve       func(float32) float32
	Samples     [MaxTrailSamples]TrailPoint
	N           int
	Decay       float32
	MaxDistance float32
	// Eps is the head-to-tail distance under which the trail is expired.
	Eps   float32
	Width WidthMode
}

// NewExpDecayTrail returns a trail of n samples all placed at head, with
// a decay of 16 and an expiry distance of 0.001.
// It panics if n is not in [0, MaxTrailSamples].
func NewExpDecayTrail(n int, head mgl32.Vec3) ExpDecayTrail {
	if n < 0 || n > MaxTrailSamples {
		panic(fmt.Sprintf("hibana: trail length %d out of range [0, %d]", n, MaxTrailSamples))
	}
	t := ExpDecayTrail{
		N:     n,
		Decay: 16,
		Eps:   0.001,
	}
	t.Reset(head)
	return t
}

// Reset moves every sample onto head.
func (t *ExpDecayTrail) Reset(head mgl32.Vec3) {
	for i := range t.N {
		t.Samples[i] = TrailPoint{Position: head, Width: 1}
	}
}

// SetHead moves the first sample. The others follow on the next updates.
func (t *ExpDecayTrail) SetHead(p mgl32.Vec3) {
	if t.N == 0 {
		return
	}
	t.Samples[0].Position = p
}

// Head returns the first sample's position.
func (t *ExpDecayTrail) Head() mgl32.Vec3 {
	if t.N == 0 {
		return mgl32.Vec3{}
	}
	return t.Samples[0].Position
}

func (t *ExpDecayTrail) curve(x float32) float32 {
	if t.Curve == nil {
		return 1
	}
	return t.Curve(x)
}

func (t *ExpDecayTrail) Update(dt float32) {
	if t.N <= 1 {
		return
	}
	s := t.Samples[:t.N]
	switch t.Width {
	case WidthByFac:
		last := float32(t.N - 1)
		for i := range s {
			s[i].Width = t.curve(float32(i) / last)
		}
	case WidthByDistance:
		maxDist := t.MaxDistance
		if maxDist <= 0 {
			maxDist = 1
		}
		var dist float32
		for i := range s {
			if i > 0 {
				dist += s[i].Position.Sub(s[i-1].Position).Len()
			}
			s[i].Width = t.curve(dist / maxDist)
		}
	}
	k := 1 - float32(math.Exp(float64(-t.Decay*dt)))
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Position
		s[i].Position = s[i].Position.Add(prev.Sub(s[i].Position).Mul(k))
	}
	for i := range s {
		s[i].Tangent = sampleTangent(s, i)
	}
}

// sampleTangent returns the direction from sample i toward the head.
func sampleTangent(s []TrailPoint, i int) mgl32.Vec3 {
	a, b := i+1, i-1
	if a >= len(s) {
		a = i
	}
	if b < 0 {
		b = i
	}
	d := s[b].Position.Sub(s[a].Position)
	if d.Len() < 1e-6 {
		return mgl32.Vec3{}
	}
	return d.Normalize()
}

// Expired reports whether the tail caught up with the head.
func (t *ExpDecayTrail) Expired() bool {
	if t.N <= 1 {
		return true
	}
	return t.Samples[0].Position.Sub(t.Samples[t.N-1].Position).Len() < t.Eps
}

func (t *ExpDecayTrail) Points(yield func(TrailPoint) bool) {
	for i := range t.N {
		if !yield(t.Samples[i]) {
			return
		}
	}
}

// FadeSample is one recorded point of a FadeTrail.
type FadeSample struct {
	TrailPoint
	Age float32
}

// FadeTrail records discrete samples that shrink and disappear after
// MaxAge seconds.
type FadeTrail struct {
	Ring   Ring[FadeSample]
	MaxAge float32
	Width  float32
}

// NewFadeTrail returns an empty trail keeping up to size samples.
func NewFadeTrail(size int, maxAge, width float32) FadeTrail {
	return FadeTrail{
		Ring:   NewRing[FadeSample](size),
		MaxAge: maxAge,
		Width:  width,
	}
}

// Record pushes a new head sample.
func (t *FadeTrail) Record(pos, tangent mgl32.Vec3) {
	t.Ring.Push(FadeSample{TrailPoint: TrailPoint{Position: pos, Tangent: tangent, Width: t.Width}})
}

func (t *FadeTrail) Update(dt float32) {
	t.Ring.RetainOrdered(func(s *FadeSample) bool {
		s.Age += dt
		if t.MaxAge > 0 {
			s.Width = t.Width * max(1-s.Age/t.MaxAge, 0)
		}
		return s.Age < t.MaxAge
	})
}

// Expired reports whether fewer than two samples are left.
func (t *FadeTrail) Expired() bool {
	return t.Ring.Len() < 2
}

// Points yields samples newest first.
func (t *FadeTrail) Points(yield func(TrailPoint) bool) {
	for i := t.Ring.Len() - 1; i >= 0; i-- {
		if !yield(t.Ring.At(i).TrailPoint) {
			return
		}
	}
}
