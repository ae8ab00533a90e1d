package hibana

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// SeedRand returns a generator derived deterministically from a particle
// seed, so that a record can draw several independent values from the one
// seed it was built with.
func SeedRand(seed float32) *rand.Rand {
	s := uint64(float64(seed) * math.MaxUint64)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// RandomCircle returns a unit 2D vector at angle seed*2π.
func RandomCircle(seed float32) mgl32.Vec2 {
	s, c := math.Sincos(float64(seed) * 2 * math.Pi)
	return mgl32.Vec2{float32(c), float32(s)}
}

// RandomSolidCircle returns a point uniformly distributed in the unit disc.
func RandomSolidCircle(seed float32) mgl32.Vec2 {
	rng := SeedRand(seed)
	r := math.Sqrt(rng.Float64())
	s, c := math.Sincos(rng.Float64() * 2 * math.Pi)
	return mgl32.Vec2{float32(r * c), float32(r * s)}
}

// RandomSphere returns a unit 3D vector uniformly distributed on the
// sphere.
func RandomSphere(seed float32) mgl32.Vec3 {
	rng := SeedRand(seed)
	ts, tc := math.Sincos(float64(seed) * 2 * math.Pi)
	ps, pc := math.Sincos(math.Acos(rng.Float64()*2 - 1))
	return mgl32.Vec3{float32(ps * tc), float32(ps * ts), float32(pc)}
}

// RandomCone returns a unit 3D vector within angle radians of dir.
func RandomCone(dir mgl32.Vec3, angle, seed float32) mgl32.Vec3 {
	rng := SeedRand(seed)
	theta := rng.Float64() * 2 * math.Pi
	cosA := math.Cos(float64(angle))
	phi := math.Acos(1 + (cosA-1)*rng.Float64())
	ps, pc := math.Sincos(phi)
	ts, tc := math.Sincos(theta)
	v := mgl32.Vec3{float32(ps * tc), float32(ps * ts), float32(pc)}
	if dir.Len() < 1e-6 {
		return v
	}
	return mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, dir.Normalize()).Rotate(v)
}

// RandomQuat returns a uniformly distributed unit quaternion.
func RandomQuat(seed float32) mgl32.Quat {
	rng := SeedRand(seed)
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	s2, c2 := math.Sincos(2 * math.Pi * u2)
	s3, c3 := math.Sincos(2 * math.Pi * u3)
	return mgl32.Quat{
		W: float32(b * c3),
		V: mgl32.Vec3{float32(a * s2), float32(a * c2), float32(b * s3)},
	}
}

// derivativeStep is the lifetime offset used to estimate a curve's
// direction.
const derivativeStep = 0.001

// TransformFromDerivative places a transform on the curve f at lifetime,
// facing along the curve.
func TransformFromDerivative(f func(float32) mgl32.Vec3, lifetime float32) Transform {
	p := f(lifetime)
	next := f(lifetime + derivativeStep)
	return FromTranslation(p).LookingTo(next.Sub(p), mgl32.Vec3{0, 1, 0})
}
