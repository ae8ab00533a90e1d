package hibana

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

var testSeeds = []float32{0, 0.01, 0.1, 0.25, 0.333, 0.5, 0.77, 0.999}

func TestRandomCircle(t *testing.T) {
	if v := RandomCircle(0); !v.ApproxEqual(mgl32.Vec2{1, 0}) {
		t.Errorf("expected (1, 0), got %v", v)
	}
	if v := RandomCircle(0.25); !v.ApproxEqualThreshold(mgl32.Vec2{0, 1}, 1e-6) {
		t.Errorf("expected (0, 1), got %v", v)
	}
	for _, s := range testSeeds {
		if l := RandomSolidCircle(s).Len(); l > 1 {
			t.Errorf("seed %f: point outside the unit disc (%f)", s, l)
		}
	}
}

func TestRandomDirectionsAreUnit(t *testing.T) {
	for _, s := range testSeeds {
		if l := RandomSphere(s).Len(); math.Abs(float64(l)-1) > 1e-5 {
			t.Errorf("seed %f: sphere vector length %f", s, l)
		}
		if l := RandomQuat(s).Len(); math.Abs(float64(l)-1) > 1e-5 {
			t.Errorf("seed %f: quaternion length %f", s, l)
		}
	}
}

func TestRandomCone(t *testing.T) {
	dir := mgl32.Vec3{0, 1, 0}
	const spread = 0.3
	for _, s := range testSeeds {
		v := RandomCone(dir, spread, s)
		cos := float64(v.Dot(dir) / v.Len())
		if angle := math.Acos(min(cos, 1)); angle > spread+1e-4 {
			t.Errorf("seed %f: %v is %f rad away from the axis", s, v, angle)
		}
	}
}

func TestSeedRandIsDeterministic(t *testing.T) {
	a, b := SeedRand(0.42), SeedRand(0.42)
	for range 4 {
		if a.Uint64() != b.Uint64() {
			t.Fatal("expected identical sequences for identical seeds")
		}
	}
	if SeedRand(0.42).Uint64() == SeedRand(0.43).Uint64() {
		t.Error("expected different seeds to differ")
	}
}

func TestTransformFromDerivative(t *testing.T) {
	line := func(x float32) mgl32.Vec3 { return mgl32.Vec3{x, 0, 0} }
	tr := TransformFromDerivative(line, 2)
	if tr.Translation != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("expected translation (2, 0, 0), got %v", tr.Translation)
	}
	if f := tr.Forward(); !f.ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-4) {
		t.Errorf("expected forward +X, got %v", f)
	}
	if u := tr.Up(); !u.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-4) {
		t.Errorf("expected up +Y, got %v", u)
	}
}
