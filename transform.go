package hibana

import "github.com/go-gl/mathgl/mgl32"

// Transform is a translation, rotation and scale.
//
// The zero Transform is the identity: a zero rotation quaternion and a
// zero scale vector are both read as identity.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Identity is the identity transform with every field spelled out.
var Identity = Transform{
	Rotation: mgl32.QuatIdent(),
	Scale:    mgl32.Vec3{1, 1, 1},
}

// FromTranslation returns a transform that only translates.
func FromTranslation(v mgl32.Vec3) Transform {
	t := Identity
	t.Translation = v
	return t
}

// FromXYZ returns a transform that only translates by (x, y, z).
func FromXYZ(x, y, z float32) Transform {
	return FromTranslation(mgl32.Vec3{x, y, z})
}

func (t Transform) rotation() mgl32.Quat {
	if t.Rotation == (mgl32.Quat{}) {
		return mgl32.QuatIdent()
	}
	return t.Rotation
}

func (t Transform) scale() mgl32.Vec3 {
	if t.Scale == (mgl32.Vec3{}) {
		return mgl32.Vec3{1, 1, 1}
	}
	return t.Scale
}

// Matrix returns the affine matrix translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	s := t.scale()
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.rotation().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// Forward returns the rotated -Z axis.
func (t Transform) Forward() mgl32.Vec3 {
	return t.rotation().Rotate(mgl32.Vec3{0, 0, -1})
}

// Up returns the rotated +Y axis.
func (t Transform) Up() mgl32.Vec3 {
	return t.rotation().Rotate(mgl32.Vec3{0, 1, 0})
}

// TransformPoint maps a point from t's local space into its parent space.
func (t Transform) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	s := t.scale()
	scaled := mgl32.Vec3{p[0] * s[0], p[1] * s[1], p[2] * s[2]}
	return t.Translation.Add(t.rotation().Rotate(scaled))
}

// Mul composes t with a child transform expressed in t's local space.
func (t Transform) Mul(child Transform) Transform {
	s, cs := t.scale(), child.scale()
	return Transform{
		Translation: t.TransformPoint(child.Translation),
		Rotation:    t.rotation().Mul(child.rotation()).Normalize(),
		Scale:       mgl32.Vec3{s[0] * cs[0], s[1] * cs[1], s[2] * cs[2]},
	}
}

// WithRotation returns t with its rotation replaced.
func (t Transform) WithRotation(q mgl32.Quat) Transform {
	t.Rotation = q
	return t
}

// WithTranslation returns t with its translation replaced.
func (t Transform) WithTranslation(v mgl32.Vec3) Transform {
	t.Translation = v
	return t
}

// LookingTo returns t rotated so that its forward axis points along dir.
// A degenerate direction leaves the rotation untouched.
func (t Transform) LookingTo(dir, up mgl32.Vec3) Transform {
	if dir.Len() < 1e-6 {
		return t
	}
	f := dir.Normalize()
	r := f.Cross(up)
	if r.Len() < 1e-6 {
		t.Rotation = mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, -1}, f)
		return t
	}
	r = r.Normalize()
	u := r.Cross(f)
	t.Rotation = mgl32.Mat4ToQuat(mgl32.Mat4FromCols(
		r.Vec4(0),
		u.Vec4(0),
		f.Mul(-1).Vec4(0),
		mgl32.Vec4{0, 0, 0, 1},
	)).Normalize()
	return t
}
