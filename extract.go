package hibana

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ExtractedSize is the size in bytes of one ExtractedParticle.
const ExtractedSize = int(unsafe.Sizeof(ExtractedParticle{}))

// ExtractedParticle is the renderer-ready form of a particle: 80 bytes,
// tightly packed, in native byte order.
//
// Row0..Row2 are the first three rows of the particle's affine transform;
// the fourth row is always (0, 0, 0, 1) and is not stored.
type ExtractedParticle struct {
	Index    uint32
	Lifetime float32
	Fac      float32
	Seed     float32
	Row0     mgl32.Vec4
	Row1     mgl32.Vec4
	Row2     mgl32.Vec4
	Color    mgl32.Vec4
}

// ExtractOptions controls how particles are extracted.
type ExtractOptions struct {
	// Transform is the host's world transform. It is composed with every
	// particle transform unless the system is world space.
	Transform Transform
	// Billboard, if set, replaces every particle's rotation, typically with
	// the camera's rotation.
	Billboard *mgl32.Quat
}

// Matrix rebuilds the particle's affine transform.
func (e *ExtractedParticle) Matrix() mgl32.Mat4 {
	var m mgl32.Mat4
	m.SetRow(0, e.Row0)
	m.SetRow(1, e.Row1)
	m.SetRow(2, e.Row2)
	m.SetRow(3, mgl32.Vec4{0, 0, 0, 1})
	return m
}

// Position returns the translation of the extracted transform.
func (e *ExtractedParticle) Position() mgl32.Vec3 {
	return mgl32.Vec3{e.Row0[3], e.Row1[3], e.Row2[3]}
}

// extractParticle packs p using the host transform and options.
func extractParticle(p Particle, worldSpace bool, opts *ExtractOptions) ExtractedParticle {
	t := p.Transform()
	if !worldSpace {
		t = opts.Transform.Mul(t)
	}
	if opts.Billboard != nil {
		t.Rotation = *opts.Billboard
	}
	m := t.Matrix()
	return ExtractedParticle{
		Index:    IndexOf(p),
		Lifetime: p.Lifetime(),
		Fac:      FacOf(p),
		Seed:     p.Seed(),
		Row0:     m.Row(0),
		Row1:     m.Row(1),
		Row2:     m.Row(2),
		Color:    ColorOf(p).Vec4(),
	}
}

// AsBytes views ps as raw bytes without copying. The result aliases ps.
func AsBytes(ps []ExtractedParticle) []byte {
	if len(ps) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(ps))), len(ps)*ExtractedSize)
}

// FromBytes decodes records produced by AsBytes on a machine with the same
// byte order. The bytes are copied.
func FromBytes(b []byte) ([]ExtractedParticle, error) {
	if len(b)%ExtractedSize != 0 {
		return nil, fmt.Errorf("hibana: extracted data length %d is not a multiple of %d", len(b), ExtractedSize)
	}
	out := make([]ExtractedParticle, len(b)/ExtractedSize)
	copy(AsBytes(out), b)
	return out, nil
}
