package hibana

import "github.com/go-gl/mathgl/mgl32"

// RibbonMesh is triangle-list geometry for trails. Every sample becomes two
// vertices; the vertex shader offsets them along the normal by the width
// stored in UV1.
type RibbonMesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UV0       []mgl32.Vec2
	UV1       []mgl32.Vec2
	Indices   []uint32
}

// Reset empties the mesh, keeping its allocations.
func (m *RibbonMesh) Reset() {
	m.Positions = m.Positions[:0]
	m.Normals = m.Normals[:0]
	m.UV0 = m.UV0[:0]
	m.UV1 = m.UV1[:0]
	m.Indices = m.Indices[:0]
}

// Vertices returns the number of vertices.
func (m *RibbonMesh) Vertices() int {
	return len(m.Positions)
}

// RibbonBuilder appends trails to a RibbonMesh.
type RibbonBuilder struct {
	Mesh *RibbonMesh
	// U0 and U1 bound the U texture coordinate along every trail.
	U0, U1 float32
	buf    []TrailPoint
}

// NewRibbonBuilder returns a builder writing into m with U running from 0
// to 1 along each trail.
func NewRibbonBuilder(m *RibbonMesh) *RibbonBuilder {
	return &RibbonBuilder{Mesh: m, U1: 1}
}

// AddTrail appends one strip for t. Trails with fewer than two points
// produce nothing.
func (b *RibbonBuilder) AddTrail(t TrailBuffer) {
	b.buf = b.buf[:0]
	t.Points(func(p TrailPoint) bool {
		b.buf = append(b.buf, p)
		return true
	})
	b.AddPoints(b.buf)
}

// AddPoints appends one strip for a stream of points.
func (b *RibbonBuilder) AddPoints(pts []TrailPoint) {
	n := len(pts)
	if n < 2 {
		return
	}
	m := b.Mesh
	origin := uint32(len(m.Positions))
	for i := range n - 1 {
		v := origin + uint32(i*2)
		m.Indices = append(m.Indices, v, v+1, v+2, v+1, v+3, v+2)
	}
	for _, p := range pts {
		m.Positions = append(m.Positions, p.Position, p.Position)
	}
	for i := range n {
		prev, next := max(i-1, 0), min(i+1, n-1)
		d := pts[next].Position.Sub(pts[prev].Position)
		if d.Len() > 0 {
			d = d.Normalize()
		}
		m.Normals = append(m.Normals, d.Mul(-1), d)
	}
	du := (b.U1 - b.U0) / float32(n)
	for i := range n {
		u := b.U0 + float32(i)*du
		m.UV0 = append(m.UV0, mgl32.Vec2{u, 0}, mgl32.Vec2{u, 1})
	}
	for _, p := range pts {
		w := mgl32.Vec2{p.Width, p.Width}
		m.UV1 = append(m.UV1, w, w)
	}
}

// BuildRibbons rebuilds m from every trail of the given systems.
func BuildRibbons(m *RibbonMesh, systems ...System) {
	m.Reset()
	b := NewRibbonBuilder(m)
	for _, s := range systems {
		s.VisitTrails(func(t TrailBuffer) bool {
			b.AddTrail(t)
			return true
		})
	}
}
