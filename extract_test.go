package hibana

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestExtractedLayout(t *testing.T) {
	if ExtractedSize != 80 {
		t.Errorf("expected 80-byte records, got %d", ExtractedSize)
	}
}

func TestExtractedBytesRoundTrip(t *testing.T) {
	sp := newMoteSpawner(8, 0, 10)
	sys := NewSystem[mote](sp)
	sp.pending = 3
	sys.Update(0.1, nil)
	ps := sys.Extract(nil, ExtractOptions{})

	raw := AsBytes(ps)
	if len(raw) != 3*ExtractedSize {
		t.Fatalf("expected %d bytes, got %d", 3*ExtractedSize, len(raw))
	}
	got, err := FromBytes(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range ps {
		if got[i] != ps[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, ps[i], got[i])
		}
	}

	// FromBytes copies.
	raw[0] ^= 0xff
	if got[0] == ps[0] {
		t.Error("expected the decoded records to be independent of the source")
	}

	if AsBytes(nil) != nil {
		t.Error("expected no bytes for no records")
	}
	if _, err := FromBytes(raw[:ExtractedSize+1]); err == nil {
		t.Error("expected an error for a partial record")
	}
}

func TestExtractedMatrix(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec3{1, 2, 3},
		Rotation:    mgl32.QuatRotate(mgl32.DegToRad(30), mgl32.Vec3{0, 0, 1}),
		Scale:       mgl32.Vec3{2, 2, 2},
	}
	m := tr.Matrix()
	e := ExtractedParticle{Row0: m.Row(0), Row1: m.Row(1), Row2: m.Row(2)}
	if !e.Matrix().ApproxEqual(m) {
		t.Errorf("expected %v, got %v", m, e.Matrix())
	}
	if e.Position() != tr.Translation {
		t.Errorf("expected position %v, got %v", tr.Translation, e.Position())
	}
}
