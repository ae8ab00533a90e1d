package hibana

import (
	"slices"
	"testing"
)

func TestArenaCapacityRounding(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"bytes3x5", NewArena[[3]byte](5, StrategyRetain).Cap(), 5},   // 15 -> 16 bytes
		{"bytes3x6", NewArena[[3]byte](6, StrategyRetain).Cap(), 10},  // 18 -> 32 bytes
		{"uint64x3", NewArena[uint64](3, StrategyRetain).Cap(), 4},    // 24 -> 32 bytes
		{"vec3x3", NewArena[[3]float32](3, StrategyRing).Cap(), 4},    // 36 -> 48 bytes
		{"uint64x4", NewArena[uint64](4, StrategyRetain).Cap(), 4},    // already aligned
		{"zero", NewArena[uint64](0, StrategyRetain).Cap(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected capacity %d, got %d", tt.want, tt.got)
			}
		})
	}
}

func TestArenaAlignment(t *testing.T) {
	for _, align := range []uintptr{1, 2, 4, 8, 16} {
		if !validAlign(align) {
			t.Errorf("expected alignment %d to be accepted", align)
		}
	}
	for _, align := range []uintptr{0, 3, 32, 64} {
		if validAlign(align) {
			t.Errorf("expected alignment %d to be rejected", align)
		}
	}
}

func TestArenaTypeChecks(t *testing.T) {
	t.Run("Mismatch", func(t *testing.T) {
		a := NewArena[uint32](4, StrategyRetain)
		expectPanic(t, func() { Live[float32](a) })
		expectPanic(t, func() { Append[int32](a, 1) })
	})

	t.Run("Uninitialized", func(t *testing.T) {
		var a Arena
		if !a.IsUninit() || !a.IsEmpty() || a.Len() != 0 || a.Cap() != 0 {
			t.Error("expected an empty uninitialized arena")
		}
		expectPanic(t, func() { Live[uint32](&a) })
	})

	t.Run("Match", func(t *testing.T) {
		a := NewArena[uint32](4, StrategyRetain)
		if a.Type().Name() != "uint32" {
			t.Errorf("expected uint32 arena, got %s", a.Type())
		}
		if len(Live[uint32](a)) != 0 {
			t.Error("expected no live records")
		}
	})
}

func TestArenaZeroCapacity(t *testing.T) {
	for _, s := range []Strategy{StrategyRetain, StrategyRing} {
		a := NewArena[uint64](0, s)
		if n := Append[uint64](a, 1, 2, 3); n != 0 {
			t.Errorf("%s: expected no record stored, got %d", s, n)
		}
		if len(Live[uint64](a)) != 0 || !a.IsEmpty() {
			t.Errorf("%s: expected an inert arena", s)
		}
	}
}

func TestArenaRetainOverflow(t *testing.T) {
	a := NewArena[uint64](4, StrategyRetain)
	if n := Append[uint64](a, 1, 2, 3, 4, 5, 6); n != 4 {
		t.Errorf("expected 4 records stored, got %d", n)
	}
	if got := Live[uint64](a); !slices.Equal(got, []uint64{1, 2, 3, 4}) {
		t.Errorf("expected the first four records, got %v", got)
	}
	if a.HighWater() != 0 || a.Cursor() != 0 {
		t.Error("expected ring counters to stay zero in retain mode")
	}
	older, newer := Ordered[uint64](a)
	if len(older) != 4 || newer != nil {
		t.Errorf("expected a single ordered slice, got %v and %v", older, newer)
	}
}

func TestArenaRingEviction(t *testing.T) {
	a := NewArena[uint64](4, StrategyRing)
	if n := Append[uint64](a, 1, 2, 3, 4, 5, 6); n != 6 {
		t.Errorf("expected every record stored, got %d", n)
	}
	if a.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", a.Cursor())
	}
	if a.HighWater() != 4 || a.Len() != 4 {
		t.Errorf("expected high water and len 4, got %d and %d", a.HighWater(), a.Len())
	}
	if got := Live[uint64](a); !slices.Equal(got, []uint64{5, 6, 3, 4}) {
		t.Errorf("expected slots [5 6 3 4], got %v", got)
	}
	older, newer := Ordered[uint64](a)
	if got := append(slices.Clone(older), newer...); !slices.Equal(got, []uint64{3, 4, 5, 6}) {
		t.Errorf("expected oldest-first order [3 4 5 6], got %v", got)
	}
}

func TestArenaRingPartiallyFilled(t *testing.T) {
	a := NewArena[uint64](4, StrategyRing)
	Append[uint64](a, 7, 8)
	older, newer := Ordered[uint64](a)
	if !slices.Equal(older, []uint64{7, 8}) || newer != nil {
		t.Errorf("expected [7 8], got %v and %v", older, newer)
	}
}

func TestArenaBounds(t *testing.T) {
	for _, s := range []Strategy{StrategyRetain, StrategyRing} {
		a := NewArena[uint32](8, s)
		for i := range 100 {
			Append[uint32](a, uint32(i))
			if a.Len() > a.Cap() || a.HighWater() > a.Cap() {
				t.Fatalf("%s: len %d, high water %d exceed capacity %d", s, a.Len(), a.HighWater(), a.Cap())
			}
		}
	}
}

func TestArenaReset(t *testing.T) {
	a := NewArena[uint64](4, StrategyRing)
	Append[uint64](a, 1, 2, 3, 4, 5)
	a.Reset()
	if !a.IsEmpty() || a.HighWater() != 0 || a.Cursor() != 0 {
		t.Error("expected reset to clear every counter")
	}
	if a.Cap() != 4 || a.IsUninit() {
		t.Error("expected reset to keep the allocation")
	}
	Append[uint64](a, 9)
	if got := Live[uint64](a); !slices.Equal(got, []uint64{9}) {
		t.Errorf("expected [9], got %v", got)
	}
}
