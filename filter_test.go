package hibana

import "testing"

func TestParticleFilter(t *testing.T) {
	sp := newMoteSpawner(8, 0, 10)
	sys := NewSystem[mote](sp)
	f := NewFilter[mote](sys)
	if f.Next() || f.Count() != 0 {
		t.Fatal("expected an empty filter before the first update")
	}

	sp.pending = 3
	sys.Update(0.1, nil)
	f.Reset()
	seen := 0
	for f.Next() {
		if f.Get().index != uint32(seen) {
			t.Errorf("expected index %d, got %d", seen, f.Get().index)
		}
		seen++
	}
	if seen != 3 || f.Count() != 3 {
		t.Errorf("expected 3 records, got %d and %d", seen, f.Count())
	}
}

func TestParticleFilterSkipsDeadRingSlots(t *testing.T) {
	sp := newMoteSpawner(8, 0, 0.5)
	sp.strategy = StrategyRing
	sys := NewSystem[mote](sp)
	sp.pending = 2
	sys.Update(0.1, nil)
	sys.Update(0.5, nil)
	sp.pending = 1
	sys.Update(0.1, nil)

	f := NewFilter[mote](sys)
	n := 0
	for f.Next() {
		if f.Get().Expiration().Expired() {
			t.Error("expected only alive records")
		}
		n++
	}
	if n != 1 || f.Count() != 1 {
		t.Errorf("expected 1 alive record, got %d", n)
	}
}

func TestParticleFilterTypeCheck(t *testing.T) {
	sys := newStreakSystem(&streakSpawner{cap: 4})
	sys.Update(0.1, nil)
	expectPanic(t, func() { NewFilter[mote](sys) })
}
