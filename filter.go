package hibana

import "reflect"

// ParticleFilter is a cursor over the alive records of one system. In ring
// mode it skips dead slots, so callers never see expired records.
//
// The filter reads the arena directly and is invalidated by the next update
// of the system; call Reset after every update before iterating again.
type ParticleFilter[P any, PP ParticlePtr[P]] struct {
	arena *Arena
	buf   []P
	idx   int
}

// NewFilter creates a filter over sys's records.
//
// Parameters:
//   - sys: The system to iterate. Its records must be of type P.
//
// Returns:
//   - A pointer to the newly created ParticleFilter, positioned before the
//     first record.
func NewFilter[P any, PP ParticlePtr[P]](sys System) *ParticleFilter[P, PP] {
	a := sys.Arena()
	if !a.IsUninit() {
		a.check(reflect.TypeFor[P]())
	}
	f := &ParticleFilter[P, PP]{arena: a}
	f.Reset()
	return f
}

// Reset rewinds the filter and picks up the arena's current region.
func (f *ParticleFilter[P, PP]) Reset() {
	f.idx = -1
	if f.arena.IsUninit() {
		f.buf = nil
		return
	}
	f.buf = Live[P](f.arena)
}

// Next advances to the next alive record. It returns false once the
// iteration is complete.
//
// Example:
//
//	f := hibana.NewFilter[Drop](sys)
//	for f.Next() {
//	    d := f.Get()
//	    // ... read d
//	}
func (f *ParticleFilter[P, PP]) Next() bool {
	for f.idx++; f.idx < len(f.buf); f.idx++ {
		if !PP(&f.buf[f.idx]).Expiration().Expired() {
			return true
		}
	}
	return false
}

// Get returns the current record. It should only be called after Next
// returned true.
func (f *ParticleFilter[P, PP]) Get() *P {
	return &f.buf[f.idx]
}

// Count returns the number of alive records without moving the cursor.
func (f *ParticleFilter[P, PP]) Count() int {
	n := 0
	for i := range f.buf {
		if !PP(&f.buf[i]).Expiration().Expired() {
			n++
		}
	}
	return n
}
