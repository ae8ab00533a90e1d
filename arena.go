package hibana

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Strategy selects how an arena cleans up expired records.
type Strategy uint8

const (
	// StrategyRetain compacts survivors to the front of the arena every
	// frame. It is the default.
	StrategyRetain Strategy = iota
	// StrategyRing never moves records. New records are written at a cursor
	// that wraps around, overwriting the oldest slot once the arena is full.
	//
	// Only use it when lifetimes are roughly constant and the capacity is
	// well predicted: a record that is still alive can be evicted.
	StrategyRing
)

// String returns the name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyRetain:
		return "retain"
	case StrategyRing:
		return "ring"
	}
	return "unknown"
}

// arenaAlign is the byte boundary the arena's block size is rounded to.
const arenaAlign = 16

type arenaKind uint8

const (
	arenaUninit arenaKind = iota
	arenaRetain
	arenaRing
)

// Arena is fixed-capacity storage for records of exactly one type.
//
// The block is allocated once, as a slice of the record type so the garbage
// collector sees any pointers inside records, and from then on addressed
// through unsafe pointers. Every typed access presents the record type and
// is checked against the type the arena was created with; a mismatch is a
// programming error and panics.
//
// The zero Arena is uninitialized. Typed reads of an uninitialized arena
// panic, untyped queries (Len, Cap, IsEmpty) report an empty arena.
type Arena struct {
	typ       reflect.Type
	base      unsafe.Pointer
	size      uintptr
	live      int // retain: live records; ring: alive as of last update plus appended since
	capacity  int
	cursor    int // ring only
	highWater int // ring only, never goes down
	kind      arenaKind
}

// NewArena creates an arena holding at least capacity records of type P.
//
// capacity*sizeof(P) is rounded up to a 16-byte boundary and the slack is
// made available as extra capacity. A capacity of zero creates a valid,
// inert arena.
//
// It panics if P's alignment is not one of 1, 2, 4, 8 or 16.
func NewArena[P any](capacity int, strategy Strategy) *Arena {
	a := &Arena{}
	a.init(reflect.TypeFor[P](), capacity, strategy)
	return a
}

// validAlign reports whether a record alignment fits the arena's slots.
func validAlign(align uintptr) bool {
	switch align {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// roundedCapacity returns how many records of the given size fit in
// nominal*size bytes rounded up to arenaAlign.
func roundedCapacity(nominal int, size uintptr) int {
	if size == 0 {
		return nominal
	}
	blocks := (uintptr(nominal)*size + arenaAlign - 1) / arenaAlign
	return int(blocks * arenaAlign / size)
}

func (a *Arena) init(t reflect.Type, nominal int, strategy Strategy) {
	if !validAlign(uintptr(t.Align())) {
		panic(fmt.Sprintf("hibana: bad alignment %d for particle type %s", t.Align(), t))
	}
	if nominal < 0 {
		panic(fmt.Sprintf("hibana: negative arena capacity %d", nominal))
	}
	capacity := roundedCapacity(nominal, t.Size())
	*a = Arena{
		typ:      t,
		size:     t.Size(),
		capacity: capacity,
		kind:     arenaRetain,
	}
	if strategy == StrategyRing {
		a.kind = arenaRing
	}
	if capacity > 0 {
		a.base = reflect.MakeSlice(reflect.SliceOf(t), capacity, capacity).UnsafePointer()
	}
}

// IsUninit reports whether the arena has not been created yet.
func (a *Arena) IsUninit() bool {
	return a.kind == arenaUninit
}

// IsEmpty reports whether no record is alive.
func (a *Arena) IsEmpty() bool {
	return a.live == 0
}

// Len returns the number of live records. In ring mode it is the number of
// records alive at the last update plus those appended since, bounded by
// the high-water mark. Append cannot tell whether an overwritten slot was
// alive and counts it as freed; a System storing its own records keeps the
// count exact.
func (a *Arena) Len() int {
	return a.live
}

// Cap returns the real capacity, including alignment slack.
func (a *Arena) Cap() int {
	return a.capacity
}

// HighWater returns how many ring slots have ever been written. It is
// always 0 in retain mode.
func (a *Arena) HighWater() int {
	return a.highWater
}

// Cursor returns the ring insertion point. It is always 0 in retain mode.
func (a *Arena) Cursor() int {
	return a.cursor
}

// Strategy returns the arena's cleanup strategy.
func (a *Arena) Strategy() Strategy {
	if a.kind == arenaRing {
		return StrategyRing
	}
	return StrategyRetain
}

// Type returns the record type, or nil if uninitialized.
func (a *Arena) Type() reflect.Type {
	return a.typ
}

// Reset forgets every record while keeping the allocation.
func (a *Arena) Reset() {
	a.live = 0
	a.cursor = 0
	a.highWater = 0
}

// visible returns the length of the region typed reads expose.
func (a *Arena) visible() int {
	if a.kind == arenaRing {
		return a.highWater
	}
	return a.live
}

// check panics unless the arena was created for type t.
func (a *Arena) check(t reflect.Type) {
	if a.kind == arenaUninit {
		panic(fmt.Sprintf("hibana: access to uninitialized arena as %s", t))
	}
	if a.typ != t {
		panic(fmt.Sprintf("hibana: arena type mismatch: arena holds %s, accessed as %s", a.typ, t))
	}
}

// slots returns the first n slots without any type check.
func slots[P any](a *Arena, n int) []P {
	if n == 0 || a.base == nil {
		return nil
	}
	return unsafe.Slice((*P)(a.base), n)
}

// Live returns the arena's readable region: the live records in retain
// mode, every initialized slot in ring mode. Ring callers must check each
// record's expiration themselves.
//
// The returned slice aliases the arena and is invalidated by the next
// update of the owning system.
func Live[P any](a *Arena) []P {
	a.check(reflect.TypeFor[P]())
	return slots[P](a, a.visible())
}

// Ordered returns the readable region from oldest to newest record. In
// retain mode older is the live region and newer is empty. In ring mode the
// two slices together cover every initialized slot starting at the oldest.
func Ordered[P any](a *Arena) (older, newer []P) {
	a.check(reflect.TypeFor[P]())
	if a.kind != arenaRing || a.highWater < a.capacity {
		return slots[P](a, a.visible()), nil
	}
	all := slots[P](a, a.capacity)
	return all[a.cursor:], all[:a.cursor]
}

// Append writes records into the arena and returns how many were stored.
//
// In retain mode records past the capacity are dropped. In ring mode every
// record is stored, evicting the oldest slots once the arena is full.
func Append[P any](a *Arena, items ...P) int {
	a.check(reflect.TypeFor[P]())
	n := 0
	for _, item := range items {
		if !push(a, item) {
			break
		}
		n++
	}
	return n
}

// push stores one record without a type check. It reports false when the
// record was dropped.
func push[P any](a *Arena, item P) bool {
	if a.capacity == 0 {
		return false
	}
	if a.kind == arenaRing {
		all := slots[P](a, a.capacity)
		all[a.cursor] = item
		a.cursor = (a.cursor + 1) % a.capacity
		if a.highWater < a.capacity {
			a.highWater++
		}
		if a.live < a.highWater {
			a.live++
		}
		return true
	}
	if a.live >= a.capacity {
		return false
	}
	all := slots[P](a, a.capacity)
	all[a.live] = item
	a.live++
	return true
}

// full reports whether a retain arena cannot take another record.
func (a *Arena) full() bool {
	return a.kind != arenaRing && a.live >= a.capacity
}
