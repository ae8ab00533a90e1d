package hibana

import "fmt"

// MaxTrailSamples is the fixed backing size of a Ring.
const MaxTrailSamples = 32

// Ring is a fixed-size, copyable ring buffer. Its storage is an array so
// a Ring can live inline in a particle record and be copied with it.
//
// Items are ordered from oldest to newest. Pushing into a full ring drops
// the oldest item.
type Ring[T any] struct {
	items [MaxTrailSamples]T
	head  uint8
	n     uint8
	size  uint8
}

// NewRing returns an empty ring that holds up to size items.
// It panics if size is not in [1, MaxTrailSamples].
func NewRing[T any](size int) Ring[T] {
	if size < 1 || size > MaxTrailSamples {
		panic(fmt.Sprintf("hibana: ring size %d out of range [1, %d]", size, MaxTrailSamples))
	}
	return Ring[T]{size: uint8(size)}
}

func (r *Ring[T]) limit() int {
	if r.size == 0 {
		return MaxTrailSamples
	}
	return int(r.size)
}

func (r *Ring[T]) slot(i int) int {
	return (int(r.head) + i) % r.limit()
}

// Push appends v as the newest item, evicting the oldest if full.
func (r *Ring[T]) Push(v T) {
	if int(r.n) == r.limit() {
		r.items[r.head] = v
		r.head = uint8(r.slot(1))
		return
	}
	r.items[r.slot(int(r.n))] = v
	r.n++
}

// PopFront removes and returns the oldest item.
func (r *Ring[T]) PopFront() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	v := r.items[r.head]
	r.items[r.head] = zero
	r.head = uint8(r.slot(1))
	r.n--
	return v, true
}

// Len returns the number of items.
func (r *Ring[T]) Len() int {
	return int(r.n)
}

// Cap returns the maximum number of items.
func (r *Ring[T]) Cap() int {
	return r.limit()
}

// IsEmpty reports whether the ring holds no item.
func (r *Ring[T]) IsEmpty() bool {
	return r.n == 0
}

// At returns a pointer to the i-th oldest item.
func (r *Ring[T]) At(i int) *T {
	if i < 0 || i >= int(r.n) {
		panic(fmt.Sprintf("hibana: ring index %d out of range [0, %d)", i, r.n))
	}
	return &r.items[r.slot(i)]
}

// Newest returns a pointer to the newest item, or nil if empty.
func (r *Ring[T]) Newest() *T {
	if r.n == 0 {
		return nil
	}
	return r.At(int(r.n) - 1)
}

// All yields the items from oldest to newest.
func (r *Ring[T]) All(yield func(int, *T) bool) {
	for i := range int(r.n) {
		if !yield(i, &r.items[r.slot(i)]) {
			return
		}
	}
}

// RetainOrdered calls keep on every item, oldest first, and removes one
// item from the front for every false result. Items must be ordered by age
// so that the rejected ones form a prefix.
func (r *Ring[T]) RetainOrdered(keep func(*T) bool) {
	drop := 0
	for i := range int(r.n) {
		if !keep(&r.items[r.slot(i)]) {
			drop++
		}
	}
	for range drop {
		r.PopFront()
	}
}

// Clear removes every item.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head, r.n = 0, 0
}
