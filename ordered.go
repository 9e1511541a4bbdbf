package treecode

import (
	"cmp"
	"fmt"
	"iter"
	"strings"
)

// Ordered is a sorted collection of constant capacity that keeps the k
// smallest values offered to it under a strict-weak ordering.
//
// Storage is allocated once by the constructor. Elements occupy
// data[0:size] in non-decreasing order and size never exceeds the capacity.
type Ordered[T any] struct {
	less func(a, b T) bool
	data []T
	size int
}

// NewOrdered returns an empty container of capacity k ordered ascending.
// It panics with ErrInvalidCapacity if k <= 0.
func NewOrdered[T cmp.Ordered](k int) *Ordered[T] {
	return NewOrderedFunc(k, cmp.Less[T])
}

// NewOrderedFunc returns an empty container of capacity k ordered by less.
// It panics with ErrInvalidCapacity if k <= 0.
func NewOrderedFunc[T any](k int, less func(a, b T) bool) *Ordered[T] {
	if k <= 0 {
		panic(ErrInvalidCapacity)
	}
	return &Ordered[T]{less: less, data: make([]T, k)}
}

func (o *Ordered[T]) Len() int    { return o.size }
func (o *Ordered[T]) Cap() int    { return len(o.data) }
func (o *Ordered[T]) Empty() bool { return o.size == 0 }
func (o *Ordered[T]) Full() bool  { return o.size == len(o.data) }

// At returns the i-th smallest stored element. It panics if i is out of range.
func (o *Ordered[T]) At(i int) T {
	if i < 0 || i >= o.size {
		panic(fmt.Sprintf("treecode: Ordered index %d out of range [0, %d)", i, o.size))
	}
	return o.data[i]
}

// Front returns the smallest element. The container must not be empty.
func (o *Ordered[T]) Front() T { return o.At(0) }

// Back returns the largest element. The container must not be empty.
func (o *Ordered[T]) Back() T { return o.At(o.size - 1) }

// Offer inserts v if the container has room, or replaces the current
// maximum if v is strictly smaller than it. Otherwise Offer does nothing.
// Equal elements keep their offer order.
func (o *Ordered[T]) Offer(v T) {
	switch {
	case o.size < len(o.data):
		o.insert(o.size, v)
		o.size++
	case o.less(v, o.data[o.size-1]):
		o.insert(o.size-1, v)
	}
}

// insert places v into its sorted position among data[0:i], shifting larger
// elements right and overwriting data[i].
func (o *Ordered[T]) insert(i int, v T) {
	for ; i > 0 && o.less(v, o.data[i-1]); i-- {
		o.data[i] = o.data[i-1]
	}
	o.data[i] = v
}

// PopBack removes the largest element. It is a no-op on an empty container.
func (o *Ordered[T]) PopBack() {
	if o.size > 0 {
		o.size--
	}
}

// All iterates over the stored elements in sorted order.
func (o *Ordered[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < o.size; i++ {
			if !yield(i, o.data[i]) {
				return
			}
		}
	}
}

// Slice returns a copy of the stored elements in sorted order.
func (o *Ordered[T]) Slice() []T {
	out := make([]T, o.size)
	copy(out, o.data[:o.size])
	return out
}

// Clone returns an independent container with its own storage.
func (o *Ordered[T]) Clone() *Ordered[T] {
	c := &Ordered[T]{less: o.less, data: make([]T, len(o.data)), size: o.size}
	copy(c.data, o.data[:o.size])
	return c
}

// Move transfers the storage to a new container and leaves o empty with
// zero capacity.
func (o *Ordered[T]) Move() *Ordered[T] {
	m := &Ordered[T]{less: o.less, data: o.data, size: o.size}
	o.data = nil
	o.size = 0
	return m
}

// Equal reports whether o and other hold element-wise equal contents.
func (o *Ordered[T]) Equal(other *Ordered[T], eq func(a, b T) bool) bool {
	if o.size != other.size {
		return false
	}
	for i := 0; i < o.size; i++ {
		if !eq(o.data[i], other.data[i]) {
			return false
		}
	}
	return true
}

// EqualOrdered compares two containers of comparable elements.
func EqualOrdered[T comparable](a, b *Ordered[T]) bool {
	return a.Equal(b, func(x, y T) bool { return x == y })
}

// String formats the stored elements as "(a, b, c)".
func (o *Ordered[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < o.size; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprint(&sb, o.data[i])
	}
	sb.WriteByte(')')
	return sb.String()
}
