// Package ringbuf provides a generic sorted ring buffer, adapted from
// joeycumines-go-utilpkg/catrate's fixed-window ring into a growable
// insertion-sorted queue usable as the pending window behind order
// recovery, the two-way merge's lookahead queue, and the histogram
// journal's free list.
package ringbuf

import "golang.org/x/exp/constraints"

// Sorted is a growable buffer that keeps its elements in ascending order
// by a caller-supplied key, supporting O(log n) lookup of the insertion
// point and O(1) access to (and removal of) the minimum element.
type Sorted[T any, K constraints.Ordered] struct {
	items []T
	keyOf func(T) K
}

// NewSorted constructs an empty Sorted buffer keyed by keyOf.
func NewSorted[T any, K constraints.Ordered](keyOf func(T) K) *Sorted[T, K] {
	return &Sorted[T, K]{keyOf: keyOf}
}

// Len returns the number of buffered items.
func (s *Sorted[T, K]) Len() int { return len(s.items) }

// Insert inserts v at its sorted position, stable relative to existing
// items with an equal key (new equal-key items go after existing ones).
func (s *Sorted[T, K]) Insert(v T) {
	k := s.keyOf(v)
	lo, hi := 0, len(s.items)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.keyOf(s.items[mid]) <= k {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	s.items = append(s.items, v)
	copy(s.items[lo+1:], s.items[lo:])
	s.items[lo] = v
}

// Min returns the smallest-keyed item without removing it.
func (s *Sorted[T, K]) Min() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	return s.items[0], true
}

// PopMin removes and returns the smallest-keyed item.
func (s *Sorted[T, K]) PopMin() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[0]
	s.items = s.items[1:]
	return v, true
}

// MaxKey returns the key of the largest-keyed item, and false when the
// buffer is empty.
func (s *Sorted[T, K]) MaxKey() (K, bool) {
	var zero K
	if len(s.items) == 0 {
		return zero, false
	}
	return s.keyOf(s.items[len(s.items)-1]), true
}

// Each iterates items in sorted order.
func (s *Sorted[T, K]) Each(f func(T)) {
	for _, v := range s.items {
		f(v)
	}
}
