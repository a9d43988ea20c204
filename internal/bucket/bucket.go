// Package bucket implements single-owner contiguous buffer allocation
// and recycling for decoders and binary stream readers: a Bucket is a
// fixed-capacity slice handed out by a Source, owned exclusively by
// whichever caller holds it, and returned to a free list on Release
// rather than left for the garbage collector.
//
// The sync.Pool-backed free list is grounded on
// joeycumines-go-utilpkg/eventloop/ingress.go's chunkPool pattern
// (a typed object pool reused across read cycles to avoid per-read
// allocation), adapted here from byte chunks to generic record slices.
package bucket

import "sync"

// Bucket is a single-owner, fixed-capacity buffer of T. Data holds the
// live (possibly partially filled) contents; callers resize it with
// append up to cap(Data).
type Bucket[T any] struct {
	Data []T

	source *RecyclingSource[T]
}

// Release returns the Bucket to the Source it came from, if any, for
// reuse by a later Get call. A Bucket obtained directly (not through a
// RecyclingSource) is simply dropped.
func (b *Bucket[T]) Release() {
	if b.source == nil {
		return
	}
	b.Data = b.Data[:0]
	b.source.pool.Put(b)
}

// Source produces buckets of a fixed capacity with no recycling; every
// call to Get allocates. It satisfies callers that want bucket-shaped
// batching without paying for pool bookkeeping (e.g. a one-shot replay
// tool that reads a file exactly once).
type Source[T any] struct {
	Capacity int
}

// NewSource constructs a Source producing buckets of the given
// capacity.
func NewSource[T any](capacity int) *Source[T] {
	return &Source[T]{Capacity: capacity}
}

// Get allocates and returns a new, empty Bucket.
func (s *Source[T]) Get() *Bucket[T] {
	return &Bucket[T]{Data: make([]T, 0, s.Capacity)}
}

// RecyclingSource produces buckets backed by a sync.Pool free list:
// Get returns a previously Released bucket when one is available,
// falling back to a fresh allocation otherwise.
type RecyclingSource[T any] struct {
	Capacity int
	pool     sync.Pool
}

// NewRecyclingSource constructs a RecyclingSource producing buckets of
// the given capacity.
func NewRecyclingSource[T any](capacity int) *RecyclingSource[T] {
	s := &RecyclingSource[T]{Capacity: capacity}
	s.pool.New = func() any {
		return &Bucket[T]{Data: make([]T, 0, capacity), source: s}
	}
	return s
}

// Get returns a bucket from the free list, or allocates one if the list
// is empty.
func (s *RecyclingSource[T]) Get() *Bucket[T] {
	b := s.pool.Get().(*Bucket[T])
	b.source = s
	return b
}

// ObjectPool is a minimal generic object pool for vector-like buffers
// that don't need the fixed-capacity Bucket wrapper — e.g. scratch
// []uint64 slices reused across histogram scan calls.
type ObjectPool[T any] struct {
	pool sync.Pool
}

// NewObjectPool constructs an ObjectPool whose New function is used to
// allocate on a pool miss.
func NewObjectPool[T any](newFunc func() T) *ObjectPool[T] {
	p := &ObjectPool[T]{}
	p.pool.New = func() any { return newFunc() }
	return p
}

// Get returns an item from the pool, allocating one if empty.
func (p *ObjectPool[T]) Get() T { return p.pool.Get().(T) }

// Put returns v to the pool for reuse.
func (p *ObjectPool[T]) Put(v T) { p.pool.Put(v) }
