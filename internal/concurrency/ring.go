// File: internal/concurrency/ring.go
// Package concurrency implements the fixed-capacity ring buffer core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RingBuffer is a bounded circular buffer with atomic head/tail/count,
// padded to prevent false sharing between producer and consumer.
// Implements api.Ring for cross-package consistency.

package concurrency

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-ring/api"
)

// Ensure compile-time interface compliance.
var _ api.Ring[any] = (*RingBuffer[any])(nil)

// errPeekEmpty is returned by look-ahead operations on an empty ring.
var errPeekEmpty = fmt.Errorf("%w: %w", api.ErrInsufficientData, api.ErrBufferEmpty)

// RingBuffer is a fixed-capacity ring buffer, safe for one producer
// (TryPut) and one consumer (Get, Peek, PeekInto, Discard) running
// concurrently.
//
// head is written only by the producer, tail only by the consumer, and
// count is incremented by the producer after the slot is written and
// decremented by the consumer after the slot is read. count == 0 is empty,
// count == capacity is full; both coincide with head == tail.
//
// Put and Reset write every cursor and must not overlap any other call.
// Outside the single-producer/single-consumer discipline the ring stays
// memory-safe (indices are always reduced modulo capacity) but items may
// be lost or duplicated.
type RingBuffer[T any] struct {
	store []T
	n     uint64
	_     cpu.CacheLinePad
	head  atomic.Uint64
	_     cpu.CacheLinePad
	tail  atomic.Uint64
	_     cpu.CacheLinePad
	count atomic.Uint64
	_     cpu.CacheLinePad
}

// RingState is a point-in-time view of the ring cursors.
type RingState struct {
	Head     int
	Tail     int
	Size     int
	Capacity int
	Full     bool
}

// NewRingBuffer allocates a ring buffer holding up to capacity items.
func NewRingBuffer[T any](capacity int) (*RingBuffer[T], error) {
	if capacity < 1 {
		return nil, api.ErrInvalidCapacity
	}
	return &RingBuffer[T]{
		store: make([]T, capacity),
		n:     uint64(capacity),
	}, nil
}

// NewRingBufferWithStore builds a ring over a caller-provisioned store.
// The ring owns store from now on; the caller must not touch it while
// the ring is in use.
func NewRingBufferWithStore[T any](store []T) (*RingBuffer[T], error) {
	if len(store) == 0 {
		return nil, api.ErrInvalidCapacity
	}
	return &RingBuffer[T]{
		store: store[:len(store):len(store)],
		n:     uint64(len(store)),
	}, nil
}

func (r *RingBuffer[T]) advance(i, by uint64) uint64 {
	return (i + by) % r.n
}

// Reset empties the ring. Store contents are left as they are.
func (r *RingBuffer[T]) Reset() {
	r.head.Store(0)
	r.tail.Store(0)
	r.count.Store(0)
}

// Put writes item at head. On a full ring the oldest item is evicted.
func (r *RingBuffer[T]) Put(item T) {
	head := r.head.Load()
	r.store[head] = item
	r.head.Store(r.advance(head, 1))
	if r.count.Load() == r.n {
		r.tail.Store(r.advance(r.tail.Load(), 1))
		return
	}
	r.count.Add(1)
}

// TryPut writes item at head; returns api.ErrBufferFull if full.
func (r *RingBuffer[T]) TryPut(item T) error {
	if r.count.Load() == r.n {
		return api.ErrBufferFull
	}
	head := r.head.Load()
	r.store[head] = item
	r.head.Store(r.advance(head, 1))
	// Publishes the slot to the consumer.
	r.count.Add(1)
	return nil
}

// Get removes and returns the oldest item; returns api.ErrBufferEmpty
// and the zero value if empty.
func (r *RingBuffer[T]) Get() (T, error) {
	if r.count.Load() == 0 {
		var zero T
		return zero, api.ErrBufferEmpty
	}
	tail := r.tail.Load()
	item := r.store[tail]
	r.tail.Store(r.advance(tail, 1))
	// Releases the slot to the producer.
	r.count.Add(^uint64(0))
	return item, nil
}

// checkLookahead validates a look-ahead of k items against the live count.
func (r *RingBuffer[T]) checkLookahead(k int) error {
	if k < 0 {
		return api.ErrInvalidArgument
	}
	size := r.count.Load()
	if uint64(k) <= size {
		return nil
	}
	if size == 0 {
		return errPeekEmpty
	}
	return api.ErrInsufficientData
}

// Peek returns a copy of the k oldest items in FIFO order without
// removing them.
func (r *RingBuffer[T]) Peek(k int) ([]T, error) {
	if err := r.checkLookahead(k); err != nil {
		return nil, err
	}
	out := make([]T, k)
	r.copyFromTail(out)
	return out, nil
}

// PeekInto fills dst with the len(dst) oldest items without removing
// them. dst is untouched on error.
func (r *RingBuffer[T]) PeekInto(dst []T) (int, error) {
	if err := r.checkLookahead(len(dst)); err != nil {
		return 0, err
	}
	r.copyFromTail(dst)
	return len(dst), nil
}

// copyFromTail copies len(dst) items starting at tail, wrapping once.
func (r *RingBuffer[T]) copyFromTail(dst []T) {
	tail := r.tail.Load()
	n := copy(dst, r.store[tail:])
	copy(dst[n:], r.store)
}

// Discard removes the k oldest items.
func (r *RingBuffer[T]) Discard(k int) error {
	if err := r.checkLookahead(k); err != nil {
		return err
	}
	if k == 0 {
		return nil
	}
	r.tail.Store(r.advance(r.tail.Load(), uint64(k)))
	r.count.Add(^uint64(k - 1))
	return nil
}

// Empty reports whether the ring holds no items.
func (r *RingBuffer[T]) Empty() bool {
	return r.count.Load() == 0
}

// Full reports whether the ring holds Capacity items.
func (r *RingBuffer[T]) Full() bool {
	return r.count.Load() == r.n
}

// Size returns the number of live items.
func (r *RingBuffer[T]) Size() int {
	return int(r.count.Load())
}

// Capacity returns fixed buffer capacity.
func (r *RingBuffer[T]) Capacity() int {
	return int(r.n)
}

// State returns a snapshot of the cursors. It is exact only when no
// producer or consumer call is in flight.
func (r *RingBuffer[T]) State() RingState {
	size := r.count.Load()
	return RingState{
		Head:     int(r.head.Load()),
		Tail:     int(r.tail.Load()),
		Size:     int(size),
		Capacity: int(r.n),
		Full:     size == r.n,
	}
}
