// Package api
// Author: momentics@gmail.com
//
// Fixed-capacity ring buffer contract for single-producer/single-consumer use.

package api

// Ring is a fixed-capacity FIFO ring buffer contract.
//
// Producer side: TryPut. Consumer side: Get, Peek, PeekInto, Discard.
// Put and Reset may only be called while no producer or consumer call
// is in flight.
type Ring[T any] interface {
	// Put writes item, evicting the oldest item if the ring is full.
	Put(item T)
	// TryPut writes item, returns ErrBufferFull if full.
	TryPut(item T) error
	// Get removes the oldest item, returns ErrBufferEmpty if empty.
	Get() (T, error)
	// Peek returns the k oldest items without removing them.
	Peek(k int) ([]T, error)
	// PeekInto copies the len(dst) oldest items into dst without removing them.
	PeekInto(dst []T) (int, error)
	// Discard removes the k oldest items.
	Discard(k int) error
	// Reset empties the ring without clearing its store.
	Reset()
	// Empty reports whether no items are live.
	Empty() bool
	// Full reports whether Capacity items are live.
	Full() bool
	// Size returns the number of live items.
	Size() int
	// Capacity returns the fixed ring capacity.
	Capacity() int
}
