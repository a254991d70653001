// Package pool adapts the internal concurrency ring buffer as a byte ring.
//
// ByteRing is a thin wrapper over concurrency.RingBuffer[byte] adding
// io.Reader/io.Writer adapters for byte-stream producers and consumers.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"io"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/internal/concurrency"
)

// RingState is a point-in-time view of the ring cursors.
type RingState = concurrency.RingState

// ByteRing implements api.Ring[byte] over a fixed-size byte store.
// Producer side: TryPut, WriteByte, Write. Consumer side: Get, Peek,
// PeekInto, Discard, ReadByte, Read.
type ByteRing struct {
	*concurrency.RingBuffer[byte]
}

// Ensure compile-time compliance.
var (
	_ api.Ring[byte] = (*ByteRing)(nil)
	_ io.Reader      = (*ByteRing)(nil)
	_ io.Writer      = (*ByteRing)(nil)
	_ io.ByteReader  = (*ByteRing)(nil)
	_ io.ByteWriter  = (*ByteRing)(nil)
)

// NewByteRing allocates a byte ring of the given capacity.
func NewByteRing(capacity int) (*ByteRing, error) {
	r, err := concurrency.NewRingBuffer[byte](capacity)
	if err != nil {
		return nil, err
	}
	return &ByteRing{RingBuffer: r}, nil
}

// NewByteRingWithStore builds a byte ring over store, e.g. a static array.
// The ring takes exclusive ownership of store.
func NewByteRingWithStore(store []byte) (*ByteRing, error) {
	r, err := concurrency.NewRingBufferWithStore(store)
	if err != nil {
		return nil, err
	}
	return &ByteRing{RingBuffer: r}, nil
}

// WriteByte stores c; returns api.ErrBufferFull if full.
func (b *ByteRing) WriteByte(c byte) error {
	return b.TryPut(c)
}

// ReadByte removes the oldest byte; returns api.ErrBufferEmpty if empty.
func (b *ByteRing) ReadByte() (byte, error) {
	return b.Get()
}

// Write stores p until the ring fills. It returns the number of bytes
// stored and api.ErrBufferFull when fewer than len(p) fit.
func (b *ByteRing) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := b.TryPut(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Read removes up to len(p) bytes into p. It returns api.ErrBufferEmpty
// only when p is non-empty and nothing was available.
func (b *ByteRing) Read(p []byte) (int, error) {
	n := b.Size()
	if n > len(p) {
		n = len(p)
	}
	if n == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, api.ErrBufferEmpty
	}
	if _, err := b.PeekInto(p[:n]); err != nil {
		return 0, err
	}
	if err := b.Discard(n); err != nil {
		return 0, err
	}
	return n, nil
}

// WriteOverwrite stores all of p, evicting the oldest bytes as needed,
// and returns how many bytes were evicted. Like Put, it must not overlap
// any other call.
func (b *ByteRing) WriteOverwrite(p []byte) int {
	evicted := 0
	for _, c := range p {
		if b.Full() {
			evicted++
		}
		b.Put(c)
	}
	return evicted
}
