// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ring/api"
)

const testCapacity = 10

func newTestRing(t *testing.T, capacity int) *RingBuffer[byte] {
	t.Helper()
	r, err := NewRingBuffer[byte](capacity)
	require.NoError(t, err)
	return r
}

func TestNewRingBuffer_RejectsZeroCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		r, err := NewRingBuffer[byte](capacity)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, api.ErrInvalidCapacity)
		assert.ErrorIs(t, err, api.ErrInvalidArgument)
	}
	r, err := NewRingBufferWithStore[byte](nil)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, api.ErrInvalidCapacity)
}

func TestRingBuffer_Init(t *testing.T) {
	for n := 1; n <= 16; n++ {
		r := newTestRing(t, n)
		assert.Equal(t, n, r.Capacity())
		assert.Equal(t, 0, r.Size())
		assert.True(t, r.Empty())
		assert.False(t, r.Full())
	}
}

func TestRingBuffer_MonotonicFill(t *testing.T) {
	put := newTestRing(t, testCapacity)
	try := newTestRing(t, testCapacity)
	for i := 0; i < testCapacity; i++ {
		assert.False(t, put.Full())
		assert.False(t, try.Full())
		put.Put(byte(i))
		require.NoError(t, try.TryPut(byte(i)))
		assert.Equal(t, i+1, put.Size())
		assert.Equal(t, i+1, try.Size())
		assert.False(t, put.Empty())
	}
	assert.True(t, put.Full())
	assert.True(t, try.Full())
}

func TestRingBuffer_PutOverwritesOldest(t *testing.T) {
	r := newTestRing(t, testCapacity)
	for i := 0; i <= testCapacity; i++ {
		r.Put(byte(i))
	}
	assert.Equal(t, testCapacity, r.Size())
	assert.True(t, r.Full())

	got := make([]byte, 0, testCapacity)
	for i := 0; i < testCapacity; i++ {
		v, err := r.Get()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
	assert.Equal(t, 0, r.Size())
	assert.True(t, r.Empty())
}

func TestRingBuffer_TryPutRejectsWhenFull(t *testing.T) {
	r := newTestRing(t, testCapacity)
	for i := 0; i < testCapacity; i++ {
		require.NoError(t, r.TryPut(byte(i)))
		assert.Equal(t, i+1, r.Size())
	}
	before := r.State()
	assert.ErrorIs(t, r.TryPut(testCapacity), api.ErrBufferFull)
	assert.Equal(t, before, r.State())

	for i := 0; i < testCapacity; i++ {
		v, err := r.Get()
		require.NoError(t, err)
		assert.Equal(t, byte(i), v)
	}
}

func TestRingBuffer_GetMoreThanStored(t *testing.T) {
	r := newTestRing(t, testCapacity)
	_, err := r.Get()
	assert.ErrorIs(t, err, api.ErrBufferEmpty)

	r.Put(1)
	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, byte(1), v)

	v, err = r.Get()
	assert.ErrorIs(t, err, api.ErrBufferEmpty)
	assert.Zero(t, v)
	assert.Equal(t, RingState{Head: 1, Tail: 1, Capacity: testCapacity}, r.State())
}

func TestRingBuffer_Peek(t *testing.T) {
	const k = 5
	r := newTestRing(t, testCapacity)
	for i := 0; i < testCapacity; i++ {
		r.Put(byte(i))
	}
	require.True(t, r.Full())

	got, err := r.Peek(k)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4}, got)
	assert.True(t, r.Full())
	assert.Equal(t, testCapacity, r.Size())

	for i := 0; i < testCapacity; i++ {
		v, err := r.Get()
		require.NoError(t, err)
		assert.Equal(t, byte(i), v)
	}
	assert.True(t, r.Empty())

	_, err = r.Peek(k)
	assert.ErrorIs(t, err, api.ErrInsufficientData)
	assert.ErrorIs(t, err, api.ErrBufferEmpty)
	_, err = r.Peek(1)
	assert.ErrorIs(t, err, api.ErrBufferEmpty)

	for i := 0; i < 4; i++ {
		r.Put(byte(i))
	}
	before := r.State()
	_, err = r.Peek(k)
	assert.ErrorIs(t, err, api.ErrInsufficientData)
	assert.False(t, errors.Is(err, api.ErrBufferEmpty))
	assert.Equal(t, before, r.State())
}

func TestRingBuffer_PeekZero(t *testing.T) {
	r := newTestRing(t, testCapacity)
	got, err := r.Peek(0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	n, err := r.PeekInto(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRingBuffer_PeekNegative(t *testing.T) {
	r := newTestRing(t, testCapacity)
	r.Put(7)
	_, err := r.Peek(-1)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.ErrorIs(t, r.Discard(-1), api.ErrInvalidArgument)
	assert.Equal(t, 1, r.Size())
}

func TestRingBuffer_PeekAcrossWrap(t *testing.T) {
	r := newTestRing(t, testCapacity)
	for i := 0; i < testCapacity; i++ {
		require.NoError(t, r.TryPut(byte(i)))
	}
	for i := 0; i < 7; i++ {
		_, err := r.Get()
		require.NoError(t, err)
	}
	for i := 10; i < 15; i++ {
		require.NoError(t, r.TryPut(byte(i)))
	}
	st := r.State()
	assert.Equal(t, 5, st.Head)
	assert.Equal(t, 7, st.Tail)
	assert.Equal(t, 8, st.Size)

	got, err := r.Peek(r.Size())
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9, 10, 11, 12, 13, 14}, got)
}

func TestRingBuffer_PeekIntoLeavesDstOnFailure(t *testing.T) {
	r := newTestRing(t, testCapacity)
	r.Put(1)
	r.Put(2)
	dst := []byte{9, 9, 9}
	n, err := r.PeekInto(dst)
	assert.ErrorIs(t, err, api.ErrInsufficientData)
	assert.Zero(t, n)
	assert.Equal(t, []byte{9, 9, 9}, dst)

	n, err = r.PeekInto(dst[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{1, 2, 9}, dst)
}

func TestRingBuffer_Discard(t *testing.T) {
	r := newTestRing(t, testCapacity)
	for i := 0; i < 6; i++ {
		r.Put(byte(i))
	}
	require.NoError(t, r.Discard(0))
	assert.Equal(t, 6, r.Size())

	require.NoError(t, r.Discard(4))
	assert.Equal(t, 2, r.Size())
	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, byte(4), v)

	assert.ErrorIs(t, r.Discard(2), api.ErrInsufficientData)
	assert.Equal(t, 1, r.Size())
	require.NoError(t, r.Discard(1))
	assert.True(t, r.Empty())
	assert.ErrorIs(t, r.Discard(1), api.ErrBufferEmpty)
}

func TestRingBuffer_ResetIdempotent(t *testing.T) {
	for fill := 0; fill <= testCapacity+3; fill++ {
		r := newTestRing(t, testCapacity)
		for i := 0; i < fill; i++ {
			r.Put(byte(i))
		}
		r.Reset()
		once := r.State()
		assert.Equal(t, 0, r.Size())
		assert.True(t, r.Empty())
		assert.False(t, r.Full())
		r.Reset()
		assert.Equal(t, once, r.State())
	}
}

func TestRingBuffer_RoundTrip(t *testing.T) {
	values := []byte("hello, ring")
	r := newTestRing(t, len(values)+1)
	for _, v := range values {
		require.NoError(t, r.TryPut(v))
	}
	got := make([]byte, 0, len(values))
	for range values {
		v, err := r.Get()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, values, got)
}

func TestRingBuffer_CapacityOne(t *testing.T) {
	r := newTestRing(t, 1)
	require.NoError(t, r.TryPut('a'))
	assert.True(t, r.Full())
	assert.ErrorIs(t, r.TryPut('b'), api.ErrBufferFull)
	r.Put('c')
	assert.Equal(t, 1, r.Size())
	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, byte('c'), v)
	assert.True(t, r.Empty())
}

func TestRingBuffer_WithStore(t *testing.T) {
	var storage [testCapacity]byte
	r, err := NewRingBufferWithStore(storage[:])
	require.NoError(t, err)
	assert.Equal(t, testCapacity, r.Capacity())

	require.NoError(t, r.TryPut(0xAB))
	assert.Equal(t, byte(0xAB), storage[0])

	r.Reset()
	assert.True(t, r.Empty())
	assert.Equal(t, byte(0xAB), storage[0], "reset must not clear the store")
}

func TestRingBuffer_Generic(t *testing.T) {
	r, err := NewRingBuffer[string](2)
	require.NoError(t, err)
	r.Put("a")
	r.Put("b")
	r.Put("c")
	got, err := r.Peek(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got)
}
