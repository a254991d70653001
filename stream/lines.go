// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"bytes"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/control"
	"github.com/momentics/hioload-ring/pool"
)

// LineReader parses delimiter-terminated records out of a ring as its
// single consumer.
type LineReader struct {
	ring    *pool.ByteRing
	delim   byte
	maxLine int
	metrics *control.RingMetrics

	// window receives the live bytes on every Next; the first scanned
	// of them are known to contain no delimiter.
	window  []byte
	scanned int
}

// NewLineReader creates a LineReader. maxLine <= 0 or above the ring
// capacity is clamped to the capacity.
func NewLineReader(ring *pool.ByteRing, delim byte, maxLine int, metrics *control.RingMetrics) *LineReader {
	if maxLine <= 0 || maxLine > ring.Capacity() {
		maxLine = ring.Capacity()
	}
	if metrics == nil {
		metrics = control.NewRingMetrics(nil)
	}
	return &LineReader{
		ring:    ring,
		delim:   delim,
		maxLine: maxLine,
		metrics: metrics,
		window:  make([]byte, ring.Capacity()),
	}
}

// Next returns the oldest complete record without its delimiter and
// removes it from the ring. The returned slice is owned by the caller.
//
// Without a complete record it returns api.ErrInsufficientData, or, once
// maxLine bytes are waiting, the first maxLine bytes together with
// ErrLineTooLong.
func (lr *LineReader) Next() ([]byte, error) {
	size := lr.ring.Size()
	if size == 0 {
		return nil, api.ErrInsufficientData
	}
	if _, err := lr.ring.PeekInto(lr.window[:size]); err != nil {
		return nil, err
	}
	if i := bytes.IndexByte(lr.window[lr.scanned:size], lr.delim); i >= 0 {
		end := lr.scanned + i
		if end <= lr.maxLine {
			return lr.take(end, end+1), nil
		}
	}
	if size >= lr.maxLine {
		lr.metrics.Truncated.Inc()
		return lr.take(lr.maxLine, lr.maxLine), ErrLineTooLong
	}
	lr.scanned = size
	return nil, api.ErrInsufficientData
}

// Flush removes and returns every live byte, for a trailing record that
// never got its delimiter. It returns nil when the ring is empty.
func (lr *LineReader) Flush() []byte {
	size := lr.ring.Size()
	if size == 0 {
		return nil
	}
	if _, err := lr.ring.PeekInto(lr.window[:size]); err != nil {
		return nil
	}
	return lr.take(size, size)
}

// take copies window[:n] out and discards consumed bytes from the ring.
func (lr *LineReader) take(n, consumed int) []byte {
	rec := make([]byte, n)
	copy(rec, lr.window[:n])
	// consumed never exceeds the peeked size, so Discard cannot fail here.
	_ = lr.ring.Discard(consumed)
	lr.scanned = 0
	lr.metrics.Gets.Add(float64(consumed))
	lr.metrics.Records.Inc()
	return rec
}
