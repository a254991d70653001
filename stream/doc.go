// Package stream moves byte streams through a pool.ByteRing.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pump is the single producer: it drains an io.Reader into the ring with
// TryPut and turns api.ErrBufferFull into the configured backpressure
// policy. LineReader is the single consumer: it parses delimited records
// out of the ring with PeekInto and Discard. Drain polls a LineReader
// until the producer is done.
//
// A ring shared by one Pump and one LineReader must not be touched by any
// other goroutine, and never with Put or Reset, while both are running.
package stream
