// Package pool
// Author: momentics <momentics@gmail.com>
//
// Byte ring buffers for hioload-ring.
// ByteRing specialises the fixed-capacity ring core to single bytes and
// exposes it as io.Reader/io.Writer for byte-stream producers (serial
// links, sockets, DMA staging) and consumers (protocol parsers).
// See buffer_ring.go for implementation details.
package pool
