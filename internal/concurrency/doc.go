// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for hioload-ring: the fixed-capacity ring buffer
// core shared by the pool and stream packages, and the idle backoff used
// by polling producers and consumers.
//
// The ring itself never blocks. Waiting is done by callers through
// Backoff, outside the ring.
package concurrency
