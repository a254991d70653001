// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.
//
// A ring producer and its consumer pinned to distinct cores keep their
// cursor cache lines hot and away from each other.

package affinity

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrNotSupported is returned where thread affinity cannot be set.
	ErrNotSupported = errors.New("affinity: not supported on this platform")
	// ErrInvalidCPU is returned for a negative CPU index.
	ErrInvalidCPU = errors.New("affinity: invalid cpu")
)

// Pin locks the calling goroutine to its OS thread and binds that thread
// to cpuID. The returned restore func reinstates the previous affinity and
// unlocks the thread; it must be called from the same goroutine.
func Pin(cpuID int) (restore func() error, err error) {
	if cpuID < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCPU, cpuID)
	}
	runtime.LockOSThread()
	undo, err := pinPlatform(cpuID)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() error {
		defer runtime.UnlockOSThread()
		return undo()
	}, nil
}
