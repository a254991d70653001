// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Platform debug probes relevant to ring placement.

package control

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// RegisterPlatformProbes registers CPU count and cache line padding size.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.cacheline", func() any {
		return int(unsafe.Sizeof(cpu.CacheLinePad{}))
	})
}
