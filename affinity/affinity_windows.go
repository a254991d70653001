//go:build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity.

package affinity

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
)

func setMask(mask uintptr) (uintptr, error) {
	old, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if old == 0 {
		return 0, fmt.Errorf("affinity: SetThreadAffinityMask: %v", err)
	}
	return old, nil
}

// pinPlatform sets the calling thread's affinity to cpuID, returning a
// func restoring the previous mask.
func pinPlatform(cpuID int) (func() error, error) {
	if cpuID >= 64 {
		return nil, fmt.Errorf("%w: %d is beyond the first processor group", ErrInvalidCPU, cpuID)
	}
	old, err := setMask(uintptr(1) << uint(cpuID))
	if err != nil {
		return nil, err
	}
	return func() error {
		_, err := setMask(old)
		return err
	}, nil
}
