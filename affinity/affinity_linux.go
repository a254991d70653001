//go:build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinPlatform sets the calling thread's affinity to cpuID, returning a
// func restoring the previous mask.
func pinPlatform(cpuID int) (func() error, error) {
	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		return nil, fmt.Errorf("affinity: sched_getaffinity: %w", err)
	}
	var set unix.CPUSet
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("affinity: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return func() error {
		return unix.SchedSetaffinity(0, &prev)
	}, nil
}
