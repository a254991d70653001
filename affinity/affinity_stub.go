//go:build !linux && !windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

func pinPlatform(int) (func() error, error) {
	return nil, ErrNotSupported
}
