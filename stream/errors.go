// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import "errors"

var (
	// ErrSpillOverflow means the spill queue exceeded max_spill.
	ErrSpillOverflow = errors.New("spill queue overflow")

	// ErrLineTooLong accompanies a record cut at the line limit.
	ErrLineTooLong = errors.New("record exceeds line limit")
)
