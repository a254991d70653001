// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/internal/concurrency"
)

// RecordFunc handles one record. truncated is set for records cut at the
// line limit. A non-nil error stops Drain.
type RecordFunc func(rec []byte, truncated bool) error

// DrainOptions tunes Drain. The zero value is usable.
type DrainOptions struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     *zap.Logger
}

// Drain hands every record of lr to fn until done is closed and the ring
// holds no complete record, then passes any trailing bytes as a final
// record. While the producer is running Drain idles with exponential
// backoff between empty polls.
func Drain(ctx context.Context, lr *LineReader, done <-chan struct{}, fn RecordFunc, opts DrainOptions) error {
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("drain")
	backoff := concurrency.NewBackoff(opts.MinBackoff, opts.MaxBackoff)

	finishing := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := lr.Next()
		switch {
		case err == nil:
			if err := fn(rec, false); err != nil {
				return err
			}
			backoff.Reset()
			continue
		case errors.Is(err, ErrLineTooLong):
			logger.Warn("record truncated", zap.Int("length", len(rec)))
			if err := fn(rec, true); err != nil {
				return err
			}
			backoff.Reset()
			continue
		case !errors.Is(err, api.ErrInsufficientData):
			return err
		}

		if finishing {
			if rest := lr.Flush(); rest != nil {
				return fn(rest, false)
			}
			return nil
		}
		select {
		case <-done:
			// One more pass sees everything the producer wrote.
			finishing = true
			continue
		default:
		}
		if err := backoff.Wait(ctx, done); err != nil {
			return err
		}
	}
}
