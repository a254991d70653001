// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import (
	"context"
	"io"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/control"
	"github.com/momentics/hioload-ring/internal/concurrency"
	"github.com/momentics/hioload-ring/pool"
)

// Pump copies src into a ring as its single producer.
type Pump struct {
	src     io.Reader
	ring    *pool.ByteRing
	cfg     *control.ConfigStore
	logger  *zap.Logger
	metrics *control.RingMetrics

	// spill is touched only by the Run goroutine.
	spill  *queue.Queue
	offset int64
	done   chan struct{}
}

// PumpOption configures a Pump.
type PumpOption func(*Pump)

// WithLogger sets the pump logger.
func WithLogger(l *zap.Logger) PumpOption {
	return func(p *Pump) {
		if l != nil {
			p.logger = l.Named("pump")
		}
	}
}

// WithMetrics sets the metrics the pump updates.
func WithMetrics(m *control.RingMetrics) PumpOption {
	return func(p *Pump) { p.metrics = m }
}

// NewPump creates a pump from src into ring. cfg is read on every chunk,
// so updates apply while Run is in progress.
func NewPump(src io.Reader, ring *pool.ByteRing, cfg *control.ConfigStore, opts ...PumpOption) *Pump {
	p := &Pump{
		src:    src,
		ring:   ring,
		cfg:    cfg,
		logger: zap.NewNop(),
		spill:  queue.New(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = control.NewRingMetrics(nil)
	}
	return p
}

// Done is closed when Run returns.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// Spilled returns the number of bytes waiting in the spill queue.
// Only meaningful after Done is closed.
func (p *Pump) Spilled() int {
	return p.spill.Length()
}

// Run pumps until src returns io.EOF, src fails, the policy escalates or
// ctx is done. io.EOF is not reported as an error. Run must be called once.
func (p *Pump) Run(ctx context.Context) error {
	defer close(p.done)
	cfg := p.cfg.Snapshot()
	backoff := concurrency.NewBackoff(cfg.MinBackoff, cfg.MaxBackoff)
	buf := make([]byte, cfg.ChunkSize)

	p.logger.Debug("pump started",
		zap.Int("capacity", p.ring.Capacity()),
		zap.String("policy", string(cfg.Policy)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg = p.cfg.Snapshot()
		if len(buf) != cfg.ChunkSize {
			buf = make([]byte, cfg.ChunkSize)
		}
		n, rerr := p.src.Read(buf)
		if n > 0 {
			if err := p.feed(ctx, buf[:n], cfg, backoff); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			err := p.flushSpill(ctx, backoff)
			p.logger.Debug("pump finished", zap.Int64("bytes", p.offset), zap.Error(err))
			return err
		}
		if rerr != nil {
			p.logger.Error("source read failed", zap.Int64("offset", p.offset), zap.Error(rerr))
			return errors.Wrap(rerr, "pump: reading source")
		}
	}
}

// feed applies cfg.Policy to every byte of chunk in order.
func (p *Pump) feed(ctx context.Context, chunk []byte, cfg control.PumpConfig, backoff *concurrency.Backoff) error {
	for _, c := range chunk {
		if err := p.put(ctx, c, cfg, backoff); err != nil {
			return err
		}
		p.offset++
	}
	return nil
}

func (p *Pump) put(ctx context.Context, c byte, cfg control.PumpConfig, backoff *concurrency.Backoff) error {
	if p.spill.Length() > 0 {
		p.drainSpill()
	}
	if p.spill.Length() == 0 {
		if err := p.ring.TryPut(c); err == nil {
			p.metrics.Puts.Inc()
			return nil
		}
		p.metrics.Rejected.Inc()
	}

	switch cfg.Policy {
	case control.PolicyDrop:
		p.metrics.Dropped.Inc()
		if ce := p.logger.Check(zap.DebugLevel, "byte dropped"); ce != nil {
			ce.Write(zap.Int64("offset", p.offset))
		}
		return nil

	case control.PolicySpill:
		if p.spill.Length() >= cfg.MaxSpill {
			p.logger.Warn("spill queue overflow",
				zap.Int("max_spill", cfg.MaxSpill), zap.Int64("offset", p.offset))
			return errors.Wrapf(ErrSpillOverflow, "pump: offset %d", p.offset)
		}
		p.spill.Add(c)
		p.metrics.Spilled.Inc()
		return nil

	case control.PolicyFail:
		return errors.Wrapf(api.ErrBufferFull, "pump: offset %d", p.offset)

	default: // control.PolicyRetry
		return p.retry(ctx, c, backoff)
	}
}

func (p *Pump) retry(ctx context.Context, c byte, backoff *concurrency.Backoff) error {
	// Bytes spilled under a previous policy go first.
	for {
		p.drainSpill()
		if p.spill.Length() == 0 {
			if err := p.ring.TryPut(c); err == nil {
				p.metrics.Puts.Inc()
				backoff.Reset()
				return nil
			}
		}
		if err := backoff.Wait(ctx, nil); err != nil {
			return err
		}
	}
}

// drainSpill moves spilled bytes into the ring until it fills up or the
// spill is empty.
func (p *Pump) drainSpill() {
	for p.spill.Length() > 0 {
		if err := p.ring.TryPut(p.spill.Peek().(byte)); err != nil {
			return
		}
		p.spill.Remove()
		p.metrics.Puts.Inc()
	}
}

// flushSpill waits until every spilled byte reached the ring.
func (p *Pump) flushSpill(ctx context.Context, backoff *concurrency.Backoff) error {
	for {
		p.drainSpill()
		if p.spill.Length() == 0 {
			return nil
		}
		if err := backoff.Wait(ctx, nil); err != nil {
			return err
		}
	}
}
