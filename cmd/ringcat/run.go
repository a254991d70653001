// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/momentics/hioload-ring/affinity"
	"github.com/momentics/hioload-ring/control"
	"github.com/momentics/hioload-ring/pool"
	"github.com/momentics/hioload-ring/stream"
)

func run(ctx context.Context, cfg control.Config, configPath string, stats bool, in io.Reader, out, errOut io.Writer) error {
	logger, err := newLogger(cfg.LogLevel, errOut)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ring, err := pool.NewByteRing(cfg.Capacity)
	if err != nil {
		return errors.Wrap(err, "creating ring")
	}
	metrics := control.NewRingMetrics(ring.Size)
	store, err := control.NewConfigStore(cfg.Pump)
	if err != nil {
		return err
	}
	store.OnReload(func(c control.PumpConfig) {
		logger.Info("pump config reloaded", zap.String("policy", string(c.Policy)))
	})

	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	probes.RegisterProbe("ring", func() any { return ring.State() })
	probes.RegisterProbe("metrics", func() any { return metrics.Snapshot() })

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if err := metrics.Register(reg); err != nil {
			return errors.Wrap(err, "registering metrics")
		}
		stopMetrics, err := serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if configPath != "" {
		go watchReload(ctx, configPath, ring.Capacity(), store, logger)
	}

	pump := stream.NewPump(in, ring, store, stream.WithLogger(logger), stream.WithMetrics(metrics))
	lr := stream.NewLineReader(ring, cfg.DelimiterByte(), cfg.LineLimit(), metrics)
	pumpErr := make(chan error, 1)
	go func() {
		defer pin("producer", cfg.ProducerCPU, logger)()
		pumpErr <- pump.Run(ctx)
	}()
	defer pin("consumer", cfg.ConsumerCPU, logger)()

	w := bufio.NewWriter(out)
	delim := cfg.DelimiterByte()
	err = stream.Drain(ctx, lr, pump.Done(), func(rec []byte, _ bool) error {
		if _, err := w.Write(rec); err != nil {
			return err
		}
		return w.WriteByte(delim)
	}, stream.DrainOptions{
		MinBackoff: cfg.Pump.MinBackoff,
		MaxBackoff: cfg.Pump.MaxBackoff,
		Logger:     logger,
	})
	if err != nil {
		// The pump may be blocked reading the source; do not wait for it.
		logger.Error("output failed", zap.Error(err))
		return errors.Wrap(err, "writing records")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flushing output")
	}

	perr := <-pumpErr
	if perr != nil {
		logger.Error("pump stopped", zap.Error(perr))
	}
	if stats {
		if err := writeStats(errOut, metrics.Snapshot(), probes); err != nil {
			return err
		}
	}
	return perr
}

// pin binds the calling goroutine to cpu when cpu >= 0. Failure is logged
// and the goroutine keeps running unpinned.
func pin(role string, cpu int, logger *zap.Logger) func() {
	if cpu < 0 {
		return func() {}
	}
	restore, err := affinity.Pin(cpu)
	if err != nil {
		logger.Warn("cpu pinning failed", zap.String("role", role), zap.Int("cpu", cpu), zap.Error(err))
		return func() {}
	}
	logger.Debug("cpu pinned", zap.String("role", role), zap.Int("cpu", cpu))
	return func() {
		if err := restore(); err != nil {
			logger.Warn("cpu unpinning failed", zap.String("role", role), zap.Error(err))
		}
	}
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core).Named("ringcat"), nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// watchReload reapplies the pump section of path on SIGHUP. Capacity is
// fixed for the ring lifetime, so a changed capacity is only reported.
func watchReload(ctx context.Context, path string, capacity int, store *control.ConfigStore, logger *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	defer signal.Stop(sig)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
		}
		cfg, err := control.LoadFile(path)
		if err != nil {
			logger.Warn("config reload failed", zap.Error(err))
			continue
		}
		if cfg.Capacity != capacity {
			logger.Warn("capacity change ignored until restart",
				zap.Int("current", capacity), zap.Int("configured", cfg.Capacity))
		}
		if err := store.Update(cfg.Pump); err != nil {
			logger.Warn("config reload rejected", zap.Error(err))
		}
	}
}

func writeStats(w io.Writer, snap control.MetricsSnapshot, probes *control.DebugProbes) error {
	_, err := fmt.Fprintf(w, "ringcat: %s buffered, %s records, %s dropped, %s truncated\n",
		humanize.Bytes(snap.Puts),
		humanize.Comma(int64(snap.Records)),
		humanize.Comma(int64(snap.Dropped)),
		humanize.Comma(int64(snap.Truncated)))
	if err != nil {
		return err
	}
	return probes.Dump(w)
}
