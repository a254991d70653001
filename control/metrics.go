// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Ring pipeline metrics, exported as Prometheus collectors.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	metricsNamespace = "hioload"
	metricsSubsystem = "ring"
)

// RingMetrics counts producer and consumer outcomes around one ring.
type RingMetrics struct {
	Puts      prometheus.Counter
	Rejected  prometheus.Counter
	Dropped   prometheus.Counter
	Spilled   prometheus.Counter
	Gets      prometheus.Counter
	Records   prometheus.Counter
	Truncated prometheus.Counter

	size prometheus.GaugeFunc
}

// MetricsSnapshot is a point-in-time copy of RingMetrics.
type MetricsSnapshot struct {
	Puts      uint64
	Rejected  uint64
	Dropped   uint64
	Spilled   uint64
	Gets      uint64
	Records   uint64
	Truncated uint64
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
	})
}

// NewRingMetrics creates the counters. sizeFn, when non-nil, backs the
// live size gauge.
func NewRingMetrics(sizeFn func() int) *RingMetrics {
	m := &RingMetrics{
		Puts:      newCounter("puts_total", "Bytes accepted by the ring"),
		Rejected:  newCounter("rejected_total", "Puts rejected because the ring was full"),
		Dropped:   newCounter("dropped_total", "Bytes discarded by the drop policy"),
		Spilled:   newCounter("spilled_total", "Bytes parked in the spill queue"),
		Gets:      newCounter("gets_total", "Bytes consumed from the ring"),
		Records:   newCounter("records_total", "Delimited records parsed from the ring"),
		Truncated: newCounter("truncated_total", "Records cut at the line limit"),
	}
	if sizeFn != nil {
		m.size = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "size",
			Help:      "Live bytes in the ring",
		}, func() float64 { return float64(sizeFn()) })
	}
	return m
}

func (m *RingMetrics) collectors() []prometheus.Collector {
	cs := []prometheus.Collector{
		m.Puts, m.Rejected, m.Dropped, m.Spilled, m.Gets, m.Records, m.Truncated,
	}
	if m.size != nil {
		cs = append(cs, m.size)
	}
	return cs
}

// Register registers every collector with reg.
func (m *RingMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the current counter values.
func (m *RingMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Puts:      counterValue(m.Puts),
		Rejected:  counterValue(m.Rejected),
		Dropped:   counterValue(m.Dropped),
		Spilled:   counterValue(m.Spilled),
		Gets:      counterValue(m.Gets),
		Records:   counterValue(m.Records),
		Truncated: counterValue(m.Truncated),
	}
}

func counterValue(c prometheus.Counter) uint64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return uint64(out.GetCounter().GetValue())
}
